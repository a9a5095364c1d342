package gcsuploader

import (
	"strings"
	"testing"
)

func TestExtractFilenameFromGCSURI(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "nested object path",
			uri:  "gs://budgetline-docs/documents/2025/07/01/hb300-cd1.txt",
			want: "hb300-cd1.txt",
		},
		{
			name: "single level object",
			uri:  "gs://budgetline-docs/vetoes.csv",
			want: "vetoes.csv",
		},
		{
			name: "bucket only",
			uri:  "gs://budgetline-docs",
			want: "budgetline-docs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFilenameFromGCSURI(tt.uri)
			if got != tt.want {
				t.Errorf("ExtractFilenameFromGCSURI(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		})
	}
}

func TestDocumentObjectName(t *testing.T) {
	got := DocumentObjectName("/tmp/staging/hb300-cd1.txt")

	if !strings.HasPrefix(got, "documents/") {
		t.Errorf("DocumentObjectName() = %q, want documents/ prefix", got)
	}
	if !strings.HasSuffix(got, "-hb300-cd1.txt") {
		t.Errorf("DocumentObjectName() = %q, want -hb300-cd1.txt suffix", got)
	}

	other := DocumentObjectName("/tmp/staging/hb300-cd1.txt")
	if got == other {
		t.Errorf("DocumentObjectName() repeated call produced the same object name %q", got)
	}
}

func TestArtifactObjectName(t *testing.T) {
	got := ArtifactObjectName("run-123", "allocations.csv")
	want := "artifacts/run-123/allocations.csv"
	if got != want {
		t.Errorf("ArtifactObjectName() = %q, want %q", got, want)
	}

	got = ArtifactObjectName("run-123", "/tmp/out/diagnostics.json")
	want = "artifacts/run-123/diagnostics.json"
	if got != want {
		t.Errorf("ArtifactObjectName() = %q, want %q", got, want)
	}
}
