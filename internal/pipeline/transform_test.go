package pipeline_test

import (
	"testing"

	"github.com/rs/zerolog"

	infra "github.com/dkagawa/budgetline/internal/infra/bigquery"
	"github.com/dkagawa/budgetline/internal/pipeline"
	"github.com/dkagawa/budgetline/internal/veto"
)

func TestTransformDocumentVetoModes(t *testing.T) {
	tests := []struct {
		name            string
		mode            veto.Mode
		wantPostVeto    bool
		wantCollections []string
	}{
		{
			name:            "both keeps pre and post",
			mode:            veto.ModeBoth,
			wantPostVeto:    true,
			wantCollections: []string{infra.CollectionPreVeto, infra.CollectionPostVeto},
		},
		{
			name:            "apply stores only post",
			mode:            veto.ModeApply,
			wantPostVeto:    true,
			wantCollections: []string{infra.CollectionPostVeto},
		},
		{
			name:            "none skips veto processing",
			mode:            veto.ModeNone,
			wantPostVeto:    false,
			wantCollections: []string{infra.CollectionPreVeto},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, err := pipeline.TransformDocument([]byte(testBill), []byte(testVetoCSV), nil, pipeline.Options{
				VetoMode: tt.mode,
				Logger:   zerolog.Nop(),
			})
			if err != nil {
				t.Fatalf("TransformDocument() error = %v", err)
			}

			if got := cols.PostVeto != nil; got != tt.wantPostVeto {
				t.Errorf("PostVeto set = %v, want %v", got, tt.wantPostVeto)
			}

			snaps := cols.Snapshots()
			if len(snaps) != len(tt.wantCollections) {
				t.Fatalf("Snapshots() returned %d collections, want %d", len(snaps), len(tt.wantCollections))
			}
			for i, want := range tt.wantCollections {
				if snaps[i].Collection != want {
					t.Errorf("Snapshots()[%d].Collection = %q, want %q", i, snaps[i].Collection, want)
				}
			}
		})
	}
}

func TestTransformDocumentDefaultMode(t *testing.T) {
	cols, err := pipeline.TransformDocument([]byte(testBill), []byte(testVetoCSV), nil, pipeline.Options{
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("TransformDocument() error = %v", err)
	}

	if cols.VetoMode != veto.ModeBoth {
		t.Errorf("VetoMode = %q, want %q", cols.VetoMode, veto.ModeBoth)
	}
	if cols.PostVeto == nil {
		t.Error("PostVeto = nil, want records")
	}
	if got := len(cols.Snapshots()); got != 2 {
		t.Errorf("len(Snapshots()) = %d, want 2", got)
	}
}
