package main

import (
	"crypto/sha256"
	"fmt"
	"testing"
)

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_documents.sql", true, 1, "create_documents"},
		{"0003_create_allocations.sql", true, 3, "create_allocations"},
		{"001_invalid.sql", false, 0, ""},        // wrong number format
		{"0001_test", false, 0, ""},              // missing .sql
		{"0001.sql", false, 0, ""},               // missing name
		{"invalid_0001_test.sql", false, 0, ""},  // wrong order
		{"0001_create_documents.sql.bak", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			matches := migrationFilePattern.FindStringSubmatch(tt.filename)
			if (matches != nil) != tt.valid {
				t.Fatalf("pattern match = %v, want valid=%v", matches != nil, tt.valid)
			}
			if !tt.valid {
				return
			}
			if got := matches[1]; got != fmt.Sprintf("%04d", tt.version) {
				t.Errorf("version part = %q, want %04d", got, tt.version)
			}
			if got := matches[2]; got != tt.name {
				t.Errorf("name part = %q, want %q", got, tt.name)
			}
		})
	}
}

func TestMigrationChecksumConsistency(t *testing.T) {
	content1 := []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.documents` (document_id STRING);")
	content2 := []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.documents` (document_id STRING);")
	content3 := []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.allocations` (allocation_id STRING);")

	sum := func(b []byte) string { return fmt.Sprintf("%x", sha256.Sum256(b)) }

	if sum(content1) != sum(content2) {
		t.Error("identical content produced different checksums")
	}
	if sum(content1) == sum(content3) {
		t.Error("different content produced the same checksum")
	}
}
