package inmemory

import (
	"context"
	"testing"

	"github.com/dkagawa/budgetline/internal/jobs"
)

func TestStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	job := &jobs.ParseBudgetJob{
		JobID:      "job-1",
		DocumentID: "doc-1",
		Status:     jobs.JobStatusPending,
	}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.DocumentID != "doc-1" {
		t.Errorf("GetJob() DocumentID = %q, want %q", got.DocumentID, "doc-1")
	}

	// The store hands out copies, not shared pointers.
	got.Status = jobs.JobStatusFailed
	again, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if again.Status != jobs.JobStatusPending {
		t.Errorf("GetJob() after external mutation Status = %q, want %q", again.Status, jobs.JobStatusPending)
	}

	if _, err := store.GetJob(ctx, "missing"); err == nil {
		t.Error("GetJob(missing) error = nil, want error")
	}

	if err := store.SaveJob(ctx, &jobs.ParseBudgetJob{}); err == nil {
		t.Error("SaveJob() without JobID error = nil, want error")
	}
}

func TestStoreListJobs(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	seed := []*jobs.ParseBudgetJob{
		{JobID: "job-1", DocumentID: "doc-1", Status: jobs.JobStatusCompleted},
		{JobID: "job-2", DocumentID: "doc-1", Status: jobs.JobStatusFailed},
		{JobID: "job-3", DocumentID: "doc-2", Status: jobs.JobStatusCompleted},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob(%s) error = %v", j.JobID, err)
		}
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   int
	}{
		{name: "all", filter: jobs.JobFilter{}, want: 3},
		{name: "by document", filter: jobs.JobFilter{DocumentID: "doc-1"}, want: 2},
		{name: "by status", filter: jobs.JobFilter{Status: jobs.JobStatusCompleted}, want: 2},
		{name: "document and status", filter: jobs.JobFilter{DocumentID: "doc-1", Status: jobs.JobStatusFailed}, want: 1},
		{name: "limit", filter: jobs.JobFilter{Limit: 2}, want: 2},
		{name: "offset past end", filter: jobs.JobFilter{Offset: 5}, want: 0},
		{name: "no match", filter: jobs.JobFilter{DocumentID: "doc-9"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ListJobs() returned %d jobs, want %d", len(got), tt.want)
			}
		})
	}
}

func TestStoreUpdateJobStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if err := store.SaveJob(ctx, &jobs.ParseBudgetJob{JobID: "job-1", Status: jobs.JobStatusRunning}); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	if err := store.UpdateJobStatus(ctx, "job-1", jobs.JobStatusFailed, "parse exploded"); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != jobs.JobStatusFailed {
		t.Errorf("UpdateJobStatus() Status = %q, want %q", got.Status, jobs.JobStatusFailed)
	}
	if got.Error != "parse exploded" {
		t.Errorf("UpdateJobStatus() Error = %q, want %q", got.Error, "parse exploded")
	}

	if err := store.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); err == nil {
		t.Error("UpdateJobStatus(missing) error = nil, want error")
	}
}
