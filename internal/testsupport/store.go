package testsupport

import (
	"context"
	"testing"

	"lacquer/internal/config"
	"lacquer/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewBatchJob creates a queued batch job over the given item ids.
func NewBatchJob(t testing.TB, store *jobs.Store, badgeTypes []string, itemIDs ...string) *jobs.Job {
	t.Helper()

	job, err := store.Create(context.Background(), jobs.TypeBatch, badgeTypes, itemIDs, nil)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}
