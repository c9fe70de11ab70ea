package testsupport

import (
	"testing"

	"voicecast/internal/config"
	"voicecast/internal/results"
)

// MustOpenResults opens the results store for tests and registers cleanup.
func MustOpenResults(t testing.TB, cfg *config.Config) *results.Store {
	t.Helper()

	store, err := results.Open(cfg.Paths.ResultsDB)
	if err != nil {
		t.Fatalf("results.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
