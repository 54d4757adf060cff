// Package testutil provides shared test fixtures for packages that train
// or persist swarms.
package testutil

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/banshee-data/gridswarm/internal/swarm"
)

// TwoPiDomain returns n axes spanning [0, 2π).
func TwoPiDomain(n int) []swarm.Limit {
	limits := make([]swarm.Limit, n)
	for i := range limits {
		limits[i] = swarm.Limit{Low: 0, High: 2 * math.Pi}
	}
	return limits
}

// NewSwarm builds an 8×8 swarm over TwoPiDomain(2) with default learning
// parameters, failing the test on error.
func NewSwarm(t testing.TB) *swarm.Swarm {
	t.Helper()
	s, err := swarm.NewSwarm([]int{8, 8}, TwoPiDomain(2), swarm.DefaultLearningRate, swarm.DefaultMomentum)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

// TempDBPath returns a fresh SQLite path inside the test's temp dir.
func TempDBPath(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "gridswarm.db")
}
