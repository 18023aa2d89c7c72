package manager

import (
	"errors"
	"fmt"
	"math"

	"github.com/mllorens/corewa/internal/coredb"
)

// ErrNoValidExtraction indicates a channel where every extraction point
// lacks a defined radius. Callers must not default the radius or skip
// silently.
var ErrNoValidExtraction = errors.New("no extraction point with a defined radius")

// RunLowestEccentricity finds the run with the lowest eccentricity for a
// given simulation and returns its key together with the eccentricity value.
// Runs are scanned in natural order; an exact tie goes to the first run
// attaining the minimum. A run with undefined (NaN) eccentricity is never a
// candidate for the minimum; only when every run is NaN does the scan fall
// back to the first run, reporting NaN.
func (m *Manager) RunLowestEccentricity(key string) (string, float64, error) {
	sim, err := m.db.Load(key)
	if err != nil {
		return "", 0, err
	}
	return lowestEccentricityRun(sim)
}

// lowestEccentricityRun is the selection fold behind RunLowestEccentricity.
// It is deliberately an index-tracked scan, not a sort, so the
// first-occurrence tie-break is explicit.
func lowestEccentricityRun(sim *coredb.Simulation) (string, float64, error) {
	if len(sim.Runs) == 0 {
		return "", 0, fmt.Errorf("simulation %s has no runs", sim.Key)
	}

	bestIdx := -1
	bestEcc := math.NaN()
	for i, run := range sim.Runs {
		ecc, err := run.Eccentricity()
		if err != nil {
			return "", 0, fmt.Errorf("run %s/%s: %w", sim.Key, run.Key, err)
		}
		if math.IsNaN(ecc) {
			continue
		}
		if bestIdx < 0 || ecc < bestEcc {
			bestIdx = i
			bestEcc = ecc
		}
	}

	if bestIdx < 0 {
		// Every eccentricity is undefined.
		return sim.Runs[0].Key, math.NaN(), nil
	}
	return sim.Runs[bestIdx].Key, bestEcc, nil
}

// highestRExtraction returns the extraction point with the largest radius.
// Undefined (NaN) radii are excluded; an infinite radius wins outright and
// short-circuits the scan. Ties, finite or infinite, go to the first entry
// in slice order.
func highestRExtraction(extractions []coredb.Extraction) (coredb.Extraction, error) {
	bestIdx := -1
	for i, ext := range extractions {
		if math.IsInf(ext.Radius, 1) {
			return extractions[i], nil
		}
		if math.IsNaN(ext.Radius) {
			continue
		}
		if bestIdx < 0 || ext.Radius > extractions[bestIdx].Radius {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return coredb.Extraction{}, ErrNoValidExtraction
	}
	return extractions[bestIdx], nil
}
