// Package coredb provides access to a local mirror of the CoRe numerical
// relativity database: per-simulation directories holding run metadata,
// waveform extraction channels and the raw HDF5 archives synchronized from
// the upstream server.
package coredb

import (
	"context"
	"errors"
)

// Sentinel errors returned by Database implementations.
var (
	// ErrSimulationNotFound indicates an unknown simulation key.
	ErrSimulationNotFound = errors.New("simulation not found")

	// ErrRunNotFound indicates an unknown run key within a simulation.
	ErrRunNotFound = errors.New("run not found")

	// ErrChannelNotFound indicates a waveform channel with no data on disk,
	// typically because the simulation was never synchronized.
	ErrChannelNotFound = errors.New("channel data not found")
)

// SyncOptions are passed through unchanged to the upstream server when
// synchronizing a simulation. Their exact meaning is owned by the server.
type SyncOptions struct {
	// Protocol selects the transfer scheme, "https" (default) or "http".
	Protocol string

	// LFS requests the LFS-backed archive variant.
	LFS bool
}

// RunMetadata is one row of the aggregate metadata view: a single run of a
// single simulation with its raw metadata fields. Values are kept as the
// textual form found in metadata.txt; use ParseFloat for numeric fields.
type RunMetadata struct {
	DatabaseKey         string `csv:"database_key"`
	RunKey              string `csv:"run"`
	EOS                 string `csv:"id_eos"`
	Eccentricity        string `csv:"id_eccentricity"`
	Mass                string `csv:"id_mass"`
	RestMass            string `csv:"id_rest_mass"`
	MassRatio           string `csv:"id_mass_ratio"`
	ADMMass             string `csv:"id_ADM_mass"`
	ADMAngularMomentum  string `csv:"id_ADM_angularmomentum"`
	GWFrequencyHz       string `csv:"id_gw_frequency_Hz"`
	GWFrequencyMomega22 string `csv:"id_gw_frequency_Momega22"`
	Kappa2T             string `csv:"id_kappa2T"`
	Lambda              string `csv:"id_Lambda"`
	MassStarA           string `csv:"id_mass_starA"`
	RestMassStarA       string `csv:"id_rest_mass_starA"`
	MassStarB           string `csv:"id_mass_starB"`
	RestMassStarB       string `csv:"id_rest_mass_starB"`
}

// Database is the narrow contract the manager depends on. LocalDatabase is
// the production implementation; tests inject fakes.
type Database interface {
	// Keys returns all simulation keys known locally, sorted.
	Keys() []string

	// AllMetadata returns one row per run across all known simulations.
	AllMetadata() ([]RunMetadata, error)

	// Sync materializes the local archive for a single simulation.
	Sync(ctx context.Context, key string, opts SyncOptions) error

	// Load returns the on-disk representation of a simulation.
	Load(key string) (*Simulation, error)

	// ArchivePath returns the local directory holding the simulation's
	// synchronized archive. The path may not exist yet.
	ArchivePath(key string) string

	// RemoveArchives deletes the bulky HDF5 payloads (and the upstream .git
	// directory) of a synchronized simulation, keeping metadata and any
	// extracted text strains.
	RemoveArchives(key string) error
}
