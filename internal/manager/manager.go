// Package manager centralizes the usual chores of working with a local CoRe
// database mirror: aggregating run metadata, picking the best-quality run of
// each simulation, downloading only the data that run needs, and keeping a
// per-simulation strain cache on disk.
package manager

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mllorens/corewa/internal/coredb"
	"github.com/mllorens/corewa/internal/logging"
	"github.com/mllorens/corewa/internal/metadata"
	"github.com/mllorens/corewa/internal/strains"
)

// Manager owns the strain cache for one database directory and is its sole
// writer. The database itself is read-mostly; the only mutation issued to it
// is the best-effort archive cleanup after strain extraction.
type Manager struct {
	db     coredb.Database
	dbPath string
	cache  *strains.Store
	table  *metadata.Table
	eos    []string
	log    *slog.Logger
	trace  *logging.SyncLogger
}

// Open opens or creates the database at dbPath and initializes the manager:
// the existing strain cache is loaded, the metadata table is rebuilt from
// the database, and the EOS set is computed. A database that cannot be
// opened is fatal.
func Open(dbPath, server string, logger *slog.Logger, trace *logging.SyncLogger) (*Manager, error) {
	db, err := coredb.Open(dbPath, server)
	if err != nil {
		return nil, err
	}
	return NewWithDatabase(db, dbPath, logger, trace)
}

// NewWithDatabase builds a manager on an injected database. Tests use this
// with a fake Database.
func NewWithDatabase(db coredb.Database, dbPath string, logger *slog.Logger, trace *logging.SyncLogger) (*Manager, error) {
	if logger == nil {
		logger = logging.NewLogger("quiet", io.Discard)
	}

	cache, err := strains.Open(dbPath)
	if err != nil {
		return nil, err
	}

	rows, err := db.AllMetadata()
	if err != nil {
		return nil, fmt.Errorf("building metadata table: %w", err)
	}
	table, err := metadata.New(rows)
	if err != nil {
		return nil, err
	}

	eos, err := table.DistinctEOS()
	if err != nil {
		table.Close()
		return nil, err
	}

	return &Manager{
		db:     db,
		dbPath: dbPath,
		cache:  cache,
		table:  table,
		eos:    eos,
		log:    logger,
		trace:  trace,
	}, nil
}

// Close persists the strain cache and releases the metadata table.
func (m *Manager) Close() error {
	tableErr := m.table.Close()
	if err := m.cache.Close(); err != nil {
		return err
	}
	return tableErr
}

// Metadata returns the aggregate metadata table, one row per run.
func (m *Manager) Metadata() *metadata.Table { return m.table }

// Cache returns the strain cache store.
func (m *Manager) Cache() *strains.Store { return m.cache }

// EOS returns the distinct equation-of-state labels found across all
// simulations, computed at initialization.
func (m *Manager) EOS() []string { return m.eos }

// CountRuns counts the runs whose metadata satisfies every filter. No side
// effects.
func (m *Manager) CountRuns(filters []metadata.Filter) (int, error) {
	return m.table.CountRuns(filters)
}

// LoadSim reads back the cached strain table of a previously downloaded
// simulation.
func (m *Manager) LoadSim(key string) ([][]float64, error) {
	entry, ok := m.cache.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no downloaded strain", coredb.ErrSimulationNotFound, key)
	}
	return coredb.ReadStrainFile(entry.File)
}
