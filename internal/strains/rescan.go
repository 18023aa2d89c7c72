package strains

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mllorens/corewa/internal/coredb"
)

var strainFilePattern = regexp.MustCompile(`^Rh_l2_m2_r(Inf|[0-9]{5})\.txt$`)

// Rescan rebuilds the cache mapping from strain files already present in the
// database directory, for indexes written by older tools or lost index
// files. For each simulation the strain with the highest extraction radius
// wins. Files whose metadata cannot be read are skipped and recorded in
// LoadErrors. The rebuilt mapping replaces the current one.
func (s *Store) Rescan() error {
	files, err := filepath.Glob(filepath.Join(s.dbPath, "*", "*", "Rh_l2_m2_r*.txt"))
	if err != nil {
		return fmt.Errorf("scanning for strain files: %w", err)
	}
	sort.Strings(files)

	entries := make(map[string]Entry)
	s.LoadErrors = nil
	for _, file := range files {
		runDir := filepath.Dir(file)
		simDir := filepath.Dir(runDir)
		simName := filepath.Base(simDir)
		if strings.HasPrefix(simName, ".") {
			continue
		}

		m := strainFilePattern.FindStringSubmatch(filepath.Base(file))
		if m == nil {
			continue
		}
		radius := math.Inf(1)
		if m[1] != "Inf" {
			radius, _ = coredb.ParseFloat(m[1])
		}

		key := coredb.DecodeKey(simName)
		// Keep only the highest extraction radius per simulation; ties go to
		// the first file in sorted order.
		if prev, ok := entries[key]; ok && !(radius > prev.RExtraction) {
			continue
		}

		ecc, err := readEccentricity(filepath.Join(runDir, "metadata.txt"))
		if err != nil {
			s.LoadErrors = append(s.LoadErrors, LoadError{Path: file, Error: err.Error()})
			continue
		}

		entries[key] = Entry{
			RunKey:       filepath.Base(runDir),
			File:         file,
			Eccentricity: ecc,
			RExtraction:  radius,
		}
	}

	s.entries = entries
	s.dirty = true
	return nil
}

// readEccentricity pulls the id_eccentricity value out of a run's
// metadata.txt. An unparseable value is NaN; a missing field or file is an
// error.
func readEccentricity(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "id_eccentricity") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			break
		}
		value := fields[len(fields)-1]
		if value == "=" {
			return math.NaN(), nil
		}
		ecc, err := coredb.ParseFloat(value)
		if err != nil {
			return math.NaN(), nil
		}
		return ecc, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("no id_eccentricity in %s", path)
}
