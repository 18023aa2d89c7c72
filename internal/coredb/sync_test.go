package coredb

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// buildArchive assembles an in-memory tar.gz from name -> content pairs.
func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newArchiveServer(t *testing.T, archives map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := archives[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSync(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"R01/metadata.txt":             "id_eccentricity = 0.01\n",
		"R01/data/Rh_l2_m2_r00400.txt": "0 1 2 3 4 5 6 7 8\n",
		"R01/data.h5":                  "binary payload",
		"metadata_main.txt":            "id_eos = SLy\n",
	})
	srv := newArchiveServer(t, map[string][]byte{
		"/archive/THC_0001.tar.gz": archive,
	})

	root := t.TempDir()
	db, err := Open(root, srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.Sync(context.Background(), "THC:0001", SyncOptions{}); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	for _, rel := range []string{
		"THC_0001/metadata_main.txt",
		"THC_0001/R01/metadata.txt",
		"THC_0001/R01/data/Rh_l2_m2_r00400.txt",
		"THC_0001/R01/data.h5",
	} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			t.Errorf("missing %s after sync: %v", rel, err)
		}
	}

	sim, err := db.Load("THC:0001")
	if err != nil {
		t.Fatalf("Load() after sync error = %v", err)
	}
	if len(sim.Runs) != 1 || sim.Runs[0].Key != "R01" {
		t.Errorf("unexpected runs after sync: %+v", sim.Runs)
	}
}

func TestSyncLFSVariant(t *testing.T) {
	archive := buildArchive(t, map[string]string{"R01/metadata.txt": "id_eccentricity = 0\n"})
	srv := newArchiveServer(t, map[string][]byte{
		"/lfs/THC_0001.tar.gz": archive,
	})

	db, err := Open(t.TempDir(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.Sync(context.Background(), "THC:0001", SyncOptions{LFS: true}); err != nil {
		t.Fatalf("Sync(LFS) error = %v", err)
	}
	if err := db.Sync(context.Background(), "THC:0001", SyncOptions{}); err == nil {
		t.Error("Sync() without LFS should miss the LFS-only archive")
	}
}

func TestSyncUnknownKey(t *testing.T) {
	srv := newArchiveServer(t, nil)

	db, err := Open(t.TempDir(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	err = db.Sync(context.Background(), "THC:9999", SyncOptions{})
	if !errors.Is(err, ErrSimulationNotFound) {
		t.Errorf("Sync() error = %v, want ErrSimulationNotFound", err)
	}
}

func TestSyncRejectsTraversal(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"../evil.txt": "escape",
	})
	srv := newArchiveServer(t, map[string][]byte{
		"/archive/THC_0001.tar.gz": archive,
	})

	root := t.TempDir()
	db, err := Open(root, srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.Sync(context.Background(), "THC:0001", SyncOptions{}); err == nil {
		t.Fatal("Sync() should reject archive entries escaping the target")
	}
	if _, err := os.Stat(filepath.Join(root, "evil.txt")); !os.IsNotExist(err) {
		t.Error("traversal entry was written outside the simulation directory")
	}
}

func TestSyncNoServer(t *testing.T) {
	db, err := Open(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Sync(context.Background(), "THC:0001", SyncOptions{}); err == nil {
		t.Error("Sync() without a configured server should fail")
	}
}

func TestSyncBadProtocol(t *testing.T) {
	db, err := Open(t.TempDir(), "example.org")
	if err != nil {
		t.Fatal(err)
	}
	err = db.Sync(context.Background(), "THC:0001", SyncOptions{Protocol: "gopher"})
	if err == nil {
		t.Error("Sync() with unsupported protocol should fail")
	}
}
