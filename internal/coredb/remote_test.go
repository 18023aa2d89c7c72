package coredb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteKeys(t *testing.T) {
	index := `<html><body><h1>Index of /archive</h1><ul>
<li><a href="../">Parent Directory</a></li>
<li><a href="THC_0001.tar.gz">THC_0001.tar.gz</a></li>
<li><a href="./BAM_0002.tar.gz">BAM_0002.tar.gz</a></li>
<li><a href="THC_0001.tar.gz">THC_0001.tar.gz</a></li>
<li><a href="notes.txt">notes.txt</a></li>
<li><a href="sub/OTHER_0001.tar.gz">nested</a></li>
</ul></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/archive/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(index))
	}))
	defer srv.Close()

	db, err := Open(t.TempDir(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	keys, err := db.RemoteKeys(context.Background(), SyncOptions{})
	if err != nil {
		t.Fatalf("RemoteKeys() error = %v", err)
	}

	want := []string{"BAM:0002", "THC:0001"}
	if len(keys) != len(want) {
		t.Fatalf("RemoteKeys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("RemoteKeys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestRemoteKeysServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	db, err := Open(t.TempDir(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.RemoteKeys(context.Background(), SyncOptions{}); err == nil {
		t.Error("RemoteKeys() should fail on server error")
	}
}
