package acquire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestIsURL(t *testing.T) {
	cases := map[string]bool{
		"https://example.com/firmware.zip": true,
		"http://example.com/firmware.zip":  true,
		"/local/path/firmware.zip":          false,
		"firmware.zip":                      false,
	}
	for path, want := range cases {
		if got := IsURL(path); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestResolveLocalPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "firmware.zip")
	if err := os.WriteFile(path, []byte("fake zip"), 0644); err != nil {
		t.Fatal(err)
	}

	got, cleanup, err := Resolve(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if got != path {
		t.Errorf("Resolve local path = %q, want %q", got, path)
	}
}

func TestResolveLocalPathMissing(t *testing.T) {
	_, _, err := Resolve(context.Background(), "/nonexistent/path/firmware.zip")
	if err == nil {
		t.Fatal("expected error for missing local path")
	}
}

func TestResolveDownloadsURL(t *testing.T) {
	want := []byte("fake zip contents")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(want)
	}))
	defer srv.Close()

	path, cleanup, err := Resolve(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Errorf("downloaded content = %q, want %q", got, want)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cleanup should have removed the temp file")
	}
}

func TestResolveRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := Resolve(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
