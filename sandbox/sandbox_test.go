// Copyright © 2025 The cinder authors

package sandbox

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSandbox(t *testing.T, mod ...func(*Config)) *Sandbox {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		Roots:       []string{filepath.Join(dir, "data"), filepath.Join(dir, "examples")},
		MaxFileSize: 1024,
		HTTPTimeout: 5 * time.Second,
	}
	for _, fn := range mod {
		fn(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewCreatesRoots(t *testing.T) {
	s := testSandbox(t)
	for _, root := range s.cfg.Roots {
		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	_, err := New(Config{})
	assert.EqualError(t, err, "sandbox requires at least one root directory")
}

func TestFileRoundTrip(t *testing.T) {
	s := testSandbox(t)
	require.NoError(t, s.WriteFile("notes/hello.txt", "hi there"))

	got, err := s.ReadFile("notes/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)

	ok, err := s.FileExists("notes/hello.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := s.FileSize("notes/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	stat, err := s.FileStat("notes/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", stat.Name)
	assert.Equal(t, int64(8), stat.Size)
	assert.False(t, stat.IsDir)
	_, err = time.Parse(time.RFC3339, stat.ModTime)
	assert.NoError(t, err)

	names, err := s.ListFiles("notes")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello.txt"}, names)
}

func TestReadTriesEachRoot(t *testing.T) {
	s := testSandbox(t)
	second := filepath.Join(s.cfg.Roots[1], "shared.txt")
	require.NoError(t, os.WriteFile(second, []byte("from second root"), 0644))

	got, err := s.ReadFile("shared.txt")
	require.NoError(t, err)
	assert.Equal(t, "from second root", got)

	// Writes always land in the first root.
	require.NoError(t, s.WriteFile("shared.txt", "shadow"))
	got, err = s.ReadFile("shared.txt")
	require.NoError(t, err)
	assert.Equal(t, "shadow", got)
}

func TestPathConfinement(t *testing.T) {
	s := testSandbox(t)
	for _, path := range []string{
		"/etc/passwd",
		"../outside.txt",
		"a/../../outside.txt",
		`..\outside.txt`,
		"",
	} {
		_, err := s.ReadFile(path)
		assert.EqualError(t, err, "Access denied: "+path+" is not in allowed paths", "path %q", path)
		err = s.WriteFile(path, "x")
		assert.Error(t, err, "path %q", path)
	}

	// Dot segments that stay inside the roots are fine.
	require.NoError(t, s.WriteFile("a/./b.txt", "ok"))
}

func TestMissingFile(t *testing.T) {
	s := testSandbox(t)
	_, err := s.ReadFile("no/such.txt")
	assert.EqualError(t, err, "File not found: no/such.txt")

	_, err = s.FileSize("no/such.txt")
	assert.EqualError(t, err, "File not found: no/such.txt")

	ok, err := s.FileExists("no/such.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteSizeLimit(t *testing.T) {
	s := testSandbox(t)
	big := make([]byte, 1025)
	err := s.WriteFile("big.bin", string(big))
	assert.EqualError(t, err, "File too large: 1025 bytes exceeds limit of 1024 bytes")

	require.NoError(t, s.WriteFile("fits.bin", string(big[:1024])))
}

func TestHTTPDisabledByDefault(t *testing.T) {
	s := testSandbox(t)
	_, err := s.HTTPRequest("GET", "http://example.com", "")
	assert.EqualError(t, err, "Network I/O is disabled. Use --allow-network to enable.")
}

func TestHTTPRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			w.WriteHeader(http.StatusCreated)
		}
		w.Write([]byte("pong"))
	}))
	defer srv.Close()

	s := testSandbox(t, func(cfg *Config) { cfg.HTTPEnabled = true })

	resp, err := s.HTTPRequest("GET", srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "pong", resp.Body)

	resp, err = s.HTTPRequest("POST", srv.URL, `{"k":1}`)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.Status)

	_, err = s.HTTPRequest("BREW", srv.URL, "")
	assert.EqualError(t, err, "Unsupported HTTP method: BREW")
}

func TestHTTPAllowList(t *testing.T) {
	s := testSandbox(t, func(cfg *Config) {
		cfg.HTTPEnabled = true
		cfg.HTTPAllowHosts = []string{"example.com"}
	})
	_, err := s.HTTPRequest("GET", "http://other.net/x", "")
	assert.EqualError(t, err, "Network address not allowed: http://other.net/x")
}

func TestDatabaseRoundTrip(t *testing.T) {
	s := testSandbox(t)
	handle, err := s.DBOpen("app.db")
	require.NoError(t, err)

	_, err = s.DBExec(handle, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)", nil)
	require.NoError(t, err)

	n, err := s.DBExec(handle, "INSERT INTO users (name) VALUES (?), (?)",
		[]interface{}{"ada", "grace"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := s.DBQuery(handle, "SELECT name FROM users ORDER BY id", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ada", rows[0]["name"])
	assert.Equal(t, "grace", rows[1]["name"])

	// The database file lands in the first root.
	_, err = os.Stat(filepath.Join(s.cfg.Roots[0], "app.db"))
	assert.NoError(t, err)

	require.NoError(t, s.DBClose(handle))
	assert.EqualError(t, s.DBClose(handle), "Unknown database handle: 1")
	_, err = s.DBExec(handle, "SELECT 1", nil)
	assert.EqualError(t, err, "Unknown database handle: 1")
}

func TestDatabaseErrors(t *testing.T) {
	s := testSandbox(t)
	handle, err := s.DBOpen("bad.db")
	require.NoError(t, err)
	defer s.DBClose(handle)

	_, err = s.DBExec(handle, "NOT REAL SQL", nil)
	assert.ErrorContains(t, err, "Execute error:")

	_, err = s.DBQuery(handle, "SELECT * FROM missing", nil)
	assert.ErrorContains(t, err, "Query error:")
}
