// Copyright © 2025 The cinder authors

package lisp_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/cinderlisp/cinder/lisptest"
	"github.com/cinderlisp/cinder/sandbox"
)

func testSandbox(t *testing.T, mod ...func(*sandbox.Config)) *sandbox.Sandbox {
	t.Helper()
	dir := t.TempDir()
	cfg := sandbox.Config{
		Roots:       []string{filepath.Join(dir, "data")},
		MaxFileSize: 1024,
		HTTPTimeout: 5 * time.Second,
	}
	for _, fn := range mod {
		fn(&cfg)
	}
	s, err := sandbox.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSandboxNotInitialized(t *testing.T) {
	tests := lisptest.TestSuite{
		{"no sandbox", lisptest.TestSequence{
			{`(read-file "x.txt")`, "read-file: Sandbox not initialized", ""},
			{`(write-file "x.txt" "data")`, "write-file: Sandbox not initialized", ""},
			{`(http-get "http://example.com")`, "http-get: Sandbox not initialized", ""},
			{`(db:open {:backend "sqlite" :path "x.db"})`, "db:open: Sandbox not initialized", ""},
		}},
	}
	lisptest.RunTestSuite(t, tests)
}

func TestFileBuiltins(t *testing.T) {
	tests := lisptest.TestSuite{
		{"file round trip", lisptest.TestSequence{
			{`(file-exists? "greeting.txt")`, "#f", ""},
			{`(write-file "greeting.txt" "hello")`, "#t", ""},
			{`(file-exists? "greeting.txt")`, "#t", ""},
			{`(read-file "greeting.txt")`, `"hello"`, ""},
			{`(file-size "greeting.txt")`, "5", ""},
			{`(list-files ".")`, `("greeting.txt")`, ""},
			{`(map-get (file-stat "greeting.txt") :name)`, `"greeting.txt"`, ""},
			{`(map-get (file-stat "greeting.txt") :size)`, "5", ""},
			{`(map-get (file-stat "greeting.txt") :dir?)`, "#f", ""},
		}},
		{"confinement", lisptest.TestSequence{
			{`(read-file "missing.txt")`, "read-file: File not found: missing.txt", ""},
			{`(read-file "/etc/passwd")`,
				"read-file: Access denied: /etc/passwd is not in allowed paths", ""},
			{`(write-file "../escape.txt" "x")`,
				"write-file: Access denied: ../escape.txt is not in allowed paths", ""},
			{`(read-file 42)`, "read-file: expected string, got number at argument 1", ""},
		}},
	}
	lisptest.RunTestSuiteOptions(t, tests, lisptest.Options{Sandbox: testSandbox(t)})
}

func TestHTTPBuiltins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			body := make([]byte, r.ContentLength)
			r.Body.Read(body)
			w.Write([]byte("posted:" + string(body)))
			return
		}
		w.Write([]byte("pong"))
	}))
	defer srv.Close()

	s := testSandbox(t, func(cfg *sandbox.Config) { cfg.HTTPEnabled = true })
	tests := lisptest.TestSuite{
		{"http", lisptest.TestSequence{
			{`(http-get "` + srv.URL + `")`, `"pong"`, ""},
			{`(http-post "` + srv.URL + `" "ping")`, `"posted:ping"`, ""},
		}},
	}
	lisptest.RunTestSuiteOptions(t, tests, lisptest.Options{Sandbox: s})

	disabled := lisptest.TestSuite{
		{"disabled", lisptest.TestSequence{
			{`(http-get "` + srv.URL + `")`,
				"http-get: Network I/O is disabled. Use --allow-network to enable.", ""},
		}},
	}
	lisptest.RunTestSuiteOptions(t, disabled, lisptest.Options{Sandbox: testSandbox(t)})
}

func TestDatabaseBuiltins(t *testing.T) {
	tests := lisptest.TestSuite{
		{"sqlite", lisptest.TestSequence{
			{`(define conn (db:open {:backend "sqlite" :path "app.db"}))`, "conn", ""},
			{`(map-get conn :handle)`, "1", ""},
			{`(db:exec conn "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)")`, "0", ""},
			{`(db:exec conn "INSERT INTO users (name) VALUES (?)" '("ada"))`, "1", ""},
			{`(db:exec conn "INSERT INTO users (name) VALUES (?)" '("grace"))`, "1", ""},
			{`(db:query conn "SELECT name FROM users WHERE id = ?" '(1))`,
				`({:name "ada"})`, ""},
			{`(db:query conn "SELECT name FROM users ORDER BY id")`,
				`({:name "ada"} {:name "grace"})`, ""},
			{`(db:close conn)`, "#t", ""},
			{`(db:exec conn "SELECT 1")`, "db:exec: Unknown database handle: 1", ""},
		}},
		{"bad specs", lisptest.TestSequence{
			{`(db:open {:path "x.db"})`, "db:open: Connection spec missing :backend key", ""},
			{`(db:open {:backend "postgres" :path "x.db"})`,
				"db:open: Unsupported database backend: postgres", ""},
			{`(db:open {:backend "sqlite"})`, "db:open: SQLite connection spec missing :path key", ""},
			{`(db:exec {:backend "sqlite"} "SELECT 1")`,
				"db:exec: Connection map missing :handle key", ""},
		}},
	}
	lisptest.RunTestSuiteOptions(t, tests, lisptest.Options{Sandbox: testSandbox(t)})
}
