// Copyright © 2025 The cinder authors

// Package sandbox confines the interpreter's I/O builtins to a set of
// root directories and an optional network allow-list.
package sandbox

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cinderlisp/cinder/lisp"
)

// Config controls what the sandbox permits.
type Config struct {
	// Roots are the directories file operations may touch.  Reads try
	// each root in order; writes and databases always land in the
	// first root.
	Roots []string
	// MaxFileSize bounds the size of a write-file payload in bytes.
	MaxFileSize int64
	// HTTPEnabled gates all network builtins.
	HTTPEnabled bool
	// HTTPAllowHosts restricts URLs when non-empty.  A URL is allowed
	// when it contains any entry as a substring.
	HTTPAllowHosts []string
	// HTTPTimeout bounds each network request.
	HTTPTimeout time.Duration
}

// DefaultConfig returns the stock confinement policy.
func DefaultConfig() Config {
	return Config{
		Roots:       []string{"./data", "./examples", "./scripts"},
		MaxFileSize: 10 * 1024 * 1024,
		HTTPTimeout: 30 * time.Second,
	}
}

var _ lisp.SandboxService = &Sandbox{}

// Sandbox implements lisp.SandboxService over the local filesystem, an
// http client, and sqlite databases stored under the first root.
type Sandbox struct {
	cfg    Config
	client *http.Client

	mu         sync.Mutex
	nextHandle int64
	dbs        map[int64]*sqliteConn
}

// New creates the sandbox, creating any missing root directories.
func New(cfg Config) (*Sandbox, error) {
	if len(cfg.Roots) == 0 {
		return nil, fmt.Errorf("sandbox requires at least one root directory")
	}
	for _, root := range cfg.Roots {
		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, fmt.Errorf("Cannot create %s: %w", root, err)
		}
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	return &Sandbox{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		dbs:    make(map[int64]*sqliteConn),
	}, nil
}

// checkPath rejects absolute paths and parent traversals.  Paths are
// only ever interpreted relative to a sandbox root.
func (s *Sandbox) checkPath(path string) error {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\") {
		return fmt.Errorf("Access denied: %s is not in allowed paths", path)
	}
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return fmt.Errorf("Access denied: %s is not in allowed paths", path)
		}
	}
	return nil
}

// resolveRead returns the first root containing path, or the first
// root when no root has it so the caller reports a uniform error.
func (s *Sandbox) resolveRead(path string) string {
	for _, root := range s.cfg.Roots {
		full := filepath.Join(root, path)
		if _, err := os.Stat(full); err == nil {
			return full
		}
	}
	return filepath.Join(s.cfg.Roots[0], path)
}

func (s *Sandbox) resolveWrite(path string) string {
	return filepath.Join(s.cfg.Roots[0], path)
}

func (s *Sandbox) ReadFile(path string) (string, error) {
	if err := s.checkPath(path); err != nil {
		return "", err
	}
	b, err := os.ReadFile(s.resolveRead(path))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("File not found: %s", path)
	}
	if err != nil {
		return "", fmt.Errorf("Cannot read %s: %w", path, err)
	}
	return string(b), nil
}

func (s *Sandbox) WriteFile(path, data string) error {
	if err := s.checkPath(path); err != nil {
		return err
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		return fmt.Errorf("File too large: %d bytes exceeds limit of %d bytes",
			len(data), s.cfg.MaxFileSize)
	}
	full := s.resolveWrite(path)
	if dir := filepath.Dir(full); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("Cannot write %s: %w", path, err)
		}
	}
	if err := os.WriteFile(full, []byte(data), 0644); err != nil {
		return fmt.Errorf("Cannot write %s: %w", path, err)
	}
	return nil
}

func (s *Sandbox) FileExists(path string) (bool, error) {
	if err := s.checkPath(path); err != nil {
		return false, err
	}
	info, err := os.Stat(s.resolveRead(path))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("Cannot check %s: %w", path, err)
	}
	return !info.IsDir(), nil
}

func (s *Sandbox) FileSize(path string) (int64, error) {
	if err := s.checkPath(path); err != nil {
		return 0, err
	}
	info, err := os.Stat(s.resolveRead(path))
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("File not found: %s", path)
	}
	if err != nil {
		return 0, fmt.Errorf("Cannot stat %s: %w", path, err)
	}
	return info.Size(), nil
}

func (s *Sandbox) FileStat(path string) (*lisp.FileStat, error) {
	if err := s.checkPath(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(s.resolveRead(path))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("File not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("Cannot stat %s: %w", path, err)
	}
	return &lisp.FileStat{
		Name:    info.Name(),
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime().UTC().Format(time.RFC3339),
	}, nil
}

func (s *Sandbox) ListFiles(dir string) ([]string, error) {
	if err := s.checkPath(dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.resolveRead(dir))
	if err != nil {
		return nil, fmt.Errorf("Cannot list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

func (s *Sandbox) urlAllowed(url string) bool {
	if len(s.cfg.HTTPAllowHosts) == 0 {
		return true
	}
	for _, host := range s.cfg.HTTPAllowHosts {
		if strings.Contains(url, host) {
			return true
		}
	}
	return false
}

func (s *Sandbox) HTTPRequest(method, url, body string) (*lisp.HTTPResponse, error) {
	if !s.cfg.HTTPEnabled {
		return nil, fmt.Errorf("Network I/O is disabled. Use --allow-network to enable.")
	}
	if !s.urlAllowed(url) {
		return nil, fmt.Errorf("Network address not allowed: %s", url)
	}
	switch strings.ToUpper(method) {
	case "GET", "POST", "PUT", "DELETE", "PATCH", "HEAD":
	default:
		return nil, fmt.Errorf("Unsupported HTTP method: %s", method)
	}
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequest(strings.ToUpper(method), url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("HTTP %s failed: %w", method, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP %s failed: %w", method, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Failed to read response: %w", err)
	}
	return &lisp.HTTPResponse{Status: resp.StatusCode, Body: string(respBody)}, nil
}

// Close shuts down any database connections still open.
func (s *Sandbox) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for handle, conn := range s.dbs {
		if err := conn.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.dbs, handle)
	}
	return firstErr
}
