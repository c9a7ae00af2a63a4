// Copyright © 2025 The cinder authors

package lisp

// FileStat is the metadata record returned by the sandbox for file-stat.
type FileStat struct {
	Name    string
	Size    int64
	IsDir   bool
	ModTime string
}

// HTTPResponse is the sandbox's view of a completed HTTP exchange.
type HTTPResponse struct {
	Status int
	Body   string
}

// SandboxService is the narrow per-call interface behind the I/O
// builtins.  The evaluator core never performs I/O directly; builtins
// call this service and wrap its failures into IO errors.  Implementations
// enforce their own confinement policy (path allow-lists, network
// enablement) and return plain errors when a call is denied.
type SandboxService interface {
	ReadFile(path string) (string, error)
	WriteFile(path, data string) error
	FileExists(path string) (bool, error)
	FileSize(path string) (int64, error)
	FileStat(path string) (*FileStat, error)
	ListFiles(dir string) ([]string, error)

	HTTPRequest(method, url, body string) (*HTTPResponse, error)

	DBOpen(path string) (int64, error)
	DBClose(handle int64) error
	DBExec(handle int64, query string, params []interface{}) (int64, error)
	DBQuery(handle int64, query string, params []interface{}) ([]map[string]interface{}, error)
}
