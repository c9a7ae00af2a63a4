// Copyright © 2025 The cinder authors

package lisp

import "fmt"

// Builtins backed by the sandbox service.  The evaluator core performs no
// I/O itself; every operation here goes through rt.Sandbox and wraps its
// failures into IO errors.

var sandboxBuiltins = []*langBuiltin{
	{"read-file", "(read-file path)",
		"Read a file inside the sandbox roots and return its contents as a string.",
		builtinReadFile},
	{"write-file", "(write-file path data)",
		"Write a string to a file inside the sandbox roots. Returns #t.",
		builtinWriteFile},
	{"file-exists?", "(file-exists? path)",
		"Return #t if the path exists inside the sandbox roots.",
		builtinFileExists},
	{"file-size", "(file-size path)",
		"Return the size of a file in bytes.",
		builtinFileSize},
	{"file-stat", "(file-stat path)",
		"Return {:name s :size n :dir? b :modified s} for a path.",
		builtinFileStat},
	{"list-files", "(list-files dir)",
		"Return the names of the entries in a sandboxed directory as a list of strings.",
		builtinListFiles},
	{"http-get", "(http-get url)",
		"Perform an HTTP GET and return the response body as a string. The network must be enabled in the sandbox configuration.",
		builtinHTTPGet},
	{"http-post", "(http-post url body)",
		"Perform an HTTP POST with the given body and return the response body as a string.",
		builtinHTTPPost},
	{"db:open", "(db:open spec)",
		"Open a database from a spec map like {:backend \"sqlite\" :path \"data/app.db\"}. Returns the spec with a :handle entry added.",
		builtinDBOpen},
	{"db:close", "(db:close conn)",
		"Close a database connection map. Returns #t.",
		builtinDBClose},
	{"db:exec", "(db:exec conn sql [params])",
		"Execute a statement and return the number of affected rows.",
		builtinDBExec},
	{"db:query", "(db:query conn sql [params])",
		"Run a query and return a list of row maps keyed by column name.",
		builtinDBQuery},
}

func sandboxFor(rt *Runtime, name string) (SandboxService, error) {
	if rt.Sandbox == nil {
		return nil, IOErrorf(name, "Sandbox not initialized")
	}
	return rt.Sandbox, nil
}

func builtinReadFile(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("read-file", ArityOne, len(args))
	}
	path, err := strArg("read-file", args, 0)
	if err != nil {
		return nil, err
	}
	sb, err := sandboxFor(rt, "read-file")
	if err != nil {
		return nil, err
	}
	data, ferr := sb.ReadFile(path)
	if ferr != nil {
		return nil, IOError("read-file", ferr)
	}
	return String(data), nil
}

func builtinWriteFile(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("write-file", ArityTwo, len(args))
	}
	path, err := strArg("write-file", args, 0)
	if err != nil {
		return nil, err
	}
	data, err := strArg("write-file", args, 1)
	if err != nil {
		return nil, err
	}
	sb, err := sandboxFor(rt, "write-file")
	if err != nil {
		return nil, err
	}
	if ferr := sb.WriteFile(path, data); ferr != nil {
		return nil, IOError("write-file", ferr)
	}
	return Bool(true), nil
}

func builtinFileExists(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("file-exists?", ArityOne, len(args))
	}
	path, err := strArg("file-exists?", args, 0)
	if err != nil {
		return nil, err
	}
	sb, err := sandboxFor(rt, "file-exists?")
	if err != nil {
		return nil, err
	}
	exists, ferr := sb.FileExists(path)
	if ferr != nil {
		return nil, IOError("file-exists?", ferr)
	}
	return Bool(exists), nil
}

func builtinFileSize(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("file-size", ArityOne, len(args))
	}
	path, err := strArg("file-size", args, 0)
	if err != nil {
		return nil, err
	}
	sb, err := sandboxFor(rt, "file-size")
	if err != nil {
		return nil, err
	}
	size, ferr := sb.FileSize(path)
	if ferr != nil {
		return nil, IOError("file-size", ferr)
	}
	return Number(float64(size)), nil
}

func builtinFileStat(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("file-stat", ArityOne, len(args))
	}
	path, err := strArg("file-stat", args, 0)
	if err != nil {
		return nil, err
	}
	sb, err := sandboxFor(rt, "file-stat")
	if err != nil {
		return nil, err
	}
	stat, ferr := sb.FileStat(path)
	if ferr != nil {
		return nil, IOError("file-stat", ferr)
	}
	return MapValue(map[string]*Value{
		"name":     String(stat.Name),
		"size":     Number(float64(stat.Size)),
		"dir?":     Bool(stat.IsDir),
		"modified": String(stat.ModTime),
	}), nil
}

func builtinListFiles(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("list-files", ArityOne, len(args))
	}
	dir, err := strArg("list-files", args, 0)
	if err != nil {
		return nil, err
	}
	sb, err := sandboxFor(rt, "list-files")
	if err != nil {
		return nil, err
	}
	names, ferr := sb.ListFiles(dir)
	if ferr != nil {
		return nil, IOError("list-files", ferr)
	}
	cells := make([]*Value, len(names))
	for i, name := range names {
		cells[i] = String(name)
	}
	return List(cells...), nil
}

func builtinHTTPGet(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("http-get", ArityOne, len(args))
	}
	url, err := strArg("http-get", args, 0)
	if err != nil {
		return nil, err
	}
	sb, err := sandboxFor(rt, "http-get")
	if err != nil {
		return nil, err
	}
	resp, herr := sb.HTTPRequest("GET", url, "")
	if herr != nil {
		return nil, IOError("http-get", herr)
	}
	return String(resp.Body), nil
}

func builtinHTTPPost(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 2 {
		return nil, ArityErrorf("http-post", ArityTwo, len(args))
	}
	url, err := strArg("http-post", args, 0)
	if err != nil {
		return nil, err
	}
	body, err := strArg("http-post", args, 1)
	if err != nil {
		return nil, err
	}
	sb, err := sandboxFor(rt, "http-post")
	if err != nil {
		return nil, err
	}
	resp, herr := sb.HTTPRequest("POST", url, body)
	if herr != nil {
		return nil, IOError("http-post", herr)
	}
	return String(resp.Body), nil
}

func builtinDBOpen(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("db:open", ArityOne, len(args))
	}
	spec, err := mapArg("db:open", args, 0)
	if err != nil {
		return nil, err
	}
	backend, ok := spec["backend"]
	if !ok || backend.Type != VString {
		return nil, IOErrorf("db:open", "Connection spec missing :backend key")
	}
	if backend.Str != "sqlite" {
		return nil, IOErrorf("db:open", "Unsupported database backend: %s", backend.Str)
	}
	path, ok := spec["path"]
	if !ok || path.Type != VString {
		return nil, IOErrorf("db:open", "SQLite connection spec missing :path key")
	}
	sb, err := sandboxFor(rt, "db:open")
	if err != nil {
		return nil, err
	}
	handle, derr := sb.DBOpen(path.Str)
	if derr != nil {
		return nil, IOError("db:open", derr)
	}
	conn := make(map[string]*Value, len(spec)+1)
	for k, v := range spec {
		conn[k] = v
	}
	conn["handle"] = Number(float64(handle))
	return MapValue(conn), nil
}

func connHandle(name string, args []*Value) (int64, error) {
	conn, err := mapArg(name, args, 0)
	if err != nil {
		return 0, err
	}
	handle, ok := conn["handle"]
	if !ok || handle.Type != VNumber {
		return 0, IOErrorf(name, "Connection map missing :handle key")
	}
	return int64(handle.Num), nil
}

func builtinDBClose(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) != 1 {
		return nil, ArityErrorf("db:close", ArityOne, len(args))
	}
	handle, err := connHandle("db:close", args)
	if err != nil {
		return nil, err
	}
	sb, err := sandboxFor(rt, "db:close")
	if err != nil {
		return nil, err
	}
	if derr := sb.DBClose(handle); derr != nil {
		return nil, IOError("db:close", derr)
	}
	return Bool(true), nil
}

func dbParams(name string, args []*Value) ([]interface{}, error) {
	if len(args) < 3 {
		return nil, nil
	}
	cells, err := listArg(name, args, 2)
	if err != nil {
		return nil, err
	}
	params := make([]interface{}, len(cells))
	for i, c := range cells {
		switch c.Type {
		case VNumber:
			if c.Num == float64(int64(c.Num)) {
				params[i] = int64(c.Num)
			} else {
				params[i] = c.Num
			}
		case VString:
			params[i] = c.Str
		case VBool:
			params[i] = c.Bool()
		case VNil:
			params[i] = nil
		default:
			return nil, TypeError(name, "number, string, bool, or nil parameter", c, i+1)
		}
	}
	return params, nil
}

func builtinDBExec(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, ArityErrorf("db:exec", ArityTwoOrThree, len(args))
	}
	handle, err := connHandle("db:exec", args)
	if err != nil {
		return nil, err
	}
	sql, err := strArg("db:exec", args, 1)
	if err != nil {
		return nil, err
	}
	params, err := dbParams("db:exec", args)
	if err != nil {
		return nil, err
	}
	sb, err := sandboxFor(rt, "db:exec")
	if err != nil {
		return nil, err
	}
	affected, derr := sb.DBExec(handle, sql, params)
	if derr != nil {
		return nil, IOError("db:exec", derr)
	}
	return Number(float64(affected)), nil
}

func builtinDBQuery(rt *Runtime, args []*Value) (*Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, ArityErrorf("db:query", ArityTwoOrThree, len(args))
	}
	handle, err := connHandle("db:query", args)
	if err != nil {
		return nil, err
	}
	sql, err := strArg("db:query", args, 1)
	if err != nil {
		return nil, err
	}
	params, err := dbParams("db:query", args)
	if err != nil {
		return nil, err
	}
	sb, err := sandboxFor(rt, "db:query")
	if err != nil {
		return nil, err
	}
	rows, derr := sb.DBQuery(handle, sql, params)
	if derr != nil {
		return nil, IOError("db:query", derr)
	}
	out := make([]*Value, len(rows))
	for i, row := range rows {
		m := make(map[string]*Value, len(row))
		for col, v := range row {
			m[col] = nativeToValue(v)
		}
		out[i] = MapValue(m)
	}
	return List(out...), nil
}

// nativeToValue maps a database scan result onto a lisp value.
func nativeToValue(v interface{}) *Value {
	switch x := v.(type) {
	case nil:
		return Nil()
	case bool:
		return Bool(x)
	case int64:
		return Number(float64(x))
	case float64:
		return Number(x)
	case string:
		return String(x)
	case []byte:
		return String(string(x))
	default:
		return String(fmt.Sprint(x))
	}
}
