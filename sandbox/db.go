// Copyright © 2025 The cinder authors

package sandbox

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// sqliteConn serializes access to one open database file.
type sqliteConn struct {
	mu sync.Mutex
	db *sql.DB
}

// DBOpen opens (or creates) a sqlite database under the first sandbox
// root and returns a handle for later calls.
func (s *Sandbox) DBOpen(path string) (int64, error) {
	if err := s.checkPath(path); err != nil {
		return 0, err
	}
	db, err := sql.Open(driverName, s.resolveWrite(path))
	if err != nil {
		return 0, fmt.Errorf("Cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return 0, fmt.Errorf("Cannot open database: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHandle++
	handle := s.nextHandle
	s.dbs[handle] = &sqliteConn{db: db}
	return handle, nil
}

// DBClose closes the database behind handle.  Closing an unknown
// handle is an error.
func (s *Sandbox) DBClose(handle int64) error {
	s.mu.Lock()
	conn, ok := s.dbs[handle]
	delete(s.dbs, handle)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("Unknown database handle: %d", handle)
	}
	return conn.db.Close()
}

func (s *Sandbox) conn(handle int64) (*sqliteConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.dbs[handle]
	if !ok {
		return nil, fmt.Errorf("Unknown database handle: %d", handle)
	}
	return conn, nil
}

// DBExec runs a statement and returns the number of rows affected.
func (s *Sandbox) DBExec(handle int64, query string, params []interface{}) (int64, error) {
	conn, err := s.conn(handle)
	if err != nil {
		return 0, err
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	res, err := conn.db.Exec(query, params...)
	if err != nil {
		return 0, fmt.Errorf("Execute error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("Execute error: %w", err)
	}
	return n, nil
}

// DBQuery runs a query and returns each row as a column-name map.
func (s *Sandbox) DBQuery(handle int64, query string, params []interface{}) ([]map[string]interface{}, error) {
	conn, err := s.conn(handle)
	if err != nil {
		return nil, err
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	rows, err := conn.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("Query error: %w", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("Query error: %w", err)
	}
	var result []map[string]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("Query error: %w", err)
		}
		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Query error: %w", err)
	}
	return result, nil
}
