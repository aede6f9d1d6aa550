package testsupport

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteMemoryDB opens an in-memory sqlite database. Distinct names give
// isolated databases; reusing a name shares one store across connections. An
// empty name yields a private database bound to a single connection.
func NewSQLiteMemoryDB(name string) (*sql.DB, error) {
	if name == "" {
		db, err := sql.Open("sqlite3", ":memory:")
		if err != nil {
			return nil, err
		}
		// A private :memory: database lives on a single connection; a second
		// pooled connection would see an empty schema.
		db.SetMaxOpenConns(1)
		return db, nil
	}
	return sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}
