// Package sqlite implements the repository interfaces on SQLite via the
// pure-Go modernc.org/sqlite driver, so no C toolchain is needed to build.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool. Users and Blogs hand out the repository
// implementations sharing the pool. The server owns the lifecycle: New
// opens it, Close runs during graceful shutdown.
type DB struct {
	conn *sql.DB
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserStore {
	return &UserStore{conn: db.conn}
}

// Blogs returns the blog repository backed by this database.
func (db *DB) Blogs() *BlogStore {
	return &BlogStore{conn: db.conn}
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL keeps reads concurrent with writes; foreign keys are off by
	// default in SQLite and we rely on blogs.doctor_id → users.id.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	// Email uniqueness is case-insensitive: the column carries NOCASE
	// collation, so the UNIQUE constraint itself enforces it.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			first_name    TEXT NOT NULL DEFAULT '',
			last_name     TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'patient',
			profile_image TEXT NOT NULL DEFAULT '',
			address_line1 TEXT NOT NULL DEFAULT '',
			city          TEXT NOT NULL DEFAULT '',
			state         TEXT NOT NULL DEFAULT '',
			pincode       TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS blogs (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			summary    TEXT NOT NULL DEFAULT '',
			category   TEXT NOT NULL DEFAULT '',
			image_url  TEXT NOT NULL DEFAULT '',
			is_draft   INTEGER NOT NULL DEFAULT 0,
			doctor_id  TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_blogs_created_at ON blogs(created_at);
		CREATE INDEX IF NOT EXISTS idx_blogs_doctor_id ON blogs(doctor_id);
		CREATE INDEX IF NOT EXISTS idx_blogs_category ON blogs(category);
	`)
	if err != nil {
		return fmt.Errorf("creating blogs table: %w", err)
	}

	return nil
}
