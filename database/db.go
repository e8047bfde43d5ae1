package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MineRobber9000/sctrivia/models"
)

// DB handles all database operations. It holds only the score history;
// pending questions and the API session token are never persisted.
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes tables.
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err = createTables(db); err != nil {
		return nil, err
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// createTables creates the necessary tables if they don't exist.
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS answers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			correct BOOLEAN NOT NULL,
			timestamp INTEGER NOT NULL
		)
	`)
	return err
}

// RecordAnswer records one graded answer for a user.
func (db *DB) RecordAnswer(userID, category, difficulty string, correct bool) error {
	_, err := db.conn.Exec(
		"INSERT INTO answers (user_id, category, difficulty, correct, timestamp) VALUES (?, ?, ?, ?, ?)",
		userID, category, difficulty, correct, time.Now().Unix(),
	)
	return err
}

// UserStats retrieves statistics about the user's answers.
func (db *DB) UserStats(userID string) (models.ScoreStats, error) {
	var stats models.ScoreStats

	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM answers WHERE user_id = ? AND correct = 1",
		userID,
	).Scan(&stats.Correct)
	if err != nil {
		return stats, err
	}

	err = db.conn.QueryRow(
		"SELECT COUNT(*) FROM answers WHERE user_id = ? AND correct = 0",
		userID,
	).Scan(&stats.Incorrect)
	return stats, err
}
