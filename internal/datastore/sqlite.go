package datastore

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mkorpi/alexandria/internal/catalog"
	_ "modernc.org/sqlite"
)

const booksSchema = `CREATE TABLE IF NOT EXISTS books (
	id TEXT PRIMARY KEY,
	title TEXT,
	display_title TEXT,
	language TEXT,
	authors TEXT,
	genres TEXT,
	page_url TEXT,
	archive_url TEXT,
	cover_url TEXT,
	audio_urls TEXT,
	downloads INTEGER,
	total_seconds INTEGER,
	sections INTEGER,
	public_date TEXT
)`

// SQLiteStore implements the Store interface for local SQLite storage
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLiteStore instance
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
	}
}

// Connect opens a connection to the SQLite database
func (s *SQLiteStore) Connect() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return nil
}

// ExportCatalog replaces the books table contents with one row per
// catalog record. The export is a full rebuild; partial updates are
// not supported.
func (s *SQLiteStore) ExportCatalog(cat *catalog.Catalog) error {
	if err := s.createTable(booksSchema); err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM books"); err != nil {
		return fmt.Errorf("failed to clear books table: %w", err)
	}

	records := make([]map[string]any, 0, cat.Len())
	for _, book := range cat.Books {
		records = append(records, bookRow(book))
	}
	return s.batchInsert("books", records)
}

func bookRow(book *catalog.Audiobook) map[string]any {
	var authors []string
	for _, a := range book.Authors {
		authors = append(authors, strings.TrimSpace(a.FirstName+" "+a.LastName))
	}
	var genres []string
	for _, g := range book.Genres {
		genres = append(genres, g.Name)
	}
	return map[string]any{
		"id":            book.ID,
		"title":         book.Title,
		"display_title": book.DisplayTitle,
		"language":      string(book.Language),
		"authors":       strings.Join(authors, "; "),
		"genres":        strings.Join(genres, "; "),
		"page_url":      book.PageURL,
		"archive_url":   book.ArchiveURL,
		"cover_url":     book.CoverURL,
		"audio_urls":    strings.Join(book.AudioURLs, "; "),
		"downloads":     book.Downloads,
		"total_seconds": book.TotalSeconds,
		"sections":      len(book.Sections),
		"public_date":   book.PublicDate,
	}
}

// createTable creates a new table with the given schema if it doesn't exist
func (s *SQLiteStore) createTable(schema string) error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// batchInsert inserts multiple records into the specified table
func (s *SQLiteStore) batchInsert(table string, records []map[string]any) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback errors are expected once the transaction committed
		_ = tx.Rollback()
	}()

	var columns []string
	for col := range records[0] {
		columns = append(columns, col)
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "?"
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, record := range records {
		values := make([]any, len(columns))
		for i, col := range columns {
			values[i] = record[col]
		}

		if _, err := stmt.Exec(values...); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
