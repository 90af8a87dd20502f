package datastore

import (
	"path/filepath"
	"testing"

	"github.com/mkorpi/alexandria/internal/catalog"
)

func testCatalog() *catalog.Catalog {
	cat := catalog.New("3")
	cat.Add(&catalog.Audiobook{
		Work: catalog.Work{
			ID:       "1",
			Title:    "Pride and Prejudice",
			Language: "English",
			Authors:  []catalog.Author{{ID: "7", FirstName: "Jane", LastName: "Austen"}},
			Genres:   []catalog.Genre{{ID: "g1", Name: "Romance"}},
		},
		PageURL:      "https://librivox.org/pride-and-prejudice/",
		ArchiveURL:   "https://archive.org/details/pp",
		AudioURLs:    []string{"https://archive.org/download/pp/pp.m4b"},
		Downloads:    1234,
		TotalSeconds: 3600,
		Sections:     []catalog.Section{{Number: 1}, {Number: 2}},
	})
	cat.Add(&catalog.Audiobook{
		Work:       catalog.Work{ID: "2", Title: "Emma"},
		PageURL:    "https://librivox.org/emma/",
		ArchiveURL: "https://archive.org/details/emma",
	})
	return cat
}

func TestSQLiteStore_ExportCatalog(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	store := NewSQLiteStore(dbPath)
	if err := store.Connect(); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.ExportCatalog(testCatalog()); err != nil {
		t.Fatalf("failed to export: %v", err)
	}

	rows, err := store.db.Query("SELECT id, title, authors, genres, sections, downloads FROM books ORDER BY id")
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	defer func() { _ = rows.Close() }()

	type row struct {
		id, title, authors, genres string
		sections, downloads        int
	}
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.title, &r.authors, &r.genres, &r.sections, &r.downloads); err != nil {
			t.Fatalf("failed to scan: %v", err)
		}
		got = append(got, r)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].authors != "Jane Austen" || got[0].genres != "Romance" {
		t.Errorf("unexpected first row: %+v", got[0])
	}
	if got[0].sections != 2 || got[0].downloads != 1234 {
		t.Errorf("unexpected first row counts: %+v", got[0])
	}
	if got[1].title != "Emma" {
		t.Errorf("unexpected second row: %+v", got[1])
	}
}

func TestSQLiteStore_ExportCatalogIsFullRebuild(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	store := NewSQLiteStore(dbPath)
	if err := store.Connect(); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.ExportCatalog(testCatalog()); err != nil {
		t.Fatalf("first export: %v", err)
	}

	smaller := catalog.New("3")
	smaller.Add(&catalog.Audiobook{Work: catalog.Work{ID: "9", Title: "Poems"}})
	if err := store.ExportCatalog(smaller); err != nil {
		t.Fatalf("second export: %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM books").Scan(&count); err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row after rebuild, got %d", count)
	}
}
