package snapshot

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkorpi/alexandria/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() *catalog.Catalog {
	c := catalog.New("3")
	c.Add(&catalog.Audiobook{
		Work: catalog.Work{
			ID:       "42",
			Title:    "Pride and Prejudice",
			Language: "English",
			Authors:  []catalog.Author{{ID: "3", FirstName: "Jane", LastName: "Austen"}},
			Genres:   []catalog.Genre{{ID: "7", Name: "Romance"}},
		},
		PageURL:    "https://librivox.org/pride-and-prejudice-by-jane-austen/",
		ArchiveURL: "https://archive.org/details/pride_prejudice",
		CoverURL:   "https://archive.org/download/pride_prejudice/cover.jpg",
		AudioURLs:  []string{"https://archive.org/download/pride_prejudice/book.m4b"},
		Sections: []catalog.Section{
			{
				Work:      catalog.Work{ID: "400", Title: "Chapter 1"},
				Number:    1,
				ListenURL: "https://archive.org/download/pride_prejudice/ch01.mp3",
				Playtime:  1800,
				Readers:   []catalog.Reader{{ID: "12", Name: "Karen Savage"}},
				BookID:    "42",
			},
		},
	})
	return c
}

func TestRoundTrip(t *testing.T) {
	orig := sampleCatalog()

	data, err := Marshal(orig)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)

	require.Equal(t, 1, got.Len())
	assert.Equal(t, "3", got.Version)

	b := got.Books[0]
	assert.Equal(t, "42", b.ID)
	assert.Equal(t, "Pride and Prejudice", b.Title)
	assert.Equal(t, catalog.Language("English"), b.Language)
	require.Len(t, b.Authors, 1)
	assert.Equal(t, "Austen", b.Authors[0].LastName)
	assert.Equal(t, orig.Books[0].AudioURLs, b.AudioURLs)
	require.Len(t, b.Sections, 1)
	assert.Equal(t, 1, b.Sections[0].Number)
	assert.Equal(t, "42", b.Sections[0].BookID)
	assert.Equal(t, "Karen Savage", b.Sections[0].Readers[0].Name)
}

func TestMarshalUsesWrapperElements(t *testing.T) {
	data, err := Marshal(sampleCatalog())
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "<books>")
	assert.Contains(t, text, "<authors><author>")
	assert.Contains(t, text, "<sections><section>")
	assert.Contains(t, text, "<audio-urls><url>")
	assert.Contains(t, text, `version="3"`)
}

func TestMarshalFormattedIsIndented(t *testing.T) {
	data, err := MarshalFormatted(sampleCatalog())
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(data), "\n  <books>"))
}

func TestWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build", "catalog-stage1.xml")

	require.NoError(t, Write(path, sampleCatalog()))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	assert.Equal(t, "42", got.Books[0].ID)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.xml"))
	assert.Error(t, err)
}
