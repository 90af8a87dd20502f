package librivox

import (
	"strconv"
	"strings"

	"github.com/mkorpi/alexandria/internal/catalog"
)

// The record API serializes most numeric fields as strings, and older
// records omit fields newer ones carry. These structs mirror the wire
// shape; conversion to catalog records happens in toAudiobook.

type bookFeed struct {
	Books []apiBook `json:"books"`
	Error string    `json:"error"`
}

type authorFeed struct {
	Authors []apiAuthor `json:"authors"`
	Error   string      `json:"error"`
}

type apiBook struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	URLTextSource string       `json:"url_text_source"`
	Language      string       `json:"language"`
	CopyrightYear string       `json:"copyright_year"`
	URLRSS        string       `json:"url_rss"`
	URLZipFile    string       `json:"url_zip_file"`
	URLProject    string       `json:"url_project"`
	URLLibrivox   string       `json:"url_librivox"`
	URLIArchive   string       `json:"url_iarchive"`
	TotalTimeSecs int          `json:"totaltimesecs"`
	Authors       []apiAuthor  `json:"authors"`
	Genres        []apiGenre   `json:"genres"`
	Translators   []apiAuthor  `json:"translators"`
	Sections      []apiSection `json:"sections"`
}

type apiAuthor struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	DOB       string `json:"dob"`
	DOD       string `json:"dod"`
}

type apiGenre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type apiSection struct {
	ID            string      `json:"id"`
	SectionNumber string      `json:"section_number"`
	Title         string      `json:"title"`
	ListenURL     string      `json:"listen_url"`
	Language      string      `json:"language"`
	Playtime      string      `json:"playtime"`
	Readers       []apiReader `json:"readers"`
}

type apiReader struct {
	ReaderID    string `json:"reader_id"`
	DisplayName string `json:"display_name"`
}

func (b *apiBook) toAudiobook() *catalog.Audiobook {
	book := &catalog.Audiobook{
		Work: catalog.Work{
			ID:            b.ID,
			Title:         strings.TrimSpace(b.Title),
			Description:   strings.TrimSpace(b.Description),
			TextSourceURL: b.URLTextSource,
			Language:      catalog.Language(b.Language),
			CopyrightYear: b.CopyrightYear,
			Authors:       toAuthors(b.Authors),
			Genres:        toGenres(b.Genres),
			Translators:   toAuthors(b.Translators),
		},
		PageURL:      b.URLLibrivox,
		RSSURL:       b.URLRSS,
		ZipURL:       b.URLZipFile,
		ProjectURL:   b.URLProject,
		ArchiveURL:   b.URLIArchive,
		TotalSeconds: b.TotalTimeSecs,
	}
	for _, s := range b.Sections {
		book.Sections = append(book.Sections, catalog.Section{
			Work: catalog.Work{
				ID:       s.ID,
				Title:    strings.TrimSpace(s.Title),
				Language: catalog.Language(s.Language),
			},
			Number:    atoi(s.SectionNumber),
			ListenURL: s.ListenURL,
			Playtime:  atoi(s.Playtime),
			Readers:   toReaders(s.Readers),
			BookID:    b.ID,
		})
	}
	return book
}

func (a *apiAuthor) toAuthor() catalog.Author {
	return catalog.Author{
		ID:        a.ID,
		FirstName: strings.TrimSpace(a.FirstName),
		LastName:  strings.TrimSpace(a.LastName),
		BirthYear: a.DOB,
		DeathYear: a.DOD,
	}
}

func toAuthors(in []apiAuthor) []catalog.Author {
	var out []catalog.Author
	for i := range in {
		out = append(out, in[i].toAuthor())
	}
	return out
}

func toGenres(in []apiGenre) []catalog.Genre {
	var out []catalog.Genre
	for _, g := range in {
		out = append(out, catalog.Genre{ID: g.ID, Name: g.Name})
	}
	return out
}

func toReaders(in []apiReader) []catalog.Reader {
	var out []catalog.Reader
	for _, r := range in {
		out = append(out, catalog.Reader{ID: r.ReaderID, Name: strings.TrimSpace(r.DisplayName)})
	}
	return out
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
