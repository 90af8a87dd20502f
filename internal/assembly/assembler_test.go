package assembly

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mkorpi/alexandria/internal/catalog"
	"github.com/mkorpi/alexandria/internal/config"
	"github.com/mkorpi/alexandria/internal/fetch"
	"github.com/mkorpi/alexandria/internal/fileutil"
	"github.com/mkorpi/alexandria/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipelineServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	base := server.URL

	bookJSON := fmt.Sprintf(`{"books":[{
		"id":"1","title":"Pride and Prejudice","language":"English",
		"url_librivox":"%s/pride-and-prejudice/",
		"url_iarchive":"%s/details/pp",
		"totaltimesecs":3600,
		"authors":[{"id":"7","first_name":"Jane","last_name":"Austen"}],
		"genres":[{"id":"g77","name":"Romance"}],
		"sections":[{"id":"s1","section_number":"1","title":"Chapter 1","playtime":"600"}]
	}]}`, base, base)

	mux.HandleFunc("/api/books", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "1" {
			fmt.Fprint(w, bookJSON)
			return
		}
		fmt.Fprint(w, `{"error":"Audiobooks could not be found"}`)
	})

	mux.HandleFunc("/pride-and-prejudice/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<a class="download-cover" href="%s/covers/pp-cover.jpg">Download cover</a>
		</body></html>`, base)
	})

	mux.HandleFunc("/details/pp", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"identifier":"pp",
			"title":"wrong sibling title",
			"publicdate":"2009-01-01 00:00:00",
			"downloads":1234,
			"description":"A reading of the novel.",
			"metadata":{"title":"Pride and Prejudice (version 2)"},
			"files":{
				"/ch01.mp3":{"format":"64Kbps MP3","source":"original"},
				"/cover.jpg":{"format":"JPEG","source":"original"}
			}
		}`)
	})

	mux.HandleFunc("/wiki/m4b", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body><ul class="gallery">
			<li class="gallerybox">
				<a href="%s/pride-and-prejudice">Pride and Prejudice</a>
				<a href="%s/download/pp/pp.m4b">m4b</a>
			</li>
			<li class="gallerybox">
				<a href="%s/download/orphan/orphan.m4b">orphan</a>
			</li>
		</ul></body></html>`, base, base, base)
	})

	return server
}

func pipelineSettings(t *testing.T, base string) *config.Settings {
	t.Helper()
	return &config.Settings{
		Version:            "3",
		ProjectDir:         t.TempDir(),
		CurrBuild:          "build-b",
		StartID:            1,
		MaxID:              2,
		CatalogDomain:      "127.0.0.1",
		ArchiveDomain:      "127.0.0.1",
		BookAPITemplate:    base + "/api/books?id=%d&format=json",
		AuthorAPITemplate:  base + "/api/authors?id=%d&format=json",
		ArchiveAPITemplate: "%s?output=json",
		WikiPages:          []string{base + "/wiki/m4b"},
		PageURLBlocklist:   []string{"/forum"},
		VariousAuthorID:    "18",
		RequestsPerSecond:  100,
	}
}

func TestAssembleCatalogEndToEnd(t *testing.T) {
	server := pipelineServer(t)
	base := server.URL
	settings := pipelineSettings(t, base)

	asm, err := New(settings, fetch.New(100))
	require.NoError(t, err)

	final, err := asm.AssembleCatalog(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, final.Len())
	book := final.Books[0]

	assert.Equal(t, "1", book.ID)
	assert.Equal(t, "Pride and Prejudice", book.Title)
	assert.Equal(t, "Pride and Prejudice (version 2)", book.DisplayTitle,
		"archive metadata supplies the display title")
	assert.Equal(t, 1234, book.Downloads)
	assert.Equal(t, "2009-01-01 00:00:00", book.PublicDate)
	assert.Equal(t, base+"/download/pp/cover.jpg", book.CoverURL,
		"archive cover replaces the page cover")
	assert.Equal(t, []string{base + "/download/pp/pp.m4b"}, book.AudioURLs,
		"audio links arrive via the wiki merge")

	require.Len(t, book.Sections, 1)
	assert.Equal(t, base+"/download/pp/ch01.mp3", book.Sections[0].ListenURL)
	assert.Equal(t, []catalog.Author{{ID: "7", FirstName: "Jane", LastName: "Austen"}},
		book.Sections[0].Authors, "book authors propagate to sections")

	for _, stage := range []int{1, 2, 3, 4, 7} {
		path := filepath.Join(asm.BuildDir(), fmt.Sprintf("catalog-stage%d.xml", stage))
		assert.True(t, fileutil.FileExists(path), "missing stage %d snapshot", stage)
	}
	assert.True(t, fileutil.FileExists(filepath.Join(asm.BuildDir(), "catalog.xml")))
}

func TestAssembleCatalogResumesFromSnapshots(t *testing.T) {
	settings := pipelineSettings(t, "http://127.0.0.1:1")

	cat := catalog.New("3")
	cat.Add(&catalog.Audiobook{
		Work:       catalog.Work{ID: "1", Title: "Emma", Authors: []catalog.Author{{ID: "7", LastName: "Austen"}}},
		PageURL:    "https://librivox.org/emma/",
		ArchiveURL: "https://archive.org/details/emma",
	})

	links := catalog.New("3")
	links.Add(&catalog.Audiobook{
		PageURL:   "http://www.librivox.org/emma",
		AudioURLs: []string{"https://archive.org/download/emma/emma.m4b"},
	})

	buildDir := filepath.Join(settings.ProjectDir, settings.CurrBuild)
	for _, stage := range []int{1, 2, 3} {
		require.NoError(t, snapshot.Write(
			filepath.Join(buildDir, fmt.Sprintf("catalog-stage%d.xml", stage)), cat))
	}
	require.NoError(t, snapshot.Write(filepath.Join(buildDir, "catalog-stage4.xml"), links))

	asm, err := New(settings, fetch.New(100))
	require.NoError(t, err)

	// The fetcher points at a closed port; success proves every stage
	// resumed from its snapshot instead of touching the network.
	final, err := asm.AssembleCatalog(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, final.Len())
	book := final.Books[0]
	assert.Equal(t, []string{"https://archive.org/download/emma/emma.m4b"}, book.AudioURLs)
	assert.Equal(t, "Uncategorized", book.Genres[0].Name, "default genre applied during finalization")
}

func TestAssembleDeltaWithoutPreviousBuild(t *testing.T) {
	server := pipelineServer(t)
	settings := pipelineSettings(t, server.URL)

	asm, err := New(settings, fetch.New(100))
	require.NoError(t, err)

	_, err = asm.AssembleCatalog(context.Background())
	require.NoError(t, err)

	delta, err := asm.AssembleDelta()
	require.NoError(t, err)

	assert.Equal(t, 1, delta.Len(), "with no previous build every record is new")
	assert.True(t, fileutil.FileExists(filepath.Join(asm.BuildDir(), "delta.xml")))
}

func TestAssembleDeltaAgainstPreviousBuild(t *testing.T) {
	settings := pipelineSettings(t, "http://127.0.0.1:1")
	settings.PrevBuild = "build-a"

	book := func(id, cover string) *catalog.Audiobook {
		return &catalog.Audiobook{
			Work:       catalog.Work{ID: id, Title: "Title " + id},
			PageURL:    "https://librivox.org/" + id + "/",
			ArchiveURL: "https://archive.org/details/" + id,
			CoverURL:   cover,
		}
	}

	prev := catalog.New("3")
	prev.Add(book("1", "https://archive.org/download/1/cover.jpg"))
	prev.Add(book("2", ""))

	curr := catalog.New("3")
	curr.Add(book("1", "https://archive.org/download/1/cover-v2.jpg"))
	curr.Add(book("2", ""))
	curr.Add(book("3", ""))

	prevDir := filepath.Join(settings.ProjectDir, settings.PrevBuild)
	currDir := filepath.Join(settings.ProjectDir, settings.CurrBuild)
	require.NoError(t, snapshot.Write(filepath.Join(prevDir, "catalog-stage7.xml"), prev))
	require.NoError(t, snapshot.Write(filepath.Join(currDir, "catalog-stage7.xml"), curr))

	asm, err := New(settings, fetch.New(100))
	require.NoError(t, err)

	delta, err := asm.AssembleDelta()
	require.NoError(t, err)

	var ids []string
	for _, b := range delta.Books {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"1", "3"}, ids, "cover change and new record are included")

	settings.KeepCovers = true
	delta, err = asm.AssembleDelta()
	require.NoError(t, err)
	ids = nil
	for _, b := range delta.Books {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"3"}, ids, "cover-only changes are suppressed")
}
