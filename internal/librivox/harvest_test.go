package librivox

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkorpi/alexandria/internal/config"
	apperrors "github.com/mkorpi/alexandria/internal/errors"
	"github.com/mkorpi/alexandria/internal/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bookJSON = `{"books":[{"id":"%d","title":"Book %d","language":"English",
"url_librivox":"https://librivox.org/book-%d/",
"url_iarchive":"https://archive.org/details/book_%d",
"authors":[{"id":"3","first_name":"Jane","last_name":"Austen"}],
"sections":[{"id":"%d01","section_number":"1","title":"Chapter 1","playtime":"900",
"readers":[{"reader_id":"12","display_name":"Karen Savage"}]}]}]}`

const notFoundJSON = `{"error":"Audiobooks could not be found"}`

func testClient(t *testing.T, handler http.Handler) (*Client, *config.Settings) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	settings := &config.Settings{
		Version:           "1",
		StartID:           1,
		MaxID:             3,
		BookAPITemplate:   server.URL + "/api/books?id=%d",
		AuthorAPITemplate: server.URL + "/api/authors?id=%d",
	}
	return NewClient(fetch.New(1000), settings), settings
}

func recordHandler(notFoundIDs map[string]bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if notFoundIDs[id] {
			fmt.Fprint(w, notFoundJSON)
			return
		}
		var n int
		fmt.Sscanf(id, "%d", &n)
		fmt.Fprintf(w, bookJSON, n, n, n, n, n)
	})
}

func TestHarvestSkipsNotFound(t *testing.T) {
	// Identifier 2 has no record: the stage continues silently and the
	// result holds the two live records, sorted.
	api, settings := testClient(t, recordHandler(map[string]bool{"2": true}))

	cat, summary, err := Harvest(context.Background(), api, settings)
	require.NoError(t, err)

	require.Equal(t, 2, cat.Len())
	assert.Equal(t, "1", cat.Books[0].ID)
	assert.Equal(t, "3", cat.Books[1].ID)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Harvested)
	assert.Equal(t, 1, summary.NotFound)
	assert.Equal(t, 3, summary.HighestID)
}

func TestHarvestMapsRecordFields(t *testing.T) {
	api, settings := testClient(t, recordHandler(nil))
	settings.MaxID = 1

	cat, _, err := Harvest(context.Background(), api, settings)
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())

	b := cat.Books[0]
	assert.Equal(t, "Book 1", b.Title)
	assert.Equal(t, "https://librivox.org/book-1/", b.PageURL)
	assert.Equal(t, "https://archive.org/details/book_1", b.ArchiveURL)
	assert.Equal(t, "Austen", b.Authors[0].LastName)
	require.Len(t, b.Sections, 1)
	assert.Equal(t, 1, b.Sections[0].Number)
	assert.Equal(t, 900, b.Sections[0].Playtime)
	assert.Equal(t, "1", b.Sections[0].BookID)
	assert.Equal(t, "Karen Savage", b.Sections[0].Readers[0].Name)
}

func TestHarvestRespectsLimit(t *testing.T) {
	api, settings := testClient(t, recordHandler(nil))
	settings.MaxID = 100
	settings.Limit = 2

	cat, summary, err := Harvest(context.Background(), api, settings)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, 2, summary.Processed)
}

func TestHarvestSkipList(t *testing.T) {
	api, settings := testClient(t, recordHandler(nil))
	settings.SkipIDs = []int{2}

	cat, summary, err := Harvest(context.Background(), api, settings)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Processed)
}

func TestHarvestAbortsOnTransportError(t *testing.T) {
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls >= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, bookJSON, 1, 1, 1, 1, 1)
	})
	api, settings := testClient(t, handler)

	cat, summary, err := Harvest(context.Background(), api, settings)
	require.Error(t, err)
	assert.False(t, apperrors.IsNotFoundError(err))
	// Progress up to the failure is kept.
	assert.Equal(t, 1, cat.Len())
	assert.Equal(t, 1, summary.Harvested)
}

func TestHarvestInterrupted(t *testing.T) {
	api, settings := testClient(t, recordHandler(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Harvest(ctx, api, settings)
	require.Error(t, err)
	assert.True(t, apperrors.IsInterruptedError(err))
}

func TestAuthorLookup(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"authors":[{"id":"7","first_name":"Mark","last_name":"Twain"}]}`)
	})
	api, _ := testClient(t, handler)

	author, err := api.Author(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Twain", author.LastName)
	assert.Equal(t, "twain, mark", author.Key())
}

func TestAuthorNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"Authors could not be found"}`)
	})
	api, _ := testClient(t, handler)

	_, err := api.Author(context.Background(), "9999")
	assert.True(t, apperrors.IsNotFoundError(err))
}
