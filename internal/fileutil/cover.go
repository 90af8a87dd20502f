package fileutil

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// ThumbnailWidth is the pixel width of generated thumbnails; height
// follows the source aspect ratio.
const ThumbnailWidth = 140

// CoverDownloadOptions holds options for downloading cover art.
type CoverDownloadOptions struct {
	// URL is the source URL of the cover image
	URL string
	// OutputDir is the directory where the cover will be saved
	OutputDir string
	// Filename is the name of the cover file (e.g., "Title - cover.jpg")
	Filename string
	// UpdateCovers forces re-downloading even if cover exists
	UpdateCovers bool
}

// CoverDownloadResult holds the result of a cover download operation.
type CoverDownloadResult struct {
	// Downloaded indicates if a new file was downloaded
	Downloaded bool
	// LocalPath is the full path to the downloaded cover
	LocalPath string
	// ThumbnailPath is the full path to the generated thumbnail, empty
	// when thumbnail generation was skipped
	ThumbnailPath string
}

// DownloadCover downloads one cover image into the covers directory and
// generates a resized thumbnail next to it. The download is skipped if
// the file already exists and UpdateCovers is false; the thumbnail is
// regenerated whenever the cover file is (re)written.
func DownloadCover(opts CoverDownloadOptions) (*CoverDownloadResult, error) {
	if opts.URL == "" {
		return nil, nil
	}

	coversDir := filepath.Join(opts.OutputDir, "covers")
	if err := os.MkdirAll(coversDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create covers directory: %w", err)
	}

	localPath := filepath.Join(coversDir, opts.Filename)
	result := &CoverDownloadResult{LocalPath: localPath}

	if FileExists(localPath) && !opts.UpdateCovers {
		slog.Debug("Cover already exists, skipping download", "path", localPath)
		return result, nil
	}

	client := &http.Client{Timeout: 30 * time.Second}

	resp, err := client.Get(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d downloading cover from %s", resp.StatusCode, opts.URL)
	}

	file, err := os.Create(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write cover file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close cover file: %w", err)
	}

	slog.Info("Downloaded cover", "path", localPath)
	result.Downloaded = true

	thumbPath, err := Thumbnail(localPath, ThumbnailWidth)
	if err != nil {
		slog.Warn("Thumbnail generation failed", "cover", localPath, "error", err)
		return result, nil
	}
	result.ThumbnailPath = thumbPath

	return result, nil
}

// Thumbnail resizes the image at srcPath to the given width, keeping
// the aspect ratio, and saves it next to the source with a " - thumb"
// suffix. Returns the thumbnail path.
func Thumbnail(srcPath string, width int) (string, error) {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open cover image: %w", err)
	}

	thumb := imaging.Resize(img, width, 0, imaging.Lanczos)

	ext := filepath.Ext(srcPath)
	thumbPath := strings.TrimSuffix(srcPath, ext) + " - thumb" + ext
	if err := imaging.Save(thumb, thumbPath); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return thumbPath, nil
}

// BuildCoverFilename creates a standard cover filename from a title.
// Returns: "Title - cover.jpg"
func BuildCoverFilename(title string) string {
	return SanitizeFilename(title) + " - cover.jpg"
}
