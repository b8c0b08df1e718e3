// Package query turns file lines and playlist entries into search queries.
package query

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

const DefaultSuffix = "song"

// maxLineBytes bounds a single line of a query file.
const maxLineBytes = 1024 * 1024

// PlaylistLister enumerates the entry titles of a playlist.
type PlaylistLister interface {
	PlaylistTitles(ctx context.Context, playlistURL string) ([]string, error)
}

// Wrap quotes the trimmed text together with the suffix. Blank text still
// yields a query made of the suffix alone.
func Wrap(text string, suffix string) string {
	if strings.TrimSpace(suffix) == "" {
		suffix = DefaultSuffix
	}
	return `"` + strings.TrimSpace(text) + " " + suffix + `"`
}

func FromFile(path string, suffix string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open query file: %w", err)
	}
	defer file.Close()

	queries, err := FromReader(file, suffix)
	if err != nil {
		return nil, fmt.Errorf("read query file %s: %w", path, err)
	}
	return queries, nil
}

// FromReader wraps every line of r in order. Blank lines are kept.
func FromReader(r io.Reader, suffix string) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var queries []string
	for scanner.Scan() {
		queries = append(queries, Wrap(scanner.Text(), suffix))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return queries, nil
}

func FromPlaylist(ctx context.Context, lister PlaylistLister, playlistURL string, suffix string) ([]string, error) {
	titles, err := lister.PlaylistTitles(ctx, playlistURL)
	if err != nil {
		return nil, err
	}
	queries := make([]string, 0, len(titles))
	for _, title := range titles {
		queries = append(queries, Wrap(title, suffix))
	}
	return queries, nil
}
