package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaa/songdl/internal/engine"
)

const (
	DefaultSearchURL = "https://www.youtube.com/results"
	WatchURLPrefix   = "https://www.youtube.com/watch?v="

	// videos-only filter
	searchFilter = "EgIQAQ%3D%3D"

	maxSearchPageBytes = 4 * 1024 * 1024
	defaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

var initialDataMarkers = []string{"var ytInitialData = ", `window["ytInitialData"] = `}

// Searcher resolves a free-text query to the top video on the YouTube
// results page.
type Searcher struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

func NewSearcher(client *http.Client) *Searcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Searcher{
		BaseURL:    DefaultSearchURL,
		HTTPClient: client,
		UserAgent:  defaultUserAgent,
	}
}

func (s *Searcher) Search(ctx context.Context, query string) (engine.SearchResult, error) {
	doc, err := s.fetchResultsPage(ctx, query)
	if err != nil {
		return engine.SearchResult{}, err
	}

	payload, ok := findInitialData(doc)
	if !ok {
		return engine.SearchResult{}, fmt.Errorf("ytInitialData not found in search response for %q", query)
	}

	video, found, err := firstVideoRenderer(payload)
	if err != nil {
		return engine.SearchResult{}, fmt.Errorf("decode search results for %q: %w", query, err)
	}
	if !found {
		return engine.SearchResult{}, fmt.Errorf("%w for %q", engine.ErrNoSearchResult, query)
	}

	return engine.SearchResult{
		Address: WatchURLPrefix + video.VideoID,
		Title:   video.title(),
	}, nil
}

func (s *Searcher) fetchResultsPage(ctx context.Context, query string) (*goquery.Document, error) {
	base := s.BaseURL
	if strings.TrimSpace(base) == "" {
		base = DefaultSearchURL
	}
	searchURL := base + "?search_query=" + url.QueryEscape(query) + "&sp=" + searchFilter

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	userAgent := s.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube search page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("youtube search page %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxSearchPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse youtube search page: %w", err)
	}
	return doc, nil
}

// findInitialData returns the JSON object assigned to ytInitialData in the
// first script that carries it.
func findInitialData(doc *goquery.Document) ([]byte, bool) {
	var payload []byte
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		for _, marker := range initialDataMarkers {
			idx := strings.Index(text, marker)
			if idx < 0 {
				continue
			}
			if obj := extractJSON([]byte(text[idx+len(marker):])); obj != nil {
				payload = obj
				return false
			}
		}
		return true
	})
	return payload, payload != nil
}

// extractJSON returns the complete JSON object starting at b[0] == '{'.
func extractJSON(b []byte) []byte {
	b = bytes.TrimLeft(b, " \t\r\n")
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

type textRuns struct {
	Runs []struct {
		Text string `json:"text"`
	} `json:"runs"`
	SimpleText string `json:"simpleText"`
}

type videoRenderer struct {
	VideoID string   `json:"videoId"`
	Title   textRuns `json:"title"`
}

func (v videoRenderer) title() string {
	if len(v.Title.Runs) > 0 {
		var b strings.Builder
		for _, run := range v.Title.Runs {
			b.WriteString(run.Text)
		}
		return b.String()
	}
	if v.Title.SimpleText != "" {
		return v.Title.SimpleText
	}
	return v.VideoID
}

// firstVideoRenderer walks the payload in document order and decodes the
// first videoRenderer that carries a video id.
func firstVideoRenderer(data []byte) (videoRenderer, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var inObject []bool
	expectKey := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return videoRenderer{}, false, nil
		}
		if err != nil {
			return videoRenderer{}, false, err
		}

		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				inObject = append(inObject, true)
				expectKey = true
				continue
			case '[':
				inObject = append(inObject, false)
				expectKey = false
				continue
			default:
				inObject = inObject[:len(inObject)-1]
			}
		case string:
			if expectKey {
				if v != "videoRenderer" {
					expectKey = false
					continue
				}
				var vr videoRenderer
				if err := dec.Decode(&vr); err != nil {
					return videoRenderer{}, false, err
				}
				if vr.VideoID != "" {
					return vr, true, nil
				}
			}
		}

		expectKey = len(inObject) > 0 && inObject[len(inObject)-1]
	}
}
