package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaa/songdl/internal/engine"
	"github.com/jaa/songdl/internal/transcode"
	ytclient "github.com/kkdai/youtube/v2"
)

const partialSuffix = ".part"

// VideoClient is the part of the kkdai client the downloader needs.
type VideoClient interface {
	GetVideoContext(ctx context.Context, url string) (*ytclient.Video, error)
	GetStreamContext(ctx context.Context, video *ytclient.Video, format *ytclient.Format) (io.ReadCloser, int64, error)
	GetPlaylistContext(ctx context.Context, url string) (*ytclient.Playlist, error)
}

type Downloader struct {
	Client VideoClient
}

func NewDownloader(httpClient *http.Client) *Downloader {
	return &Downloader{Client: &ytclient.Client{HTTPClient: httpClient}}
}

// DownloadAudio saves the first audio-only stream of the video at address into
// dir and returns the file path. Nothing is left in dir when it fails.
func (d *Downloader) DownloadAudio(ctx context.Context, address string, dir string) (string, error) {
	video, err := d.Client.GetVideoContext(ctx, address)
	if err != nil {
		return "", fmt.Errorf("fetch video info: %w", err)
	}

	format := firstAudioFormat(video.Formats)
	if format == nil {
		return "", fmt.Errorf("%w for: %s", engine.ErrNoAudioStream, video.Title)
	}

	stream, _, err := d.Client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("open audio stream: %w", err)
	}
	defer stream.Close()

	ext := "." + mimeToExt(format.MimeType)
	target := filepath.Join(dir, transcode.SanitizeFilenameFor(video.Title, ext+partialSuffix)+ext)
	if err := writeStream(stream, target); err != nil {
		return "", err
	}
	return target, nil
}

func writeStream(stream io.Reader, target string) (err error) {
	temp := target + partialSuffix
	file, err := os.Create(temp)
	if err != nil {
		return fmt.Errorf("create download file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(temp)
		}
	}()

	if _, err = io.Copy(file, stream); err != nil {
		_ = file.Close()
		return fmt.Errorf("download audio stream: %w", err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("close download file: %w", err)
	}
	if err = os.Rename(temp, target); err != nil {
		return fmt.Errorf("finalize download file: %w", err)
	}
	return nil
}

// PlaylistTitles lists the entry titles of a playlist in playlist order.
func (d *Downloader) PlaylistTitles(ctx context.Context, playlistURL string) ([]string, error) {
	playlist, err := d.Client.GetPlaylistContext(ctx, playlistURL)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	if playlist == nil {
		return nil, errors.New("fetch playlist: empty response")
	}
	titles := make([]string, 0, len(playlist.Videos))
	for _, entry := range playlist.Videos {
		if entry == nil {
			continue
		}
		titles = append(titles, entry.Title)
	}
	return titles, nil
}

func firstAudioFormat(formats ytclient.FormatList) *ytclient.Format {
	for i := range formats {
		if strings.HasPrefix(strings.ToLower(formats[i].MimeType), "audio/") {
			return &formats[i]
		}
	}
	return nil
}

func mimeToExt(mime string) string {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	parts := strings.Split(strings.TrimSpace(mime), "/")
	if len(parts) != 2 || parts[1] == "" {
		return "bin"
	}
	switch parts[1] {
	case "mp4":
		return "m4a"
	case "3gpp":
		return "3gp"
	default:
		return parts[1]
	}
}
