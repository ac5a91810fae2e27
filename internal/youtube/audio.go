package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

var ErrNoAudioStream = errors.New("no audio stream available")

// BestAudioFormat returns the highest-bitrate audio-only format.
func BestAudioFormat(formats ytdl.FormatList) (*ytdl.Format, error) {
	var best *ytdl.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}
	if best == nil {
		return nil, ErrNoAudioStream
	}
	return best, nil
}

// audioExt maps a MIME type such as `audio/mp4; codecs="mp4a.40.2"` to a file extension.
func audioExt(mime string) string {
	base, _, _ := strings.Cut(mime, ";")
	switch strings.TrimSpace(base) {
	case "audio/mp4":
		return "m4a"
	case "audio/webm":
		return "webm"
	default:
		return "audio"
	}
}

// DownloadAudio saves the best audio stream of videoURL as dir/audio.<ext>
// and returns the written path.
func DownloadAudio(ctx context.Context, videoURL, dir string) (string, error) {
	client := ytdl.Client{}
	video, err := client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return "", fmt.Errorf("resolve video: %w", err)
	}
	format, err := BestAudioFormat(video.Formats)
	if err != nil {
		return "", err
	}
	stream, _, err := client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("open audio stream: %w", err)
	}
	defer stream.Close()

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "audio."+audioExt(format.MimeType))
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, stream); err != nil {
		out.Close()
		return "", fmt.Errorf("download audio: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return path, nil
}
