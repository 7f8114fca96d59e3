package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/kkdai/youtube/v2"
)

// YouTube downloads YouTube videos natively, without the yt-dlp executable
type YouTube struct {
	client    youtube.Client
	outputDir string
	quality   string
	log       *log.Helper
}

// NewYouTube creates a native YouTube Fetcher. quality is a label such as
// "720p", or "best"/"worst".
func NewYouTube(outputDir, quality string, logger log.Logger) *YouTube {
	return &YouTube{
		client:    youtube.Client{},
		outputDir: outputDir,
		quality:   quality,
		log:       log.NewHelper(log.With(logger, "module", "downloader/youtube")),
	}
}

// Download saves the selected rendition into the output directory
func (d *YouTube) Download(ctx context.Context, v Video) (*Result, error) {
	id, err := youtube.ExtractVideoID(v.URL)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Message: "Invalid video URL", Err: err}
	}

	video, err := d.client.GetVideoContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}

	format := selectFormat(video.Formats, d.quality)
	if format == nil {
		return nil, fmt.Errorf("no mp4 formats found for %s", id)
	}

	stream, _, err := d.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	defer stream.Close()

	if err := os.MkdirAll(d.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	meta := Video{
		ID:     video.ID,
		URL:    "https://www.youtube.com/watch?v=" + video.ID,
		Title:  video.Title,
		Author: video.Author,
		Views:  int64(video.Views),
	}
	if !video.PublishDate.IsZero() {
		meta.UploadDate = video.PublishDate.UTC().Format("20060102")
		meta.Timestamp = video.PublishDate.Unix()
	}
	meta = meta.merge(v)

	path := filepath.Join(d.outputDir, fileName(meta, "mp4"))
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, stream); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to download video: %w", err)
	}

	d.log.Infof("downloaded %s (%s) to %s", meta.ID, format.QualityLabel, path)
	return &Result{Video: meta, FilePath: path}, nil
}

// mp4Formats returns mp4 formats with a quality label, preferring those with audio
func mp4Formats(all youtube.FormatList) youtube.FormatList {
	formats := all.WithAudioChannels()
	if len(formats) == 0 {
		formats = all
	}

	result := make(youtube.FormatList, 0, len(formats))
	for _, f := range formats {
		if !strings.Contains(f.MimeType, "video/mp4") || f.QualityLabel == "" {
			continue
		}
		result = append(result, f)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return parseQualityNum(result[i].QualityLabel) < parseQualityNum(result[j].QualityLabel)
	})
	return result
}

func selectFormat(all youtube.FormatList, quality string) *youtube.Format {
	formats := mp4Formats(all)
	if len(formats) == 0 {
		return nil
	}

	switch quality {
	case "worst":
		return &formats[0]
	case "", "best":
		return &formats[len(formats)-1]
	}

	for i := range formats {
		if formats[i].QualityLabel == quality {
			return &formats[i]
		}
	}
	return &formats[len(formats)-1]
}

func parseQualityNum(quality string) int {
	var num int
	fmt.Sscanf(quality, "%dp", &num)
	return num
}

var unsafeChars = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", "\n", " ",
)

// fileName mirrors the yt-dlp output template uploader_date_title.ext
func fileName(v Video, ext string) string {
	title := []rune(strings.TrimSpace(unsafeChars.Replace(v.Title)))
	if len(title) > 100 {
		title = title[:100]
	}
	if len(title) == 0 {
		title = []rune(v.ID)
	}

	author := unsafeChars.Replace(v.Author)
	if author == "" {
		author = "NA"
	}
	date := v.UploadDate
	if date == "" {
		date = "NA"
	}
	return fmt.Sprintf("%s_%s_%s.%s", author, date, string(title), ext)
}
