package downloader

import (
	"testing"

	"github.com/kkdai/youtube/v2"
)

func TestParseQualityNum(t *testing.T) {
	tests := []struct {
		quality  string
		expected int
	}{
		{"360p", 360},
		{"480p", 480},
		{"720p", 720},
		{"1080p", 1080},
		{"1440p", 1440},
		{"2160p", 2160},
		{"invalid", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.quality, func(t *testing.T) {
			result := parseQualityNum(tt.quality)
			if result != tt.expected {
				t.Errorf("parseQualityNum(%q) = %d, want %d", tt.quality, result, tt.expected)
			}
		})
	}
}

func testFormats() youtube.FormatList {
	return youtube.FormatList{
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, QualityLabel: "360p", AudioChannels: 2, Height: 360},
		{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, QualityLabel: "720p", AudioChannels: 2, Height: 720},
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, QualityLabel: "1080p", Height: 1080},
		{ItagNo: 248, MimeType: `video/webm; codecs="vp9"`, QualityLabel: "1080p", AudioChannels: 2, Height: 1080},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2},
	}
}

func TestMP4Formats(t *testing.T) {
	formats := mp4Formats(testFormats())

	if len(formats) != 2 {
		t.Fatalf("expected 2 mp4 formats with audio, got %d", len(formats))
	}
	if formats[0].QualityLabel != "360p" || formats[1].QualityLabel != "720p" {
		t.Errorf("expected formats sorted by quality, got %s, %s", formats[0].QualityLabel, formats[1].QualityLabel)
	}
}

func TestMP4Formats_NoAudio(t *testing.T) {
	formats := mp4Formats(youtube.FormatList{
		{MimeType: "video/mp4", QualityLabel: "1080p"},
		{MimeType: "video/mp4", QualityLabel: "480p"},
	})

	if len(formats) != 2 {
		t.Fatalf("expected video-only formats as fallback, got %d", len(formats))
	}
	if formats[0].QualityLabel != "480p" {
		t.Errorf("expected 480p first, got %s", formats[0].QualityLabel)
	}
}

func TestSelectFormat(t *testing.T) {
	tests := []struct {
		quality string
		want    string
	}{
		{"best", "720p"},
		{"", "720p"},
		{"worst", "360p"},
		{"360p", "360p"},
		{"1440p", "720p"},
	}

	for _, tt := range tests {
		t.Run(tt.quality, func(t *testing.T) {
			f := selectFormat(testFormats(), tt.quality)
			if f == nil {
				t.Fatal("expected a format")
			}
			if f.QualityLabel != tt.want {
				t.Errorf("selectFormat(%q) = %s, want %s", tt.quality, f.QualityLabel, tt.want)
			}
		})
	}
}

func TestSelectFormat_Empty(t *testing.T) {
	if f := selectFormat(nil, "best"); f != nil {
		t.Errorf("expected nil, got %+v", f)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name  string
		video Video
		want  string
	}{
		{
			name:  "plain",
			video: Video{ID: "abc", Author: "creator", UploadDate: "20260102", Title: "My video"},
			want:  "creator_20260102_My video.mp4",
		},
		{
			name:  "unsafe characters",
			video: Video{ID: "abc", Author: "a/b", UploadDate: "20260102", Title: "what? yes: no"},
			want:  "a_b_20260102_what_ yes_ no.mp4",
		},
		{
			name:  "missing fields",
			video: Video{ID: "abc"},
			want:  "NA_NA_abc.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fileName(tt.video, "mp4"); got != tt.want {
				t.Errorf("fileName() = %q, want %q", got, tt.want)
			}
		})
	}
}
