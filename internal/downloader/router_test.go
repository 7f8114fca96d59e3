package downloader

import (
	"context"
	"testing"
)

type namedFetcher string

func (f namedFetcher) Download(_ context.Context, v Video) (*Result, error) {
	return &Result{Video: v, FilePath: string(f)}, nil
}

func TestRouter(t *testing.T) {
	router := &Router{Default: namedFetcher("ytdlp"), YouTube: namedFetcher("native")}

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "native"},
		{"https://youtu.be/dQw4w9WgXcQ", "native"},
		{"https://m.youtube.com/shorts/abc", "native"},
		{"https://www.tiktok.com/@user/video/1", "ytdlp"},
		{"not a url", "ytdlp"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			res, err := router.Download(context.Background(), Video{URL: tt.url})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.FilePath != tt.want {
				t.Errorf("routed to %s, want %s", res.FilePath, tt.want)
			}
		})
	}
}

func TestRouter_NoNative(t *testing.T) {
	router := &Router{Default: namedFetcher("ytdlp")}

	res, err := router.Download(context.Background(), Video{URL: "https://youtu.be/x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FilePath != "ytdlp" {
		t.Errorf("expected default fetcher, got %s", res.FilePath)
	}
}
