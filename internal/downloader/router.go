package downloader

import (
	"context"
	"fmt"
)

// Router sends YouTube URLs to a native fetcher and everything else to the
// default one
type Router struct {
	Default Fetcher
	YouTube Fetcher
}

func (r *Router) Download(ctx context.Context, video Video) (*Result, error) {
	if r.YouTube != nil && IsYouTubeURL(video.URL) {
		return r.YouTube.Download(ctx, video)
	}
	if r.Default == nil {
		return nil, fmt.Errorf("no fetcher for %s", video.URL)
	}
	return r.Default.Download(ctx, video)
}
