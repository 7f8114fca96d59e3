package downloader

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"ERROR: Video not available in your country", KindGeoRestriction},
		{"The uploader has not made this video available in your region", KindGeoRestriction},
		{"This video is private", KindPrivate},
		{"Video unavailable", KindPrivate},
		{"HTTP Error 404: Not Found", KindDeleted},
		{"This post has been removed", KindDeleted},
		{"HTTP Error 429: Too Many Requests", KindRateLimit},
		{"Please slow down", KindRateLimit},
		{"Connection reset by peer", KindNetwork},
		{"The read operation timed out", KindNetwork},
		{"Unsupported URL: https://example.com", KindInvalidURL},
		{"HTTP Error 403: Forbidden", KindPermission},
		{"[Errno 28] No space left on device", KindDiskSpace},
		{"Sign in to confirm your age", KindCookiesNeeded},
		{"Unable to extract universal data for rehydration", KindCookiesNeeded},
		{"something odd happened", KindUnknown},
		{"ERROR: [TikTok] 7429404000000000001: extractor crashed", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := Classify(errors.New(tt.msg))
			if got.Kind != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.msg, got.Kind, tt.want)
			}
			if got.Message == "" {
				t.Error("expected a user facing message")
			}
			if len(got.Solutions()) == 0 {
				t.Error("expected at least one solution")
			}
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	if Classify(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestClassify_KeepsCause(t *testing.T) {
	cause := errors.New("HTTP Error 429")
	classified := Classify(fmt.Errorf("list: %w", cause))

	if !errors.Is(classified, cause) {
		t.Error("expected classified error to wrap its cause")
	}
	if Classify(classified) != classified {
		t.Error("expected an already classified error to be returned as is")
	}
}

func TestClassify_Cancelled(t *testing.T) {
	for _, err := range []error{context.Canceled, context.DeadlineExceeded} {
		classified := Classify(fmt.Errorf("yt-dlp failed: %w", err))
		if classified.Kind != KindCancelled {
			t.Errorf("Classify(%v) = %s, want %s", err, classified.Kind, KindCancelled)
		}
		if classified.Retryable() {
			t.Errorf("%v must not be retryable", err)
		}
	}
}

func TestError_Retryable(t *testing.T) {
	retryable := map[Kind]bool{
		KindNetwork:   true,
		KindRateLimit: true,
	}

	for k := KindUnknown; k <= KindCancelled; k++ {
		e := &Error{Kind: k}
		if e.Retryable() != retryable[k] {
			t.Errorf("%s.Retryable() = %v", k, e.Retryable())
		}
	}
}
