package downloader

import (
	"context"
	"errors"
	"strings"
)

// Kind groups extractor failures by what the user can do about them
type Kind int

const (
	KindUnknown Kind = iota
	KindGeoRestriction
	KindPrivate
	KindDeleted
	KindRateLimit
	KindNetwork
	KindInvalidURL
	KindPermission
	KindDiskSpace
	KindCookiesNeeded
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindGeoRestriction:
		return "geo_restriction"
	case KindPrivate:
		return "private_video"
	case KindDeleted:
		return "deleted_video"
	case KindRateLimit:
		return "rate_limit"
	case KindNetwork:
		return "network"
	case KindInvalidURL:
		return "invalid_url"
	case KindPermission:
		return "permission"
	case KindDiskSpace:
		return "disk_space"
	case KindCookiesNeeded:
		return "cookies_needed"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is a classified extractor failure
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether trying again later may succeed
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindRateLimit
}

// Solutions lists practical steps for the user
func (e *Error) Solutions() []string {
	return solutions[e.Kind]
}

type rule struct {
	kind     Kind
	message  string
	keywords []string
}

// Order matters: the first rule with a matching keyword wins.
var rules = []rule{
	{KindGeoRestriction, "Video not available in your region",
		[]string{"geo", "not available in your", "region", "country"}},
	{KindPrivate, "This video is private or unavailable",
		[]string{"private", "unavailable"}},
	{KindDeleted, "Video has been deleted or removed",
		[]string{"removed", "deleted", "no longer available", "not found", "http error 404"}},
	{KindRateLimit, "Too many requests, the platform is limiting downloads",
		[]string{"rate limit", "http error 429", "too many requests", "slow down"}},
	{KindNetwork, "Network connection problem",
		[]string{"connection", "timeout", "timed out", "network", "unreachable", "no internet"}},
	{KindInvalidURL, "Invalid video URL",
		[]string{"invalid url", "malformed", "unsupported url"}},
	{KindPermission, "Access denied, permission required",
		[]string{"permission", "access denied", "forbidden", "http error 403"}},
	{KindDiskSpace, "Not enough disk space",
		[]string{"disk", "space", "no space left", "storage"}},
	{KindCookiesNeeded, "Authentication required",
		[]string{"sign in", "login", "authentication", "unauthorized", "requiring login",
			"cookies", "unable to extract", "user id", "channel_id", "--cookies"}},
}

var solutions = map[Kind][]string{
	KindGeoRestriction: {
		"Connect to a VPN (USA, Canada or Germany usually work)",
		"Export cookies from the website and set download.cookies_file",
		"Try again later, some restrictions are temporary",
	},
	KindPrivate: {
		"The video might be set to 'Friends only' or 'Private'",
		"Check if you need to be logged in to view it",
		"Export cookies from your account and set download.cookies_file",
	},
	KindDeleted: {
		"The author may have deleted the video",
		"The video might have been removed for violating community guidelines",
		"Check if the URL is correct",
	},
	KindRateLimit: {
		"Wait 5-10 minutes before trying again",
		"Use a VPN to change your IP address",
		"Increase monitor.interval_minutes in config.yaml",
		"The monitor retries automatically with longer delays",
	},
	KindNetwork: {
		"Check your internet connection",
		"Try again in a few moments",
		"Check if the site is accessible in your browser",
		"The monitor retries automatically",
	},
	KindInvalidURL: {
		"Make sure the URL looks like https://www.tiktok.com/@username/video/1234567890",
		"Copy the URL directly from the app or website",
	},
	KindPermission: {
		"You might need to be logged in to view this content",
		"Export cookies and set download.cookies_file",
		"Check if the video is age restricted",
	},
	KindDiskSpace: {
		"Free up space on your drive",
		"Point monitor.output_dir to a drive with more space",
		"Delete old downloads you no longer need",
	},
	KindCookiesNeeded: {
		"This video requires you to be logged in",
		"Export cookies from your browser in Netscape format",
		"Set download.cookies_file to the exported file",
	},
	KindUnknown: {
		"Try again in a few moments",
		"Check if the video URL is correct",
		"Update yt-dlp to the latest version",
	},
}

// Classify maps an extractor failure to a Kind by inspecting its message.
// Errors that are already classified are returned as is.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindCancelled, Message: "Operation cancelled", Err: err}
	}

	msg := strings.ToLower(err.Error())
	for _, r := range rules {
		for _, keyword := range r.keywords {
			if strings.Contains(msg, keyword) {
				return &Error{Kind: r.kind, Message: r.message, Err: err}
			}
		}
	}

	return &Error{Kind: KindUnknown, Message: "An unexpected error occurred", Err: err}
}
