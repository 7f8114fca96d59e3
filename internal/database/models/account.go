package models

import (
	"strings"
	"time"
)

// Platform identifies where a monitored account lives
type Platform string

const (
	PlatformTikTok  Platform = "tiktok"
	PlatformYouTube Platform = "youtube"
)

// Account represents a monitored social-media account
type Account struct {
	Username           string
	Platform           Platform
	Enabled            bool
	LastCheck          time.Time
	LastVideoID        string
	LastVideoTimestamp int64
	TotalVideos        int64
	CreatedAt          time.Time
}

// Checked reports whether the account was ever checked
func (a Account) Checked() bool {
	return !a.LastCheck.IsZero()
}

// AccountSummary is an account row joined with the number of stored videos
type AccountSummary struct {
	Account
	StoredVideos int64
}

// NormalizeUsername trims whitespace and a leading "@" and lower-cases the
// result, so "@User " and "user" name the same account
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}

// ValidPlatform reports whether p is a supported platform
func ValidPlatform(p Platform) bool {
	return p == PlatformTikTok || p == PlatformYouTube
}
