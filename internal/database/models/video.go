package models

import "time"

// Video represents a downloaded video record
type Video struct {
	ID              string
	Account         string
	URL             string
	Title           string
	Author          string
	UploadDate      string
	UploadTimestamp int64
	Likes           int64
	Views           int64
	FilePath        string
	DownloadedAt    time.Time
}
