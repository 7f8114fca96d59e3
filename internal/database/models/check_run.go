package models

import "time"

// CheckRun represents one monitoring pass over all enabled accounts
type CheckRun struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	AccountsChecked  int
	VideosFound      int
	VideosDownloaded int
	Failures         int
}

// Finished reports whether the run completed
func (r *CheckRun) Finished() bool {
	return !r.FinishedAt.IsZero()
}
