package jdresume

import "time"

// JdResumeText is a user's job-description and résumé pair. Each user
// keeps exactly one pair, edited in place.
type JdResumeText struct {
	ID         string
	UserID     string
	JdText     string
	ResumeText string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
