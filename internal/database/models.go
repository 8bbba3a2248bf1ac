package database

import (
	"database/sql"
	"time"
)

// Source names where an activity came from
type Source string

const (
	SourceGmail  Source = "gmail"
	SourceEML    Source = "eml"
	SourceManual Source = "manual"
)

// Activity is a stored raw email body
type Activity struct {
	ID         string    `json:"id"`
	Source     Source    `json:"source"`
	ExternalID string    `json:"external_id"`
	Subject    *string   `json:"subject,omitempty"`
	Sender     *string   `json:"sender,omitempty"`
	RawBody    string    `json:"raw_body"`
	ReceivedAt time.Time `json:"received_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubjectOrEmpty returns the subject, or "" when unset
func (a *Activity) SubjectOrEmpty() string {
	if a.Subject == nil {
		return ""
	}
	return *a.Subject
}

// SenderOrEmpty returns the sender, or "" when unset
func (a *Activity) SenderOrEmpty() string {
	if a.Sender == nil {
		return ""
	}
	return *a.Sender
}

// SyncState is the incremental sync position of one source
type SyncState struct {
	Source             Source     `json:"source"`
	LastSyncAt         *time.Time `json:"last_sync_at,omitempty"`
	ActivitiesImported int        `json:"activities_imported"`
}

// ListOptions filters ListActivities
type ListOptions struct {
	Source *Source
	Since  *time.Time
	Query  string // Matched against subject, sender and body
	Limit  int
	Offset int
}

// NullString converts a string pointer to sql.NullString
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr converts sql.NullString to a string pointer
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// NullTime converts a time pointer to sql.NullTime
func NullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// TimePtr converts sql.NullTime to a time pointer
func TimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	return &nt.Time
}

// Stats holds aggregate activity counts
type Stats struct {
	TotalActivities int           `json:"total_activities"`
	Sources         []SourceStats `json:"sources"`
}

// SourceStats counts the activities of one source
type SourceStats struct {
	Source     Source     `json:"source"`
	Activities int        `json:"activities"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}
