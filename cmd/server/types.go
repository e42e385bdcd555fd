package main

import (
	"fmt"
	"strings"
)

// AddTrackRequest is the request body for POST /catalog/tracks
type AddTrackRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
}

// Validate checks if the request is valid
func (r *AddTrackRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.Artist) == "" {
		return fmt.Errorf("artist is required")
	}
	return nil
}

// TrackDTO represents a catalogue track in API responses
type TrackDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListTracksResponse is the response for GET /catalog/tracks
type ListTracksResponse struct {
	Tracks []TrackDTO `json:"tracks"`
	Count  int        `json:"count"`
}

// DeleteTrackResponse is the response for DELETE /catalog/tracks/{id}
type DeleteTrackResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// RecognitionResponse is the response for POST /recognition when the sample
// resolved to a catalogue track
type RecognitionResponse struct {
	TrackID string   `json:"trackId"`
	Title   string   `json:"title"`
	Artist  string   `json:"artist"`
	Album   string   `json:"album,omitempty"`
	Match   string   `json:"match"`           // "exact", "fuzzy" or "created"
	Score   *float64 `json:"score,omitempty"` // set for fuzzy matches
}

// CandidateDTO is one ambiguous-match candidate
type CandidateDTO struct {
	TrackID string  `json:"trackId"`
	Title   string  `json:"title"`
	Artist  string  `json:"artist"`
	Score   float64 `json:"score"`
}

// AmbiguousResponse is the response for POST /recognition when several
// catalogue tracks are indistinguishably good matches
type AmbiguousResponse struct {
	Message    string         `json:"message"`
	Candidates []CandidateDTO `json:"candidates"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	TrackCount   int    `json:"track_count"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
