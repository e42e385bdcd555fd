package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/shamzam/internal/catalogue"
	"github.com/himanishpuri/shamzam/internal/match"
	"github.com/himanishpuri/shamzam/internal/provider"
	"github.com/himanishpuri/shamzam/internal/resolve"
	"github.com/himanishpuri/shamzam/internal/service"
	"github.com/himanishpuri/shamzam/pkg/logger"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service service.Service
	config  *ServerConfig
	log     *logger.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(svc service.Service, config *ServerConfig) *Server {
	return &Server{
		service: svc,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

func trackDTO(track *catalogue.Track) TrackDTO {
	return TrackDTO{
		ID:        track.ID,
		Title:     track.Title,
		Artist:    track.Artist,
		Album:     track.Album,
		CreatedAt: track.CreatedAt.Format(time.RFC3339),
	}
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Shamzam API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":      "GET /health",
			"metrics":     "GET /api/health/metrics",
			"listTracks":  "GET /catalog/tracks",
			"addTrack":    "POST /catalog/tracks",
			"getTrack":    "GET /catalog/tracks/{id}",
			"deleteTrack": "DELETE /catalog/tracks/{id}",
			"recognize":   "POST /recognition",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.service.ListTracks()
	if err != nil {
		s.log.Errorf("Failed to get track count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		TrackCount:   len(tracks),
	})
}

// handleTracks handles GET and POST /catalog/tracks
func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTracks(w, r)
	case http.MethodPost:
		s.handleAddTrack(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleListTracks handles GET /catalog/tracks
func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.service.ListTracks()
	if err != nil {
		s.log.Errorf("Failed to list tracks: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve tracks")
		return
	}

	dtos := make([]TrackDTO, len(tracks))
	for i := range tracks {
		dtos[i] = trackDTO(&tracks[i])
	}

	s.respondJSON(w, http.StatusOK, ListTracksResponse{
		Tracks: dtos,
		Count:  len(dtos),
	})
}

// handleAddTrack handles POST /catalog/tracks
func (s *Server) handleAddTrack(w http.ResponseWriter, r *http.Request) {
	var req AddTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	track, created, err := s.service.AddTrack(r.Context(), req.Title, req.Artist, req.Album)
	if err != nil {
		if errors.Is(err, catalogue.ErrInvalidTrack) {
			s.respondError(w, http.StatusBadRequest, "Invalid title or artist")
			return
		}
		s.log.Errorf("Failed to add track: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to add track")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, trackDTO(track))
}

// handleTrack handles GET and DELETE /catalog/tracks/{id}
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/catalog/tracks/")
	if id == "" || strings.Contains(id, "/") {
		s.respondError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		track, err := s.service.GetTrack(id)
		if err != nil {
			if errors.Is(err, catalogue.ErrNotFound) {
				s.respondError(w, http.StatusNotFound, fmt.Sprintf("Track %s not found", id))
				return
			}
			s.log.Errorf("Failed to get track %s: %v", id, err)
			s.respondError(w, http.StatusInternalServerError, "Failed to retrieve track")
			return
		}
		s.respondJSON(w, http.StatusOK, trackDTO(track))

	case http.MethodDelete:
		if err := s.service.DeleteTrack(id); err != nil {
			if errors.Is(err, catalogue.ErrNotFound) {
				s.respondError(w, http.StatusNotFound, fmt.Sprintf("Track %s not found", id))
				return
			}
			s.log.Errorf("Failed to delete track %s: %v", id, err)
			s.respondError(w, http.StatusInternalServerError, "Failed to delete track")
			return
		}
		s.respondJSON(w, http.StatusOK, DeleteTrackResponse{
			Message: "Track removed successfully",
			ID:      id,
		})

	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleRecognition handles POST /recognition (multipart file upload)
func (s *Server) handleRecognition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Parse multipart form (max 25MB)
	if err := r.ParseMultipartForm(25 << 20); err != nil {
		s.respondError(w, http.StatusBadRequest, "No file part in the request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "No file part in the request")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.log.Errorf("Failed to read upload: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	sample := provider.Sample{
		Data:   data,
		Format: strings.TrimPrefix(filepath.Ext(header.Filename), "."),
	}

	result, err := s.service.Recognize(r.Context(), sample)
	if err != nil {
		s.log.Errorf("Recognition failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Recognition failed")
		return
	}

	switch result.Status {
	case resolve.Matched, resolve.Created:
		resp := RecognitionResponse{
			TrackID: result.Track.ID,
			Title:   result.Track.Title,
			Artist:  result.Track.Artist,
			Album:   result.Track.Album,
		}
		status := http.StatusOK
		if result.Status == resolve.Created {
			status = http.StatusCreated
			resp.Match = "created"
		} else {
			resp.Match = result.MatchKind.String()
			if result.MatchKind == match.Fuzzy {
				score := result.Score
				resp.Score = &score
			}
		}
		s.respondJSON(w, status, resp)

	case resolve.Unrecognized:
		s.respondError(w, http.StatusNotFound, "Track not recognized")

	case resolve.Rejected:
		switch result.Reason {
		case resolve.ReasonInvalidInput:
			s.respondError(w, http.StatusBadRequest, "Invalid audio sample")
		case resolve.ReasonAmbiguous:
			candidates := make([]CandidateDTO, len(result.Candidates))
			for i, c := range result.Candidates {
				candidates[i] = CandidateDTO{
					TrackID: c.Track.ID,
					Title:   c.Track.Title,
					Artist:  c.Track.Artist,
					Score:   c.Score,
				}
			}
			s.respondJSON(w, http.StatusConflict, AmbiguousResponse{
				Message:    "Multiple catalogue tracks match equally well",
				Candidates: candidates,
			})
		case resolve.ReasonCatalogueUnavailable:
			s.respondError(w, http.StatusServiceUnavailable, "Catalogue unavailable")
		default:
			s.respondError(w, http.StatusBadGateway, "Recognition provider failure")
		}

	default:
		s.respondError(w, http.StatusInternalServerError, "Unexpected resolution outcome")
	}
}
