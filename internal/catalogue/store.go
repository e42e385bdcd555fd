// Package catalogue owns the authoritative set of known tracks.
package catalogue

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/himanishpuri/shamzam/internal/normalize"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "shamzam.sqlite3"

var (
	// ErrNotFound is returned when a track id does not exist.
	ErrNotFound = errors.New("catalogue: track not found")
	// ErrInvalidTrack is returned when title or artist is blank.
	ErrInvalidTrack = errors.New("catalogue: title and artist are required")
)

// Track is the canonical catalogue record. NormalizedTitle/NormalizedArtist
// hold the canonical form of the display fields and carry the unique index
// that makes CreateIfAbsent converge under concurrent creation.
type Track struct {
	ID               string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title            string `json:"title"`
	Artist           string `json:"artist"`
	Album            string `json:"album,omitempty"`
	NormalizedTitle  string `gorm:"uniqueIndex:idx_track_key,priority:1;index:idx_norm_title" json:"-"`
	NormalizedArtist string `gorm:"uniqueIndex:idx_track_key,priority:2" json:"-"`
	CreatedAt        time.Time
}

type Store struct {
	DB *gorm.DB
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	dsn := dbPath + "?_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Track{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{DB: db, db: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FindByNormalizedTitle returns all tracks whose normalized title equals the
// given (already normalized) title.
func (s *Store) FindByNormalizedTitle(title string) ([]Track, error) {
	var tracks []Track
	if err := s.DB.Where("normalized_title = ?", title).Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("querying tracks by title: %w", err)
	}
	return tracks, nil
}

// List returns every track in the catalogue, oldest first.
func (s *Store) List() ([]Track, error) {
	var tracks []Track
	if err := s.DB.Order("created_at asc").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("listing tracks: %w", err)
	}
	return tracks, nil
}

// Get returns the track with the given id, or ErrNotFound.
func (s *Store) Get(id string) (*Track, error) {
	var track Track
	err := s.DB.Where("id = ?", id).First(&track).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying track %s: %w", id, err)
	}
	return &track, nil
}

// Delete removes the track with the given id, or returns ErrNotFound.
func (s *Store) Delete(id string) error {
	res := s.DB.Where("id = ?", id).Delete(&Track{})
	if res.Error != nil {
		return fmt.Errorf("deleting track %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateIfAbsent inserts a track keyed by the normalized (title, artist)
// pair and reports whether a new row was created. Concurrent calls for the
// same pair converge on a single row: the unique index rejects the loser,
// which then refetches the winner's row.
func (s *Store) CreateIfAbsent(title, artist, album string) (*Track, bool, error) {
	normTitle := normalize.Text(title)
	normArtist := normalize.Text(artist)
	if normTitle == "" || normArtist == "" {
		return nil, false, ErrInvalidTrack
	}

	var track Track
	err := s.DB.Where("normalized_title = ? AND normalized_artist = ?", normTitle, normArtist).
		First(&track).Error
	if err == nil {
		return &track, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("querying existing track: %w", err)
	}

	track = Track{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(title),
		Artist:           strings.TrimSpace(artist),
		Album:            strings.TrimSpace(album),
		NormalizedTitle:  normTitle,
		NormalizedArtist: normArtist,
	}
	err = s.DB.Create(&track).Error
	if err != nil {
		if isUniqueViolation(err) {
			if fetchErr := s.DB.Where("normalized_title = ? AND normalized_artist = ?", normTitle, normArtist).
				First(&track).Error; fetchErr != nil {
				return nil, false, fmt.Errorf("fetching track after constraint violation: %w", fetchErr)
			}
			return &track, false, nil
		}
		return nil, false, fmt.Errorf("creating track: %w", err)
	}

	return &track, true, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed")
}
