// Package service ties the catalogue store and the recognition pipeline
// together behind one facade consumed by the server and the CLI.
package service

import (
	"context"

	"github.com/himanishpuri/shamzam/internal/catalogue"
	"github.com/himanishpuri/shamzam/internal/match"
	"github.com/himanishpuri/shamzam/internal/provider"
	"github.com/himanishpuri/shamzam/internal/resolve"
	"github.com/himanishpuri/shamzam/pkg/logger"
)

// Service is the application surface: catalogue CRUD plus recognition.
type Service interface {
	AddTrack(ctx context.Context, title, artist, album string) (*catalogue.Track, bool, error)
	GetTrack(id string) (*catalogue.Track, error)
	ListTracks() ([]catalogue.Track, error)
	DeleteTrack(id string) error
	Recognize(ctx context.Context, sample provider.Sample) (*resolve.Result, error)
	Close() error
}

type ShamzamService struct {
	store    *catalogue.Store
	resolver *resolve.Resolver
	cfg      *Config
	log      *logger.Logger
}

// New builds the service: sqlite store, AudD client (unless a provider is
// injected), matcher and resolver.
func New(opts ...Option) (*ShamzamService, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	store, err := catalogue.NewStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	client := cfg.Provider
	if client == nil {
		client = provider.NewAudDClient(cfg.APIToken)
	}

	matcher := match.New(store, cfg.Match)
	resolver := resolve.New(client, matcher, store, cfg.Retry, cfg.Logger)

	return &ShamzamService{
		store:    store,
		resolver: resolver,
		cfg:      cfg,
		log:      cfg.Logger,
	}, nil
}

// AddTrack inserts a track, converging on the existing row when an
// equivalent one is already catalogued. The bool reports whether a new row
// was created.
func (s *ShamzamService) AddTrack(ctx context.Context, title, artist, album string) (*catalogue.Track, bool, error) {
	track, created, err := s.store.CreateIfAbsent(title, artist, album)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Infof("Added track %s: %q by %q", track.ID, track.Title, track.Artist)
	} else {
		s.log.Infof("Track %q by %q already catalogued as %s", track.Title, track.Artist, track.ID)
	}
	return track, created, nil
}

func (s *ShamzamService) GetTrack(id string) (*catalogue.Track, error) {
	return s.store.Get(id)
}

func (s *ShamzamService) ListTracks() ([]catalogue.Track, error) {
	return s.store.List()
}

func (s *ShamzamService) DeleteTrack(id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.log.Infof("Deleted track %s", id)
	return nil
}

// Recognize runs the resolution pipeline for one audio sample, bounded by
// the configured request timeout.
func (s *ShamzamService) Recognize(ctx context.Context, sample provider.Sample) (*resolve.Result, error) {
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}
	return s.resolver.Resolve(ctx, sample)
}

func (s *ShamzamService) Close() error {
	return s.store.Close()
}
