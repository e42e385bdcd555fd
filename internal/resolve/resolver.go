// Package resolve runs the recognition pipeline: provider identification,
// normalization, catalogue matching and create-if-absent.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/himanishpuri/shamzam/internal/catalogue"
	"github.com/himanishpuri/shamzam/internal/match"
	"github.com/himanishpuri/shamzam/internal/normalize"
	"github.com/himanishpuri/shamzam/internal/provider"
	"github.com/himanishpuri/shamzam/pkg/logger"
)

// Status classifies a resolution result.
type Status int

const (
	// Matched: an existing catalogue track was found.
	Matched Status = iota
	// Created: no acceptable match existed, a track was created.
	Created
	// Unrecognized: the provider found no candidate.
	Unrecognized
	// Rejected: resolution failed terminally; see Reason.
	Rejected
)

func (s Status) String() string {
	switch s {
	case Matched:
		return "matched"
	case Created:
		return "created"
	case Unrecognized:
		return "unrecognized"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Rejection reasons.
const (
	ReasonInvalidInput         = "invalid input"
	ReasonProviderFailure      = "provider failure"
	ReasonAmbiguous            = "ambiguous match"
	ReasonCatalogueUnavailable = "catalogue unavailable"
)

// Result is the single outcome of a resolution: a track (matched or
// created), an explicit "unrecognized", or an explicit rejection with a
// reason. Callers never see raw provider or store errors.
type Result struct {
	Status     Status
	Track      *catalogue.Track  // set for Matched and Created
	MatchKind  match.Kind        // set for Matched
	Score      float64           // set for fuzzy Matched
	Reason     string            // set for Rejected
	Candidates []match.Candidate // set for ambiguous Rejected
}

// Catalogue is the mutating view of the store the resolver needs beyond
// what the matcher reads.
type Catalogue interface {
	CreateIfAbsent(title, artist, album string) (*catalogue.Track, bool, error)
}

// Config bounds the retry behavior for retryable provider failures.
type Config struct {
	// MaxAttempts is the total number of provider calls per resolution.
	MaxAttempts int
	// RetryBackoff is the delay before the first retry; it doubles on
	// each subsequent one.
	RetryBackoff time.Duration
}

// DefaultConfig returns the default retry bounds.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// Resolver coordinates one resolution per call and keeps no state across
// invocations.
type Resolver struct {
	client  provider.Client
	matcher *match.Matcher
	cat     Catalogue
	cfg     Config
	log     *logger.Logger
}

func New(client provider.Client, matcher *match.Matcher, cat Catalogue, cfg Config, log *logger.Logger) *Resolver {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{client: client, matcher: matcher, cat: cat, cfg: cfg, log: log}
}

// Resolve identifies the sample and returns a catalogue-backed outcome.
func (r *Resolver) Resolve(ctx context.Context, sample provider.Sample) (*Result, error) {
	raw, err := r.identify(ctx, sample)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrNotRecognized):
			r.log.Infof("Provider found no candidate")
			return &Result{Status: Unrecognized}, nil
		case errors.Is(err, provider.ErrInvalidInput):
			r.log.Warnf("Rejecting invalid sample: %v", err)
			return &Result{Status: Rejected, Reason: ReasonInvalidInput}, nil
		default:
			r.log.Errorf("Provider failed: %v", err)
			return &Result{Status: Rejected, Reason: ReasonProviderFailure}, nil
		}
	}

	id := match.Identification{
		Title:  normalize.Text(raw.Title),
		Artist: normalize.Text(raw.Artist),
		Album:  normalize.Text(raw.Album),
	}
	r.log.Debugf("Provider identified %q by %q", raw.Title, raw.Artist)

	outcome, err := r.matcher.Match(id)
	if err != nil {
		r.log.Errorf("Catalogue lookup failed: %v", err)
		return &Result{Status: Rejected, Reason: ReasonCatalogueUnavailable}, nil
	}

	switch outcome.Kind {
	case match.Exact, match.Fuzzy:
		r.log.Infof("Matched %q by %q to track %s (%s)", raw.Title, raw.Artist, outcome.Track.ID, outcome.Kind)
		return &Result{
			Status:    Matched,
			Track:     outcome.Track,
			MatchKind: outcome.Kind,
			Score:     outcome.Score,
		}, nil

	case match.Ambiguous:
		r.log.Warnf("Ambiguous match for %q by %q: %d candidates", raw.Title, raw.Artist, len(outcome.Candidates))
		return &Result{
			Status:     Rejected,
			Reason:     ReasonAmbiguous,
			Candidates: outcome.Candidates,
		}, nil
	}

	// No acceptable match: create the entry. A concurrent resolution may
	// have created it already; CreateIfAbsent converges either way.
	track, created, err := r.cat.CreateIfAbsent(raw.Title, raw.Artist, raw.Album)
	if err != nil {
		if errors.Is(err, catalogue.ErrInvalidTrack) {
			r.log.Warnf("Provider answer has no usable metadata: %q by %q", raw.Title, raw.Artist)
			return &Result{Status: Rejected, Reason: ReasonInvalidInput}, nil
		}
		r.log.Errorf("Catalogue creation failed: %v", err)
		return &Result{Status: Rejected, Reason: ReasonCatalogueUnavailable}, nil
	}
	if created {
		r.log.Infof("Created track %s: %q by %q", track.ID, track.Title, track.Artist)
		return &Result{Status: Created, Track: track}, nil
	}
	r.log.Infof("Converged on concurrently created track %s", track.ID)
	return &Result{Status: Matched, Track: track, MatchKind: match.Exact}, nil
}

// identify calls the provider, retrying retryable failures with exponential
// backoff up to the configured attempt bound.
func (r *Resolver) identify(ctx context.Context, sample provider.Sample) (*provider.RawIdentification, error) {
	backoff := r.cfg.RetryBackoff
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		raw, err := r.client.Identify(ctx, sample)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if !provider.IsRetryable(err) || attempt == r.cfg.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			break
		}

		r.log.Warnf("Provider attempt %d/%d failed, retrying in %s: %v", attempt, r.cfg.MaxAttempts, backoff, err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, fmt.Errorf("resolution canceled: %w", ctx.Err())
		}
		backoff *= 2
	}

	return nil, lastErr
}
