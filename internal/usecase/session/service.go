// Package session holds the single active video: its transcript, its
// vector index, and the query engine over them. Processing a new URL
// replaces all three at once; a failed run leaves the previous video
// untouched.
package session

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/vidqa-cloud/vidqa/internal/domain"
)

type activeVideo struct {
	meta   domain.VideoMetadata
	engine Engine
}

// Service runs the video processing pipeline and routes questions to
// the active video's engine.
type Service struct {
	transcripts TranscriptFetcher
	builder     IndexBuilder
	newEngine   EngineFactory
	logger      *zap.Logger

	mu     sync.RWMutex
	active *activeVideo
}

// New creates a session service with no active video.
func New(transcripts TranscriptFetcher, builder IndexBuilder, newEngine EngineFactory, logger *zap.Logger) *Service {
	return &Service{
		transcripts: transcripts,
		builder:     builder,
		newEngine:   newEngine,
		logger:      logger,
	}
}

// Process runs the full pipeline for a video URL: extract the ID,
// fetch the transcript, build the index, create the engine. The active
// video is swapped only after every step succeeded.
func (s *Service) Process(ctx context.Context, rawURL string) (domain.VideoMetadata, error) {
	videoID, err := domain.ExtractVideoID(rawURL)
	if err != nil {
		return domain.VideoMetadata{}, err
	}

	transcript, err := s.transcripts.Fetch(ctx, videoID)
	if err != nil {
		return domain.VideoMetadata{}, fmt.Errorf("fetch transcript for %s: %w", videoID, err)
	}

	idx, err := s.builder.Build(ctx, transcript)
	if err != nil {
		return domain.VideoMetadata{}, fmt.Errorf("build index for %s: %w", videoID, err)
	}

	meta := domain.VideoMetadata{
		VideoID:         videoID,
		Language:        transcript.Language,
		IsGenerated:     transcript.IsGenerated,
		Translated:      transcript.Translated,
		NumChunks:       idx.Len(),
		TranscriptChars: utf8.RuneCountInString(transcript.Text),
	}

	s.mu.Lock()
	s.active = &activeVideo{meta: meta, engine: s.newEngine(idx)}
	s.mu.Unlock()

	s.logger.Info("video processed",
		zap.String("video_id", videoID.String()),
		zap.String("language", meta.Language),
		zap.Int("chunks", meta.NumChunks),
		zap.Bool("translated", meta.Translated),
	)

	return meta, nil
}

// Ask answers one question against the active video.
func (s *Service) Ask(ctx context.Context, question string) (domain.QueryResult, error) {
	engine, err := s.engine()
	if err != nil {
		return domain.QueryResult{}, err
	}
	return engine.Ask(ctx, question), nil
}

// Batch answers questions sequentially against the active video.
func (s *Service) Batch(ctx context.Context, questions []string) ([]domain.QueryResult, error) {
	engine, err := s.engine()
	if err != nil {
		return nil, err
	}
	return engine.Batch(ctx, questions), nil
}

// SetK changes the retrieval depth of the active video's engine.
func (s *Service) SetK(k int) error {
	engine, err := s.engine()
	if err != nil {
		return err
	}
	return engine.UpdateK(k)
}

// K returns the active engine's retrieval depth.
func (s *Service) K() (int, error) {
	engine, err := s.engine()
	if err != nil {
		return 0, err
	}
	return engine.K(), nil
}

// Current returns the active video's metadata.
func (s *Service) Current() (domain.VideoMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return domain.VideoMetadata{}, domain.ErrNoActiveVideo
	}
	return s.active.meta, nil
}

// Reset drops the active video. Subsequent questions fail with
// ErrNoActiveVideo until a new URL is processed.
func (s *Service) Reset() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
	s.logger.Info("session reset")
}

// engine snapshots the active engine under the read lock. Callers run
// against the snapshot, so a concurrent Process or Reset never tears a
// question between two videos.
func (s *Service) engine() (Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return nil, domain.ErrNoActiveVideo
	}
	return s.active.engine, nil
}
