// Package transcript implements the transcript fetch policy: prefer a
// manual track in one of the configured languages, fall back to a
// generated track, and as a last resort translate whatever track the
// video has into the configured target language.
package transcript

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vidqa-cloud/vidqa/internal/domain"
	"github.com/vidqa-cloud/vidqa/internal/metrics"
)

// Service selects and fetches the best available transcript for a video.
type Service struct {
	source      Source
	languages   []string // preferred language codes, in priority order
	translateTo string   // translation target code for the fallback
	logger      *zap.Logger
}

// New creates a transcript service.
func New(source Source, languages []string, translateTo string, logger *zap.Logger) *Service {
	return &Service{
		source:      source,
		languages:   languages,
		translateTo: translateTo,
		logger:      logger,
	}
}

// Fetch returns the transcript for a video, applying the language
// fallback chain. The returned transcript carries which track was used
// and whether it went through translation.
func (s *Service) Fetch(ctx context.Context, videoID domain.VideoID) (domain.Transcript, error) {
	tracks, err := s.source.ListTracks(ctx, videoID)
	if err != nil {
		metrics.TranscriptFetchesTotal.WithLabelValues(outcomeForError(err)).Inc()
		return domain.Transcript{}, fmt.Errorf("list caption tracks: %w", err)
	}

	if track, ok := s.pickPreferred(tracks); ok {
		text, err := s.source.FetchText(ctx, track, "")
		if err != nil {
			metrics.TranscriptFetchesTotal.WithLabelValues("error").Inc()
			return domain.Transcript{}, fmt.Errorf("fetch transcript %s: %w", track.LanguageCode, err)
		}

		metrics.TranscriptFetchesTotal.WithLabelValues("ok").Inc()
		s.logger.Info("fetched transcript",
			zap.String("video_id", videoID.String()),
			zap.String("language", track.LanguageCode),
			zap.Bool("generated", track.IsGenerated),
		)

		return domain.Transcript{
			VideoID:     videoID,
			Text:        text,
			Language:    track.Language,
			IsGenerated: track.IsGenerated,
		}, nil
	}

	// No track in a preferred language: translate the first track that
	// supports it.
	track, ok := pickTranslatable(tracks)
	if !ok {
		metrics.TranscriptFetchesTotal.WithLabelValues("not_found").Inc()
		return domain.Transcript{}, fmt.Errorf(
			"no transcript in languages %v and no translatable track: %w",
			s.languages, domain.ErrNoTranscript,
		)
	}

	text, err := s.source.FetchText(ctx, track, s.translateTo)
	if err != nil {
		metrics.TranscriptFetchesTotal.WithLabelValues("error").Inc()
		return domain.Transcript{}, fmt.Errorf("fetch translated transcript: %w", err)
	}

	metrics.TranscriptFetchesTotal.WithLabelValues("translated").Inc()
	s.logger.Info("fetched transcript via translation",
		zap.String("video_id", videoID.String()),
		zap.String("source_language", track.LanguageCode),
		zap.String("translated_to", s.translateTo),
	)

	return domain.Transcript{
		VideoID:     videoID,
		Text:        text,
		Language:    fmt.Sprintf("%s (translated to %s)", track.Language, languageName(s.translateTo)),
		IsGenerated: track.IsGenerated,
		Translated:  true,
	}, nil
}

// pickPreferred returns the best track in a preferred language: manual
// tracks win over generated ones, and within each class the configured
// language order decides.
func (s *Service) pickPreferred(tracks []domain.CaptionTrack) (domain.CaptionTrack, bool) {
	for _, generated := range []bool{false, true} {
		for _, lang := range s.languages {
			for _, t := range tracks {
				if t.IsGenerated == generated && t.LanguageCode == lang {
					return t, true
				}
			}
		}
	}
	return domain.CaptionTrack{}, false
}

func pickTranslatable(tracks []domain.CaptionTrack) (domain.CaptionTrack, bool) {
	for _, t := range tracks {
		if t.IsTranslatable {
			return t, true
		}
	}
	return domain.CaptionTrack{}, false
}

func outcomeForError(err error) string {
	switch {
	case errors.Is(err, domain.ErrTranscriptsDisabled):
		return "disabled"
	case errors.Is(err, domain.ErrNoTranscript):
		return "not_found"
	default:
		return "error"
	}
}

// languageName maps common target codes to a display name for the
// transcript language tag. Unknown codes pass through unchanged.
func languageName(code string) string {
	names := map[string]string{
		"en": "English",
		"hi": "Hindi",
		"es": "Spanish",
		"fr": "French",
		"de": "German",
	}
	if name, ok := names[code]; ok {
		return name
	}
	return code
}
