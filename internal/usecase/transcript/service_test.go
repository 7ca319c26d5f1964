package transcript

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/vidqa-cloud/vidqa/internal/domain"
)

// --- Mocks ---

type mockSource struct {
	tracks   []domain.CaptionTrack
	listErr  error
	fetchErr error

	fetchedTrack domain.CaptionTrack
	translateTo  string
}

func (m *mockSource) ListTracks(_ context.Context, _ domain.VideoID) ([]domain.CaptionTrack, error) {
	return m.tracks, m.listErr
}

func (m *mockSource) FetchText(_ context.Context, track domain.CaptionTrack, translateTo string) (string, error) {
	m.fetchedTrack = track
	m.translateTo = translateTo
	if m.fetchErr != nil {
		return "", m.fetchErr
	}
	return "some transcript text", nil
}

func newService(source Source) *Service {
	return New(source, []string{"hi", "en", "en-IN", "hi-IN"}, "en", zap.NewNop())
}

func track(code string, generated, translatable bool) domain.CaptionTrack {
	return domain.CaptionTrack{
		BaseURL:        "https://example.com/tt?lang=" + code,
		Language:       code,
		LanguageCode:   code,
		IsGenerated:    generated,
		IsTranslatable: translatable,
	}
}

// --- Tests ---

func TestFetch_PrefersManualOverGenerated(t *testing.T) {
	source := &mockSource{tracks: []domain.CaptionTrack{
		track("hi", true, true),
		track("en", false, true),
	}}

	got, err := newService(source).Fetch(context.Background(), "Gfr50f6ZBvo")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if source.fetchedTrack.LanguageCode != "en" {
		t.Errorf("expected manual en track, fetched %q", source.fetchedTrack.LanguageCode)
	}
	if got.IsGenerated || got.Translated {
		t.Errorf("unexpected transcript flags: %+v", got)
	}
	if source.translateTo != "" {
		t.Errorf("preferred track must not be translated, got tlang=%q", source.translateTo)
	}
}

func TestFetch_LanguagePriorityOrder(t *testing.T) {
	source := &mockSource{tracks: []domain.CaptionTrack{
		track("en", false, true),
		track("hi", false, true),
	}}

	_, err := newService(source).Fetch(context.Background(), "Gfr50f6ZBvo")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if source.fetchedTrack.LanguageCode != "hi" {
		t.Errorf("expected hi (first preference), fetched %q", source.fetchedTrack.LanguageCode)
	}
}

func TestFetch_GeneratedFallback(t *testing.T) {
	source := &mockSource{tracks: []domain.CaptionTrack{
		track("hi", true, true),
	}}

	got, err := newService(source).Fetch(context.Background(), "Gfr50f6ZBvo")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !got.IsGenerated {
		t.Error("expected generated transcript")
	}
	if got.Translated {
		t.Error("generated track in a preferred language must not translate")
	}
}

func TestFetch_TranslationFallback(t *testing.T) {
	source := &mockSource{tracks: []domain.CaptionTrack{
		track("de", true, false),
		{BaseURL: "u", Language: "Japanese", LanguageCode: "ja", IsTranslatable: true},
	}}

	got, err := newService(source).Fetch(context.Background(), "Gfr50f6ZBvo")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if source.fetchedTrack.LanguageCode != "ja" {
		t.Errorf("expected first translatable track, fetched %q", source.fetchedTrack.LanguageCode)
	}
	if source.translateTo != "en" {
		t.Errorf("expected translation to en, got %q", source.translateTo)
	}
	if !got.Translated {
		t.Error("expected Translated flag")
	}
	if got.Language != "Japanese (translated to English)" {
		t.Errorf("unexpected language tag: %q", got.Language)
	}
}

func TestFetch_NothingUsable(t *testing.T) {
	source := &mockSource{tracks: []domain.CaptionTrack{
		track("de", true, false),
	}}

	_, err := newService(source).Fetch(context.Background(), "Gfr50f6ZBvo")
	if !errors.Is(err, domain.ErrNoTranscript) {
		t.Errorf("expected ErrNoTranscript, got %v", err)
	}
}

func TestFetch_ListErrorPassesThrough(t *testing.T) {
	source := &mockSource{listErr: domain.ErrTranscriptsDisabled}

	_, err := newService(source).Fetch(context.Background(), "Gfr50f6ZBvo")
	if !errors.Is(err, domain.ErrTranscriptsDisabled) {
		t.Errorf("expected ErrTranscriptsDisabled, got %v", err)
	}
}

func TestFetch_FetchErrorSurfaces(t *testing.T) {
	fetchErr := errors.New("timedtext: status 500")
	source := &mockSource{
		tracks:   []domain.CaptionTrack{track("en", false, true)},
		fetchErr: fetchErr,
	}

	_, err := newService(source).Fetch(context.Background(), "Gfr50f6ZBvo")
	if !errors.Is(err, fetchErr) {
		t.Errorf("expected fetch error, got %v", err)
	}
}
