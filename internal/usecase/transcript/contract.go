package transcript

import (
	"context"

	"github.com/vidqa-cloud/vidqa/internal/domain"
)

// Source lists caption tracks and fetches their text. Implemented by
// the youtube transport client.
type Source interface {
	ListTracks(ctx context.Context, videoID domain.VideoID) ([]domain.CaptionTrack, error)
	FetchText(ctx context.Context, track domain.CaptionTrack, translateTo string) (string, error)
}
