// Package youtube is the transcript source client. It lists caption
// tracks through the Innertube /player endpoint and fetches caption
// text from the timedtext URLs those tracks carry, optionally routed
// through YouTube's server-side translation (tlang).
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vidqa-cloud/vidqa/internal/domain"
)

const (
	innertubeURL       = "https://www.youtube.com/youtubei/v1/player"
	androidVersion     = "20.10.38"
	androidUserAgent   = "com.google.android.youtube/20.10.38 (Linux; U; Android 11) gzip"
	maxTimedTextBytes  = 512 * 1024
	maxPlayerRespBytes = 6 * 1024 * 1024
)

// Client fetches caption tracks and transcript text for YouTube videos.
type Client struct {
	http      *http.Client
	playerURL string
	logger    *zap.Logger
}

// NewClient creates a transcript source client.
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		playerURL: innertubeURL,
		logger:    logger,
	}
}

// WithPlayerURL overrides the Innertube endpoint (tests).
func (c *Client) WithPlayerURL(u string) *Client {
	c.playerURL = u
	return c
}

// ListTracks returns the caption tracks available for a video.
// Disabled captions and missing tracks are reported through the domain
// sentinels so the fetch policy can distinguish them.
func (c *Client) ListTracks(ctx context.Context, videoID domain.VideoID) ([]domain.CaptionTrack, error) {
	reqBody, err := json.Marshal(playerRequest{
		VideoID: videoID.String(),
		Context: playerCtx{
			Client: playerClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal player request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.playerURL+"?prettyPrint=false", bytes.NewReader(reqBody),
	)
	if err != nil {
		return nil, fmt.Errorf("build player request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUserAgent)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", androidVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("player request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player request: unexpected status %d", resp.StatusCode)
	}

	var player playerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPlayerRespBytes)).Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}

	if player.PlayabilityStatus != nil && player.PlayabilityStatus.Status != "OK" {
		reason := player.PlayabilityStatus.Reason
		if reason == "" {
			reason = player.PlayabilityStatus.Status
		}
		return nil, fmt.Errorf("video not playable: %s: %w", reason, domain.ErrNoTranscript)
	}

	if player.Captions == nil {
		return nil, domain.ErrTranscriptsDisabled
	}

	raw := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(raw) == 0 {
		return nil, domain.ErrNoTranscript
	}

	tracks := make([]domain.CaptionTrack, 0, len(raw))
	for _, t := range raw {
		tracks = append(tracks, domain.CaptionTrack{
			BaseURL:        t.BaseURL,
			Language:       t.Name.text(),
			LanguageCode:   t.LanguageCode,
			IsGenerated:    t.Kind == "asr",
			IsTranslatable: t.IsTranslatable,
		})
	}

	c.logger.Debug("listed caption tracks",
		zap.String("video_id", videoID.String()),
		zap.Int("tracks", len(tracks)),
	)

	return tracks, nil
}

// FetchText downloads a caption track and flattens it to plain text,
// snippets joined by single spaces. A non-empty translateTo routes the
// fetch through YouTube's translation (tlang parameter).
func (c *Client) FetchText(ctx context.Context, track domain.CaptionTrack, translateTo string) (string, error) {
	fetchURL := track.BaseURL
	if translateTo != "" {
		fetchURL += "&tlang=" + url.QueryEscape(translateTo)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return "", fmt.Errorf("build timedtext request: %w", err)
	}
	req.Header.Set("User-Agent", androidUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch timedtext: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTimedTextBytes))
	if err != nil {
		return "", fmt.Errorf("read timedtext: %w", err)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	var sb strings.Builder
	for _, line := range tt.Lines {
		// Caption text arrives double-escaped (&amp;#39;); the XML
		// decoder unescapes once, UnescapeString handles the rest.
		text := strings.TrimSpace(html.UnescapeString(line.Text))
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}

	if sb.Len() == 0 {
		return "", errors.New("empty transcript")
	}

	return sb.String(), nil
}
