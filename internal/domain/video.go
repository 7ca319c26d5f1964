package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// VideoID is a canonical YouTube video identifier.
type VideoID string

// videoIDLength is the length of a bare YouTube video identifier.
const videoIDLength = 11

// ExtractVideoID derives a VideoID from the supported URL shapes:
// youtu.be short links, /shorts/ paths, watch URLs with a v query
// parameter, and bare 11-character identifiers. Pure string parsing,
// no network access; malformed input yields ErrInvalidVideoURL.
func ExtractVideoID(input string) (VideoID, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty input: %w", ErrInvalidVideoURL)
	}

	u, err := url.Parse(input)
	if err == nil {
		// youtu.be/<id>
		if strings.EqualFold(u.Hostname(), "youtu.be") {
			if id := lastPathSegment(u.Path); id != "" {
				return VideoID(id), nil
			}
		}

		// youtube.com/shorts/<id>
		if strings.HasPrefix(strings.ToLower(u.Path), "/shorts") {
			if id := lastPathSegment(u.Path); id != "" && !strings.EqualFold(id, "shorts") {
				return VideoID(id), nil
			}
		}

		// youtube.com/watch?v=<id>
		if u.RawQuery != "" {
			if id := u.Query().Get("v"); id != "" {
				return VideoID(id), nil
			}
		}
	}

	// Bare video identifier
	if len(input) == videoIDLength && !strings.Contains(input, "/") {
		return VideoID(input), nil
	}

	return "", fmt.Errorf("cannot extract video id from %q: %w", input, ErrInvalidVideoURL)
}

func lastPathSegment(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	return segments[len(segments)-1]
}

// String returns the identifier as a plain string.
func (id VideoID) String() string { return string(id) }
