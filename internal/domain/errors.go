package domain

import "errors"

var (
	// ErrInvalidVideoURL signals an unrecognized or malformed video URL.
	ErrInvalidVideoURL = errors.New("invalid YouTube URL")
	// ErrTranscriptsDisabled signals that captions are turned off for the video.
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	// ErrNoTranscript signals that no usable or translatable transcript exists.
	ErrNoTranscript = errors.New("no transcript available")
	// ErrProviderError signals an embedding or generation backend failure.
	ErrProviderError = errors.New("inference provider error")
	// ErrIndexBuild signals a failed vector index construction.
	ErrIndexBuild = errors.New("index build failed")
	// ErrInvalidK signals a retrieval width outside the allowed range.
	ErrInvalidK = errors.New("k out of range")
	// ErrNoActiveVideo signals a query against a session with no processed video.
	ErrNoActiveVideo = errors.New("no active video")
	// ErrInvalidChunking signals an invalid chunk size/overlap combination.
	ErrInvalidChunking = errors.New("chunk overlap must be smaller than chunk size")
)
