package domain

// Transcript is the flattened caption text of one video. Immutable
// once fetched; replaced wholesale when the session switches videos.
type Transcript struct {
	VideoID     VideoID
	Text        string // caption snippets joined by single spaces
	Language    string // display language, e.g. "Hindi" or "Hindi (translated to English)"
	IsGenerated bool   // machine-generated (ASR) captions
	Translated  bool   // fetched through the translation fallback
}

// Chunk is one retrieval unit: a bounded contiguous span of the
// transcript text, in document order.
type Chunk struct {
	Ordinal int // position within the transcript, 0-based
	Offset  int // rune offset of Text within the transcript
	Text    string
}

// CaptionTrack is one caption track available for a video, as reported
// by the transcript source.
type CaptionTrack struct {
	BaseURL        string
	Language       string // display name, e.g. "Hindi (auto-generated)"
	LanguageCode   string
	IsGenerated    bool
	IsTranslatable bool
}
