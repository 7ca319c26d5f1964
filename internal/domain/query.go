package domain

// QueryResult is the result-shaped value every question produces.
// Engine-level failures are reported through Success/Error rather than
// a raised error, so callers always branch on Success.
type QueryResult struct {
	Success    bool     `json:"success"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer,omitempty"`
	Sources    []string `json:"sources"` // retrieved chunk texts, rank order
	NumSources int      `json:"num_sources"`
	Error      string   `json:"error,omitempty"`
}

// VideoMetadata describes the active video of a session.
type VideoMetadata struct {
	VideoID         VideoID `json:"video_id"`
	Language        string  `json:"language"`
	IsGenerated     bool    `json:"is_generated"`
	Translated      bool    `json:"translated"`
	NumChunks       int     `json:"num_chunks"`
	TranscriptChars int     `json:"transcript_chars"`
}
