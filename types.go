package main

// apiRequest is the shared body shape of all POST endpoints. Endpoints read
// the fields that apply to them and ignore the rest.
type apiRequest struct {
	Title  string   `json:"title"`
	Artist string   `json:"artist"`
	Album  string   `json:"album"`
	Source string   `json:"source"`
	ID     string   `json:"id"`

	Sources        []string       `json:"sources"`
	Mode           string         `json:"mode"`
	Translation    string         `json:"translation"`
	OffsetMs       int64          `json:"offset_ms"`
	MsDigits       int            `json:"ms_digits"`
	AddEndStamp    bool           `json:"add_end_timestamp_line"`
	MinScore       float64        `json:"min_score"`
	MaxCandidates  int            `json:"max_candidates"`
	LimitPerSource int            `json:"limit_per_source"`
	DurationMs     int64          `json:"duration_ms"`
	Extra          map[string]any `json:"extra"`

	OpenAIBaseURL    string `json:"openai_base_url"`
	OpenAIAPIKey     string `json:"openai_api_key"`
	OpenAIModel      string `json:"openai_model"`
	OpenAITargetLang string `json:"openai_target_lang"`
}

// songResult is one entry of the /search response.
type songResult struct {
	Source     string         `json:"source"`
	ID         string         `json:"id"`
	Score      float64        `json:"score"`
	Title      string         `json:"title"`
	Artist     *string        `json:"artist"`
	Album      string         `json:"album"`
	DurationMs int64          `json:"duration_ms"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// searchResponse is the /search response envelope.
type searchResponse struct {
	Results []songResult `json:"results"`
	Errors  []string     `json:"errors,omitempty"`
}
