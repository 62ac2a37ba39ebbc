package studio

// Track is the current result of a generate or remix job: an audio file that
// lives on the studio service and is addressed by its server-assigned
// filename.
type Track struct {
	Filename string `json:"filename"`
	Mood     string `json:"mood"`
	Genre    string `json:"genre"`
	Tempo    int    `json:"tempo,omitempty"`
	Duration int    `json:"duration,omitempty"`
	IsRemix  bool   `json:"is_remix,omitempty"`
}

// GenerateRequest is the payload for a generation job. Values are expected to
// be validated before the request is built, they are sent as-is.
type GenerateRequest struct {
	Mood     string `json:"mood"`
	Genre    string `json:"genre"`
	Duration int    `json:"duration"`
	Tempo    int    `json:"tempo"`
}

// Upload is a source audio asset to be sent as a multipart file field.
type Upload struct {
	Name string
	MIME string
	Data []byte
}

// RemixRequest is the payload for a remix job. HarmonyType and SourceMood are
// always transmitted, the server ignores them unless their gate flag is set.
type RemixRequest struct {
	Source               Upload
	Mood                 string
	Genre                string
	TempoChange          float64
	PitchShift           int
	AddHarmony           bool
	HarmonyType          string
	IntelligentTransform bool
	SourceMood           string
}

// Features are the raw musical features the service extracts from an asset.
type Features struct {
	Energy       float64 `json:"energy"`
	Brightness   float64 `json:"brightness"`
	DynamicRange float64 `json:"dynamic_range"`
}

// Suggestion is a named remix preset proposed by the analysis endpoint.
type Suggestion struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Params      map[string]any `json:"params"`
}

// Analysis is the result of the analyze endpoint for one source asset.
type Analysis struct {
	Features        Features     `json:"features"`
	SuggestedMoods  []string     `json:"suggested_moods"`
	SuggestedGenres []string     `json:"suggested_genres"`
	Suggestions     []Suggestion `json:"creative_suggestions"`
	Duration        float64      `json:"duration"`
}

// AppliedEffects echoes back what the server applied during a remix.
type AppliedEffects struct {
	PitchShift           int     `json:"pitch_shift"`
	TempoChange          float64 `json:"tempo_change"`
	Harmony              string  `json:"harmony,omitempty"`
	IntelligentTransform bool    `json:"intelligent_transform"`
}
