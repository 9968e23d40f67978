package models

// DefaultNumImages is used when a request omits numImages or sends zero
const DefaultNumImages = 4

// GenerationRequest is the body of POST /generate, forwarded as-is to the backend
type GenerationRequest struct {
	Input            string `json:"input" validate:"required,notblank"`
	StyleID          string `json:"styleId" validate:"required,max=128"`
	NumImages        int    `json:"numImages,omitempty" validate:"gte=0"`
	Seed             *int64 `json:"seed,omitempty"`
	SessionID        string `json:"sessionId,omitempty"`
	ExperimentalMode bool   `json:"experimentalMode,omitempty"`
}

// ImageCount returns the requested image count, treating zero as "not set".
func (r *GenerationRequest) ImageCount() int {
	return r.CountOr(DefaultNumImages)
}

// CountOr returns the requested image count, or fallback when numImages is
// falsy. A fallback <= 0 means DefaultNumImages.
func (r *GenerationRequest) CountOr(fallback int) int {
	if r.NumImages > 0 {
		return r.NumImages
	}
	if fallback <= 0 {
		return DefaultNumImages
	}
	return fallback
}

// Normalized returns a copy whose numImages is set, using defaultCount when the request left it falsy
func (r GenerationRequest) Normalized(defaultCount int) GenerationRequest {
	r.NumImages = r.CountOr(defaultCount)
	return r
}

// RefineRequest is the body of POST /refine. Each selected image is
// reworked independently with the same instruction.
type RefineRequest struct {
	RefinePrompt       string   `json:"refinePrompt" validate:"required,notblank"`
	SelectedImagePaths []string `json:"selectedImagePaths" validate:"required,min=1,dive,required"`
	StyleID            string   `json:"styleId" validate:"required,max=128"`
	SessionID          string   `json:"sessionId,omitempty"`
}

// GenerationResult is produced once per generate request and never mutated afterwards
type GenerationResult struct {
	Timestamp          string             `json:"timestamp"`
	Sketches           []Sketch           `json:"sketches"`
	GenerationMetadata GenerationMetadata `json:"generationMetadata"`
}

// Sketch describes one produced image
type Sketch struct {
	ID         string         `json:"id"`
	ImagePath  *string        `json:"imagePath"`
	Resolution [2]int         `json:"resolution"`
	Metadata   SketchMetadata `json:"metadata"`
	Error      string         `json:"error,omitempty"`
}

// SketchMetadata carries the generation context of a single sketch
type SketchMetadata struct {
	PromptSpec      PromptSpec `json:"promptSpec"`
	ReferenceImages []string   `json:"referenceImages"`
	RetrievalScores []float64  `json:"retrievalScores"`
}

// PromptSpec is the compiled prompt the backend generated from the user input
type PromptSpec struct {
	Intent              string   `json:"intent"`
	RefinedIntent       string   `json:"refinedIntent"`
	NegativeConstraints []string `json:"negativeConstraints"`
}

// GenerationMetadata describes the configuration a result was produced with
type GenerationMetadata struct {
	StyleID    string     `json:"styleId"`
	ConfigUsed ConfigUsed `json:"configUsed"`
}

// ConfigUsed mirrors the backend generation config
type ConfigUsed struct {
	NumImages  int    `json:"numImages"`
	Resolution [2]int `json:"resolution"`
	OutputDir  string `json:"outputDir"`
	ModelName  string `json:"modelName"`
	Seed       *int64 `json:"seed"`
}

// GenerateResponse is the backend's answer to POST /generate
type GenerateResponse struct {
	Success bool              `json:"success"`
	Data    *GenerationResult `json:"data,omitempty"`
	Error   *ErrorBody        `json:"error,omitempty"`
}

// HistoryEntry is a past generation as listed by the backend
type HistoryEntry struct {
	Timestamp  string   `json:"timestamp"`
	DirName    string   `json:"dirName"`
	UserPrompt string   `json:"userPrompt"`
	Style      StyleRef `json:"style"`
	ImageCount int      `json:"imageCount"`
	Images     []string `json:"images"`
}

// StyleRef identifies the style a generation used
type StyleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HistoryResponse is the body of GET /generations
type HistoryResponse struct {
	Success     bool           `json:"success"`
	Total       int            `json:"total"`
	Generations []HistoryEntry `json:"generations"`
}

// EmptyHistory is the degraded answer for history reads
func EmptyHistory() *HistoryResponse {
	return &HistoryResponse{Success: true, Total: 0, Generations: []HistoryEntry{}}
}

// Style is a selectable drawing style exposed by the backend
type Style struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	VisualRules     map[string]any `json:"visualRules,omitempty"`
	ReferenceImages []string       `json:"referenceImages"`
	DoNotUse        []string       `json:"doNotUse"`
}

// StylesResponse is the body of GET /styles
type StylesResponse struct {
	Success bool    `json:"success"`
	Styles  []Style `json:"styles"`
}

// EmptyStyles is the degraded answer for style reads
func EmptyStyles() *StylesResponse {
	return &StylesResponse{Success: true, Styles: []Style{}}
}

// ErrorBody is the failure branch of the response envelope
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
