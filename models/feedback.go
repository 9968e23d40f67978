package models

// FeedbackRequest is designer feedback on the sketches of a session
type FeedbackRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=128"`
	StyleID   string `json:"styleId" validate:"required,max=128"`
	Feedback  string `json:"feedback" validate:"required,max=4000"`
}

// FeedbackResponse is the backend's answer to POST /feedback
type FeedbackResponse struct {
	Success    bool       `json:"success"`
	TurnNumber int        `json:"turnNumber"`
	Summarized bool       `json:"summarized"`
	Error      *ErrorBody `json:"error,omitempty"`
}

// SummarizeRequest asks the backend to fold session feedback into the style
type SummarizeRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=128"`
	StyleID   string `json:"styleId" validate:"required,max=128"`
}

// SummarizeResponse carries the summary, nil when there was nothing to summarize
type SummarizeResponse struct {
	Success bool       `json:"success"`
	Summary *string    `json:"summary"`
	Error   *ErrorBody `json:"error,omitempty"`
}
