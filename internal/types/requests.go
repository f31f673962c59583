package types

import "time"

// DecideRequest is the HTTP payload for a routing decision.
type DecideRequest struct {
	Prompt      string             `json:"prompt"`
	Attachments *AttachmentContext `json:"attachments,omitempty"`
}

// ExplainRequest asks for the full scoring breakdown of an already-chosen
// model, used by "why this model" transparency displays.
type ExplainRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

// ModelSummary is the read-only roster entry returned by the models endpoint.
type ModelSummary struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Provider    string    `json:"provider"`
	Tier        ModelTier `json:"tier"`
	Vision      bool      `json:"vision"`
}

// ErrorResponse is the uniform error envelope for the HTTP surface.
type ErrorResponse struct {
	Error     ErrorDetail `json:"error"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorDetail carries the machine-readable error fields.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Models    int       `json:"models"`
	Timestamp time.Time `json:"timestamp"`
}
