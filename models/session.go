package models

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseDelegated Phase = "delegated"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// Session is the state of one rendered form. Objects stored in memdb must not
// be mutated in place; copy before changing.
type Session struct {
	ID          string   `json:"id"`
	FormData    FormData `json:"formData"`
	DocumentURL string   `json:"documentUrl"`
	Status      string   `json:"status"`
	Phase       Phase    `json:"phase"`
	AttemptID   string   `json:"attemptId,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	ExpiresAt   string   `json:"expiresAt"`
}
