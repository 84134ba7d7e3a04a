package jobs

import (
	"encoding/json"
	"time"
)

// SendVerificationEmailPayload is queued when the synchronous send at
// registration time fails; the worker retries delivery.
type SendVerificationEmailPayload struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Token       string    `json:"token"`
	RequestedAt time.Time `json:"requestedAt"`
	RequestID   string    `json:"requestId,omitempty"` // optional: correlation
}

func (p SendVerificationEmailPayload) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(p)

	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
