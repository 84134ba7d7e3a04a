package mail

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogMailer is the dev/test transport: it prints the verification link
// instead of delivering anything.
type LogMailer struct {
	frontendURL string
}

func NewLogMailer(frontendURL string) *LogMailer {
	return &LogMailer{frontendURL: frontendURL}
}

func (m *LogMailer) SendVerification(ctx context.Context, in VerificationEmail) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("MAILER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("MAILER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	log.Printf("mail.verification email=%s name=%s link=%s",
		in.Email, in.Name, VerificationLink(m.frontendURL, in.Token),
	)
	return nil
}
