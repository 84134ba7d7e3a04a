package mail

import "context"

type VerificationEmail struct {
	Email string
	Name  string
	Token string
}

type Mailer interface {
	SendVerification(ctx context.Context, in VerificationEmail) error
}
