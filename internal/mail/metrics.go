package mail

import (
	"context"

	"github.com/zamindar/collegeportal/internal/observability"
)

// InstrumentedMailer records send outcomes and latency for whatever
// transport it wraps, circuit breaker included.
type InstrumentedMailer struct {
	inner     Mailer
	prom      *observability.Prom
	transport string
}

func NewInstrumentedMailer(inner Mailer, prom *observability.Prom, transport string) *InstrumentedMailer {
	return &InstrumentedMailer{
		inner:     inner,
		prom:      prom,
		transport: transport,
	}
}

func (m *InstrumentedMailer) SendVerification(ctx context.Context, in VerificationEmail) error {
	return m.prom.ObserveMail(m.transport, func() error {
		return m.inner.SendVerification(ctx, in)
	})
}
