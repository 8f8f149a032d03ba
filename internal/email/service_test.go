package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/circuitbreaker"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

var notice = model.VerificationNotice{
	Email: "maria@example.com",
	Name:  "Maria <Silva>",
	Link:  "http://localhost:5173/verify-email?token=abc",
	Code:  "012345",
}

func TestVerificationMessage(t *testing.T) {
	msg := VerificationMessage("DocFlowMed", notice)

	assert.Equal(t, "Confirme seu e-mail - DocFlowMed", msg.Subject)
	assert.Contains(t, msg.Text, "012345")
	assert.Contains(t, msg.Text, notice.Link)
	assert.Contains(t, msg.HTML, "012345")
	assert.Contains(t, msg.HTML, "Maria &lt;Silva&gt;")
}

func TestVerificationMessageFallsBackToEmail(t *testing.T) {
	n := notice
	n.Name = ""
	msg := VerificationMessage("DocFlowMed", n)
	assert.Contains(t, msg.Text, "Olá, maria@example.com!")
}

func TestSMTPServiceSends(t *testing.T) {
	d := &fakeDialer{}
	svc := newSMTPService(Config{AppName: "DocFlowMed", From: "no-reply@docflowmed.test"}, d, logger.Nop())

	require.NoError(t, svc.SendVerification(context.Background(), notice))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"maria@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Confirme seu e-mail - DocFlowMed"}, d.sent[0].GetHeader("Subject"))
}

func TestSMTPServiceOpensBreaker(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	svc := newSMTPService(Config{AppName: "DocFlowMed"}, d, logger.Nop())

	for i := 0; i < 5; i++ {
		assert.Error(t, svc.SendVerification(context.Background(), notice))
	}

	d.err = nil
	err := svc.SendVerification(context.Background(), notice)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Empty(t, d.sent)
}

func TestLogServiceNeverFails(t *testing.T) {
	svc := NewLogService("DocFlowMed", logger.Nop())
	assert.NoError(t, svc.SendVerification(context.Background(), notice))
}
