package channels

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"medminder/models"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+15551234567":     "+15551234567",
		" +15551234567 ":   "+15551234567",
		"15551234567":      "+15551234567",
		"(555) 123-4567":   "+5551234567",
		"1 555.123.4567 ":  "+15551234567",
		"+44 20 7946 0958": "+44 20 7946 0958",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizePhone(in), "input %q", in)
	}
}

func TestSMSReminderBody(t *testing.T) {
	body := SMSReminderBody(models.Medication{Name: "Aspirin", Dosage: "81mg"})
	require.Equal(t, "Medication Reminder: time to take Aspirin (81mg).", body)

	body = SMSReminderBody(models.Medication{Name: "Insulin", Dosage: "10u", Instructions: "before meals"})
	require.Contains(t, body, "Insulin")
	require.Contains(t, body, "10u")
	require.True(t, strings.HasSuffix(body, "Instructions: before meals"))
}

func TestEmailReminderEscapesHTML(t *testing.T) {
	msg, err := EmailReminder(
		models.User{Name: "Ann", Email: "a@example.com"},
		models.Medication{Name: "<b>Aspirin</b>", Dosage: "81mg"},
	)
	require.NoError(t, err)
	require.Equal(t, "a@example.com", msg.To)
	require.Contains(t, msg.Subject, "Medication Reminder")
	require.Contains(t, msg.HTML, "&lt;b&gt;Aspirin&lt;/b&gt;")
	require.NotContains(t, msg.HTML, "Instructions")
	require.Contains(t, msg.Text, "81mg")
}

type fakeTwilio struct {
	params *openapi.CreateMessageParams
	delay  time.Duration
	err    error
}

func (f *fakeTwilio) CreateMessage(p *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.params = p
	time.Sleep(f.delay)
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &openapi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioSMSNotConfigured(t *testing.T) {
	s := NewTwilioSMS(TwilioConfig{}, zap.NewNop())
	_, err := s.SendSMS(context.Background(), "+15551234567", "hi")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestTwilioSMSSendsNormalizedNumber(t *testing.T) {
	api := &fakeTwilio{}
	s := &TwilioSMS{api: api, from: "+15550000000", logger: zap.NewNop()}

	sid, err := s.SendSMS(context.Background(), "1 (555) 123-4567", "hi")
	require.NoError(t, err)
	require.Equal(t, "SM123", sid)
	require.Equal(t, "+15551234567", *api.params.To)
	require.Equal(t, "+15550000000", *api.params.From)
	require.Equal(t, "hi", *api.params.Body)
}

func TestTwilioSMSHonoursContext(t *testing.T) {
	s := &TwilioSMS{api: &fakeTwilio{delay: time.Second}, from: "+1", logger: zap.NewNop()}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.SendSMS(ctx, "+15551234567", "hi")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTwilioSMSWrapsProviderError(t *testing.T) {
	boom := errors.New("21211 invalid to")
	s := &TwilioSMS{api: &fakeTwilio{err: boom}, from: "+1", logger: zap.NewNop()}
	_, err := s.SendSMS(context.Background(), "+15551234567", "hi")
	require.ErrorIs(t, err, boom)
}

type countingSMS struct{ calls int }

func (c *countingSMS) SendSMS(context.Context, string, string) (string, error) {
	c.calls++
	return "id", nil
}

func TestRateLimitedSMS(t *testing.T) {
	inner := &countingSMS{}
	require.Same(t, SMSSender(inner), NewRateLimitedSMS(inner, 0, 1))

	limited := NewRateLimitedSMS(inner, 0.001, 1)
	_, err := limited.SendSMS(context.Background(), "+1", "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.SendSMS(ctx, "+1", "b")
	require.Error(t, err)
	require.Equal(t, 1, inner.calls)
}

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestSMTPEmail(t *testing.T) {
	e := NewSMTPEmail(SMTPConfig{}, zap.NewNop())
	require.ErrorIs(t, e.SendEmail(context.Background(), EmailMessage{To: "a@example.com"}), ErrNotConfigured)

	d := &fakeDialer{}
	e = &SMTPEmail{dialer: d, from: "noreply@example.com", logger: zap.NewNop()}
	err := e.SendEmail(context.Background(), EmailMessage{To: "a@example.com", Subject: "Medication Reminder: Aspirin", Text: "t", HTML: "<p>h</p>"})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)
	require.Equal(t, []string{"a@example.com"}, d.sent[0].GetHeader("To"))
	require.Equal(t, []string{"Medication Reminder: Aspirin"}, d.sent[0].GetHeader("Subject"))

	d.err = errors.New("535 auth failed")
	require.ErrorIs(t, e.SendEmail(context.Background(), EmailMessage{To: "a@example.com"}), d.err)
}

type fakeResend struct {
	req *resend.SendEmailRequest
}

func (f *fakeResend) SendWithContext(_ context.Context, p *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.req = p
	return &resend.SendEmailResponse{Id: "re_1"}, nil
}

func TestResendEmail(t *testing.T) {
	e := NewResendEmail("", "", zap.NewNop())
	require.ErrorIs(t, e.SendEmail(context.Background(), EmailMessage{}), ErrNotConfigured)

	api := &fakeResend{}
	e = &ResendEmail{emails: api, from: "noreply@example.com", logger: zap.NewNop()}
	require.NoError(t, e.SendEmail(context.Background(), EmailMessage{To: "a@example.com", Subject: "s", Text: "t", HTML: "h"}))
	require.Equal(t, []string{"a@example.com"}, api.req.To)
	require.Equal(t, "h", api.req.Html)
}
