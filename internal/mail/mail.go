// Package mail delivers invitation emails through Amazon SES.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Invitation is the content of one invitation email.
type Invitation struct {
	ToEmail   string
	ChildName string
	Token     string
}

// sender is the subset of the SES client used here.
type sender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Mailer sends transactional email. With no sender address configured it
// is disabled and only logs what it would have sent.
type Mailer struct {
	client     sender
	fromEmail  string
	fromName   string
	appBaseURL string
	logger     *slog.Logger
}

// Config holds mailer settings.
type Config struct {
	Region     string
	FromEmail  string
	FromName   string
	AppBaseURL string
}

// New creates a Mailer. AWS credentials come from the default chain.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Mailer, error) {
	m := &Mailer{
		fromEmail:  cfg.FromEmail,
		fromName:   cfg.FromName,
		appBaseURL: strings.TrimSuffix(cfg.AppBaseURL, "/"),
		logger:     logger,
	}

	if cfg.FromEmail == "" {
		logger.Warn("email delivery disabled", slog.String("reason", "SES_FROM_EMAIL not configured"))
		return m, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	m.client = sesv2.NewFromConfig(awsCfg)
	logger.Info("email delivery enabled", slog.String("from", cfg.FromEmail), slog.String("region", cfg.Region))
	return m, nil
}

// IsEnabled returns whether emails are actually delivered.
func (m *Mailer) IsEnabled() bool {
	return m.client != nil
}

// SendInvitation emails a child the link that completes account setup.
func (m *Mailer) SendInvitation(ctx context.Context, inv Invitation) error {
	link := m.acceptURL(inv.Token)

	if !m.IsEnabled() {
		m.logger.Info("skipping invitation email",
			slog.String("reason", "delivery disabled"),
			slog.String("to", inv.ToEmail),
		)
		return nil
	}

	htmlBody, textBody, err := renderInvitation(inv.ChildName, link)
	if err != nil {
		return err
	}

	return m.send(ctx, inv.ToEmail, "You've been invited to Guardian", htmlBody, textBody)
}

func (m *Mailer) acceptURL(token string) string {
	return m.appBaseURL + "/auth/accept-invite?token=" + url.QueryEscape(token)
}

func (m *Mailer) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := m.fromEmail
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	attrs := []any{slog.String("to", toEmail), slog.String("subject", subject)}
	if out != nil && out.MessageId != nil {
		attrs = append(attrs, slog.String("message_id", *out.MessageId))
	}
	m.logger.Info("email sent", attrs...)
	return nil
}

var invitationHTML = template.Must(template.New("invite").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1>Welcome to Guardian</h1>
		<p>Hi {{.Name}},</p>
		<p>A parent has invited you to join their family on Guardian so you can share your location and send quick check-ins.</p>
		<p style="text-align: center;"><a href="{{.Link}}">Set up your account</a></p>
		<p style="word-break: break-all; font-size: 12px; color: #666;">{{.Link}}</p>
		<p>If you weren't expecting this, you can ignore this email.</p>
	</div>
</body>
</html>
`))

func renderInvitation(name, link string) (string, string, error) {
	var buf bytes.Buffer
	if err := invitationHTML.Execute(&buf, struct{ Name, Link string }{name, link}); err != nil {
		return "", "", fmt.Errorf("render invitation: %w", err)
	}

	text := fmt.Sprintf(`Hi %s,

A parent has invited you to join their family on Guardian so you can share your location and send quick check-ins.

Set up your account: %s

If you weren't expecting this, you can ignore this email.
`, name, link)

	return buf.String(), text, nil
}
