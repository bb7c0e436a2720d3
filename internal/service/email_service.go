package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"triproom/internal/models"
)

// EmailSender is the part of the SES client the email service uses
type EmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends room invitations via Amazon SES
type EmailService struct {
	client     EmailSender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. With no from address the
// service is disabled and sends become logged no-ops.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		slog.Info("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{appBaseURL: appBaseURL}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	slog.Info("Email service enabled", "from", fromEmail, "region", awsRegion)
	return NewEmailServiceWithClient(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL), nil
}

// NewEmailServiceWithClient creates an enabled email service around client
func NewEmailServiceWithClient(client EmailSender, fromEmail, fromName, appBaseURL string) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// JoinLink returns the URL that opens the join screen for a room code
func (s *EmailService) JoinLink(code string) string {
	return fmt.Sprintf("%s/join?code=%s", s.appBaseURL, url.QueryEscape(code))
}

// SendRoomInvite emails toEmail the room's join code and a join link
func (s *EmailService) SendRoomInvite(ctx context.Context, toEmail, inviterName string, room *models.Room) error {
	if !s.enabled {
		slog.Info("Skipping email send (service disabled)", "kind", "room invite", "to", toEmail)
		return nil
	}

	link := s.JoinLink(room.Code)
	subject := fmt.Sprintf("%s invited you to plan %s", inviterName, room.Name)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h1>Join %s</h1>
	<p>%s is planning a trip to %s and would like you to join.</p>
	<p>Your room code is <strong style="font-size: 20px; letter-spacing: 3px;">%s</strong></p>
	<p><a href="%s">Open the room</a></p>
	<p style="font-size: 12px; color: #666;">This is an automated email. Please do not reply.</p>
</body>
</html>
`, html.EscapeString(room.Name), html.EscapeString(inviterName), html.EscapeString(room.Destination),
		room.Code, html.EscapeString(link))

	textBody := fmt.Sprintf(`%s is planning a trip to %s and would like you to join.

Room code: %s
Join here: %s
`, inviterName, room.Destination, room.Code, link)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	slog.Info("Email sent", "to", toEmail, "subject", subject, "message_id", aws.ToString(result.MessageId))
	return nil
}
