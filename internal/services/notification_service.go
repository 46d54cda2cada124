package services

import (
	"context"
	"fmt"
	"html"

	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// MailSender delivers email messages
//
// Implemented by *mail.Dialer.
type MailSender interface {
	DialAndSend(m ...*mail.Message) error
}

// EnrollmentDecision describes an administrator review outcome sent to the learner
type EnrollmentDecision struct {
	Email       string
	Name        string
	CourseTitle string
	Status      models.EnrollmentStatus
	Message     string
}

// notificationService emails learners about enrollment decisions
// A nil sender disables delivery
type notificationService struct {
	sender MailSender
	from   string
	logger *zap.Logger
}

// NewNotificationService creates a new notification service; pass a nil sender to disable emails
func NewNotificationService(sender MailSender, from string, logger *zap.Logger) *notificationService {
	return &notificationService{
		sender: sender,
		from:   from,
		logger: logger,
	}
}

// NotifyEnrollmentDecision emails the learner the outcome of the review
func (s *notificationService) NotifyEnrollmentDecision(ctx context.Context, d EnrollmentDecision) error {
	if s.sender == nil {
		s.logger.Debug("email delivery disabled, skipping enrollment notification", zap.String("status", string(d.Status)))
		return nil
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetAddressHeader("To", d.Email, d.Name)
	m.SetHeader("Subject", decisionSubject(d))
	m.SetBody("text/html", decisionBody(d))

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// PasswordResetMail carries the one-time token emailed to a user who forgot the password
type PasswordResetMail struct {
	Email string
	Name  string
	Token string
}

// SendPasswordReset emails the reset token
func (s *notificationService) SendPasswordReset(ctx context.Context, m PasswordResetMail) error {
	if s.sender == nil {
		s.logger.Debug("email delivery disabled, skipping password reset email")
		return nil
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetAddressHeader("To", m.Email, m.Name)
	msg.SetHeader("Subject", "Reset your password")
	msg.SetBody("text/html", fmt.Sprintf(
		"<p>Hello %s,</p><p>Use this code to choose a new password: <b>%s</b></p><p>It expires in one hour.</p>",
		html.EscapeString(m.Name), html.EscapeString(m.Token)))

	if err := s.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func decisionSubject(d EnrollmentDecision) string {
	if d.Status == models.EnrollmentStatusApproved {
		return fmt.Sprintf("Your enrollment in %s was approved", d.CourseTitle)
	}
	return fmt.Sprintf("Your enrollment in %s was rejected", d.CourseTitle)
}

func decisionBody(d EnrollmentDecision) string {
	body := fmt.Sprintf("<p>Hello %s,</p>", html.EscapeString(d.Name))
	if d.Status == models.EnrollmentStatusApproved {
		body += fmt.Sprintf("<p>Your payment was confirmed. You now have access to <b>%s</b>.</p>", html.EscapeString(d.CourseTitle))
	} else {
		body += fmt.Sprintf("<p>We could not confirm your payment for <b>%s</b>.</p>", html.EscapeString(d.CourseTitle))
	}
	if d.Message != "" {
		body += fmt.Sprintf("<p>Message from the reviewer: %s</p>", html.EscapeString(d.Message))
	}
	return body
}
