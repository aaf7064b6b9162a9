// File: internal/notification/email.go
package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/uptime-watcher/internal/config"
	"github.com/smartdevs17/uptime-watcher/pkg/utils"
)

// EmailSender delivers alert notifications over SMTP
type EmailSender struct {
	config *config.NotificationConfig
	logger *logrus.Entry
	auth   smtp.Auth
}

// NewEmailSender creates an email sender from notification config
func NewEmailSender(cfg *config.NotificationConfig) *EmailSender {
	es := &EmailSender{
		config: cfg,
		logger: utils.GetLogger().WithField("component", "email_sender"),
	}

	if cfg.SMTPUsername != "" && cfg.SMTPPassword != "" {
		es.auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}

	return es
}

// Send delivers one plain-text message to the recipients
func (es *EmailSender) Send(ctx context.Context, to []string, subject, body string) error {
	start := time.Now()

	if len(to) == 0 {
		return utils.NewAppError(utils.ErrCodeValidation, "Email recipients are required")
	}
	for _, addr := range to {
		if !isValidEmail(addr) {
			return utils.NewAppError(utils.ErrCodeValidation, "Invalid email address", addr)
		}
	}

	message := es.buildMessage(to, subject, body)

	var err error
	if es.config.UseTLS {
		err = es.sendTLS(ctx, to, message)
	} else {
		err = es.sendPlain(to, message)
	}

	if err != nil {
		es.logger.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
			"error":   err,
		}).Warn("Email delivery failed")
		return utils.NewAppError(utils.ErrCodeExternal, "Failed to send email", err.Error())
	}

	es.logger.WithFields(logrus.Fields{
		"to":          to,
		"subject":     subject,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Email sent")
	return nil
}

// sendTLS delivers the message over an explicit TLS connection
func (es *EmailSender) sendTLS(ctx context.Context, to []string, message string) error {
	addr := fmt.Sprintf("%s:%d", es.config.SMTPHost, es.config.SMTPPort)

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: es.config.SMTPHost}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect with TLS: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, es.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if es.auth != nil {
		if err := client.Auth(es.auth); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := client.Mail(es.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	return writer.Close()
}

// sendPlain delivers the message without TLS
func (es *EmailSender) sendPlain(to []string, message string) error {
	addr := fmt.Sprintf("%s:%d", es.config.SMTPHost, es.config.SMTPPort)
	return smtp.SendMail(addr, es.auth, es.config.FromEmail, to, []byte(message))
}

// buildMessage assembles headers and body into one SMTP message
func (es *EmailSender) buildMessage(to []string, subject, body string) string {
	var message strings.Builder

	message.WriteString(fmt.Sprintf("From: %s <%s>\r\n", es.config.FromName, es.config.FromEmail))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	message.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	message.WriteString("\r\n")
	message.WriteString(body)
	message.WriteString("\r\n")

	return message.String()
}

// isValidEmail performs basic email validation
func isValidEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}

	local, domain := parts[0], parts[1]
	if len(local) == 0 || len(local) > 64 {
		return false
	}
	if len(domain) == 0 || len(domain) > 253 {
		return false
	}

	return true
}
