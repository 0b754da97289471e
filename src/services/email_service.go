package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/gestorb3/src/config"
	"github.com/username/gestorb3/src/logger"
	"github.com/username/gestorb3/src/models"
)

func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			SMTPServer:   config.Cfg.SMTPServer,
			SMTPPort:     config.Cfg.SMTPPort,
			SMTPUser:     config.Cfg.SMTPUser,
			SMTPPassword: config.Cfg.SMTPPassword,
			SenderEmail:  config.Cfg.SenderEmail,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{}
	}
}

// taxReminderBody renders the plain-text DARF reminder for one month.
func taxReminderBody(username string, summary models.MonthlyTaxSummary) (subject, body string) {
	subject = fmt.Sprintf("Tax reminder for %s: R$ %.2f due", summary.Month, summary.TotalTax)
	body = fmt.Sprintf(`Hi %s,

Here is your estimated securities tax for %s:

  Day trade:        R$ %.2f (gross result R$ %.2f)
  Swing trade stock: R$ %.2f (gross result R$ %.2f, sell volume R$ %.2f)
  Swing trade FII:   R$ %.2f (gross result R$ %.2f)
  Swing trade BDR:   R$ %.2f (gross result R$ %.2f)

  Total due: R$ %.2f

This is an unofficial estimate. Always confirm the amounts before
issuing a DARF.

Gestor B3`,
		username, summary.Month,
		summary.DayTrade.Tax, summary.DayTrade.Gross,
		summary.SwingStock.Tax, summary.SwingStock.Gross, summary.SwingStock.SellVolume,
		summary.SwingFII.Tax, summary.SwingFII.Gross,
		summary.SwingBDR.Tax, summary.SwingBDR.Gross,
		summary.TotalTax)
	return subject, body
}

type MailgunEmailService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
}

func (s *MailgunEmailService) SendTaxReminder(toEmail, username string, summary models.MonthlyTaxSummary) error {
	subject, body := taxReminderBody(username, summary)
	sender := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	message := s.mg.NewMessage(sender, subject, body, toEmail)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send tax reminder via Mailgun", "error", err, "to", toEmail)
		return fmt.Errorf("failed to send tax reminder via Mailgun: %w", err)
	}
	logger.L.Info("Tax reminder sent via Mailgun", "to", toEmail, "month", summary.Month, "id", id, "response", resp)
	return nil
}

type SMTPEmailService struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
}

func (s *SMTPEmailService) SendTaxReminder(toEmail, username string, summary models.MonthlyTaxSummary) error {
	subject, body := taxReminderBody(username, summary)

	header := make(map[string]string)
	header["From"] = s.SenderEmail
	header["To"] = toEmail
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/plain; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	if err := smtp.SendMail(addr, auth, s.SenderEmail, []string{toEmail}, []byte(message)); err != nil {
		logger.L.Error("Failed to send tax reminder via SMTP", "error", err, "to", toEmail)
		return fmt.Errorf("failed to send tax reminder via SMTP: %w", err)
	}
	logger.L.Info("Tax reminder sent via SMTP", "to", toEmail, "month", summary.Month)
	return nil
}

// MockEmailService logs instead of sending. Used whenever no provider is
// configured, which is the normal state for a local single-user setup.
type MockEmailService struct{}

func (s *MockEmailService) SendTaxReminder(toEmail, username string, summary models.MonthlyTaxSummary) error {
	subject, _ := taxReminderBody(username, summary)
	if logger.L != nil {
		logger.L.Info("Mock email service: tax reminder not sent", "to", toEmail, "subject", subject)
	}
	return nil
}
