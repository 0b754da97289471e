package services

import (
	"github.com/username/gestorb3/src/models"
	"github.com/username/gestorb3/src/security/validation"
)

// ReportService is the single entry point for the transaction store and
// every derived report. All reports are pure functions of the current
// operation/earning rows, recomputed in full on demand and cached until
// the next write.
type ReportService interface {
	// Transaction store writes. Every write invalidates the user's caches.
	InsertOperation(op *models.Operation) error
	UpdateOperation(op *models.Operation) error
	DeleteOperation(userID, operationID int64) error
	DeleteAllOperations(userID int64) error
	InsertEarning(e *models.Earning) error
	DeleteEarning(userID, earningID int64) error
	DeleteAllEarnings(userID int64) error

	// Transaction store reads.
	ListOperations(userID int64) ([]models.Operation, error)
	ListEarnings(userID int64) ([]models.Earning, error)
	CheckShortSale(userID int64, ticker string, quantity int) (validation.ShortSaleCheck, error)

	// Derived reports.
	Positions(userID int64) ([]models.Position, error)
	Realizations(userID int64) ([]models.Realization, error)
	MonthlyTaxSummary(userID int64) ([]models.MonthlyTaxSummary, error)
	Alerts(userID int64) ([]models.Alert, error)
	TickerHistory(userID int64, ticker string) (*models.TickerHistory, error)
	AnalyticReport(userID int64) ([]models.AnalyticRow, error)

	InvalidateUserCache(userID int64)
}

// EmailService sends the monthly tax reminder. Implementations may be
// backed by Mailgun, plain SMTP, or a mock that only logs.
type EmailService interface {
	SendTaxReminder(toEmail, username string, summary models.MonthlyTaxSummary) error
}
