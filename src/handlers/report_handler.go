package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/username/gestorb3/src/database"
	"github.com/username/gestorb3/src/logger"
	"github.com/username/gestorb3/src/model"
	"github.com/username/gestorb3/src/models"
	"github.com/username/gestorb3/src/security/validation"
	"github.com/username/gestorb3/src/services"
	"github.com/username/gestorb3/src/utils"
)

type ReportHandler struct {
	reportService services.ReportService
	emailService  services.EmailService
}

func NewReportHandler(reportService services.ReportService, emailService services.EmailService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		emailService:  emailService,
	}
}

func (h *ReportHandler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	positions, err := h.reportService.Positions(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error computing positions for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if positions == nil {
		positions = []models.Position{}
	}
	utils.SendJSON(w, positions)
}

func (h *ReportHandler) HandleGetRealizations(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	realizations, err := h.reportService.Realizations(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error computing realizations for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if realizations == nil {
		realizations = []models.Realization{}
	}
	utils.SendJSON(w, realizations)
}

func (h *ReportHandler) HandleGetTaxSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	summaries, err := h.reportService.MonthlyTaxSummary(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error computing tax summary for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []models.MonthlyTaxSummary{}
	}
	utils.SendJSON(w, summaries)
}

func (h *ReportHandler) HandleGetAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	alerts, err := h.reportService.Alerts(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error computing alerts for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	utils.SendJSON(w, alerts)
}

func (h *ReportHandler) HandleGetTickerHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	ticker := validation.NormalizeTicker(r.PathValue("ticker"))
	if ticker == "" {
		utils.SendJSONError(w, "Ticker is required", http.StatusBadRequest)
		return
	}

	history, err := h.reportService.TickerHistory(userID, ticker)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error computing ticker history for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, history)
}

func (h *ReportHandler) HandleGetAnalyticReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	rows, err := h.reportService.AnalyticReport(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error computing analytic report for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []models.AnalyticRow{}
	}
	utils.SendJSON(w, rows)
}

// HandleSendTaxReminder emails the user a DARF reminder for a tax
// month. The month may be given in the body; otherwise the most recent
// month with tax due is used.
func (h *ReportHandler) HandleSendTaxReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var requestBody struct {
		Month string `json:"month"`
	}
	if r.Body != nil {
		// An empty body is fine, the month is optional.
		_ = json.NewDecoder(r.Body).Decode(&requestBody)
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		utils.SendJSONError(w, "User not found", http.StatusInternalServerError)
		return
	}
	if user.Email == "" {
		utils.SendJSONError(w, "No email address on record for this user", http.StatusUnprocessableEntity)
		return
	}

	summaries, err := h.reportService.MonthlyTaxSummary(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error computing tax summary for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	summary, found := pickReminderMonth(summaries, requestBody.Month)
	if !found {
		utils.SendJSONError(w, "No tax month with tax due found", http.StatusNotFound)
		return
	}

	if err := h.emailService.SendTaxReminder(user.Email, user.Username, summary); err != nil {
		logger.L.Error("Failed to send tax reminder", "userID", userID, "month", summary.Month, "error", err)
		utils.SendJSONError(w, "Failed to send tax reminder email", http.StatusInternalServerError)
		return
	}

	logger.FromContext(r.Context()).Info("Tax reminder sent",
		"userID", userID, "month", summary.Month, "totalTax", summary.TotalTax)
	utils.SendJSON(w, map[string]interface{}{
		"message": "tax reminder sent",
		"month":   summary.Month,
		"tax":     summary.TotalTax,
	})
}

func pickReminderMonth(summaries []models.MonthlyTaxSummary, month string) (models.MonthlyTaxSummary, bool) {
	if month != "" {
		for _, s := range summaries {
			if s.Month == month {
				return s, true
			}
		}
		return models.MonthlyTaxSummary{}, false
	}
	// Summaries are in ascending month order, so scan backwards for the
	// latest month that actually owes tax.
	for i := len(summaries) - 1; i >= 0; i-- {
		if summaries[i].TotalTax > 0 {
			return summaries[i], true
		}
	}
	return models.MonthlyTaxSummary{}, false
}
