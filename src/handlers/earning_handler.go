package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/username/gestorb3/src/logger"
	"github.com/username/gestorb3/src/models"
	"github.com/username/gestorb3/src/security/validation"
	"github.com/username/gestorb3/src/services"
	"github.com/username/gestorb3/src/utils"
)

type EarningHandler struct {
	reportService services.ReportService
}

func NewEarningHandler(reportService services.ReportService) *EarningHandler {
	return &EarningHandler{
		reportService: reportService,
	}
}

func (h *EarningHandler) HandleListEarnings(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	earnings, err := h.reportService.ListEarnings(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error querying earnings for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if earnings == nil {
		earnings = []models.Earning{}
	}
	utils.SendJSON(w, earnings)
}

func (h *EarningHandler) HandleInsertEarning(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var earning models.Earning
	if err := json.NewDecoder(r.Body).Decode(&earning); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	earning.UserID = userID
	earning.Ticker = validation.NormalizeTicker(earning.Ticker)

	if reasons := validation.ValidateEarning(earning, time.Now()); len(reasons) > 0 {
		utils.SendJSONError(w, strings.Join(reasons, "; "), http.StatusBadRequest)
		return
	}

	if err := h.reportService.InsertEarning(&earning); err != nil {
		logger.L.Error("Failed to insert earning", "userID", userID, "ticker", earning.Ticker, "error", err)
		utils.SendJSONError(w, "Failed to save earning", http.StatusInternalServerError)
		return
	}

	logger.FromContext(r.Context()).Info("Earning inserted",
		"userID", userID, "ticker", earning.Ticker, "kind", earning.Kind, "amount", earning.Amount)
	w.WriteHeader(http.StatusCreated)
	utils.SendJSON(w, earning)
}

func (h *EarningHandler) HandleDeleteEarning(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	earningID, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid earning ID", http.StatusBadRequest)
		return
	}

	if err := h.reportService.DeleteEarning(userID, earningID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.SendJSONError(w, "Earning not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete earning", "userID", userID, "earningID", earningID, "error", err)
		utils.SendJSONError(w, "Failed to delete earning", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]string{"message": "earning deleted"})
}

func (h *EarningHandler) HandleDeleteAllEarnings(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.reportService.DeleteAllEarnings(userID); err != nil {
		logger.L.Error("Failed to delete all earnings", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to delete earnings", http.StatusInternalServerError)
		return
	}
	logger.L.Info("All earnings deleted", "userID", userID)
	utils.SendJSON(w, map[string]string{"message": "all earnings deleted"})
}
