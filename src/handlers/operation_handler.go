package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/username/gestorb3/src/config"
	"github.com/username/gestorb3/src/logger"
	"github.com/username/gestorb3/src/models"
	"github.com/username/gestorb3/src/security/validation"
	"github.com/username/gestorb3/src/services"
	"github.com/username/gestorb3/src/utils"
)

type OperationHandler struct {
	reportService services.ReportService
}

func NewOperationHandler(reportService services.ReportService) *OperationHandler {
	return &OperationHandler{
		reportService: reportService,
	}
}

func (h *OperationHandler) HandleListOperations(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	operations, err := h.reportService.ListOperations(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error querying operations for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if operations == nil {
		operations = []models.Operation{}
	}
	utils.SendJSON(w, operations)
}

func (h *OperationHandler) HandleInsertOperation(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var op models.Operation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	op.UserID = userID

	if reasons := h.validateAndNormalize(&op); len(reasons) > 0 {
		utils.SendJSONError(w, strings.Join(reasons, "; "), http.StatusBadRequest)
		return
	}

	if config.Cfg.BlockShortSales && op.Side == models.SideSell {
		check, err := h.reportService.CheckShortSale(userID, op.Ticker, op.Quantity)
		if err != nil {
			utils.SendJSONError(w, fmt.Sprintf("Error checking position for userID %d: %v", userID, err), http.StatusInternalServerError)
			return
		}
		if check.Short {
			utils.SendJSONError(w,
				fmt.Sprintf("sell of %d exceeds current position of %d for %s (missing %d)",
					op.Quantity, check.Available, op.Ticker, check.Missing),
				http.StatusUnprocessableEntity)
			return
		}
	}

	if err := h.reportService.InsertOperation(&op); err != nil {
		logger.L.Error("Failed to insert operation", "userID", userID, "ticker", op.Ticker, "error", err)
		utils.SendJSONError(w, "Failed to save operation", http.StatusInternalServerError)
		return
	}

	logger.FromContext(r.Context()).Info("Operation inserted",
		"userID", userID, "ticker", op.Ticker, "side", op.Side, "quantity", op.Quantity)
	w.WriteHeader(http.StatusCreated)
	utils.SendJSON(w, op)
}

func (h *OperationHandler) HandleUpdateOperation(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	operationID, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid operation ID", http.StatusBadRequest)
		return
	}

	var op models.Operation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	op.ID = operationID
	op.UserID = userID

	if reasons := h.validateAndNormalize(&op); len(reasons) > 0 {
		utils.SendJSONError(w, strings.Join(reasons, "; "), http.StatusBadRequest)
		return
	}

	if err := h.reportService.UpdateOperation(&op); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.SendJSONError(w, "Operation not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to update operation", "userID", userID, "operationID", operationID, "error", err)
		utils.SendJSONError(w, "Failed to update operation", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, op)
}

func (h *OperationHandler) HandleDeleteOperation(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	operationID, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid operation ID", http.StatusBadRequest)
		return
	}

	if err := h.reportService.DeleteOperation(userID, operationID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.SendJSONError(w, "Operation not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to delete operation", "userID", userID, "operationID", operationID, "error", err)
		utils.SendJSONError(w, "Failed to delete operation", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, map[string]string{"message": "operation deleted"})
}

func (h *OperationHandler) HandleDeleteAllOperations(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.reportService.DeleteAllOperations(userID); err != nil {
		logger.L.Error("Failed to delete all operations", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to delete operations", http.StatusInternalServerError)
		return
	}
	logger.L.Info("All operations deleted", "userID", userID)
	utils.SendJSON(w, map[string]string{"message": "all operations deleted"})
}

func (h *OperationHandler) validateAndNormalize(op *models.Operation) []string {
	op.Ticker = validation.NormalizeTicker(op.Ticker)
	return validation.ValidateOperation(*op, time.Now())
}

// pathID reads a numeric path value registered with the {name} pattern
// on the mux.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
