package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/gestorb3/src/database"
	"github.com/username/gestorb3/src/logger"
	"github.com/username/gestorb3/src/models"
	"github.com/username/gestorb3/src/processors"
	"github.com/username/gestorb3/src/security/validation"
	"github.com/username/gestorb3/src/utils"
)

const (
	// Long-lived caches for full recomputation results. They only go
	// stale through writes, and every write deletes them.
	ckRealizations = "res_realizations_user_%d"
	ckPositions    = "res_positions_user_%d"
	ckTaxSummary   = "res_tax_summary_user_%d"

	// Short-lived, aggregate cache.
	ckAlerts = "agg_alerts_user_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

var ErrNotFound = errors.New("record not found")

type reportServiceImpl struct {
	resultProcessor   processors.ResultProcessor
	taxProcessor      processors.TaxProcessor
	earningsProcessor processors.EarningsProcessor
	alertProcessor    processors.AlertProcessor
	reportCache       *cache.Cache
}

func NewReportService(
	resultProcessor processors.ResultProcessor,
	taxProcessor processors.TaxProcessor,
	earningsProcessor processors.EarningsProcessor,
	alertProcessor processors.AlertProcessor,
	reportCache *cache.Cache,
) ReportService {
	return &reportServiceImpl{
		resultProcessor:   resultProcessor,
		taxProcessor:      taxProcessor,
		earningsProcessor: earningsProcessor,
		alertProcessor:    alertProcessor,
		reportCache:       reportCache,
	}
}

// --- Transaction store writes ---

func (s *reportServiceImpl) InsertOperation(op *models.Operation) error {
	res, err := database.DB.Exec(
		`INSERT INTO operations (user_id, date, time, ticker, side, quantity, price, brokerage_fee, exchange_fee)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.UserID, op.Date, op.Time, op.Ticker, op.Side, op.Quantity, op.Price, op.BrokerageFee, op.ExchangeFee)
	if err != nil {
		return fmt.Errorf("error inserting operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading inserted operation id: %w", err)
	}
	op.ID = id
	s.InvalidateUserCache(op.UserID)
	return nil
}

func (s *reportServiceImpl) UpdateOperation(op *models.Operation) error {
	res, err := database.DB.Exec(
		`UPDATE operations SET date = ?, time = ?, ticker = ?, side = ?, quantity = ?, price = ?, brokerage_fee = ?, exchange_fee = ?
		 WHERE id = ? AND user_id = ?`,
		op.Date, op.Time, op.Ticker, op.Side, op.Quantity, op.Price, op.BrokerageFee, op.ExchangeFee, op.ID, op.UserID)
	if err != nil {
		return fmt.Errorf("error updating operation %d: %w", op.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking update of operation %d: %w", op.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.InvalidateUserCache(op.UserID)
	return nil
}

func (s *reportServiceImpl) DeleteOperation(userID, operationID int64) error {
	res, err := database.DB.Exec(`DELETE FROM operations WHERE id = ? AND user_id = ?`, operationID, userID)
	if err != nil {
		return fmt.Errorf("error deleting operation %d: %w", operationID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking delete of operation %d: %w", operationID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.InvalidateUserCache(userID)
	return nil
}

func (s *reportServiceImpl) DeleteAllOperations(userID int64) error {
	if _, err := database.DB.Exec(`DELETE FROM operations WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("error deleting operations for userID %d: %w", userID, err)
	}
	s.InvalidateUserCache(userID)
	return nil
}

func (s *reportServiceImpl) InsertEarning(e *models.Earning) error {
	res, err := database.DB.Exec(
		`INSERT INTO earnings (user_id, date, ticker, kind, amount) VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.Date, e.Ticker, e.Kind, e.Amount)
	if err != nil {
		return fmt.Errorf("error inserting earning: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading inserted earning id: %w", err)
	}
	e.ID = id
	s.InvalidateUserCache(e.UserID)
	return nil
}

func (s *reportServiceImpl) DeleteEarning(userID, earningID int64) error {
	res, err := database.DB.Exec(`DELETE FROM earnings WHERE id = ? AND user_id = ?`, earningID, userID)
	if err != nil {
		return fmt.Errorf("error deleting earning %d: %w", earningID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking delete of earning %d: %w", earningID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	s.InvalidateUserCache(userID)
	return nil
}

func (s *reportServiceImpl) DeleteAllEarnings(userID int64) error {
	if _, err := database.DB.Exec(`DELETE FROM earnings WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("error deleting earnings for userID %d: %w", userID, err)
	}
	s.InvalidateUserCache(userID)
	return nil
}

// InvalidateUserCache clears all cached reports for a user, forcing a
// complete recomputation on the next read. A stale cache here would mean
// silently wrong tax output, so invalidation is eager and total.
func (s *reportServiceImpl) InvalidateUserCache(userID int64) {
	keysToDelete := []string{
		fmt.Sprintf(ckRealizations, userID),
		fmt.Sprintf(ckPositions, userID),
		fmt.Sprintf(ckTaxSummary, userID),
		fmt.Sprintf(ckAlerts, userID),
	}
	for _, key := range keysToDelete {
		s.reportCache.Delete(key)
	}
	logger.L.Info("Invalidated all caches for user", "userID", userID)
}

// --- Transaction store reads ---

func (s *reportServiceImpl) ListOperations(userID int64) ([]models.Operation, error) {
	return fetchUserOperations(userID)
}

func (s *reportServiceImpl) ListEarnings(userID int64) ([]models.Earning, error) {
	return fetchUserEarnings(userID)
}

func (s *reportServiceImpl) CheckShortSale(userID int64, ticker string, quantity int) (validation.ShortSaleCheck, error) {
	operations, err := fetchUserOperations(userID)
	if err != nil {
		return validation.ShortSaleCheck{}, err
	}
	return validation.CheckShortSale(operations, ticker, quantity), nil
}

// --- Derived reports ---

// getResultData is the central function that populates the realization
// and position caches on a cache miss. Both outputs come from the same
// fold over the operation history, so they are always computed together.
func (s *reportServiceImpl) getResultData(userID int64) ([]models.Realization, []models.Position, error) {
	realizationsKey := fmt.Sprintf(ckRealizations, userID)
	positionsKey := fmt.Sprintf(ckPositions, userID)

	if cachedRealizations, found := s.reportCache.Get(realizationsKey); found {
		if cachedPositions, positionsFound := s.reportCache.Get(positionsKey); positionsFound {
			logger.L.Debug("Cache hit for result data", "userID", userID)
			return cachedRealizations.([]models.Realization), cachedPositions.([]models.Position), nil
		}
	}

	logger.L.Info("Cache miss for result data, recalculating from DB", "userID", userID)
	operations, err := fetchUserOperations(userID)
	if err != nil {
		return nil, nil, err
	}

	realizations, positions := s.resultProcessor.Process(operations)

	s.reportCache.Set(realizationsKey, realizations, cache.NoExpiration)
	s.reportCache.Set(positionsKey, positions, cache.NoExpiration)
	logger.L.Info("Populated result caches from DB", "userID", userID,
		"realizations", len(realizations), "positions", len(positions))

	return realizations, positions, nil
}

func (s *reportServiceImpl) Realizations(userID int64) ([]models.Realization, error) {
	realizations, _, err := s.getResultData(userID)
	return realizations, err
}

// Positions returns only open long positions, each annotated with its
// share of the total portfolio value.
func (s *reportServiceImpl) Positions(userID int64) ([]models.Position, error) {
	_, allPositions, err := s.getResultData(userID)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, p := range allPositions {
		if p.Quantity > 0 {
			total += p.Total
		}
	}

	positions := make([]models.Position, 0, len(allPositions))
	for _, p := range allPositions {
		if p.Quantity <= 0 {
			continue
		}
		if total > 0 {
			p.PortfolioPct = utils.RoundFloat(p.Total/total*100, 2)
		}
		positions = append(positions, p)
	}
	return positions, nil
}

func (s *reportServiceImpl) MonthlyTaxSummary(userID int64) ([]models.MonthlyTaxSummary, error) {
	cacheKey := fmt.Sprintf(ckTaxSummary, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for tax summary", "userID", userID)
		return cached.([]models.MonthlyTaxSummary), nil
	}

	realizations, _, err := s.getResultData(userID)
	if err != nil {
		return nil, err
	}
	summaries := s.taxProcessor.Process(realizations)
	s.reportCache.Set(cacheKey, summaries, cache.NoExpiration)
	return summaries, nil
}

func (s *reportServiceImpl) Alerts(userID int64) ([]models.Alert, error) {
	cacheKey := fmt.Sprintf(ckAlerts, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]models.Alert), nil
	}

	_, allPositions, err := s.getResultData(userID)
	if err != nil {
		return nil, err
	}
	summaries, err := s.MonthlyTaxSummary(userID)
	if err != nil {
		return nil, err
	}

	alerts := s.alertProcessor.Generate(allPositions, summaries)
	s.reportCache.Set(cacheKey, alerts, DefaultCacheExpiration)
	return alerts, nil
}

func (s *reportServiceImpl) TickerHistory(userID int64, ticker string) (*models.TickerHistory, error) {
	operations, err := fetchUserOperations(userID)
	if err != nil {
		return nil, err
	}
	earnings, err := fetchUserEarnings(userID)
	if err != nil {
		return nil, err
	}
	realizations, allPositions, err := s.getResultData(userID)
	if err != nil {
		return nil, err
	}

	history := &models.TickerHistory{
		Ticker:     ticker,
		Operations: []models.Operation{},
		Earnings:   []models.Earning{},
		Realized:   []models.Realization{},
	}
	for _, op := range operations {
		if op.Ticker == ticker {
			history.Operations = append(history.Operations, op)
		}
	}
	for _, e := range earnings {
		if e.Ticker == ticker {
			history.Earnings = append(history.Earnings, e)
		}
	}
	for _, r := range realizations {
		if r.Ticker == ticker {
			history.Realized = append(history.Realized, r)
		}
	}
	for i := range allPositions {
		if allPositions[i].Ticker == ticker && allPositions[i].Quantity > 0 {
			history.Position = &allPositions[i]
			break
		}
	}
	return history, nil
}

func (s *reportServiceImpl) AnalyticReport(userID int64) ([]models.AnalyticRow, error) {
	realizations, _, err := s.getResultData(userID)
	if err != nil {
		return nil, err
	}
	earnings, err := fetchUserEarnings(userID)
	if err != nil {
		return nil, err
	}
	return s.earningsProcessor.AnalyticReport(realizations, earnings), nil
}

// --- DB access ---

func fetchUserOperations(userID int64) ([]models.Operation, error) {
	logger.L.Debug("Fetching operations from DB", "userID", userID)
	rows, err := database.DB.Query(
		`SELECT id, user_id, date, time, ticker, side, quantity, price, brokerage_fee, exchange_fee
		 FROM operations WHERE user_id = ? ORDER BY date ASC, time ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying operations for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var operations []models.Operation
	for rows.Next() {
		var op models.Operation
		if err := rows.Scan(&op.ID, &op.UserID, &op.Date, &op.Time, &op.Ticker, &op.Side,
			&op.Quantity, &op.Price, &op.BrokerageFee, &op.ExchangeFee); err != nil {
			return nil, fmt.Errorf("error scanning operation row for userID %d: %w", userID, err)
		}
		operations = append(operations, op)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over operation rows for userID %d: %w", userID, err)
	}
	return operations, nil
}

func fetchUserEarnings(userID int64) ([]models.Earning, error) {
	logger.L.Debug("Fetching earnings from DB", "userID", userID)
	rows, err := database.DB.Query(
		`SELECT id, user_id, date, ticker, kind, amount
		 FROM earnings WHERE user_id = ? ORDER BY date ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying earnings for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var earnings []models.Earning
	for rows.Next() {
		var e models.Earning
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &e.Ticker, &e.Kind, &e.Amount); err != nil {
			return nil, fmt.Errorf("error scanning earning row for userID %d: %w", userID, err)
		}
		earnings = append(earnings, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over earning rows for userID %d: %w", userID, err)
	}
	return earnings, nil
}
