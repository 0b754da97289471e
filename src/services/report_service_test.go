package services

import (
	"os"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/gestorb3/src/database"
	"github.com/username/gestorb3/src/logger"
	"github.com/username/gestorb3/src/models"
	"github.com/username/gestorb3/src/processors"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	database.InitDB("file:reportsvc?mode=memory&cache=shared")
	// Shared in-memory sqlite lives as long as one connection is open.
	database.DB.SetMaxOpenConns(1)
	os.Exit(m.Run())
}

func newTestService(t *testing.T) ReportService {
	t.Helper()
	return NewReportService(
		processors.NewResultProcessor(processors.NewAssetClassifier()),
		processors.NewTaxProcessor(processors.DefaultTaxPolicy()),
		processors.NewEarningsProcessor(),
		processors.NewAlertProcessor(processors.AlertThresholds{
			TaxDueMin: 10, ConcentrationPct: 30, LossFloor: -1000, MinTickers: 5,
		}),
		cache.New(15*time.Minute, 30*time.Minute),
	)
}

// nextTestUserID hands each test its own user so tests never see each
// other's rows.
var nextTestUserID int64 = 1000

func newTestUserID() int64 {
	nextTestUserID++
	return nextTestUserID
}

func op(userID int64, date, ticker, side string, qty int, price float64) *models.Operation {
	return &models.Operation{
		UserID: userID, Date: date, Time: "10:00:00",
		Ticker: ticker, Side: side, Quantity: qty, Price: price,
	}
}

func TestInsertAndListOperations(t *testing.T) {
	svc := newTestService(t)
	userID := newTestUserID()

	buy := op(userID, "2024-01-10", "PETR4", models.SideBuy, 100, 30.0)
	require.NoError(t, svc.InsertOperation(buy))
	assert.NotZero(t, buy.ID)

	operations, err := svc.ListOperations(userID)
	require.NoError(t, err)
	require.Len(t, operations, 1)
	assert.Equal(t, "PETR4", operations[0].Ticker)
	assert.Equal(t, 100, operations[0].Quantity)
}

func TestOperationsOrderedByDateTime(t *testing.T) {
	svc := newTestService(t)
	userID := newTestUserID()

	require.NoError(t, svc.InsertOperation(op(userID, "2024-03-01", "PETR4", models.SideSell, 10, 32.0)))
	require.NoError(t, svc.InsertOperation(op(userID, "2024-01-15", "PETR4", models.SideBuy, 10, 30.0)))

	operations, err := svc.ListOperations(userID)
	require.NoError(t, err)
	require.Len(t, operations, 2)
	assert.Equal(t, "2024-01-15", operations[0].Date)
	assert.Equal(t, "2024-03-01", operations[1].Date)
}

func TestUpdateAndDeleteOperationScopedToUser(t *testing.T) {
	svc := newTestService(t)
	owner := newTestUserID()
	stranger := newTestUserID()

	buy := op(owner, "2024-01-10", "VALE3", models.SideBuy, 50, 60.0)
	require.NoError(t, svc.InsertOperation(buy))

	// Another user cannot touch the row.
	theft := *buy
	theft.UserID = stranger
	theft.Quantity = 1
	assert.ErrorIs(t, svc.UpdateOperation(&theft), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteOperation(stranger, buy.ID), ErrNotFound)

	buy.Quantity = 75
	require.NoError(t, svc.UpdateOperation(buy))
	operations, err := svc.ListOperations(owner)
	require.NoError(t, err)
	require.Len(t, operations, 1)
	assert.Equal(t, 75, operations[0].Quantity)

	require.NoError(t, svc.DeleteOperation(owner, buy.ID))
	operations, err = svc.ListOperations(owner)
	require.NoError(t, err)
	assert.Empty(t, operations)
}

func TestWritesInvalidateCachedReports(t *testing.T) {
	svc := newTestService(t)
	userID := newTestUserID()

	require.NoError(t, svc.InsertOperation(op(userID, "2024-01-10", "PETR4", models.SideBuy, 100, 10.0)))

	positions, err := svc.Positions(userID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 100, positions[0].Quantity)

	// The second buy must show up even though positions were cached.
	require.NoError(t, svc.InsertOperation(op(userID, "2024-02-10", "PETR4", models.SideBuy, 50, 20.0)))

	positions, err = svc.Positions(userID)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 150, positions[0].Quantity)
	assert.InDelta(t, 13.333333, positions[0].AvgCost, 1e-4)
}

func TestMonthlyTaxSummaryEndToEnd(t *testing.T) {
	svc := newTestService(t)
	userID := newTestUserID()

	// A swing trade above the exemption threshold.
	require.NoError(t, svc.InsertOperation(op(userID, "2024-01-10", "PETR4", models.SideBuy, 1000, 25.0)))
	require.NoError(t, svc.InsertOperation(op(userID, "2024-02-15", "PETR4", models.SideSell, 1000, 27.0)))

	summaries, err := svc.MonthlyTaxSummary(userID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "2024-02", summaries[0].Month)
	assert.InDelta(t, 2000.0, summaries[0].SwingStock.Gross, 1e-9)
	assert.False(t, summaries[0].SwingStock.Exempt)
	assert.InDelta(t, 300.0, summaries[0].SwingStock.Tax, 1e-9)
	assert.InDelta(t, 300.0, summaries[0].TotalTax, 1e-9)
}

func TestCheckShortSale(t *testing.T) {
	svc := newTestService(t)
	userID := newTestUserID()

	require.NoError(t, svc.InsertOperation(op(userID, "2024-01-10", "ITUB4", models.SideBuy, 100, 25.0)))

	check, err := svc.CheckShortSale(userID, "ITUB4", 80)
	require.NoError(t, err)
	assert.False(t, check.Short)

	check, err = svc.CheckShortSale(userID, "ITUB4", 120)
	require.NoError(t, err)
	assert.True(t, check.Short)
	assert.Equal(t, 100, check.Available)
	assert.Equal(t, 20, check.Missing)
}

func TestEarningsAndAnalyticReport(t *testing.T) {
	svc := newTestService(t)
	userID := newTestUserID()

	require.NoError(t, svc.InsertOperation(op(userID, "2024-01-10", "PETR4", models.SideBuy, 100, 10.0)))
	require.NoError(t, svc.InsertOperation(op(userID, "2024-02-10", "PETR4", models.SideSell, 100, 12.0)))
	require.NoError(t, svc.InsertEarning(&models.Earning{
		UserID: userID, Date: "2024-03-01", Ticker: "PETR4",
		Kind: models.EarningDividend, Amount: 55.5,
	}))

	rows, err := svc.AnalyticReport(userID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "PETR4", rows[0].Ticker)
	assert.InDelta(t, 200.0, rows[0].CapitalGains, 1e-9)
	assert.InDelta(t, 55.5, rows[0].Earnings, 1e-9)
}

func TestTickerHistoryFiltersCollections(t *testing.T) {
	svc := newTestService(t)
	userID := newTestUserID()

	require.NoError(t, svc.InsertOperation(op(userID, "2024-01-10", "PETR4", models.SideBuy, 100, 10.0)))
	require.NoError(t, svc.InsertOperation(op(userID, "2024-01-10", "VALE3", models.SideBuy, 10, 60.0)))
	require.NoError(t, svc.InsertEarning(&models.Earning{
		UserID: userID, Date: "2024-02-01", Ticker: "VALE3",
		Kind: models.EarningDividend, Amount: 12.0,
	}))

	history, err := svc.TickerHistory(userID, "PETR4")
	require.NoError(t, err)
	assert.Len(t, history.Operations, 1)
	assert.Empty(t, history.Earnings)
	require.NotNil(t, history.Position)
	assert.Equal(t, 100, history.Position.Quantity)

	history, err = svc.TickerHistory(userID, "VALE3")
	require.NoError(t, err)
	assert.Len(t, history.Operations, 1)
	assert.Len(t, history.Earnings, 1)
}

func TestDeleteAllOperationsAndEarnings(t *testing.T) {
	svc := newTestService(t)
	userID := newTestUserID()
	other := newTestUserID()

	require.NoError(t, svc.InsertOperation(op(userID, "2024-01-10", "PETR4", models.SideBuy, 100, 10.0)))
	require.NoError(t, svc.InsertOperation(op(other, "2024-01-10", "PETR4", models.SideBuy, 5, 10.0)))
	require.NoError(t, svc.InsertEarning(&models.Earning{
		UserID: userID, Date: "2024-02-01", Ticker: "PETR4",
		Kind: models.EarningDividend, Amount: 10.0,
	}))

	require.NoError(t, svc.DeleteAllOperations(userID))
	require.NoError(t, svc.DeleteAllEarnings(userID))

	operations, err := svc.ListOperations(userID)
	require.NoError(t, err)
	assert.Empty(t, operations)

	// The other user's rows are untouched.
	operations, err = svc.ListOperations(other)
	require.NoError(t, err)
	assert.Len(t, operations, 1)
}
