package ledger

import (
	"testing"
	"time"

	"github.com/optionwheel/engine/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestAggregate_GroupsByCalendarMonthAndSumsRealized(t *testing.T) {
	entries := []model.CapitalLedgerEntry{
		{ID: "1", Symbol: "AAPL", Event: model.LedgerOpen, At: date(2026, 1, 5)},
		{ID: "2", Symbol: "AAPL", Event: model.LedgerClose, Amount: 120.0, At: date(2026, 1, 20)},
		{ID: "3", Symbol: "MSFT", Event: model.LedgerOpen, At: date(2026, 2, 1)},
		{ID: "4", Symbol: "MSFT", Event: model.LedgerPartialClose, Amount: 40.0, At: date(2026, 2, 15)},
		{ID: "5", Symbol: "MSFT", Event: model.LedgerAssignment, At: date(2026, 2, 20)},
	}

	summaries := Aggregate(entries)
	assert.Len(t, summaries, 2)
	assert.Equal(t, "2026-01", summaries[0].Month)
	assert.Equal(t, 120.0, summaries[0].Realized)
	assert.Equal(t, 1, summaries[0].OpenCount)
	assert.Equal(t, "2026-02", summaries[1].Month)
	assert.Equal(t, 40.0, summaries[1].Realized)
	assert.Equal(t, 1, summaries[1].AssignmentCount)
}

func TestAggregate_Deterministic_OrderIndependent(t *testing.T) {
	a := []model.CapitalLedgerEntry{
		{ID: "1", Event: model.LedgerClose, Amount: 10, At: date(2026, 3, 1)},
		{ID: "2", Event: model.LedgerClose, Amount: 20, At: date(2026, 1, 1)},
	}
	b := []model.CapitalLedgerEntry{a[1], a[0]}

	assert.Equal(t, Aggregate(a), Aggregate(b))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
