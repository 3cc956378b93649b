package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSnapshotIsACopy(t *testing.T) {
	store := NewStore()
	store.RecordEvaluation(Evaluation{Allocation: map[string]float64{"SPY": 0.8}, Reason: "bull_trend"})
	store.AddOpenOrder(OpenOrder{ClientOrderID: "a"})

	snap := store.Snapshot()
	snap.LastEvaluation.Allocation["SPY"] = 0
	snap.OpenOrders["b"] = OpenOrder{}

	again := store.Snapshot()
	assert.Equal(t, 0.8, again.LastEvaluation.Allocation["SPY"])
	assert.Len(t, again.OpenOrders, 1)
	assert.Equal(t, 1, again.Evaluations)
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	store := NewStore()
	store.RecordEvaluation(Evaluation{At: at, Allocation: map[string]float64{"SPY": 0.3}, Reason: "weak_profit"})
	store.UpdateAccount(Account{Equity: decimal.RequireFromString("1000.50")})
	store.SetLastTradeTime(at)
	require.NoError(t, store.Save(path))

	loaded := NewStore()
	require.NoError(t, loaded.Load(path))
	snap := loaded.Snapshot()
	require.NotNil(t, snap.LastEvaluation)
	assert.Equal(t, "weak_profit", snap.LastEvaluation.Reason)
	assert.True(t, snap.Account.Equity.Equal(decimal.RequireFromString("1000.5")))
	assert.True(t, snap.LastTradeTime.Equal(at))
	assert.NotNil(t, snap.OpenOrders)
}

func TestStoreLoadMissingFile(t *testing.T) {
	assert.Error(t, NewStore().Load(filepath.Join(t.TempDir(), "nope.json")))
}
