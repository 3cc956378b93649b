package state

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Position struct {
	Qty         decimal.Decimal `json:"qty"`
	MarketValue decimal.Decimal `json:"market_value"`
}

type Account struct {
	Equity      decimal.Decimal `json:"equity"`
	BuyingPower decimal.Decimal `json:"buying_power"`
}

type OpenOrder struct {
	ClientOrderID string `json:"client_order_id"`
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
}

// Evaluation is the bookkeeping copy of the last decision.
type Evaluation struct {
	At         time.Time          `json:"at"`
	Allocation map[string]float64 `json:"allocation"`
	Reason     string             `json:"reason"`
	MissingKey string             `json:"missing_key,omitempty"`
}

type Snapshot struct {
	LastEvaluation *Evaluation          `json:"last_evaluation,omitempty"`
	Position       Position             `json:"position"`
	Account        Account              `json:"account"`
	OpenOrders     map[string]OpenOrder `json:"open_orders"`
	LastTradeTime  time.Time            `json:"last_trade_time"`
	Evaluations    int                  `json:"evaluations"`
}

type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

func NewStore() *Store {
	return &Store{
		snapshot: Snapshot{
			OpenOrders: map[string]OpenOrder{},
		},
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copy := s.snapshot
	copy.OpenOrders = make(map[string]OpenOrder, len(s.snapshot.OpenOrders))
	for k, v := range s.snapshot.OpenOrders {
		copy.OpenOrders[k] = v
	}
	if s.snapshot.LastEvaluation != nil {
		eval := cloneEvaluation(*s.snapshot.LastEvaluation)
		copy.LastEvaluation = &eval
	}
	return copy
}

func (s *Store) RecordEvaluation(eval Evaluation) {
	eval = cloneEvaluation(eval)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastEvaluation = &eval
	s.snapshot.Evaluations++
}

func (s *Store) UpdatePosition(position Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Position = position
}

func (s *Store) UpdateAccount(account Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Account = account
}

func (s *Store) SetOpenOrders(orders map[string]OpenOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.OpenOrders = orders
}

func (s *Store) AddOpenOrder(order OpenOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.OpenOrders[order.ClientOrderID] = order
}

func (s *Store) SetLastTradeTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastTradeTime = t
}

func (s *Store) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.MarshalIndent(s.snapshot, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return err
	}
	if snapshot.OpenOrders == nil {
		snapshot.OpenOrders = map[string]OpenOrder{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	return nil
}

func cloneEvaluation(eval Evaluation) Evaluation {
	allocation := make(map[string]float64, len(eval.Allocation))
	for k, v := range eval.Allocation {
		allocation[k] = v
	}
	eval.Allocation = allocation
	return eval
}
