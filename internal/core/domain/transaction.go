package domain

import (
	"math"
	"time"
)

// Transaction types. A transaction's type is fixed at creation; the ledger
// is append-only and records are never mutated through the public contract.
const (
	TxIn  = "IN"
	TxOut = "OUT"
)

// Transaction is a single entry in the fuel-stock ledger.
type Transaction struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	// UserID is a weak reference to the authoring user: the column is set
	// to NULL when the user is deleted, the transaction itself survives.
	UserID   *string `json:"user_id,omitempty"`
	Username string  `json:"username,omitempty"`
}

// RoundAmount normalizes an amount to the ledger's two-decimal precision.
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}
