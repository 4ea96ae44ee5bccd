package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction kinds recorded in the ledger.
const (
	TransactionBuy  = "buy"
	TransactionSell = "sell"
)

// Purchase is one immutable ledger entry. Rows are append-only; a user's
// holding for a symbol is always derived as the signed sum of shares
// (buy = +shares, sell = -shares), never stored.
type Purchase struct {
	gorm.Model
	UserID          uint            `gorm:"index;not null"`
	Symbol          string          `gorm:"index;not null"`
	Price           decimal.Decimal `gorm:"type:decimal(32,8);not null"` // per share, at execution time
	Shares          int64           `gorm:"not null"`
	TransactionType string          `gorm:"not null"` // TransactionBuy or TransactionSell
}
