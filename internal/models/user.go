package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User represents a registered account. Cash is the uninvested balance;
// it only changes through buy and sell executions.
type User struct {
	gorm.Model
	Username string          `gorm:"uniqueIndex;not null"`
	Hash     string          `gorm:"not null"` // bcrypt, never plaintext
	Cash     decimal.Decimal `gorm:"type:decimal(32,8);not null"`
}
