package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FundingAgency issues grants. Its lifecycle is independent of the grants it funds.
type FundingAgency struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Budget    decimal.Decimal `json:"budget"`
	CreatedAt time.Time       `json:"created_at"`
}
