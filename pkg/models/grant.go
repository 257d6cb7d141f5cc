package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Grant is a monetary allocation from a funding agency.
// RemainingAmount is never negative; a grant whose balance reaches zero is deleted.
type Grant struct {
	ID              uuid.UUID       `json:"id"`
	FundingAgencyID uuid.UUID       `json:"funding_agency_id"`
	InitialAmount   decimal.Decimal `json:"initial_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Deduction is the outcome of spending against a grant.
type Deduction struct {
	GrantID   uuid.UUID       `json:"grant_id"`
	Used      decimal.Decimal `json:"used"`
	Remaining decimal.Decimal `json:"remaining"`
	// Deleted is true when the deduction exhausted the grant and it was removed.
	Deleted bool `json:"deleted"`
}
