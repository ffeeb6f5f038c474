package model

import "time"

// Portfolio is a read snapshot of every balance and position a user holds.
// UpdatedAt is the latest change among its rows and orders snapshots of the same user.
type Portfolio struct {
	UserID    string     `json:"user_id"`
	Balances  []Balance  `json:"balances"`
	Positions []Position `json:"positions"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewPortfolio(userID string, balances []Balance, positions []Position) *Portfolio {
	if balances == nil {
		balances = []Balance{}
	}
	if positions == nil {
		positions = []Position{}
	}
	portfolio := &Portfolio{UserID: userID, Balances: balances, Positions: positions}
	for _, balance := range balances {
		if balance.UpdatedAt.After(portfolio.UpdatedAt) {
			portfolio.UpdatedAt = balance.UpdatedAt
		}
	}
	for _, position := range positions {
		if position.UpdatedAt.After(portfolio.UpdatedAt) {
			portfolio.UpdatedAt = position.UpdatedAt
		}
	}
	return portfolio
}

// IsOlderThan reports whether the snapshot predates other
func (p *Portfolio) IsOlderThan(other *Portfolio) bool {
	return p.UpdatedAt.Before(other.UpdatedAt)
}
