package fms

import (
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
)

// FundsEngine is the balance ledger. Every mutation goes through a unit of work
// holding the row lock of the balance it changes.
type FundsEngine struct {
	store queries.Store
}
