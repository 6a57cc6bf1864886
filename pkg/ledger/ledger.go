// Package ledger holds the account balance mutations. Balances are plain
// signed counters; debt is a negative balance and no floor is enforced here.
package ledger

import (
	"errors"
	"sort"

	"github.com/akbarov/tushlikbot/pkg/models"
)

var (
	// ErrUnknownAccount means the id is not registered
	ErrUnknownAccount = errors.New("unknown account")
	// ErrInvalidAmount means a non-negative magnitude was required
	ErrInvalidAmount = errors.New("amount must not be negative")
)

// Credit adds a non-negative amount to the account balance
func Credit(state *models.State, id string, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	acct, ok := state.Users[id]
	if !ok {
		return ErrUnknownAccount
	}
	acct.Balance += amount
	return nil
}

// Debit subtracts a non-negative amount from the account balance
func Debit(state *models.State, id string, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	acct, ok := state.Users[id]
	if !ok {
		return ErrUnknownAccount
	}
	acct.Balance -= amount
	return nil
}

// SetBalance overwrites the account balance; negative values are allowed
func SetBalance(state *models.State, id string, amount int64) error {
	acct, ok := state.Users[id]
	if !ok {
		return ErrUnknownAccount
	}
	acct.Balance = amount
	return nil
}

// SetDailyPrice sets the per-account daily price; 0 restores the default
func SetDailyPrice(state *models.State, id string, price int64) error {
	if price < 0 {
		return ErrInvalidAmount
	}
	acct, ok := state.Users[id]
	if !ok {
		return ErrUnknownAccount
	}
	acct.DailyPrice = price
	return nil
}

// ResetAllBalances zeroes every balance and reports how many accounts held a
// non-zero balance and their total
func ResetAllBalances(state *models.State) (count int, total int64) {
	for _, acct := range state.Users {
		if acct.Balance != 0 {
			count++
			total += acct.Balance
		}
		acct.Balance = 0
	}
	return count, total
}

// EffectivePrice returns the account's custom daily price, or the configured
// default when no custom price is set
func EffectivePrice(acct *models.Account, defaultPrice int64) int64 {
	if acct.DailyPrice > 0 {
		return acct.DailyPrice
	}
	return defaultPrice
}

// Debtors lists accounts with a balance below the threshold, lowest first
func Debtors(state *models.State, threshold int64) []*models.Account {
	var debtors []*models.Account
	for _, acct := range state.Users {
		if acct.Balance < threshold {
			debtors = append(debtors, acct)
		}
	}
	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].Balance != debtors[j].Balance {
			return debtors[i].Balance < debtors[j].Balance
		}
		return debtors[i].ID < debtors[j].ID
	})
	return debtors
}
