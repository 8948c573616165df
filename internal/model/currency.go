package model

import (
	"fmt"
	"math"
)

// Denomination sizes, in Knuts
const (
	KnutsPerSickle  = 29
	KnutsPerGalleon = 493
)

// Purse is a balance split into wizarding denominations
type Purse struct {
	Galleons int64 `json:"galleons"`
	Sickles  int64 `json:"sickles"`
	Knuts    int64 `json:"knuts"`
}

// ToPurse splits a balance in Knuts into Galleons, Sickles and Knuts
func ToPurse(balance int64) Purse {
	remainder := balance % KnutsPerGalleon
	return Purse{
		Galleons: balance / KnutsPerGalleon,
		Sickles:  remainder / KnutsPerSickle,
		Knuts:    remainder % KnutsPerSickle,
	}
}

// String renders the purse as display text
func (p Purse) String() string {
	return fmt.Sprintf("%d %s %d %s %d %s",
		p.Galleons, plural(p.Galleons, "Galleon"),
		p.Sickles, plural(p.Sickles, "Sickle"),
		p.Knuts, plural(p.Knuts, "Knut"),
	)
}

func plural(n int64, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// AddBalance credits amount Knuts to balance. A credit that would overflow
// the balance is rejected.
func AddBalance(balance, amount int64) (int64, error) {
	if amount < 1 {
		return balance, ErrInvalidAmount
	}
	if balance > math.MaxInt64-amount {
		return balance, ErrBalanceOverflow
	}
	return balance + amount, nil
}

// SubtractBalance debits amount Knuts from balance, stopping at zero
func SubtractBalance(balance, amount int64) (int64, error) {
	if amount < 1 {
		return balance, ErrInvalidAmount
	}
	if amount >= balance {
		return 0, nil
	}
	return balance - amount, nil
}
