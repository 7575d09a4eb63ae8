package storage

import (
	"cmp"
	"slices"

	"github.com/mcoot/expense-tracker-go/internal/model"
)

// SortTransactions orders transactions newest date first, breaking ties by ID
// so listings are stable across backends
func SortTransactions(txs []*model.Transaction) {
	slices.SortFunc(txs, func(a, b *model.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
