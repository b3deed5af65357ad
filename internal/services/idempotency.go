package services

import "github.com/baharkarakas/point-ledger/internal/models"

// DefaultIdempotencyWindow is how many keys are remembered per user.
const DefaultIdempotencyWindow = 1024

type idemEntry struct {
	kind    models.TransactionKind
	amount  int64
	balance models.Balance
}

func (e idemEntry) matches(kind models.TransactionKind, amount int64) bool {
	return e.kind == kind && e.amount == amount
}

// idemKeys holds one user's committed keys, oldest first. It is only touched
// inside that user's sequencer scope.
type idemKeys struct {
	entries map[string]idemEntry
	order   []string
}

func newIdemKeys() *idemKeys {
	return &idemKeys{entries: make(map[string]idemEntry)}
}

func (k *idemKeys) get(key string) (idemEntry, bool) {
	e, ok := k.entries[key]
	return e, ok
}

// put remembers key and evicts the oldest keys beyond limit.
func (k *idemKeys) put(key string, e idemEntry, limit int) {
	if _, ok := k.entries[key]; !ok {
		k.order = append(k.order, key)
	}
	k.entries[key] = e
	for len(k.order) > limit {
		delete(k.entries, k.order[0])
		k.order = k.order[1:]
	}
}
