package memory

import (
	"sync"
	"time"

	"github.com/baharkarakas/point-ledger/internal/models"
	"github.com/baharkarakas/point-ledger/internal/repository"
)

type historyRepo struct {
	mu     sync.Mutex
	next   int64
	all    []models.TransactionRecord
	byUser map[int64][]int // indexes into all
}

func NewHistory() repository.History {
	return &historyRepo{next: 1, byUser: make(map[int64][]int)}
}

// Append assigns the next global sequence id. mu is held only for the
// assignment and the insert, never across a balance update.
func (r *historyRepo) Append(userID, amount int64, kind models.TransactionKind, at time.Time) models.TransactionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := models.TransactionRecord{
		SequenceID: r.next,
		UserID:     userID,
		Amount:     amount,
		Kind:       kind,
		OccurredAt: at,
	}
	r.next++
	r.byUser[userID] = append(r.byUser[userID], len(r.all))
	r.all = append(r.all, rec)
	return rec
}

func (r *historyRepo) ListByUser(userID int64) []models.TransactionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.byUser[userID]
	out := make([]models.TransactionRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.all[i])
	}
	return out
}

func (r *historyRepo) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 1
	r.all = nil
	r.byUser = make(map[int64][]int)
}
