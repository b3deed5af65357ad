package memory

import (
	"sync"
	"time"

	"github.com/baharkarakas/point-ledger/internal/models"
	"github.com/baharkarakas/point-ledger/internal/repository"
)

type balancesRepo struct {
	mu   sync.RWMutex
	rows map[int64]models.Balance
	now  func() time.Time
}

func NewBalances(now func() time.Time) repository.Balances {
	if now == nil {
		now = time.Now
	}
	return &balancesRepo{rows: make(map[int64]models.Balance), now: now}
}

func (r *balancesRepo) Read(userID int64) models.Balance {
	r.mu.RLock()
	b, ok := r.rows[userID]
	r.mu.RUnlock()
	if !ok {
		return models.Balance{UserID: userID}
	}
	return b
}

// Write replaces the stored balance. The mutex only protects the map; the
// caller owns the per-user read-modify-write.
func (r *balancesRepo) Write(userID, amount int64) models.Balance {
	b := models.Balance{UserID: userID, Amount: amount, UpdatedAt: r.now()}
	r.mu.Lock()
	r.rows[userID] = b
	r.mu.Unlock()
	return b
}

func (r *balancesRepo) Reset() {
	r.mu.Lock()
	r.rows = make(map[int64]models.Balance)
	r.mu.Unlock()
}
