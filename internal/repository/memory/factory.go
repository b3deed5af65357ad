package memory

import (
	"time"

	repo "github.com/baharkarakas/point-ledger/internal/repository"
)

type Repositories struct {
	Balances repo.Balances
	History  repo.History
}

// NewRepositories builds the in-process ledger tables. now stamps balance
// writes; nil means time.Now.
func NewRepositories(now func() time.Time) Repositories {
	if now == nil {
		now = time.Now
	}
	return Repositories{
		Balances: NewBalances(now),
		History:  NewHistory(),
	}
}
