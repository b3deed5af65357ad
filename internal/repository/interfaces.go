package repository

import (
	"context"
	"time"

	"github.com/baharkarakas/point-ledger/internal/models"
)

// Balances holds the current balance per user. Implementations do not
// serialize read-modify-write per user; callers go through the sequencer.
type Balances interface {
	Read(userID int64) models.Balance
	Write(userID, amount int64) models.Balance
	Reset()
}

// History is the append-only transaction log.
type History interface {
	Append(userID, amount int64, kind models.TransactionKind, at time.Time) models.TransactionRecord
	ListByUser(userID int64) []models.TransactionRecord
	Reset()
}

// HistoryExporter mirrors committed records to an external audit store.
type HistoryExporter interface {
	Export(ctx context.Context, rec models.TransactionRecord) error
}
