package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sony/gobreaker"

	"github.com/baharkarakas/point-ledger/internal/models"
)

// execer is the subset of *pgxpool.Pool the exporter needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type historyExporter struct {
	db  execer
	cb  *gobreaker.CircuitBreaker
	log *slog.Logger
}

const tripAfter = 5

func NewHistoryExporter(db execer, log *slog.Logger) *historyExporter {
	if log == nil {
		log = slog.Default()
	}
	e := &historyExporter{db: db, log: log}
	e.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "audit-export",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.log.Warn("circuit breaker", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return e
}

// Export writes rec to point_histories. Once the breaker is open it fails
// fast with gobreaker.ErrOpenState instead of hitting the database.
func (e *historyExporter) Export(ctx context.Context, rec models.TransactionRecord) error {
	_, err := e.cb.Execute(func() (interface{}, error) {
		_, err := e.db.Exec(ctx,
			`INSERT INTO point_histories (id, sequence_id, user_id, amount, type, occurred_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			uuid.NewString(), rec.SequenceID, rec.UserID, rec.Amount, string(rec.Kind), rec.OccurredAt,
		)
		return nil, err
	})
	return err
}

func (e *historyExporter) State() gobreaker.State { return e.cb.State() }
