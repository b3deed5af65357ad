package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/baharkarakas/point-ledger/internal/metrics"
	"github.com/baharkarakas/point-ledger/internal/models"
	repo "github.com/baharkarakas/point-ledger/internal/repository"
	"github.com/baharkarakas/point-ledger/internal/sequencer"
	"github.com/baharkarakas/point-ledger/internal/worker"
)

const (
	MaxPoint        int64 = 100_000
	MinChargeAmount int64 = 100
	MinUseAmount    int64 = 100
)

const exportTimeout = 5 * time.Second

type PointService struct {
	bal  repo.Balances
	hist repo.History
	seq  *sequencer.Sequencer

	exp repo.HistoryExporter
	wp  *worker.Pool

	idem       sync.Map // int64 -> *idemKeys
	idemWindow int

	// mutations hold it shared, Reset holds it exclusively
	resetMu sync.RWMutex

	max    int64
	log    *slog.Logger
	tracer trace.Tracer
}

type Option func(*PointService)

func WithMaxPoint(max int64) Option {
	return func(s *PointService) {
		if max > 0 {
			s.max = max
		}
	}
}

// WithIdempotencyWindow bounds how many keys are remembered per user.
func WithIdempotencyWindow(n int) Option {
	return func(s *PointService) {
		if n > 0 {
			s.idemWindow = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *PointService) { s.log = l }
}

// WithExporter mirrors every committed record to exp on the worker pool.
func WithExporter(exp repo.HistoryExporter, wp *worker.Pool) Option {
	return func(s *PointService) {
		s.exp = exp
		s.wp = wp
	}
}

func NewPointService(b repo.Balances, h repo.History, seq *sequencer.Sequencer, opts ...Option) *PointService {
	s := &PointService{
		bal:        b,
		hist:       h,
		seq:        seq,
		max:        MaxPoint,
		idemWindow: DefaultIdempotencyWindow,
		log:        slog.Default(),
		tracer:     otel.Tracer("github.com/baharkarakas/point-ledger/internal/services"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ----------------- Queries -----------------

// GetBalance reads under the user's scope, so it never returns a value an
// in-flight charge or use is about to replace.
func (s *PointService) GetBalance(ctx context.Context, userID int64) (models.Balance, error) {
	ctx, span := s.tracer.Start(ctx, "PointService.GetBalance",
		trace.WithAttributes(attribute.Int64("user_id", userID)))
	defer span.End()

	var b models.Balance
	err := s.exclusive(ctx, userID, func() error {
		b = s.bal.Read(userID)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.Balance{}, err
	}
	return b, nil
}

func (s *PointService) GetHistory(ctx context.Context, userID int64) []models.TransactionRecord {
	_, span := s.tracer.Start(ctx, "PointService.GetHistory",
		trace.WithAttributes(attribute.Int64("user_id", userID)))
	defer span.End()

	recs := s.hist.ListByUser(userID)
	span.SetAttributes(attribute.Int("records", len(recs)))
	return recs
}

// ----------------- Mutations -----------------

func (s *PointService) Credit(ctx context.Context, userID, amount int64) (models.Balance, error) {
	return s.CreditIdem(ctx, userID, amount, "")
}

// CreditIdem is Credit with an idempotency key. A key that already committed
// the same charge for this user returns the balance of that commit and
// changes nothing. A key reused for a different operation or amount fails
// with ErrIdempotencyKeyReused.
func (s *PointService) CreditIdem(ctx context.Context, userID, amount int64, idemKey string) (models.Balance, error) {
	return s.apply(ctx, userID, amount, models.KindCharge, idemKey)
}

func (s *PointService) Debit(ctx context.Context, userID, amount int64) (models.Balance, error) {
	return s.DebitIdem(ctx, userID, amount, "")
}

func (s *PointService) DebitIdem(ctx context.Context, userID, amount int64, idemKey string) (models.Balance, error) {
	return s.apply(ctx, userID, amount, models.KindUse, idemKey)
}

func (s *PointService) keysFor(userID int64) *idemKeys {
	if v, ok := s.idem.Load(userID); ok {
		return v.(*idemKeys)
	}
	v, _ := s.idem.LoadOrStore(userID, newIdemKeys())
	return v.(*idemKeys)
}

// exclusive runs fn in userID's scope while keeping Reset out.
func (s *PointService) exclusive(ctx context.Context, userID int64, fn func() error) error {
	s.resetMu.RLock()
	defer s.resetMu.RUnlock()
	return s.seq.WithExclusiveAccess(ctx, userID, fn)
}

func (s *PointService) apply(ctx context.Context, userID, amount int64, kind models.TransactionKind, idemKey string) (models.Balance, error) {
	ctx, span := s.tracer.Start(ctx, "PointService."+string(kind),
		trace.WithAttributes(
			attribute.Int64("user_id", userID),
			attribute.Int64("amount", amount),
		))
	defer span.End()

	if amount <= 0 {
		return models.Balance{}, s.reject(ctx, span, kind, userID,
			fmt.Errorf("%w: %s %d", ErrInvalidAmount, kind, amount))
	}

	var (
		updated  models.Balance
		rec      models.TransactionRecord
		replayed bool
	)
	err := s.exclusive(ctx, userID, func() error {
		// checked under the scope so two requests with one key cannot both commit
		var keys *idemKeys
		if idemKey != "" {
			keys = s.keysFor(userID)
			if e, ok := keys.get(idemKey); ok {
				if !e.matches(kind, amount) {
					return fmt.Errorf("%w: %q was used for %s %d", ErrIdempotencyKeyReused, idemKey, e.kind, e.amount)
				}
				updated, replayed = e.balance, true
				return nil
			}
		}
		cur := s.bal.Read(userID)
		target, err := s.next(cur.Amount, amount, kind)
		if err != nil {
			return err
		}
		updated = s.bal.Write(userID, target)
		rec = s.hist.Append(userID, amount, kind, updated.UpdatedAt)
		if keys != nil {
			keys.put(idemKey, idemEntry{kind: kind, amount: amount, balance: updated}, s.idemWindow)
		}
		return nil
	})
	if err != nil {
		return models.Balance{}, s.reject(ctx, span, kind, userID, err)
	}
	if replayed {
		span.SetAttributes(attribute.Bool("idempotent_replay", true))
		s.log.DebugContext(ctx, "idempotent replay", "user_id", userID, "type", kind, "key", idemKey)
		return updated, nil
	}

	metrics.TransactionsTotal.WithLabelValues(string(kind)).Inc()
	span.SetAttributes(
		attribute.Int64("balance", updated.Amount),
		attribute.Int64("sequence_id", rec.SequenceID),
	)
	s.log.DebugContext(ctx, "point committed",
		"user_id", userID, "type", kind, "amount", amount,
		"balance", updated.Amount, "seq", rec.SequenceID)

	s.export(rec)
	return updated, nil
}

// next computes the target balance without overflowing int64.
func (s *PointService) next(cur, amount int64, kind models.TransactionKind) (int64, error) {
	if kind == models.KindUse {
		if amount > cur {
			return 0, fmt.Errorf("%w: have %d, use %d", ErrInsufficientBalance, cur, amount)
		}
		return cur - amount, nil
	}
	if amount > s.max-cur {
		return 0, fmt.Errorf("%w: have %d, charge %d, max %d", ErrLimitExceeded, cur, amount, s.max)
	}
	return cur + amount, nil
}

func (s *PointService) reject(ctx context.Context, span trace.Span, kind models.TransactionKind, userID int64, err error) error {
	reason := Reason(err)
	metrics.TransactionsFailed.WithLabelValues(string(kind), reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	if IsDomain(err) {
		s.log.DebugContext(ctx, "point rejected", "user_id", userID, "type", kind, "reason", reason, "err", err)
	} else {
		s.log.WarnContext(ctx, "point failed", "user_id", userID, "type", kind, "err", err)
	}
	return err
}

// export hands rec to the audit exporter after the user's scope is released.
func (s *PointService) export(rec models.TransactionRecord) {
	if s.exp == nil || s.wp == nil {
		return
	}
	ok := s.wp.TrySubmit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		if err := s.exp.Export(ctx, rec); err != nil {
			metrics.AuditExportFailed.Inc()
			s.log.Warn("audit export", "seq", rec.SequenceID, "err", err)
		}
	})
	if !ok {
		metrics.AuditExportFailed.Inc()
		s.log.Warn("audit export dropped", "seq", rec.SequenceID)
	}
}

// ----------------- Admin -----------------

// Reset clears all balances, history and idempotency keys and restarts
// sequence ids at 1. It waits for in-flight operations to finish and holds
// new ones until it is done.
func (s *PointService) Reset(ctx context.Context) {
	s.resetMu.Lock()
	defer s.resetMu.Unlock()

	s.bal.Reset()
	s.hist.Reset()
	s.idem.Clear()
	s.log.InfoContext(ctx, "ledger reset")
}
