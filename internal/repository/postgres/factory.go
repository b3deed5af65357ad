package postgres

import (
	"log/slog"

	repo "github.com/baharkarakas/point-ledger/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Exporter repo.HistoryExporter
}

func NewRepositories(pool *pgxpool.Pool, log *slog.Logger) Repositories {
	return Repositories{
		Exporter: NewHistoryExporter(pool, log),
	}
}
