package ports

import (
	"context"

	"github.com/alejandrodnm/flexbt/internal/domain"
)

// Storage archiva los runs de backtest para poder comparar ejecuciones.
type Storage interface {
	// SaveRun persiste el registro del run y todos sus snapshots.
	SaveRun(ctx context.Context, run domain.RunRecord, snapshots []domain.Snapshot) error

	// RecentRuns devuelve los últimos runs, más reciente primero.
	RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// RunSnapshots devuelve los snapshots de un run en orden de evento.
	RunSnapshots(ctx context.Context, runID string) ([]domain.Snapshot, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
