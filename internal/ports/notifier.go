package ports

import (
	"context"

	"github.com/alejandrodnm/flexbt/internal/domain"
	"github.com/alejandrodnm/flexbt/internal/report"
)

// Notifier presenta el resultado de un run al usuario.
type Notifier interface {
	// Notify muestra el resumen del run. En la implementación de consola,
	// imprime una línea compacta o la tabla completa según configuración.
	Notify(ctx context.Context, run domain.RunRecord, snapshots []domain.Snapshot, metrics report.Metrics) error
}
