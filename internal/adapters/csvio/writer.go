package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/alejandrodnm/flexbt/internal/domain"
)

// outputColumns son las cinco columnas que el backtest añade a la tabla.
var outputColumns = []string{
	"position_type",
	"asset_quantity",
	"total_asset_value_usd",
	"active_signals",
	"remark",
}

// Write escribe la tabla de entrada aumentada con un snapshot por fila,
// preservando orden y columnas originales. Se antepone el BOM UTF-8
// (equivalente al utf-8-sig del export original, para que Excel lo abra bien).
func Write(path string, table Table, snapshots []domain.Snapshot) error {
	if len(table.Rows) != len(snapshots) {
		return fmt.Errorf("csvio.Write: %d input rows but %d snapshots", len(table.Rows), len(snapshots))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvio.Write: create %q: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := bw.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("csvio.Write: %q: %w", path, err)
	}

	w := csv.NewWriter(bw)
	if err := w.Write(append(append([]string{}, table.Header...), outputColumns...)); err != nil {
		return fmt.Errorf("csvio.Write: %q: header: %w", path, err)
	}

	for i, row := range table.Rows {
		s := snapshots[i]
		out := append(append([]string{}, row...),
			s.Position.String(),
			formatFloat(s.AssetQty),
			formatFloat(s.TotalValueUSD),
			s.ActiveSignals,
			s.Remark,
		)
		if err := w.Write(out); err != nil {
			return fmt.Errorf("csvio.Write: %q: row %d: %w", path, i+2, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csvio.Write: %q: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("csvio.Write: %q: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
