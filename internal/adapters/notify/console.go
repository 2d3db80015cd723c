package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/flexbt/internal/domain"
	"github.com/alejandrodnm/flexbt/internal/report"
	"github.com/olekukonko/tablewriter"
)

// maxTableRows limita la tabla completa; por encima se muestran solo las
// filas con switch (las demás no cambian la posición).
const maxTableRows = 50

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el resultado del run en el modo configurado.
func (c *Console) Notify(_ context.Context, run domain.RunRecord, snapshots []domain.Snapshot, metrics report.Metrics) error {
	if len(snapshots) == 0 {
		fmt.Fprintf(c.out, "[%s] no events processed\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(run, snapshots, metrics)
	} else {
		c.printCompact(run, snapshots, metrics)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(run domain.RunRecord, snapshots []domain.Snapshot, metrics report.Metrics) {
	now := time.Now().Format("15:04:05")
	final := snapshots[len(snapshots)-1]

	fmt.Fprintf(c.out, "[%s] %d events → switches:%d final:$%.2f (%+.2f%%) pos:%s\n",
		now, len(snapshots), run.Switches, final.TotalValueUSD,
		100*(final.TotalValueUSD/run.InitialCapital-1), final.Position)

	if !math.IsNaN(metrics.AnnualReturn) {
		fmt.Fprintf(c.out, "  annual:%+.1f%% maxDD:%.1f%% sharpe:%s sortino:%s over %dd\n",
			100*metrics.AnnualReturn, 100*metrics.MaxDrawdown,
			ratioLabel(metrics.Sharpe), ratioLabel(metrics.Sortino), metrics.Days)
	}
}

// printFull imprime la tabla de snapshots y el panel de métricas.
func (c *Console) printFull(run domain.RunRecord, snapshots []domain.Snapshot, metrics report.Metrics) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] run %s — %d events, %d switches, initial $%.2f\n",
		now, shortID(run.ID), len(snapshots), run.Switches, run.InitialCapital)

	rows := snapshots
	switchesOnly := len(snapshots) > maxTableRows
	if switchesOnly {
		rows = rows[:0:0]
		for _, s := range snapshots {
			if s.Switched() {
				rows = append(rows, s)
			}
		}
		fmt.Fprintf(c.out, "  (%d rows — showing the %d position switches; full detail in the output CSV)\n",
			len(snapshots), len(rows))
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Time", "Price", "Position", "Qty", "Total USD", "Signals", "Remark")
	for _, s := range rows {
		table.Append(
			fmt.Sprintf("%d", s.Index+1),
			s.Timestamp,
			fmt.Sprintf("%.2f", s.Price),
			s.Position.String(),
			fmt.Sprintf("%.6f", s.AssetQty),
			fmt.Sprintf("$%.2f", s.TotalValueUSD),
			s.ActiveSignals,
			s.Remark,
		)
	}
	table.Render()

	c.printMetrics(metrics)
}

// printMetrics imprime el panel de métricas derivadas de la curva diaria.
func (c *Console) printMetrics(m report.Metrics) {
	if m.Days <= 0 {
		fmt.Fprintln(c.out, "\n  (run too short for daily metrics)")
		return
	}

	fmt.Fprintf(c.out, "\n=== METRICS (%s → %s, %d days) ===\n",
		m.Start.Format("2006-01-02"), m.End.Format("2006-01-02"), m.Days)
	fmt.Fprintf(c.out, "  Total return:  %+.2f%%\n", 100*m.TotalReturn)
	fmt.Fprintf(c.out, "  Annualized:    %s\n", pctLabel(m.AnnualReturn))
	fmt.Fprintf(c.out, "  Max drawdown:  %.2f%%\n", 100*m.MaxDrawdown)
	fmt.Fprintf(c.out, "  Sharpe:        %s\n", ratioLabel(m.Sharpe))
	fmt.Fprintf(c.out, "  Sortino:       %s\n", ratioLabel(m.Sortino))
	fmt.Fprintln(c.out)
}

func ratioLabel(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

func pctLabel(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", 100*v)
}

func shortID(id string) string {
	if i := strings.Index(id, "-"); i > 0 {
		return id[:i]
	}
	return id
}
