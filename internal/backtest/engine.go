package backtest

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/flexbt/internal/domain"
)

// account es el estado mutable de la simulación. Invariante: fuera del paso
// de switch, exactamente uno de usd/assetQty es distinto de cero.
type account struct {
	usd      float64
	assetQty float64
	position domain.PositionType

	// refPrice ancla el settlement del próximo evento; solo tiene sentido
	// mientras la posición es apalancada.
	refPrice float64
	hasRef   bool
}

// Run ejecuta la simulación: un fold secuencial y determinista sobre los
// eventos, sin I/O ni concurrencia. Los eventos deben venir ordenados por
// timestamp no decreciente; no hay look-ahead. Devuelve un snapshot por
// evento, en el mismo orden.
//
// La policy se valida completa antes de tocar el primer evento: una posición
// fuera de la enumeración es error de configuración, nunca de datos.
func Run(events []domain.Event, policy domain.Policy, initialCapital float64) ([]domain.Snapshot, error) {
	return RunWithNormalizer(events, policy, initialCapital, domain.NewNormalizer())
}

// RunWithNormalizer es Run con un vocabulario de señales propio del despliegue.
func RunWithNormalizer(events []domain.Event, policy domain.Policy, initialCapital float64, norm domain.Normalizer) ([]domain.Snapshot, error) {
	if initialCapital <= 0 || math.IsNaN(initialCapital) || math.IsInf(initialCapital, 0) {
		return nil, fmt.Errorf("backtest.Run: initial capital must be positive, got %v", initialCapital)
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("backtest.Run: %w", err)
	}

	acct := account{usd: initialCapital, position: domain.PositionFlat}
	active := domain.NewSignalSet()
	snapshots := make([]domain.Snapshot, 0, len(events))

	for _, ev := range events {
		if ev.Price <= 0 || math.IsNaN(ev.Price) || math.IsInf(ev.Price, 0) {
			return nil, fmt.Errorf("backtest.Run: event %d (%s): invalid price %v", ev.Index, ev.Timestamp, ev.Price)
		}

		// paso 1: settlement mark-to-market del apalancamiento vigente,
		// contra el precio de referencia del evento anterior. Tiene que
		// ejecutarse antes de tocar señales o posición: es el PnL
		// acumulado desde el último evento con la posición anterior.
		if lev := acct.position.Leverage(); lev > 0 && acct.hasRef {
			acct.assetQty += lev * (ev.Price - acct.refPrice) / acct.refPrice * acct.assetQty
		}

		// paso 2: re-anclar (o limpiar) el precio de referencia.
		if acct.position.Leveraged() {
			acct.refPrice = ev.Price
			acct.hasRef = true
		} else {
			acct.refPrice = 0
			acct.hasRef = false
		}

		// paso 3: actualizar el conjunto de señales activas.
		signal := norm.Normalize(ev.RawSignal)
		switch ev.Action {
		case domain.ActionEnter:
			active.Add(signal)
		case domain.ActionExit:
			active.Remove(signal)
		}

		// paso 4: resolver la posición objetivo. Combinación no mapeada →
		// continuación: se mantiene la posición actual, sin remark.
		target := acct.position
		if entry, ok := policy.Lookup(active); ok {
			target = entry.Position
		}

		// paso 5: switch liquidar-y-reabrir al precio del evento.
		remark := ""
		if target != acct.position {
			if acct.position.Holds() {
				// el PnL apalancado ya está en assetQty (paso 1), así
				// que liquidar es un mark simple, sin doble conteo.
				acct.usd = acct.assetQty * ev.Price
				acct.assetQty = 0
			}
			if target.Holds() {
				acct.assetQty = acct.usd / ev.Price
				acct.usd = 0
				if target.Leveraged() {
					// base de coste de la posición recién abierta;
					// pisa el valor del paso 2.
					acct.refPrice = ev.Price
					acct.hasRef = true
				}
			}
			remark = "switch→" + target.String()
			acct.position = target
		}

		// paso 6: snapshot. Tie-break documentado: usd si es estrictamente
		// positivo, si no el valor del activo a precio de evento.
		total := acct.usd
		if acct.usd <= 0 {
			total = acct.assetQty * ev.Price
		}

		snapshots = append(snapshots, domain.Snapshot{
			Index:         ev.Index,
			Timestamp:     ev.Timestamp,
			Price:         ev.Price,
			Position:      acct.position,
			AssetQty:      acct.assetQty,
			TotalValueUSD: total,
			ActiveSignals: active.String(),
			Remark:        remark,
		})
	}

	return snapshots, nil
}

// CountSwitches devuelve cuántos eventos ejecutaron un cambio de posición.
func CountSwitches(snapshots []domain.Snapshot) int {
	n := 0
	for _, s := range snapshots {
		if s.Switched() {
			n++
		}
	}
	return n
}
