package domain

import "fmt"

// PositionType es el modo de tenencia de la cuenta en un instante dado.
// Enumeración cerrada: cualquier otro valor es un error de configuración.
type PositionType string

const (
	// PositionFlat — sin tenencias, todo en USD.
	PositionFlat PositionType = "flat"
	// PositionSpot — tenencia del activo sin apalancamiento.
	PositionSpot PositionType = "spot"
	// PositionLong1x — posición apalancada 1x (PnL sintético sobre la cantidad).
	PositionLong1x PositionType = "long_1x"
	// PositionLong2x — posición apalancada 2x.
	PositionLong2x PositionType = "long_2x"
)

// positionAliases acepta los nombres que usan los archivos de policy legacy
// además de los canónicos.
var positionAliases = map[string]PositionType{
	"flat":    PositionFlat,
	"cash":    PositionFlat,
	"空仓":      PositionFlat,
	"spot":    PositionSpot,
	"现货":      PositionSpot,
	"long_1x": PositionLong1x,
	"1x":      PositionLong1x,
	"一倍合约":    PositionLong1x,
	"long_2x": PositionLong2x,
	"2x":      PositionLong2x,
	"两倍合约":    PositionLong2x,
}

// ParsePositionType mapea un string de configuración a un PositionType.
// Devuelve error para cualquier valor fuera de la enumeración.
func ParsePositionType(s string) (PositionType, error) {
	if p, ok := positionAliases[s]; ok {
		return p, nil
	}
	return "", fmt.Errorf("domain.ParsePositionType: unknown position type %q", s)
}

// Valid devuelve true si el valor pertenece a la enumeración.
func (p PositionType) Valid() bool {
	switch p {
	case PositionFlat, PositionSpot, PositionLong1x, PositionLong2x:
		return true
	}
	return false
}

// Leverage devuelve el multiplicador de mark-to-market: 1 para long_1x,
// 2 para long_2x, 0 para flat y spot (spot no acumula PnL sintético,
// su valor ya es qty*price al leer).
func (p PositionType) Leverage() float64 {
	switch p {
	case PositionLong1x:
		return 1
	case PositionLong2x:
		return 2
	}
	return 0
}

// Leveraged devuelve true para cualquiera de los dos niveles de apalancamiento.
func (p PositionType) Leveraged() bool {
	return p == PositionLong1x || p == PositionLong2x
}

// Holds devuelve true si la posición mantiene el activo (spot o apalancada),
// es decir, si liquida/reabre en un switch.
func (p PositionType) Holds() bool {
	return p == PositionSpot || p.Leveraged()
}

func (p PositionType) String() string { return string(p) }
