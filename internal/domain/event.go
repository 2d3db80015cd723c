package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Action es el tipo de evento de señal.
type Action string

const (
	ActionEnter Action = "enter"
	ActionExit  Action = "exit"
	// ActionNone: la fila no muta el conjunto de señales, pero el evento se
	// procesa igual (settlement + lookup + snapshot).
	ActionNone Action = ""
)

// actionAliases acepta las etiquetas legacy de los CSV originales.
var actionAliases = map[string]Action{
	"enter": ActionEnter,
	"进场":    ActionEnter,
	"exit":  ActionExit,
	"出场":    ActionExit,
}

// ParseAction mapea la celda de acción a un Action. Valores desconocidos se
// tratan como ActionNone, no como error: la fila sigue generando snapshot.
func ParseAction(s string) Action {
	if a, ok := actionAliases[strings.TrimSpace(s)]; ok {
		return a
	}
	return ActionNone
}

// Event es una fila de entrada ya parseada. Los eventos llegan ordenados por
// timestamp no decreciente; el engine no los reordena.
type Event struct {
	Index     int    // posición en el CSV (0-based, sin contar el header)
	Timestamp string // se conserva tal cual para el passthrough de salida
	Price     float64
	Action    Action
	RawSignal string
}

// ParsePrice parsea un precio que puede traer separadores de miles.
// Rechaza precios no positivos, NaN e infinitos: el diseño no admite
// precios cero o negativos como entrada.
func ParsePrice(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("domain.ParsePrice: %q: %w", s, err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, fmt.Errorf("domain.ParsePrice: %q: price must be a positive finite number", s)
	}
	return price, nil
}
