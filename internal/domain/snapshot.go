package domain

import "time"

// Snapshot es la foto de la cuenta tras procesar un evento. Se emite
// exactamente una por evento de entrada, en el mismo orden.
type Snapshot struct {
	Index         int
	Timestamp     string
	Price         float64
	Position      PositionType
	AssetQty      float64
	TotalValueUSD float64
	ActiveSignals string // canónicas, ordenadas, separadas por coma
	Remark        string // vacío salvo que hubiera switch en este evento
}

// Switched devuelve true si este evento ejecutó un cambio de posición.
func (s Snapshot) Switched() bool { return s.Remark != "" }

// RunRecord es el registro archivado de una ejecución completa de backtest.
type RunRecord struct {
	ID             string // uuid
	CreatedAt      time.Time
	Input          string // ruta del CSV de entrada
	InitialCapital float64
	FinalValue     float64
	Events         int
	Switches       int
	PolicyJSON     string
}
