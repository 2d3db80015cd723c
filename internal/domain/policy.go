package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SignalSet es el conjunto de señales canónicas activas (entradas sin salida
// correspondiente). La igualdad es estructural: dos conjuntos son iguales si
// contienen las mismas señales, sin importar el orden de inserción.
type SignalSet map[string]struct{}

// NewSignalSet crea un conjunto con las señales dadas.
func NewSignalSet(signals ...string) SignalSet {
	s := make(SignalSet, len(signals))
	for _, sig := range signals {
		s[sig] = struct{}{}
	}
	return s
}

// Add añade una señal (idempotente si ya está presente).
func (s SignalSet) Add(signal string) { s[signal] = struct{}{} }

// Remove quita una señal (no-op si no está).
func (s SignalSet) Remove(signal string) { delete(s, signal) }

// Sorted devuelve las señales ordenadas lexicográficamente.
func (s SignalSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for sig := range s {
		out = append(out, sig)
	}
	sort.Strings(out)
	return out
}

// Key devuelve la clave normalizada del conjunto para el lookup en la policy:
// señales ordenadas y unidas por "|". El conjunto vacío produce "".
func (s SignalSet) Key() string {
	return strings.Join(s.Sorted(), "|")
}

// String devuelve las señales ordenadas y separadas por coma (para display).
func (s SignalSet) String() string {
	return strings.Join(s.Sorted(), ",")
}

// PolicyEntry es la configuración objetivo para una combinación de señales.
// Ratio se valida y se conserva para el dashboard, pero las fórmulas de
// asignación del engine operan sobre el balance completo.
type PolicyEntry struct {
	Position PositionType
	Ratio    float64
}

// Policy mapea combinaciones de señales activas a la posición objetivo.
// La clave es SignalSet.Key(). El mapa no necesita ser total: una combinación
// ausente significa "mantener la posición actual" (regla de continuación),
// nunca un error en runtime.
type Policy map[string]PolicyEntry

// Lookup busca la entrada para el conjunto de señales dado.
func (p Policy) Lookup(active SignalSet) (PolicyEntry, bool) {
	entry, ok := p[active.Key()]
	return entry, ok
}

// Validate comprueba que toda posición mapeada pertenezca a la enumeración y
// que los ratios estén en [0,1]. Falla antes de procesar ningún evento:
// es un error de configuración, no de datos.
func (p Policy) Validate() error {
	for key, entry := range p {
		if !entry.Position.Valid() {
			return fmt.Errorf("domain.Policy: combination %q maps to unknown position %q", key, entry.Position)
		}
		if entry.Ratio < 0 || entry.Ratio > 1 {
			return fmt.Errorf("domain.Policy: combination %q has ratio %v outside [0,1]", key, entry.Ratio)
		}
	}
	return nil
}

// DefaultPolicy devuelve la estrategia por defecto: sin señales → flat,
// una señal → spot, dos → long_1x, las tres → long_2x.
func DefaultPolicy() Policy {
	return Policy{
		NewSignalSet().Key():                                   {Position: PositionFlat, Ratio: 1},
		NewSignalSet("tempeture_index").Key():                  {Position: PositionSpot, Ratio: 1},
		NewSignalSet("120_ma").Key():                           {Position: PositionSpot, Ratio: 1},
		NewSignalSet("ADX").Key():                              {Position: PositionSpot, Ratio: 1},
		NewSignalSet("tempeture_index", "120_ma").Key():        {Position: PositionLong1x, Ratio: 1},
		NewSignalSet("tempeture_index", "ADX").Key():           {Position: PositionLong1x, Ratio: 1},
		NewSignalSet("120_ma", "ADX").Key():                    {Position: PositionLong1x, Ratio: 1},
		NewSignalSet("tempeture_index", "120_ma", "ADX").Key(): {Position: PositionLong2x, Ratio: 1},
	}
}

// policyEntryJSON es la forma serializada de una entrada de policy.
type policyEntryJSON struct {
	Position string   `json:"position"`
	Ratio    *float64 `json:"ratio,omitempty"`
}

// ParsePolicyJSON parsea una policy desde JSON. Las claves son combinaciones
// "sig1|sig2" ("" para el conjunto vacío); cada parte se normaliza con el
// normalizador dado, de modo que las claves escritas a mano y las señales de
// los eventos caigan en el mismo vocabulario.
func ParsePolicyJSON(text string, norm Normalizer) (Policy, error) {
	var raw map[string]policyEntryJSON
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("domain.ParsePolicyJSON: %w", err)
	}

	policy := make(Policy, len(raw))
	for key, entry := range raw {
		pos, err := ParsePositionType(entry.Position)
		if err != nil {
			return nil, fmt.Errorf("domain.ParsePolicyJSON: combination %q: %w", key, err)
		}
		ratio := 1.0
		if entry.Ratio != nil {
			ratio = *entry.Ratio
		}
		policy[normalizeComboKey(key, norm)] = PolicyEntry{Position: pos, Ratio: ratio}
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

// MarshalJSON serializa la policy en la misma forma que acepta ParsePolicyJSON,
// para archivarla junto al run.
func (p Policy) MarshalJSON() ([]byte, error) {
	raw := make(map[string]policyEntryJSON, len(p))
	for key, entry := range p {
		ratio := entry.Ratio
		raw[key] = policyEntryJSON{Position: string(entry.Position), Ratio: &ratio}
	}
	return json.Marshal(raw)
}

// normalizeComboKey normaliza cada señal de una clave "a|b" y la reordena.
func normalizeComboKey(key string, norm Normalizer) string {
	if strings.TrimSpace(key) == "" {
		return ""
	}
	parts := strings.Split(key, "|")
	set := make(SignalSet, len(parts))
	for _, part := range parts {
		set.Add(norm.Normalize(part))
	}
	return set.Key()
}
