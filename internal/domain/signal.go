package domain

import "strings"

// DefaultSignals es el vocabulario canónico de señales, en orden de prioridad
// de matching. Viene del despliegue (config), no de los datos de entrada.
var DefaultSignals = []string{"tempeture_index", "120_ma", "ADX"}

// Normalizer mapea etiquetas de señal libres a su identificador canónico.
type Normalizer struct {
	vocabulary []string
}

// NewNormalizer crea un normalizador con el vocabulario dado.
// Con vocabulario vacío usa DefaultSignals.
func NewNormalizer(vocabulary ...string) Normalizer {
	if len(vocabulary) == 0 {
		vocabulary = DefaultSignals
	}
	return Normalizer{vocabulary: vocabulary}
}

// Normalize devuelve el primer identificador canónico que aparece como
// substring de la etiqueta cruda. Si ninguno aparece, devuelve la etiqueta
// recortada tal cual: no es un error, es la vía de escape para señales
// nuevas que todavía no están en el vocabulario. Pura e idempotente.
func (n Normalizer) Normalize(raw string) string {
	for _, canonical := range n.vocabulary {
		if strings.Contains(raw, canonical) {
			return canonical
		}
	}
	return strings.TrimSpace(raw)
}

// Vocabulary devuelve el vocabulario canónico del normalizador.
func (n Normalizer) Vocabulary() []string {
	if len(n.vocabulary) == 0 {
		return DefaultSignals
	}
	return n.vocabulary
}
