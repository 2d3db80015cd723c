// Package csvio lee y escribe las tablas de eventos. El CSV de entrada se
// conserva columna a columna para que la salida sea la misma tabla aumentada,
// fila a fila, con las columnas del backtest.
package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/alejandrodnm/flexbt/internal/domain"
)

// Table es el CSV de entrada tal cual: header y filas sin interpretar.
type Table struct {
	Header []string
	Rows   [][]string
}

// columnAliases mapea los nombres de columna aceptados (el export original
// usa headers en chino; los nuevos, en inglés). Comparación en minúsculas.
var columnAliases = map[string][]string{
	"timestamp": {"timestamp", "date", "datetime", "日期/时间", "日期", "时间"},
	"price":     {"price", "price usd", "price_usd", "价格 usd", "价格"},
	"action":    {"action", "type", "类型"},
	"signal":    {"signal", "raw_signal", "信号"},
}

type columns struct {
	timestamp, price, action, signal int
}

// Read carga el CSV y extrae los eventos. Los eventos se asumen ya ordenados
// por timestamp no decreciente; aquí no se reordena nada. Un precio
// imparseable es error en esa fila, con número de fila: no se saltan ni se
// interpolan filas malas.
func Read(path string) (Table, []domain.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, nil, fmt.Errorf("csvio.Read: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(decodeBOM(f))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return Table{}, nil, fmt.Errorf("csvio.Read: %q: read header: %w", path, err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return Table{}, nil, fmt.Errorf("csvio.Read: %q: %w", path, err)
	}

	table := Table{Header: header}
	var events []domain.Event
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, nil, fmt.Errorf("csvio.Read: %q: row %d: %w", path, len(table.Rows)+2, err)
		}

		idx := len(table.Rows)
		ev, err := parseRow(row, cols, idx)
		if err != nil {
			return Table{}, nil, fmt.Errorf("csvio.Read: %q: %w", path, err)
		}

		table.Rows = append(table.Rows, row)
		events = append(events, ev)
	}

	return table, events, nil
}

func parseRow(row []string, cols columns, idx int) (domain.Event, error) {
	need := max(cols.timestamp, cols.price, cols.action, cols.signal)
	if len(row) <= need {
		return domain.Event{}, fmt.Errorf("row %d: got %d columns, need at least %d", idx+2, len(row), need+1)
	}

	price, err := domain.ParsePrice(row[cols.price])
	if err != nil {
		return domain.Event{}, fmt.Errorf("row %d (%s): %w", idx+2, row[cols.timestamp], err)
	}

	return domain.Event{
		Index:     idx,
		Timestamp: strings.TrimSpace(row[cols.timestamp]),
		Price:     price,
		Action:    domain.ParseAction(row[cols.action]),
		RawSignal: row[cols.signal],
	}, nil
}

func resolveColumns(header []string) (columns, error) {
	find := func(key string) (int, error) {
		for i, name := range header {
			name = strings.ToLower(strings.TrimSpace(name))
			for _, alias := range columnAliases[key] {
				if name == strings.ToLower(alias) {
					return i, nil
				}
			}
		}
		return 0, fmt.Errorf("missing %s column (accepted: %s)", key, strings.Join(columnAliases[key], ", "))
	}

	var cols columns
	var err error
	if cols.timestamp, err = find("timestamp"); err != nil {
		return cols, err
	}
	if cols.price, err = find("price"); err != nil {
		return cols, err
	}
	if cols.action, err = find("action"); err != nil {
		return cols, err
	}
	if cols.signal, err = find("signal"); err != nil {
		return cols, err
	}
	return cols, nil
}

// decodeBOM deja pasar UTF-8 (con o sin BOM, el export original escribe
// utf-8-sig) y decodifica UTF-16 LE/BE si hay BOM.
func decodeBOM(f *os.File) io.Reader {
	br := bufio.NewReader(f)

	if b, _ := br.Peek(3); len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		br.Discard(3)
		return br
	}
	if b, _ := br.Peek(2); len(b) >= 2 {
		if b[0] == 0xFF && b[1] == 0xFE {
			return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
		}
		if b[0] == 0xFE && b[1] == 0xFF {
			return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
		}
	}
	return br
}
