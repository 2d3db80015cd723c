package csvio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/flexbt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRead_EnglishHeader(t *testing.T) {
	csvData := "timestamp,price,action,signal,note\n" +
		"2024-01-01,\"43,210.50\",enter,tempeture_index hot,extra\n" +
		"2024-01-02,44000,exit,tempeture_index,\n"
	path := writeTemp(t, "in.csv", []byte(csvData))

	table, events, err := Read(path)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"timestamp", "price", "action", "signal", "note"}, table.Header)

	assert.Equal(t, 0, events[0].Index)
	assert.Equal(t, "2024-01-01", events[0].Timestamp)
	assert.Equal(t, 43210.50, events[0].Price)
	assert.Equal(t, domain.ActionEnter, events[0].Action)
	assert.Equal(t, "tempeture_index hot", events[0].RawSignal)
	assert.Equal(t, domain.ActionExit, events[1].Action)
}

func TestRead_LegacyChineseHeaderWithBOM(t *testing.T) {
	// El export original escribe utf-8-sig: BOM + headers en chino.
	csvData := append([]byte{0xEF, 0xBB, 0xBF}, []byte(
		"日期/时间,价格 USD,类型,信号\n"+
			"2024-01-01,\"1,234.56\",进场,120_ma crossover\n")...)
	path := writeTemp(t, "legacy.csv", csvData)

	_, events, err := Read(path)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1234.56, events[0].Price)
	assert.Equal(t, domain.ActionEnter, events[0].Action)
	assert.Equal(t, "120_ma crossover", events[0].RawSignal)
}

func TestRead_MissingColumn(t *testing.T) {
	path := writeTemp(t, "bad.csv", []byte("timestamp,price,action\n2024-01-01,100,enter\n"))
	_, _, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signal")
}

func TestRead_BadPriceNamesRow(t *testing.T) {
	csvData := "timestamp,price,action,signal\n" +
		"2024-01-01,100,enter,ADX\n" +
		"2024-01-02,not-a-price,exit,ADX\n"
	path := writeTemp(t, "badprice.csv", []byte(csvData))

	_, _, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
	assert.Contains(t, err.Error(), "2024-01-02")
}

func TestWrite_AppendsColumnsAndBOM(t *testing.T) {
	table := Table{
		Header: []string{"timestamp", "price", "action", "signal"},
		Rows: [][]string{
			{"2024-01-01", "100", "enter", "ADX"},
		},
	}
	snaps := []domain.Snapshot{
		{Position: domain.PositionSpot, AssetQty: 10, TotalValueUSD: 1000, ActiveSignals: "ADX", Remark: "switch→spot"},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, Write(path, table, snaps))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, len(data) > 3)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])

	// Y el round-trip se vuelve a leer con las columnas originales intactas.
	rt, events, err := Read(path)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, append([]string{"timestamp", "price", "action", "signal"},
		"position_type", "asset_quantity", "total_asset_value_usd", "active_signals", "remark"), rt.Header)
	assert.Equal(t, "spot", rt.Rows[0][4])
	assert.Equal(t, "1000", rt.Rows[0][6])
	assert.Equal(t, "switch→spot", rt.Rows[0][8])
}

func TestWrite_RowCountMismatch(t *testing.T) {
	table := Table{Header: []string{"a"}, Rows: [][]string{{"1"}, {"2"}}}
	err := Write(filepath.Join(t.TempDir(), "out.csv"), table, []domain.Snapshot{{}})
	require.Error(t, err)
}
