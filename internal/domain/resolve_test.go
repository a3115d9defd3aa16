package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	table := FieldTable{
		FieldAlt: {"GPS Alt(m)", "Vario Alt(m)"},
		FieldGPS: {"GPS"},
	}

	t.Run("last present candidate wins", func(t *testing.T) {
		row := RawRow{
			"GPS Alt(m)":   "120.5",
			"Vario Alt(m)": "118.2",
			"GPS":          "40.07 -105.20",
		}
		out := Resolve(row, table, nil)

		assert.Equal(t, "118.2", out[FieldAlt])
		assert.Equal(t, "40.07 -105.20", out[FieldGPS])
	})

	t.Run("earlier candidate fills in when later is absent", func(t *testing.T) {
		out := Resolve(RawRow{"GPS Alt(m)": "120.5"}, table, nil)
		assert.Equal(t, "120.5", out[FieldAlt])
	})

	t.Run("empty value still counts as present", func(t *testing.T) {
		row := RawRow{"GPS Alt(m)": "120.5", "Vario Alt(m)": ""}
		out := Resolve(row, table, nil)
		assert.Equal(t, "", out[FieldAlt])
	})

	t.Run("no candidate present stays absent", func(t *testing.T) {
		out := Resolve(RawRow{"RSSI(dB)": "85"}, table, nil)
		_, ok := out[FieldAlt]
		assert.False(t, ok)
	})

	t.Run("displayed fields pass through", func(t *testing.T) {
		row := RawRow{"RSSI(dB)": "85", "RxBt(V)": "7.9", "SWR": "23"}
		out := Resolve(row, table, []string{"RSSI(dB)", "RxBt(V)"})

		assert.Equal(t, "85", out["RSSI(dB)"])
		assert.Equal(t, "7.9", out["RxBt(V)"])
		_, ok := out["SWR"]
		assert.False(t, ok, "unrequested columns should be dropped")
	})

	t.Run("missing displayed field is absorbed", func(t *testing.T) {
		out := Resolve(RawRow{}, table, []string{"RSSI(dB)"})
		_, ok := out["RSSI(dB)"]
		assert.False(t, ok)
	})

	t.Run("displayed canonical name keeps the resolved value", func(t *testing.T) {
		// "Alt(m)" is both a canonical name and a displayed field. A raw
		// column literally named "Alt(m)" is not a candidate and must not
		// clobber the resolved altitude.
		row := RawRow{"Alt(m)": "999", "Vario Alt(m)": "118.2"}
		out := Resolve(row, table, []string{FieldAlt})
		assert.Equal(t, "118.2", out[FieldAlt])
	})
}
