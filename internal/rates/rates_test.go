package rates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierTable_RateFor(t *testing.T) {
	table := Default().EssenceTiers

	assert.Equal(t, 0.10, table.RateFor(900))
	// Thresholds are inclusive upper bounds.
	assert.Equal(t, 0.10, table.RateFor(1000))
	assert.Equal(t, 0.27, table.RateFor(1001))
	assert.Equal(t, 0.50, table.RateFor(1700))
	assert.Equal(t, 0.88, table.RateFor(2000))
	// Above the last step the ceiling rate applies.
	assert.Equal(t, 1.50, table.RateFor(2001))
	assert.Equal(t, 1.50, table.RateFor(5000))
}

func TestExchangeRate_AppliesBuffer(t *testing.T) {
	tables := Default()
	assert.InDelta(t, 3.465, tables.ExchangeRate(), 1e-9)
	assert.InDelta(t, 34650, tables.ConvertEUR(10000), 1e-6)
}

func TestDutyRate(t *testing.T) {
	tables := Default()
	assert.Equal(t, 0.0, tables.DutyRate("allemagne"))
	assert.Equal(t, 0.0, tables.DutyRate("  France "))
	assert.Equal(t, tables.CustomsDutyRate, tables.DutyRate("emirats"))
	assert.Equal(t, tables.CustomsDutyRate, tables.DutyRate(""))
}

func TestLoadFromFile(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		tables, err := LoadFromFile("does/not/exist.json")
		require.Error(t, err)
		assert.Equal(t, Default(), tables)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rates.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"base_eur_rate": 3.5, "rate_buffer_pct": 0}`), 0o644))

		tables, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.InDelta(t, 3.5, tables.ExchangeRate(), 1e-9)
		// Untouched fields keep their defaults.
		assert.Equal(t, Default().VATStandard, tables.VATStandard)
	})
}
