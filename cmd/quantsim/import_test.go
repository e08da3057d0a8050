package main

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBarsCSV(t *testing.T) {
	in := `symbol,date,close,volume
aapl,2024-01-02,185.64,82488700
AAPL, 2024-01-03,184.25,58414500
`
	bars, err := readBarsCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, "AAPL", bars[0].Symbol)
	assert.True(t, bars[0].Close.Equal(decimal.RequireFromString("185.64")))
	assert.True(t, bars[1].Timestamp.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)))
	assert.True(t, bars[1].Volume.Equal(decimal.NewFromInt(58414500)))
}

func TestReadBarsCSVErrors(t *testing.T) {
	tests := map[string]string{
		"bad date":      "AAPL,01/02/2024,1,1\n",
		"bad close":     "AAPL,2024-01-02,abc,1\n",
		"bad volume":    "AAPL,2024-01-02,1,x\n",
		"wrong columns": "AAPL,2024-01-02,1\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := readBarsCSV(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}
