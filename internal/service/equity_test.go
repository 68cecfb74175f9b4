package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEquitySplit(t *testing.T) {
	tests := []struct {
		name    string
		split   string
		want    []float64
		wantErr bool
	}{
		{"dash separator", "50-50", []float64{50, 50}, false},
		{"slash separator", "60/40", []float64{60, 40}, false},
		{"three way", "40-30-30", []float64{40, 30, 30}, false},
		{"whitespace tolerated", " 70 - 30 ", []float64{70, 30}, false},
		{"empty", "", nil, true},
		{"single part", "100", nil, true},
		{"not numeric", "fifty-fifty", nil, true},
		{"zero part", "0-100", nil, true},
		{"does not sum to 100", "60-60", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEquitySplit(tt.split)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEqualShares(t *testing.T) {
	tests := []struct {
		n    int
		want []float64
	}{
		{2, []float64{50, 50}},
		{3, []float64{33.33, 33.33, 33.34}},
		{4, []float64{25, 25, 25, 25}},
		{6, []float64{16.66, 16.66, 16.66, 16.66, 16.66, 16.7}},
	}

	for _, tt := range tests {
		shares := equalShares(tt.n)
		assert.Equal(t, tt.want, shares)
		assert.InDelta(t, 100, shareSum(shares), shareSumTolerance)
	}
}
