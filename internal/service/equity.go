package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// shareSumTolerance is how far party shares may drift from 100 percent.
const shareSumTolerance = 0.01

// ParseEquitySplit converts a declared split string such as "50-50" or
// "60/40" into share percentages. It is a boundary adapter: callers with
// structured shares should never route through it.
func ParseEquitySplit(split string) ([]float64, error) {
	split = strings.TrimSpace(split)
	if split == "" {
		return nil, fmt.Errorf("%w: empty equity split", ErrInvalidInput)
	}

	separator := "-"
	if strings.Contains(split, "/") {
		separator = "/"
	}

	parts := strings.Split(split, separator)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: equity split %q needs at least two parts", ErrInvalidInput, split)
	}

	shares := make([]float64, 0, len(parts))
	var sum float64
	for _, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: equity split part %q is not a number", ErrInvalidInput, part)
		}
		if value <= 0 || value > 100 {
			return nil, fmt.Errorf("%w: equity split part %v out of range", ErrInvalidInput, value)
		}
		shares = append(shares, value)
		sum += value
	}

	if math.Abs(sum-100) > shareSumTolerance {
		return nil, fmt.Errorf("%w: equity split %q sums to %.2f, expected 100", ErrInvalidInput, split, sum)
	}
	return shares, nil
}

// equalShares distributes 100 percent over n parties in two-decimal steps,
// assigning the rounding remainder to the last party so the sum is exact.
func equalShares(n int) []float64 {
	shares := make([]float64, n)
	base := math.Floor(10000/float64(n)) / 100
	var assigned float64
	for i := 0; i < n-1; i++ {
		shares[i] = base
		assigned += base
	}
	shares[n-1] = math.Round((100-assigned)*100) / 100
	return shares
}

func shareSum(shares []float64) float64 {
	var sum float64
	for _, share := range shares {
		sum += share
	}
	return sum
}
