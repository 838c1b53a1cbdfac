package analysis

import (
	"math"
	"testing"

	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func rec(code, name string, value, denominator *float64) domain.IndicatorRecord {
	return domain.IndicatorRecord{
		IndicatorID: domain.Type1CareProcesses,
		AreaCode:    code,
		AreaName:    name,
		AreaType:    domain.AreaICBs,
		TimePeriod:  "2023/24",
		Value:       value,
		Denominator: denominator,
	}
}

func codes[T interface{ code() string }](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.code()
	}
	return out
}

func (v RecordView) code() string { return v.AreaCode }
func (r Ranking) code() string    { return r.AreaCode }

func TestRound(t *testing.T) {
	assert.Equal(t, 2.0, Round(2.5, 0))
	assert.Equal(t, 4.0, Round(3.5, 0))
	assert.Equal(t, -2.0, Round(-2.5, 0))
	assert.Equal(t, 0.12, Round(0.125, 2))
	assert.Equal(t, 50.62, Round(50.625, 2))
	assert.Equal(t, 0.0, Round(-0.001, 2))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
	assert.Equal(t, 1.23, Round(1.23456, 2))
	assert.Equal(t, 0.1235, Round(0.123456, 4))
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.75, Quantile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 2.5, Quantile(sorted, 0.5), 1e-9)
	assert.InDelta(t, 3.25, Quantile(sorted, 0.75), 1e-9)
	assert.Equal(t, 1.0, Quantile(sorted, 0))
	assert.Equal(t, 4.0, Quantile(sorted, 1))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.25))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}
