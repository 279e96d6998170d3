package engine

import (
	"math/big"
	"testing"
	"time"

	"github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "Acme", "Acme"},
		{"bytes", []byte("raw"), "raw"},
		{"bool", true, "true"},
		{"int64", int64(42), "42"},
		{"int32", int32(-7), "-7"},
		{"float", 1500.5, "1500.5"},
		{"float whole", float64(20), "20"},
		{"hugeint", big.NewInt(123456789), "123456789"},
		{"decimal keeps scale", duckdb.Decimal{Width: 10, Scale: 2, Value: big.NewInt(150000)}, "1500.00"},
		{"negative decimal", duckdb.Decimal{Width: 10, Scale: 2, Value: big.NewInt(-5)}, "-0.05"},
		{"date", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), "2025-02-01"},
		{"timestamp", time.Date(2025, 2, 1, 13, 4, 5, 0, time.UTC), "2025-02-01 13:04:05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}
