package sqlexec

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeValue(t *testing.T) {
	id := uuid.MustParse("6f1c2a9e-4b1d-4c55-9c0a-0d8f0a7b5e11")

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"numeric", pgtype.Numeric{Int: big.NewInt(15), Exp: -1, Valid: true}, 1.5},
		{"null numeric", pgtype.Numeric{}, nil},
		{"nan numeric", pgtype.Numeric{NaN: true, Valid: true}, "NaN"},
		{"infinite numeric", pgtype.Numeric{InfinityModifier: pgtype.Infinity, Valid: true}, "Infinity"},
		{"negative infinite numeric", pgtype.Numeric{InfinityModifier: pgtype.NegativeInfinity, Valid: true}, "-Infinity"},
		{"nan float8", math.NaN(), "NaN"},
		{"infinite float4", float32(math.Inf(-1)), "-Infinity"},
		{"finite float8", 2.5, 2.5},
		{"uuid bytes", [16]byte(id), id.String()},
		{"pg uuid", pgtype.UUID{Bytes: id, Valid: true}, id.String()},
		{"bytes", []byte("abc"), "abc"},
		{"big rat", big.NewRat(1, 4), 0.25},
		{"plain int", int64(7), int64(7)},
		{"string", "x", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeValue(tt.in))
		})
	}
}

func TestNormalizeRowNonFiniteStaysEncodable(t *testing.T) {
	row := normalizeRow([]any{math.Inf(1), pgtype.Numeric{NaN: true, Valid: true}, nil})

	raw, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `["Infinity","NaN",null]`, string(raw))
}
