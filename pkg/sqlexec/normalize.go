package sqlexec

import (
	"math"
	"math/big"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// float64er is satisfied by pgtype.Numeric and other decimal wrappers.
type float64er interface {
	Float64Value() (pgtype.Float8, error)
}

// Non-finite numbers have no JSON form; they travel as PostgreSQL's own text
// spelling so they stay distinguishable from NULL.
const (
	textNaN    = "NaN"
	textInf    = "Infinity"
	textNegInf = "-Infinity"
)

// normalizeValue rewrites driver-specific values into plain JSON-friendly
// types, descending into maps and slices.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return finiteOrText(val)
	case float32:
		return finiteOrText(float64(val))
	case pgtype.Numeric:
		return numericToFloat(val)
	case *pgtype.Numeric:
		if val == nil {
			return nil
		}
		return numericToFloat(*val)
	case float64er:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return finiteOrText(f.Float64)
	case *big.Float:
		f, _ := val.Float64()
		return f
	case *big.Rat:
		f, _ := val.Float64()
		return f
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.UUID:
		if !val.Valid {
			return nil
		}
		return uuid.UUID(val.Bytes).String()
	case []byte:
		return string(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizeValue(inner)
		}
		return out
	default:
		return v
	}
}

func numericToFloat(n pgtype.Numeric) any {
	switch {
	case !n.Valid:
		return nil
	case n.NaN:
		return textNaN
	case n.InfinityModifier == pgtype.Infinity:
		return textInf
	case n.InfinityModifier == pgtype.NegativeInfinity:
		return textNegInf
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return nil
	}
	return finiteOrText(f.Float64)
}

func finiteOrText(f float64) any {
	switch {
	case math.IsNaN(f):
		return textNaN
	case math.IsInf(f, 1):
		return textInf
	case math.IsInf(f, -1):
		return textNegInf
	default:
		return f
	}
}

func normalizeRow(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = normalizeValue(v)
	}
	return out
}
