package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Primitive type tags.
const (
	TypeInt       = "int"
	TypeImageID   = "imgid"
	TypeBool      = "bool"
	TypeAlignment = "alignment"
	TypeColor     = "color"
)

func isPrimitive(typ string) bool {
	switch typ {
	case TypeInt, TypeImageID, TypeBool, TypeAlignment, TypeColor:
		return true
	}
	return false
}

var (
	horizontalAlign = map[int64]string{0x02: "Left", 0x04: "Right", 0x08: "Center"}
	verticalAlign   = map[int64]string{0x10: "Top", 0x20: "Bottom", 0x40: "Center"}

	// alignAliases names masks whose concatenated name belongs to another
	// mask. Vertical-only center would otherwise print as "Center" (0x08).
	alignAliases = map[int64]string{0x40: "CenterVertical"}

	// alignByName is filled in vertical-major order and the first name wins,
	// so a bare "Center" is the horizontal one.
	alignByName = func() map[string]int64 {
		m := make(map[string]int64)
		for v, name := range alignAliases {
			m[name] = v
		}
		for _, v := range []int64{0, 0x10, 0x20, 0x40} {
			for _, h := range []int64{0, 0x02, 0x04, 0x08} {
				name := verticalAlign[v] + horizontalAlign[h]
				if _, ok := m[name]; !ok {
					m[name] = v | h
				}
			}
		}
		return m
	}()
)

func formatAlignment(v int64) any {
	vert, horiz := v&0xF0, v&0x0F
	vn, vok := verticalAlign[vert]
	hn, hok := horizontalAlign[horiz]
	if v&^0xFF != 0 || (vert != 0 && !vok) || (horiz != 0 && !hok) {
		return v
	}
	if alias, ok := alignAliases[v]; ok {
		return alias
	}
	name := vn + hn
	if alignByName[name] != v {
		return v
	}
	return name
}

// FormatValue renders a raw integer as the user-facing value for typ.
// Alignment bitmasks outside the name table are returned as integers.
func FormatValue(v int64, typ string) (any, error) {
	switch typ {
	case TypeInt, TypeImageID:
		return v, nil
	case TypeBool:
		return v != 0, nil
	case TypeAlignment:
		return formatAlignment(v), nil
	case TypeColor:
		return fmt.Sprintf("0x%X", v), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}

// ParseValue is the inverse of FormatValue. Numeric input is accepted for
// every type, including JSON numbers decoded as float64 or json.Number.
// Numbers that are not whole or do not fit in an int64 are rejected.
func ParseValue(v any, typ string) (int64, error) {
	switch typ {
	case TypeInt, TypeImageID:
		return toInt(v, typ)
	case TypeBool:
		if _, ok := v.(number); ok {
			n, err := toInt(v, typ)
			return boolInt(n != 0), err
		}
		b, err := cast.ToBoolE(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %v is not a %s", ErrInvalidValue, v, typ)
		}
		return boolInt(b), nil
	case TypeAlignment:
		if s, ok := v.(string); ok {
			if n, ok := alignByName[s]; ok {
				return n, nil
			}
			return 0, fmt.Errorf("%w: unknown alignment %q", ErrInvalidValue, s)
		}
		return toInt(v, typ)
	case TypeColor:
		if s, ok := v.(string); ok {
			hex := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
			n, err := strconv.ParseInt(hex, 16, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: color %q", ErrInvalidValue, s)
			}
			return n, nil
		}
		return toInt(v, typ)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// number is implemented by json.Number of both encoding/json and go-json.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

func toInt(v any, typ string) (int64, error) {
	switch n := v.(type) {
	case number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v is not a valid %s", ErrInvalidValue, v, typ)
		}
		return floatToInt(f, typ)
	case float64:
		return floatToInt(n, typ)
	case float32:
		return floatToInt(float64(n), typ)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v is not a valid %s", ErrInvalidValue, v, typ)
	}
	return n, nil
}

// floatToInt accepts only whole numbers in int64 range.
func floatToInt(f float64, typ string) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v is not a valid %s", ErrInvalidValue, f, typ)
	}
	return int64(f), nil
}
