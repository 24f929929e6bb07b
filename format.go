package hive

import (
	"math"
	"strconv"
	"strings"
)

// Format renders a value the way print shows it. Strings are written raw,
// also when nested in collections.
func Format(v *Value) string {
	var b strings.Builder
	formatValue(&b, v)
	return b.String()
}

func formatValue(b *strings.Builder, v *Value) {
	switch v.Type {
	case ValueTypeNull:
		b.WriteString("N")
	case ValueTypeBool:
		if v.Bool() {
			b.WriteString("T")
		} else {
			b.WriteString("F")
		}
	case ValueTypeInt:
		b.WriteString(v.Int().String())
	case ValueTypeFloat:
		b.WriteString(FormatFloat(v.Float64()))
	case ValueTypeString, ValueTypeSymbol:
		b.WriteString(v.Str())
	case ValueTypeKeyword:
		b.WriteByte(':')
		b.WriteString(v.Str())
	case ValueTypeList:
		b.WriteByte('[')
		l := v.List()
		for i := 0; i < l.Len(); i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			formatValue(b, l.Get(i))
		}
		b.WriteByte(']')
	case ValueTypeMap:
		m := v.Map()
		b.WriteByte('{')
		for i, k := range m.Keys() {
			if i > 0 {
				b.WriteByte(' ')
			}
			item, _ := m.Get(k)
			b.WriteByte(':')
			b.WriteString(k)
			b.WriteByte(' ')
			formatValue(b, item)
		}
		b.WriteByte('}')
	case ValueTypeFunction, ValueTypeBuiltin:
		b.WriteString("<fn>")
	}
}

// FormatFloat writes the shortest representation that reads back as f.
// Exponents from -4 to 15 use fixed notation with at least one decimal,
// others use scientific notation with a signed, two digit minimum exponent.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(s[strings.IndexByte(s, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return s
	}

	s = strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
