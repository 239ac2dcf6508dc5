package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// pyString quotes s as a single-quoted Python string literal.
func pyString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// pyNumber formats f as a Python numeric expression.
func pyNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "float('nan')"
	case math.IsInf(f, 1):
		return "float('inf')"
	case math.IsInf(f, -1):
		return "float('-inf')"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// pyLiteral renders a loosely typed parameter value as Python source.
func pyLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return pyString(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float64:
		return pyNumber(x)
	case float32:
		return pyNumber(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return pyString(fmt.Sprint(x))
	}
}

// fillLiteral renders a fill value, reading numeric-looking text as a
// number the way the preview does.
func fillLiteral(v any) string {
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return pyNumber(f)
		}
	}
	return pyLiteral(v)
}
