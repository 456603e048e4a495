package formula

import (
	"strings"

	"github.com/xuri/efp"
)

// Array constants are tokenized as these pseudo functions.
const (
	arrayFunc    = "ARRAY"
	arrayRowFunc = "ARRAYROW"
)

// render turns a token stream back into formula text (without "=").
func render(tokens []efp.Token) string {
	var b strings.Builder
	var open []string // function names of enclosing calls; "" for subexpressions

	top := func() string {
		if len(open) == 0 {
			return ""
		}
		return open[len(open)-1]
	}

	for _, t := range tokens {
		switch t.TType {
		case efp.TokenTypeFunction:
			if t.TSubType == efp.TokenSubTypeStart {
				open = append(open, t.TValue)
				switch t.TValue {
				case arrayFunc:
					b.WriteString("{")
				case arrayRowFunc:
				default:
					b.WriteString(t.TValue + "(")
				}
				continue
			}
			name := top()
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
			switch name {
			case arrayFunc:
				b.WriteString("}")
			case arrayRowFunc:
			default:
				b.WriteString(")")
			}
		case efp.TokenTypeSubexpression:
			if t.TSubType == efp.TokenSubTypeStart {
				open = append(open, "")
				b.WriteString("(")
			} else {
				if len(open) > 0 {
					open = open[:len(open)-1]
				}
				b.WriteString(")")
			}
		case efp.TokenTypeArgument:
			switch top() {
			case arrayFunc:
				b.WriteString(";")
			default:
				b.WriteString(",")
			}
		case efp.TokenTypeOperand:
			if t.TSubType == efp.TokenSubTypeText {
				b.WriteString(`"` + strings.ReplaceAll(t.TValue, `"`, `""`) + `"`)
			} else {
				b.WriteString(t.TValue)
			}
		case efp.TokenTypeWhitespace:
			if t.TValue == "" {
				b.WriteString(" ")
			} else {
				b.WriteString(t.TValue)
			}
		case efp.TokenTypeOperatorInfix:
			if t.TSubType == efp.TokenSubTypeIntersection && strings.TrimSpace(t.TValue) == "" {
				b.WriteString(" ")
			} else {
				b.WriteString(t.TValue)
			}
		default:
			b.WriteString(t.TValue)
		}
	}
	return b.String()
}
