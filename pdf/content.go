package pdf

import (
	"bytes"
	"fmt"
)

// Op is one content stream operation: an operator keyword and the
// operand objects that preceded it.
type Op struct {
	Operator string
	Operands []Object
}

// Float returns operand i as a float64.
func (op Op) Float(i int) (float64, bool) {
	if i < 0 || i >= len(op.Operands) {
		return 0, false
	}
	return toFloat(op.Operands[i])
}

// Name returns operand i as a name.
func (op Op) Name(i int) (string, bool) {
	if i < 0 || i >= len(op.Operands) {
		return "", false
	}
	n, ok := op.Operands[i].(Name)
	return string(n), ok
}

// ParseContent tokenizes a decoded content stream into its operation
// sequence. Inline images (BI ... ID ... EI) are skipped whole; their
// binary payload cannot be tokenized as objects. Unknown operators are
// kept so callers can ignore what they do not handle.
func ParseContent(data []byte) ([]Op, error) {
	sc := newScanner(data)
	var ops []Op
	var operands []Object
	for {
		sc.skipSpace()
		if sc.pos >= len(sc.data) {
			return ops, nil
		}
		c := sc.data[sc.pos]
		if isOperatorStart(c) {
			start := sc.pos
			for sc.pos < len(sc.data) && isOperatorChar(sc.data[sc.pos]) {
				sc.pos++
			}
			name := string(sc.data[start:sc.pos])
			switch name {
			case "true":
				operands = append(operands, Bool(true))
				continue
			case "false":
				operands = append(operands, Bool(false))
				continue
			case "null":
				operands = append(operands, Null{})
				continue
			case "BI":
				if err := skipInlineImage(sc); err != nil {
					return nil, err
				}
				operands = operands[:0]
				continue
			}
			ops = append(ops, Op{Operator: name, Operands: append([]Object(nil), operands...)})
			operands = operands[:0]
			continue
		}
		obj, err := sc.scanObject()
		if err != nil {
			return nil, fmt.Errorf("content stream at offset %d: %w", sc.pos, err)
		}
		operands = append(operands, obj)
	}
}

// skipInlineImage advances past an inline image body. The EI keyword
// must be preceded by whitespace to avoid matching raster bytes.
func skipInlineImage(sc *scanner) error {
	idx := bytes.Index(sc.data[sc.pos:], []byte("ID"))
	if idx < 0 {
		return fmt.Errorf("inline image without ID at offset %d", sc.pos)
	}
	pos := sc.pos + idx + 2
	for {
		rel := bytes.Index(sc.data[pos:], []byte("EI"))
		if rel < 0 {
			return fmt.Errorf("unterminated inline image at offset %d", sc.pos)
		}
		abs := pos + rel
		after := abs + 2
		if abs > 0 && isSpace(sc.data[abs-1]) &&
			(after >= len(sc.data) || isSpace(sc.data[after]) || isDelim(sc.data[after])) {
			sc.pos = after
			return nil
		}
		pos = abs + 2
	}
}

func isOperatorStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '\'' || c == '"'
}

func isOperatorChar(c byte) bool {
	return isOperatorStart(c) || c == '*' || isDigit(c)
}
