package pdf

import (
	"fmt"
	"strconv"
	"strings"
)

// Object is any PDF object: Null, Bool, Integer, Real, String, Name,
// Array, Dict, *Stream, or Ref.
type Object interface {
	String() string
}

// Null is the PDF null object.
type Null struct{}

func (Null) String() string { return "null" }

// Bool is a PDF boolean.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Integer is a PDF integer.
type Integer int64

func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

// Real is a PDF real number.
type Real float64

func (r Real) String() string { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String is a PDF string. Contents may be binary.
type String []byte

func (s String) String() string { return "(" + string(s) + ")" }

// Name is a PDF name object.
type Name string

func (n Name) String() string { return "/" + string(n) }

// Array is a PDF array.
type Array []Object

func (a Array) String() string {
	parts := make([]string, len(a))
	for i, obj := range a {
		parts[i] = obj.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Floats converts an array of numbers to a float64 slice.
// Non-numeric entries produce an error.
func (a Array) Floats() ([]float64, error) {
	out := make([]float64, len(a))
	for i, obj := range a {
		f, ok := toFloat(obj)
		if !ok {
			return nil, fmt.Errorf("array element %d is %T, not a number", i, obj)
		}
		out[i] = f
	}
	return out, nil
}

// Dict is a PDF dictionary.
type Dict map[string]Object

func (d Dict) String() string {
	var sb strings.Builder
	sb.WriteString("<<")
	for key, val := range d {
		fmt.Fprintf(&sb, " /%s %s", key, val.String())
	}
	sb.WriteString(" >>")
	return sb.String()
}

// Name returns a name value by key.
func (d Dict) Name(key string) (string, bool) {
	n, ok := d[key].(Name)
	return string(n), ok
}

// Int returns an integer value by key.
func (d Dict) Int(key string) (int64, bool) {
	i, ok := d[key].(Integer)
	return int64(i), ok
}

// Float returns a numeric value by key, accepting Integer or Real.
func (d Dict) Float(key string) (float64, bool) {
	return toFloat(d[key])
}

// Array returns an array value by key.
func (d Dict) Array(key string) (Array, bool) {
	a, ok := d[key].(Array)
	return a, ok
}

// Dict returns a dictionary value by key.
func (d Dict) Dict(key string) (Dict, bool) {
	sub, ok := d[key].(Dict)
	return sub, ok
}

// Stream is a PDF stream: a dictionary plus raw (still encoded) data.
type Stream struct {
	Dict Dict
	Raw  []byte
}

func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Raw))
}

// Ref is an indirect object reference "num gen R".
type Ref struct {
	Num, Gen int
}

func (r Ref) String() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }

// toFloat coerces Integer or Real to float64.
func toFloat(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	default:
		return 0, false
	}
}
