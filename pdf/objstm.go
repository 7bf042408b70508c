package pdf

import "fmt"

// objectStream holds the decoded contents of a /Type /ObjStm stream,
// ready for per-object extraction by index.
type objectStream struct {
	data    []byte
	first   int
	offsets []int // object offsets relative to first, indexed by position
	nums    []int
}

func parseObjectStream(r *Reader, s *Stream) (*objectStream, error) {
	n, ok := s.Dict.Int("N")
	if !ok {
		return nil, fmt.Errorf("object stream: missing N")
	}
	first, ok := s.Dict.Int("First")
	if !ok {
		return nil, fmt.Errorf("object stream: missing First")
	}
	data, err := DecodeStream(r, s)
	if err != nil {
		return nil, fmt.Errorf("object stream: %w", err)
	}

	os := &objectStream{
		data:    data,
		first:   int(first),
		offsets: make([]int, n),
		nums:    make([]int, n),
	}
	sc := newScanner(data)
	for i := 0; i < int(n); i++ {
		num, err := sc.scanInt()
		if err != nil {
			return nil, fmt.Errorf("object stream header %d: %w", i, err)
		}
		off, err := sc.scanInt()
		if err != nil {
			return nil, fmt.Errorf("object stream header %d: %w", i, err)
		}
		os.nums[i] = int(num)
		os.offsets[i] = int(off)
	}
	return os, nil
}

// object extracts the object at the given index. Objects inside an
// object stream are always direct and never streams themselves.
func (os *objectStream) object(idx int) (Object, error) {
	if idx < 0 || idx >= len(os.offsets) {
		return nil, fmt.Errorf("object stream: index %d out of range [0,%d)", idx, len(os.offsets))
	}
	start := os.first + os.offsets[idx]
	if start > len(os.data) {
		return nil, fmt.Errorf("object stream: offset %d beyond data", start)
	}
	sc := &scanner{data: os.data, pos: start}
	sc.skipSpace()
	return sc.scanObject()
}
