package pdf

import (
	"bytes"
	"fmt"
	"strconv"
)

// xrefEntry locates one indirect object. An object lives either at a
// byte offset in the file or inside a compressed object stream.
type xrefEntry struct {
	offset     int64
	gen        int
	inStream   bool
	streamNum  int
	streamIdx  int
	free       bool
}

type xrefTable struct {
	entries map[int]xrefEntry
	trailer Dict
}

// parseXref walks the cross-reference chain starting at the offset
// named by startxref, following /Prev and /XRefStm pointers. Entries
// from earlier sections never override later ones, so incremental
// updates win.
func parseXref(data []byte, start int64) (*xrefTable, error) {
	tbl := &xrefTable{entries: make(map[int]xrefEntry), trailer: Dict{}}
	seen := make(map[int64]bool)
	queue := []int64{start}
	for len(queue) > 0 {
		off := queue[0]
		queue = queue[1:]
		if seen[off] || off < 0 || off >= int64(len(data)) {
			continue
		}
		seen[off] = true

		trailer, err := parseXrefSection(data, off, tbl)
		if err != nil {
			return nil, err
		}
		for k, v := range trailer {
			if _, ok := tbl.trailer[k]; !ok {
				tbl.trailer[k] = v
			}
		}
		// hybrid files keep a parallel xref stream for readers that
		// understand compressed objects
		if x, ok := trailer["XRefStm"].(Integer); ok {
			queue = append(queue, int64(x))
		}
		if p, ok := trailer["Prev"].(Integer); ok {
			queue = append(queue, int64(p))
		}
	}
	if len(tbl.entries) == 0 {
		return nil, fmt.Errorf("empty cross-reference table")
	}
	return tbl, nil
}

func parseXrefSection(data []byte, off int64, tbl *xrefTable) (Dict, error) {
	sc := &scanner{data: data, pos: int(off)}
	sc.skipSpace()
	if sc.peekKeyword("xref") {
		sc.expectKeyword("xref")
		return parseClassicXref(sc, tbl)
	}
	// otherwise it must be an xref stream object
	obj, err := sc.scanIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("xref at %d: %w", off, err)
	}
	s, ok := obj.(*Stream)
	if !ok {
		return nil, fmt.Errorf("xref at %d: expected stream, got %T", off, obj)
	}
	if err := parseXrefStream(s, tbl); err != nil {
		return nil, err
	}
	return s.Dict, nil
}

func parseClassicXref(sc *scanner, tbl *xrefTable) (Dict, error) {
	for {
		sc.skipSpace()
		if sc.peekKeyword("trailer") {
			sc.expectKeyword("trailer")
			sc.skipSpace()
			obj, err := sc.scanObject()
			if err != nil {
				return nil, fmt.Errorf("trailer: %w", err)
			}
			d, ok := obj.(Dict)
			if !ok {
				return nil, fmt.Errorf("trailer is %T, not a dictionary", obj)
			}
			return d, nil
		}
		first, err := sc.scanInt()
		if err != nil {
			return nil, fmt.Errorf("xref subsection start: %w", err)
		}
		count, err := sc.scanInt()
		if err != nil {
			return nil, fmt.Errorf("xref subsection count: %w", err)
		}
		for i := 0; i < int(count); i++ {
			sc.skipSpace()
			if sc.pos+18 > len(sc.data) {
				return nil, fmt.Errorf("truncated xref entry")
			}
			line := sc.data[sc.pos : sc.pos+18]
			sc.pos += 18
			offset, err := strconv.ParseInt(string(bytes.TrimSpace(line[0:10])), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("xref entry offset: %w", err)
			}
			gen, err := strconv.Atoi(string(bytes.TrimSpace(line[11:16])))
			if err != nil {
				return nil, fmt.Errorf("xref entry generation: %w", err)
			}
			num := int(first) + i
			if _, ok := tbl.entries[num]; ok {
				continue
			}
			tbl.entries[num] = xrefEntry{
				offset: offset,
				gen:    gen,
				free:   line[17] == 'f',
			}
		}
	}
}

func parseXrefStream(s *Stream, tbl *xrefTable) error {
	data, err := DecodeStream(nil, s)
	if err != nil {
		return fmt.Errorf("xref stream: %w", err)
	}
	wArr, ok := s.Dict["W"].(Array)
	if !ok || len(wArr) < 3 {
		return fmt.Errorf("xref stream: missing W array")
	}
	w := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, ok := wArr[i].(Integer)
		if !ok {
			return fmt.Errorf("xref stream: non-integer W entry")
		}
		w[i] = int(n)
	}
	entryLen := w[0] + w[1] + w[2]
	if entryLen == 0 {
		return fmt.Errorf("xref stream: zero-width entries")
	}

	size, _ := s.Dict["Size"].(Integer)
	var index []int
	if idxArr, ok := s.Dict["Index"].(Array); ok {
		for _, v := range idxArr {
			n, ok := v.(Integer)
			if !ok {
				return fmt.Errorf("xref stream: non-integer Index entry")
			}
			index = append(index, int(n))
		}
	} else {
		index = []int{0, int(size)}
	}

	pos := 0
	readField := func(width int) int64 {
		var v int64
		for i := 0; i < width; i++ {
			v = v<<8 | int64(data[pos])
			pos++
		}
		return v
	}
	for i := 0; i+1 < len(index); i += 2 {
		first, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+entryLen > len(data) {
				return fmt.Errorf("xref stream: truncated at object %d", first+j)
			}
			typ := int64(1)
			if w[0] > 0 {
				typ = readField(w[0])
			}
			f2 := readField(w[1])
			f3 := readField(w[2])
			num := first + j
			if _, ok := tbl.entries[num]; ok {
				continue
			}
			switch typ {
			case 0:
				tbl.entries[num] = xrefEntry{free: true}
			case 1:
				tbl.entries[num] = xrefEntry{offset: f2, gen: int(f3)}
			case 2:
				tbl.entries[num] = xrefEntry{inStream: true, streamNum: int(f2), streamIdx: int(f3)}
			}
		}
	}
	return nil
}

// findStartXref locates the startxref offset near the end of the file.
func findStartXref(data []byte) (int64, error) {
	tail := data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("startxref not found")
	}
	sc := &scanner{data: tail, pos: idx + len("startxref")}
	off, err := sc.scanInt()
	if err != nil {
		return 0, fmt.Errorf("startxref offset: %w", err)
	}
	return off, nil
}
