package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// DecodeStream applies the stream's filter chain and returns the
// decoded data. Image-compression filters (DCTDecode, JPXDecode) pass
// through untouched so the raster data can be handed to an image
// decoder downstream. The resolver is needed because DecodeParms may
// be given indirectly.
func DecodeStream(r *Reader, s *Stream) ([]byte, error) {
	filterObj, ok := s.Dict["Filter"]
	if !ok {
		return s.Raw, nil
	}
	if r != nil {
		var err error
		filterObj, err = r.Resolve(filterObj)
		if err != nil {
			return nil, err
		}
	}

	parmsObj := s.Dict["DecodeParms"]
	if parmsObj == nil {
		parmsObj = s.Dict["DP"]
	}

	switch f := filterObj.(type) {
	case Name:
		return applyFilter(r, s.Raw, string(f), resolveDict(r, parmsObj))
	case Array:
		data := s.Raw
		parmsArr, _ := parmsObj.(Array)
		for i, entry := range f {
			name, ok := entry.(Name)
			if !ok {
				return nil, fmt.Errorf("filter %d is %T, not a name", i, entry)
			}
			var parms Dict
			if i < len(parmsArr) {
				parms = resolveDict(r, parmsArr[i])
			}
			var err error
			data, err = applyFilter(r, data, string(name), parms)
			if err != nil {
				return nil, fmt.Errorf("filter %d (%s): %w", i, name, err)
			}
		}
		return data, nil
	}
	return nil, fmt.Errorf("invalid Filter type %T", filterObj)
}

func applyFilter(r *Reader, data []byte, name string, parms Dict) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return flateDecode(r, data, parms)
	case "ASCIIHexDecode", "AHx":
		return asciiHexDecode(data)
	case "DCTDecode", "DCT", "JPXDecode":
		// compressed raster, decoded by image handling downstream
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported filter %q", name)
	}
}

func flateDecode(r *Reader, data []byte, parms Dict) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil && !errorIsUnexpectedEOF(err) {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	out := buf.Bytes()

	if parms == nil {
		return out, nil
	}
	predictor := intParam(r, parms, "Predictor", 1)
	if predictor == 1 {
		return out, nil
	}
	columns := intParam(r, parms, "Columns", 1)
	colors := intParam(r, parms, "Colors", 1)
	bpc := intParam(r, parms, "BitsPerComponent", 8)
	return unpredict(out, predictor, columns, colors, bpc)
}

// unpredict reverses the TIFF (2) and PNG (10-15) predictor transforms
// applied before compression.
func unpredict(data []byte, predictor, columns, colors, bpc int) ([]byte, error) {
	bytesPerPixel := (colors*bpc + 7) / 8
	if bytesPerPixel < 1 {
		bytesPerPixel = 1
	}
	rowLen := (columns*colors*bpc + 7) / 8

	if predictor == 2 {
		if bpc != 8 {
			return nil, fmt.Errorf("TIFF predictor requires 8 bits per component, got %d", bpc)
		}
		for row := 0; row+rowLen <= len(data); row += rowLen {
			for i := bytesPerPixel; i < rowLen; i++ {
				data[row+i] += data[row+i-bytesPerPixel]
			}
		}
		return data, nil
	}

	if predictor < 10 || predictor > 15 {
		return nil, fmt.Errorf("unsupported predictor %d", predictor)
	}

	// PNG predictors: each row is prefixed with a per-row filter byte.
	stride := rowLen + 1
	rows := len(data) / stride
	out := make([]byte, 0, rows*rowLen)
	prev := make([]byte, rowLen)
	for r := 0; r < rows; r++ {
		rowData := data[r*stride : (r+1)*stride]
		ft := rowData[0]
		row := append([]byte(nil), rowData[1:]...)
		for i := range row {
			var left, up, upLeft byte
			if i >= bytesPerPixel {
				left = row[i-bytesPerPixel]
				upLeft = prev[i-bytesPerPixel]
			}
			up = prev[i]
			switch ft {
			case 0: // None
			case 1: // Sub
				row[i] += left
			case 2: // Up
				row[i] += up
			case 3: // Average
				row[i] += byte((int(left) + int(up)) / 2)
			case 4: // Paeth
				row[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("bad PNG filter byte %d in row %d", ft, r)
			}
		}
		out = append(out, row...)
		prev = row
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func asciiHexDecode(data []byte) ([]byte, error) {
	var digits []byte
	for _, c := range data {
		if c == '>' {
			break
		}
		if isSpace(c) {
			continue
		}
		if !isHex(c) {
			return nil, fmt.Errorf("bad hex digit %q", c)
		}
		digits = append(digits, c)
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = hexVal(digits[2*i])<<4 | hexVal(digits[2*i+1])
	}
	return out, nil
}

func resolveDict(r *Reader, obj Object) Dict {
	if r != nil {
		resolved, err := r.Resolve(obj)
		if err == nil {
			obj = resolved
		}
	}
	d, _ := obj.(Dict)
	return d
}

func intParam(r *Reader, d Dict, key string, def int) int {
	obj := d[key]
	if r != nil {
		if resolved, err := r.Resolve(obj); err == nil {
			obj = resolved
		}
	}
	if i, ok := obj.(Integer); ok {
		return int(i)
	}
	return def
}

func errorIsUnexpectedEOF(err error) bool {
	return err == io.ErrUnexpectedEOF || err == io.EOF
}
