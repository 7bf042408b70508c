package extractor

import (
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/citydesk/planex/model"
	"github.com/citydesk/planex/pdf"
)

// ExtractText interprets the text operators of page i and returns the
// positioned runs. Glyph metrics are approximated from the font size,
// which is accurate enough for label association on drawings.
func (d *Document) ExtractText(i int) ([]model.TextElement, error) {
	ops, p, err := d.contents(i)
	if err != nil {
		return nil, err
	}
	tb := &textBuilder{
		gs:    newVectorBuilder().gs,
		fonts: d.pageFonts(p),
	}
	for _, op := range ops {
		tb.apply(op)
	}
	return tb.out, nil
}

// fontInfo is what text extraction keeps per /Font resource entry.
type fontInfo struct {
	name   string
	bold   bool
	italic bool
}

func (d *Document) pageFonts(p *pdf.Page) map[string]fontInfo {
	fonts := make(map[string]fontInfo)
	if p.Resources == nil {
		return fonts
	}
	fdObj, err := d.reader.Resolve(p.Resources["Font"])
	if err != nil {
		return fonts
	}
	fd, ok := fdObj.(pdf.Dict)
	if !ok {
		return fonts
	}
	for key, entry := range fd {
		resolved, err := d.reader.Resolve(entry)
		if err != nil {
			continue
		}
		fdict, ok := resolved.(pdf.Dict)
		if !ok {
			continue
		}
		base, _ := fdict.Name("BaseFont")
		// subset prefixes look like "ABCDEF+Helvetica-Bold"
		if idx := strings.IndexByte(base, '+'); idx == 6 {
			base = base[idx+1:]
		}
		lower := strings.ToLower(base)
		fonts[key] = fontInfo{
			name:   base,
			bold:   strings.Contains(lower, "bold"),
			italic: strings.Contains(lower, "italic") || strings.Contains(lower, "oblique"),
		}
	}
	return fonts
}

type textBuilder struct {
	gs    graphicsState
	stack []graphicsState
	fonts map[string]fontInfo

	inText     bool
	tm, tlm    model.Matrix
	font       fontInfo
	size       float64
	charSpace  float64
	wordSpace  float64
	horizScale float64
	leading    float64

	out []model.TextElement
}

func (tb *textBuilder) apply(op pdf.Op) {
	switch op.Operator {
	case "q":
		tb.stack = append(tb.stack, tb.gs)
	case "Q":
		if n := len(tb.stack); n > 0 {
			tb.gs = tb.stack[n-1]
			tb.stack = tb.stack[:n-1]
		}
	case "cm":
		if m, ok := opMatrix(op); ok {
			tb.gs.ctm = m.Multiply(tb.gs.ctm)
		}
	case "rg":
		if c, ok := opRGB(op); ok {
			tb.gs.fill = c
		}
	case "g":
		if g, ok := op.Float(0); ok {
			tb.gs.fill = model.GrayRGB(g)
		}
	case "k":
		if c, ok := opCMYK(op); ok {
			tb.gs.fill = c
		}

	case "BT":
		tb.inText = true
		tb.tm = model.Identity()
		tb.tlm = tb.tm
	case "ET":
		tb.inText = false
	case "Tf":
		if name, ok := op.Name(0); ok {
			tb.font = tb.fonts[name]
			if tb.font.name == "" {
				tb.font.name = name
			}
		}
		if sz, ok := op.Float(1); ok {
			tb.size = sz
		}
	case "Td":
		tb.offsetLine(op)
	case "TD":
		if ty, ok := op.Float(1); ok {
			tb.leading = -ty
		}
		tb.offsetLine(op)
	case "Tm":
		if m, ok := opMatrix(op); ok {
			tb.tm = m
			tb.tlm = m
		}
	case "T*":
		tb.nextLine()
	case "TL":
		if l, ok := op.Float(0); ok {
			tb.leading = l
		}
	case "Tc":
		if c, ok := op.Float(0); ok {
			tb.charSpace = c
		}
	case "Tw":
		if w, ok := op.Float(0); ok {
			tb.wordSpace = w
		}
	case "Tz":
		if z, ok := op.Float(0); ok {
			tb.horizScale = z
		}

	case "Tj":
		if s, ok := opString(op, 0); ok {
			tb.show(s)
		}
	case "'":
		tb.nextLine()
		if s, ok := opString(op, 0); ok {
			tb.show(s)
		}
	case "\"":
		if w, ok := op.Float(0); ok {
			tb.wordSpace = w
		}
		if c, ok := op.Float(1); ok {
			tb.charSpace = c
		}
		tb.nextLine()
		if s, ok := opString(op, 2); ok {
			tb.show(s)
		}
	case "TJ":
		if len(op.Operands) != 1 {
			return
		}
		arr, ok := op.Operands[0].(pdf.Array)
		if !ok {
			return
		}
		var run []byte
		for _, item := range arr {
			switch v := item.(type) {
			case pdf.String:
				run = append(run, v...)
			case pdf.Integer, pdf.Real:
				// kerning adjustments shift glyphs by fractions of a
				// point; they do not break a label apart
			}
		}
		tb.show(run)
	}
}

func (tb *textBuilder) offsetLine(op pdf.Op) {
	tx, ok1 := op.Float(0)
	ty, ok2 := op.Float(1)
	if !ok1 || !ok2 {
		return
	}
	tb.tlm = model.Translate(tx, ty).Multiply(tb.tlm)
	tb.tm = tb.tlm
}

func (tb *textBuilder) nextLine() {
	leading := tb.leading
	if leading == 0 {
		leading = tb.size * 1.2
	}
	tb.tlm = model.Translate(0, -leading).Multiply(tb.tlm)
	tb.tm = tb.tlm
}

// show emits one text run at the current text position and advances
// the text matrix past it.
func (tb *textBuilder) show(raw []byte) {
	if !tb.inText || len(raw) == 0 {
		return
	}
	text := decodeTextString(raw)
	if strings.TrimSpace(text) == "" {
		return
	}

	scale := tb.horizScale
	if scale == 0 {
		scale = 100
	}
	// average glyph advance of half an em, good enough for layout
	advance := (float64(len(text))*tb.size*0.5 + float64(len(text))*tb.charSpace) * scale / 100

	trm := tb.tm.Multiply(tb.gs.ctm)
	corners := []model.Point{
		trm.Transform(model.Point{X: 0, Y: 0}),
		trm.Transform(model.Point{X: advance, Y: 0}),
		trm.Transform(model.Point{X: advance, Y: tb.size}),
		trm.Transform(model.Point{X: 0, Y: tb.size}),
	}

	tb.out = append(tb.out, model.TextElement{
		Text:     text,
		BBox:     model.BBoxFromPoints(corners),
		Font:     tb.font.name,
		Size:     tb.size * ctmScale(tb.gs.ctm),
		Color:    tb.gs.fill,
		Bold:     tb.font.bold,
		Italic:   tb.font.italic,
		Rotation: trm.Rotation(),
	})

	tb.tm = model.Translate(advance, 0).Multiply(tb.tm)
}

// decodeTextString converts a PDF text string to UTF-8. Strings with a
// UTF-16BE byte order mark are decoded through x/text; everything else
// is treated as single-byte text, which covers the standard encodings
// for the ASCII range that drawing labels live in.
func decodeTextString(raw []byte) string {
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return string(out)
		}
	}
	var b strings.Builder
	for _, c := range raw {
		if c < 0x80 {
			b.WriteByte(c)
		} else {
			b.WriteRune(rune(c))
		}
	}
	return b.String()
}

func opString(op pdf.Op, i int) ([]byte, bool) {
	if i < 0 || i >= len(op.Operands) {
		return nil, false
	}
	s, ok := op.Operands[i].(pdf.String)
	if !ok {
		return nil, false
	}
	return []byte(s), true
}
