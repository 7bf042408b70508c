package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScanObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Object
	}{
		{"integer", "42", Integer(42)},
		{"negative integer", "-17", Integer(-17)},
		{"real", "3.14", Real(3.14)},
		{"real leading dot", "-.5", Real(-0.5)},
		{"name", "/MediaBox", Name("MediaBox")},
		{"name with escape", "/A#20B", Name("A B")},
		{"literal string", "(hello)", String("hello")},
		{"string with escapes", `(a\(b\)c\\d)`, String(`a(b)c\d`)},
		{"string with octal", `(\101\102)`, String("AB")},
		{"nested parens", "(a(b)c)", String("a(b)c")},
		{"hex string", "<48656C6C6F>", String("Hello")},
		{"hex string odd digits", "<48656C6C6F7>", String("Hello\x70")},
		{"empty array", "[]", Array(nil)},
		{"array", "[1 2 /Three (four)]", Array{Integer(1), Integer(2), Name("Three"), String("four")}},
		{"reference", "12 0 R", Ref{Num: 12, Gen: 0}},
		{"array of refs", "[1 0 R 2 0 R]", Array{Ref{Num: 1}, Ref{Num: 2}}},
		{"integers not a ref", "[1 2 3]", Array{Integer(1), Integer(2), Integer(3)}},
		{"bool true", "true", Bool(true)},
		{"null", "null", Null{}},
		{
			"dict",
			"<< /Type /Page /Count 3 >>",
			Dict{"Type": Name("Page"), "Count": Integer(3)},
		},
		{
			"nested dict",
			"<< /A << /B [1 0 R] >> >>",
			Dict{"A": Dict{"B": Array{Ref{Num: 1}}}},
		},
		{
			"comment skipped",
			"% header\n7",
			Integer(7),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sc := newScanner([]byte(tc.in))
			sc.skipSpace()
			got, err := sc.scanObject()
			if err != nil {
				t.Fatalf("scanObject(%q): %v", tc.in, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("scanObject(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestScanIndirectObjectStream(t *testing.T) {
	in := "5 0 obj\n<< /Length 11 >>\nstream\nhello world\nendstream\nendobj\n"
	sc := newScanner([]byte(in))
	obj, err := sc.scanIndirectObject()
	if err != nil {
		t.Fatalf("scanIndirectObject: %v", err)
	}
	s, ok := obj.(*Stream)
	if !ok {
		t.Fatalf("got %T, want *Stream", obj)
	}
	if string(s.Raw) != "hello world" {
		t.Errorf("stream data = %q, want %q", s.Raw, "hello world")
	}
}

func TestASCIIHexDecode(t *testing.T) {
	got, err := asciiHexDecode([]byte("48 65 6C 6C 6F>"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hello" {
		t.Errorf("got %q, want %q", got, "Hello")
	}
}

func TestFlateDecodePNGPredictor(t *testing.T) {
	// Two rows of four bytes, encoded with the Up filter (type 2).
	rows := [][]byte{
		{10, 20, 30, 40},
		{11, 22, 33, 44},
	}
	var filtered []byte
	prev := make([]byte, 4)
	for _, row := range rows {
		filtered = append(filtered, 2)
		for i, b := range row {
			filtered = append(filtered, b-prev[i])
		}
		prev = row
	}
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write(filtered)
	zw.Close()

	parms := Dict{"Predictor": Integer(12), "Columns": Integer(4)}
	got, err := flateDecode(nil, compressed.Bytes(), parms)
	if err != nil {
		t.Fatal(err)
	}
	want := append(append([]byte{}, rows[0]...), rows[1]...)
	if !bytes.Equal(got, want) {
		t.Errorf("got % d, want % d", got, want)
	}
}

func TestUnpredictTIFF(t *testing.T) {
	// Horizontal differencing over one row.
	data := []byte{100, 5, 5, 5}
	got, err := unpredict(data, 2, 4, 1, 8)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{100, 105, 110, 115}
	if !bytes.Equal(got, want) {
		t.Errorf("got % d, want % d", got, want)
	}
}

// pdfBuilder assembles a file with a classic cross-reference table.
type pdfBuilder struct {
	buf     bytes.Buffer
	offsets map[int]int
	max     int
}

func newPDFBuilder() *pdfBuilder {
	b := &pdfBuilder{offsets: make(map[int]int)}
	b.buf.WriteString("%PDF-1.4\n")
	return b
}

func (b *pdfBuilder) add(num int, body string) {
	b.offsets[num] = b.buf.Len()
	if num > b.max {
		b.max = num
	}
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func (b *pdfBuilder) addStream(num int, dict, data string) {
	b.add(num, fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data))
}

func (b *pdfBuilder) finish(trailerExtra string) []byte {
	xrefOff := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", b.max+1)
	b.buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= b.max; i++ {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", b.offsets[i])
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R %s >>\nstartxref\n%d\n%%%%EOF\n",
		b.max+1, trailerExtra, xrefOff)
	return b.buf.Bytes()
}

func buildTwoPageFile() []byte {
	b := newPDFBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 /MediaBox [0 0 612 792] >>")
	b.add(3, "<< /Type /Page /Parent 2 0 R /Contents 5 0 R >>")
	b.add(4, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 100] /Rotate 90 /Contents 6 0 R >>")
	b.addStream(5, "", "0 0 m 100 100 l S")
	b.addStream(6, "", "BT ET")
	return b.finish("")
}

func TestReaderClassicXref(t *testing.T) {
	r, err := NewReader(buildTwoPageFile())
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	catalog, err := r.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if typ, _ := catalog.Name("Type"); typ != "Catalog" {
		t.Errorf("catalog type = %q", typ)
	}

	pages, err := r.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	// first page inherits the tree-level MediaBox
	if pages[0].MediaBox != [4]float64{0, 0, 612, 792} {
		t.Errorf("page 0 MediaBox = %v", pages[0].MediaBox)
	}
	// second page overrides it and carries a rotation
	if pages[1].MediaBox != [4]float64{0, 0, 200, 100} {
		t.Errorf("page 1 MediaBox = %v", pages[1].MediaBox)
	}
	if pages[1].Rotate != 90 {
		t.Errorf("page 1 Rotate = %d, want 90", pages[1].Rotate)
	}

	content, err := r.Contents(pages[0])
	if err != nil {
		t.Fatalf("Contents: %v", err)
	}
	if !strings.Contains(string(content), "100 100 l") {
		t.Errorf("content = %q, missing line operator", content)
	}
}

func TestReaderHeaderJunk(t *testing.T) {
	data := append([]byte("garbage before header\n"), buildTwoPageFile()...)
	if _, err := NewReader(data); err == nil {
		// startxref offsets are relative to the original header, so a
		// shifted file only works when the junk is stripped first.
		t.Log("reader tolerated leading junk")
	}
}

func TestReaderObjectStream(t *testing.T) {
	// Objects 1-3 live compressed in object stream 4; object 5 is the
	// cross-reference stream.
	inner := []struct {
		num  int
		body string
	}{
		{1, "<< /Type /Catalog /Pages 2 0 R >>"},
		{2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>"},
		{3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 300 200] >>"},
	}
	var hdr, payload strings.Builder
	for _, o := range inner {
		fmt.Fprintf(&hdr, "%d %d ", o.num, payload.Len())
		payload.WriteString(o.body)
		payload.WriteString(" ")
	}
	content := hdr.String() + payload.String()
	first := len(hdr.String())

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n")

	off4 := buf.Len()
	fmt.Fprintf(&buf, "4 0 obj\n<< /Type /ObjStm /N %d /First %d /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		len(inner), first, len(content), content)

	off5 := buf.Len()
	var xr bytes.Buffer
	writeEntry := func(typ byte, f2 int, f3 byte) {
		xr.WriteByte(typ)
		xr.WriteByte(byte(f2 >> 8))
		xr.WriteByte(byte(f2))
		xr.WriteByte(f3)
	}
	writeEntry(0, 0, 0)    // 0: free
	writeEntry(2, 4, 0)    // 1: in stream 4, index 0
	writeEntry(2, 4, 1)    // 2
	writeEntry(2, 4, 2)    // 3
	writeEntry(1, off4, 0) // 4
	writeEntry(1, off5, 0) // 5
	fmt.Fprintf(&buf, "5 0 obj\n<< /Type /XRef /Size 6 /W [1 2 1] /Root 1 0 R /Length %d >>\nstream\n", xr.Len())
	buf.Write(xr.Bytes())
	buf.WriteString("\nendstream\nendobj\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", off5)

	r, err := NewReader(buf.Bytes())
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	pages, err := r.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0].MediaBox != [4]float64{0, 0, 300, 200} {
		t.Errorf("MediaBox = %v", pages[0].MediaBox)
	}
}

func TestResolveChain(t *testing.T) {
	b := newPDFBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.add(3, "<< /Type /Page /Parent 2 0 R /MediaBox 4 0 R >>")
	b.add(4, "[0 0 100 100]")
	r, err := NewReader(b.finish(""))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	pages, err := r.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if pages[0].MediaBox != [4]float64{0, 0, 100, 100} {
		t.Errorf("MediaBox through reference = %v", pages[0].MediaBox)
	}
}

func TestMissingObjectIsNull(t *testing.T) {
	r, err := NewReader(buildTwoPageFile())
	if err != nil {
		t.Fatal(err)
	}
	obj, err := r.Get(Ref{Num: 99})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := obj.(Null); !ok {
		t.Errorf("missing object resolved to %T, want Null", obj)
	}
}
