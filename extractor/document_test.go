package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"testing"

	"github.com/citydesk/planex/model"
)

// docBuilder assembles a one-page file around a content stream.
type docBuilder struct {
	buf     bytes.Buffer
	offsets map[int]int
	max     int
}

func newDocBuilder() *docBuilder {
	b := &docBuilder{offsets: make(map[int]int)}
	b.buf.WriteString("%PDF-1.4\n")
	return b
}

func (b *docBuilder) add(num int, body string) {
	b.offsets[num] = b.buf.Len()
	if num > b.max {
		b.max = num
	}
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

func (b *docBuilder) addStream(num int, dict, data string) {
	b.add(num, fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data))
}

func (b *docBuilder) finish() []byte {
	xrefOff := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", b.max+1)
	b.buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= b.max; i++ {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", b.offsets[i])
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		b.max+1, xrefOff)
	return b.buf.Bytes()
}

// singlePage builds a drawing whose only page holds the given content
// stream and optional extra page dictionary entries.
func singlePage(content, pageExtra string) []byte {
	b := newDocBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 842 595] >>")
	b.add(3, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Contents 4 0 R %s >>", pageExtra))
	b.addStream(4, "", content)
	return b.finish()
}

func openTest(t *testing.T, data []byte) *Document {
	t.Helper()
	doc, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	t.Cleanup(func() { doc.Close() })
	return doc
}

func TestOpenBytesRejectsNonPDF(t *testing.T) {
	if _, err := OpenBytes([]byte("not a drawing at all")); err == nil {
		t.Fatal("expected error for non-PDF input")
	}
}

func TestClosedDocument(t *testing.T) {
	doc := openTest(t, singlePage("0 0 m 10 10 l S", ""))
	if err := doc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := doc.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := doc.ExtractVectors(0); !errors.Is(err, ErrDocumentClosed) {
		t.Errorf("ExtractVectors after Close = %v, want ErrDocumentClosed", err)
	}
	if n := doc.PageCount(); n != 0 {
		t.Errorf("PageCount after Close = %d, want 0", n)
	}
}

func TestPageOutOfRange(t *testing.T) {
	doc := openTest(t, singlePage("", ""))
	for _, idx := range []int{-1, 1, 99} {
		if _, err := doc.ExtractText(idx); !errors.Is(err, ErrPageOutOfRange) {
			t.Errorf("ExtractText(%d) = %v, want ErrPageOutOfRange", idx, err)
		}
	}
}

func TestPageMetadata(t *testing.T) {
	doc := openTest(t, singlePage("", ""))
	meta, err := doc.PageMetadata(0)
	if err != nil {
		t.Fatal(err)
	}
	want := model.PageMetadata{Index: 0, Width: 842, Height: 595}
	if meta != want {
		t.Errorf("metadata = %+v, want %+v", meta, want)
	}
}

func TestExtractVectorsLine(t *testing.T) {
	doc := openTest(t, singlePage("2 w 1 0 0 RG 10 20 m 110 20 l S", ""))
	vectors, err := doc.ExtractVectors(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 1 {
		t.Fatalf("got %d vectors, want 1", len(vectors))
	}
	v := vectors[0]
	if v.Type != model.VectorLine {
		t.Errorf("type = %v, want line", v.Type)
	}
	if v.Points[0] != (model.Point{X: 10, Y: 20}) || v.Points[1] != (model.Point{X: 110, Y: 20}) {
		t.Errorf("points = %v", v.Points)
	}
	if v.StrokeWidth != 2 {
		t.Errorf("stroke width = %v, want 2", v.StrokeWidth)
	}
	if v.Stroke != (model.RGB{1, 0, 0}) {
		t.Errorf("stroke color = %v", v.Stroke)
	}
}

func TestExtractVectorsRect(t *testing.T) {
	doc := openTest(t, singlePage("10 10 100 50 re S", ""))
	vectors, err := doc.ExtractVectors(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 1 {
		t.Fatalf("got %d vectors, want 1", len(vectors))
	}
	v := vectors[0]
	if v.Type != model.VectorRect {
		t.Errorf("type = %v, want rect", v.Type)
	}
	if !v.Closed || len(v.Points) != 4 {
		t.Errorf("closed = %v, points = %d", v.Closed, len(v.Points))
	}
	if v.BBox != (model.BBox{X0: 10, Y0: 10, X1: 110, Y1: 60}) {
		t.Errorf("bbox = %+v", v.BBox)
	}
}

func TestExtractVectorsRotatedRectIsQuad(t *testing.T) {
	// rotate 30 degrees before the rectangle
	c := math.Cos(math.Pi / 6)
	s := math.Sin(math.Pi / 6)
	content := fmt.Sprintf("%f %f %f %f 0 0 cm 10 10 100 50 re S", c, s, -s, c)
	doc := openTest(t, singlePage(content, ""))
	vectors, err := doc.ExtractVectors(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 1 || vectors[0].Type != model.VectorQuad {
		t.Fatalf("got %+v, want a single quad", vectors)
	}
}

func TestExtractVectorsFilledRect(t *testing.T) {
	doc := openTest(t, singlePage("0 0 1 rg 10 10 100 50 re f", ""))
	vectors, err := doc.ExtractVectors(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 1 {
		t.Fatalf("got %d vectors, want 1", len(vectors))
	}
	if vectors[0].Fill == nil || *vectors[0].Fill != (model.RGB{0, 0, 1}) {
		t.Errorf("fill = %v, want blue", vectors[0].Fill)
	}
}

func TestExtractVectorsCurveFlattened(t *testing.T) {
	doc := openTest(t, singlePage("0 0 m 0 50 100 50 100 0 c S", ""))
	vectors, err := doc.ExtractVectors(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 1 {
		t.Fatalf("got %d vectors, want 1", len(vectors))
	}
	v := vectors[0]
	if v.Type != model.VectorCurve {
		t.Errorf("type = %v, want curve", v.Type)
	}
	if len(v.Points) < 5 {
		t.Errorf("flattened curve has only %d points", len(v.Points))
	}
	// endpoint must land exactly on the curve's anchor
	last := v.Points[len(v.Points)-1]
	if math.Abs(last.X-100) > 1e-9 || math.Abs(last.Y) > 1e-9 {
		t.Errorf("curve endpoint = %v, want (100,0)", last)
	}
}

func TestExtractVectorsClippingPathDiscarded(t *testing.T) {
	doc := openTest(t, singlePage("0 0 m 100 100 l W n 10 10 m 20 20 l S", ""))
	vectors, err := doc.ExtractVectors(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 1 {
		t.Fatalf("got %d vectors, want only the stroked line", len(vectors))
	}
}

func TestExtractVectorsPolylineSplitsIntoLines(t *testing.T) {
	doc := openTest(t, singlePage("0 0 m 100 0 l 100 100 l S", ""))
	vectors, err := doc.ExtractVectors(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2 line legs", len(vectors))
	}
	for _, v := range vectors {
		if v.Type != model.VectorLine {
			t.Errorf("leg type = %v, want line", v.Type)
		}
	}
}

const fontResource = `/Resources << /Font << /F1 << /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold >> >> >>`

func TestExtractText(t *testing.T) {
	content := "BT /F1 12 Tf 100 700 Td (Kitchen) Tj ET"
	doc := openTest(t, singlePage(content, fontResource))
	texts, err := doc.ExtractText(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(texts) != 1 {
		t.Fatalf("got %d runs, want 1", len(texts))
	}
	run := texts[0]
	if run.Text != "Kitchen" {
		t.Errorf("text = %q", run.Text)
	}
	if run.Font != "Helvetica-Bold" || !run.Bold {
		t.Errorf("font = %q bold = %v", run.Font, run.Bold)
	}
	if run.Size != 12 {
		t.Errorf("size = %v", run.Size)
	}
	if run.Rotation != 0 {
		t.Errorf("rotation = %d", run.Rotation)
	}
	if run.BBox.X0 != 100 || run.BBox.Y0 != 700 {
		t.Errorf("bbox origin = (%v,%v), want (100,700)", run.BBox.X0, run.BBox.Y0)
	}
}

func TestExtractTextTJAndRotation(t *testing.T) {
	// 90 degree text matrix: glyphs run up the page
	content := `BT /F1 10 Tf 0 1 -1 0 300 100 Tm [(24) -250 (00)] TJ ET`
	doc := openTest(t, singlePage(content, fontResource))
	texts, err := doc.ExtractText(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(texts) != 1 {
		t.Fatalf("got %d runs, want 1", len(texts))
	}
	if texts[0].Text != "2400" {
		t.Errorf("text = %q, want 2400", texts[0].Text)
	}
	if texts[0].Rotation != 90 {
		t.Errorf("rotation = %d, want 90", texts[0].Rotation)
	}
}

func TestExtractTextMultipleLines(t *testing.T) {
	content := "BT /F1 12 Tf 14 TL 50 500 Td (Bedroom 1) Tj T* (12.5 m) Tj ET"
	doc := openTest(t, singlePage(content, fontResource))
	texts, err := doc.ExtractText(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(texts) != 2 {
		t.Fatalf("got %d runs, want 2", len(texts))
	}
	if texts[1].BBox.Y0 >= texts[0].BBox.Y0 {
		t.Errorf("second line should sit below the first: %v vs %v",
			texts[1].BBox.Y0, texts[0].BBox.Y0)
	}
}

func TestExtractAnnotations(t *testing.T) {
	b := newDocBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 600 400] >>")
	b.add(3, "<< /Type /Page /Parent 2 0 R /Contents 4 0 R /Annots [5 0 R] >>")
	b.addStream(4, "", "")
	b.add(5, "<< /Type /Annot /Subtype /Text /Rect [10 20 60 40] /Contents (check ceiling height) >>")
	doc := openTest(t, b.finish())

	annots, err := doc.ExtractAnnotations(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(annots) != 1 {
		t.Fatalf("got %d annotations, want 1", len(annots))
	}
	a := annots[0]
	if a.Subtype != "Text" || a.Contents != "check ceiling height" {
		t.Errorf("annotation = %+v", a)
	}
	if a.Rect != (model.BBox{X0: 10, Y0: 20, X1: 60, Y1: 40}) {
		t.Errorf("rect = %+v", a.Rect)
	}
}

func TestExtractImages(t *testing.T) {
	b := newDocBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 600 400] >>")
	b.add(3, `<< /Type /Page /Parent 2 0 R /Contents 4 0 R /Resources << /XObject << /Im1 5 0 R >> >> >>`)
	b.addStream(4, "", "q 200 0 0 100 50 60 cm /Im1 Do Q")
	b.addStream(5, "/Type /XObject /Subtype /Image /Width 64 /Height 32", "raw")
	doc := openTest(t, b.finish())

	images, err := doc.ExtractImages(0, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 {
		t.Fatalf("got %d images, want 1", len(images))
	}
	img := images[0]
	if img.Ref != "Im1" || img.Width != 64 || img.Height != 32 {
		t.Errorf("image = %+v", img)
	}
	if img.BBox != (model.BBox{X0: 50, Y0: 60, X1: 250, Y1: 160}) {
		t.Errorf("placement = %+v", img.BBox)
	}
	if string(img.Data) != "raw" {
		t.Errorf("data = %q", img.Data)
	}
}

func TestExtractAll(t *testing.T) {
	content := "10 10 m 200 10 l S BT /F1 12 Tf 50 50 Td (Hall) Tj ET"
	doc := openTest(t, singlePage(content, fontResource))
	result, err := doc.ExtractAll(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Vectors) != 1 || len(result.Texts) != 1 {
		t.Errorf("vectors = %d texts = %d", len(result.Vectors), len(result.Texts))
	}
	if result.Metadata.Width != 842 {
		t.Errorf("metadata = %+v", result.Metadata)
	}
}

// stubRunner plays pdftoppm by writing a fixed PNG where the real tool
// would.
type stubRunner struct {
	calls [][]string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	prefix := args[len(args)-1]
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, nil, err
	}
	return nil, nil, os.WriteFile(prefix+".png", buf.Bytes(), 0o600)
}

func TestRenderPageWithStubRunner(t *testing.T) {
	doc := openTest(t, singlePage("", ""))
	runner := &stubRunner{}
	doc.renderer = NewPdftoppmRenderer(runner)
	// not testing tool discovery here
	doc.renderer.(*PdftoppmRenderer).Binary = os.Args[0]

	img, err := doc.RenderPage(context.Background(), 0, 200)
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("image width = %d", img.Bounds().Dx())
	}
	if len(runner.calls) != 1 {
		t.Fatalf("runner called %d times", len(runner.calls))
	}
	args := runner.calls[0]
	found := false
	for i, a := range args {
		if a == "-r" && i+1 < len(args) && args[i+1] == "200" {
			found = true
		}
	}
	if !found {
		t.Errorf("dpi flag missing from %v", args)
	}
}

func TestFindScaleNotationOnPage(t *testing.T) {
	content := "BT /F1 8 Tf 700 20 Td (Scale 1:100) Tj ET"
	doc := openTest(t, singlePage(content, fontResource))
	ratio, ok, err := doc.FindScaleNotation(0)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || ratio != 100 {
		t.Errorf("scale = %v ok = %v, want 100", ratio, ok)
	}
}

func TestParseScaleText(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		found bool
	}{
		{"1:100", 100, true},
		{"Scale 1:50", 50, true},
		{"SCALE 1 : 20", 20, true},
		{"10mm = 1m", 100, true},
		{"5 mm = 1 m", 200, true},
		{"Bedroom 1", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParseScaleText(tc.in)
		if ok != tc.found || (ok && got != tc.want) {
			t.Errorf("ParseScaleText(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.found)
		}
	}
}

func TestPairDimensionLines(t *testing.T) {
	vectors := []model.VectorElement{
		{Type: model.VectorLine, Points: []model.Point{{X: 0, Y: 100}, {X: 300, Y: 100}}},
		{Type: model.VectorLine, Points: []model.Point{{X: 500, Y: 0}, {X: 500, Y: 200}}},
		// diagonal, should never pair
		{Type: model.VectorLine, Points: []model.Point{{X: 0, Y: 0}, {X: 100, Y: 100}}},
	}
	texts := []model.TextElement{
		{Text: "3000", BBox: model.NewBBox(140, 105, 180, 115)},
		{Text: "2400 mm", BBox: model.NewBBox(505, 95, 545, 105)},
		{Text: "Kitchen", BBox: model.NewBBox(150, 108, 190, 118)},
		// numeric but too far from anything
		{Text: "9999", BBox: model.NewBBox(140, 400, 180, 410)},
	}

	got := PairDimensionLines(vectors, texts, 50)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if !got[0].Horizontal || got[0].Label.Text != "3000" {
		t.Errorf("first candidate = %+v", got[0])
	}
	if got[1].Horizontal || got[1].Label.Text != "2400 mm" {
		t.Errorf("second candidate = %+v", got[1])
	}
}
