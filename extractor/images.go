package extractor

import (
	"github.com/citydesk/planex/model"
	"github.com/citydesk/planex/pdf"
)

// ExtractImages returns the raster images placed on page i. Each
// element carries the placement box in page coordinates and the pixel
// dimensions from the XObject. Raw image data is attached only when
// includeData is set; it stays in the source compression (usually
// JPEG) for the caller to decode.
func (d *Document) ExtractImages(i int, includeData bool) ([]model.ImageElement, error) {
	ops, p, err := d.contents(i)
	if err != nil {
		return nil, err
	}

	xobjects := d.pageXObjects(p)
	ctm := model.Identity()
	var stack []model.Matrix
	var out []model.ImageElement

	for _, op := range ops {
		switch op.Operator {
		case "q":
			stack = append(stack, ctm)
		case "Q":
			if n := len(stack); n > 0 {
				ctm = stack[n-1]
				stack = stack[:n-1]
			}
		case "cm":
			if m, ok := opMatrix(op); ok {
				ctm = m.Multiply(ctm)
			}
		case "Do":
			name, ok := op.Name(0)
			if !ok {
				continue
			}
			s, ok := xobjects[name]
			if !ok {
				continue
			}
			el := placeImage(name, s, ctm)
			if includeData {
				data, err := pdf.DecodeStream(d.reader, s)
				if err != nil {
					d.log.Warn("image data unreadable", "page", i, "xobject", name, "error", err)
				} else {
					el.Data = data
				}
			}
			out = append(out, el)
		}
	}
	return out, nil
}

// pageXObjects collects the image XObjects reachable from the page's
// resource dictionary, keyed by resource name.
func (d *Document) pageXObjects(p *pdf.Page) map[string]*pdf.Stream {
	images := make(map[string]*pdf.Stream)
	if p.Resources == nil {
		return images
	}
	xoObj, err := d.reader.Resolve(p.Resources["XObject"])
	if err != nil {
		return images
	}
	xo, ok := xoObj.(pdf.Dict)
	if !ok {
		return images
	}
	for key, entry := range xo {
		resolved, err := d.reader.Resolve(entry)
		if err != nil {
			continue
		}
		s, ok := resolved.(*pdf.Stream)
		if !ok {
			continue
		}
		if sub, _ := s.Dict.Name("Subtype"); sub != "Image" {
			continue
		}
		images[key] = s
	}
	return images
}

// placeImage maps the image's unit square through the current
// transformation matrix to get the placement box.
func placeImage(name string, s *pdf.Stream, ctm model.Matrix) model.ImageElement {
	w, _ := s.Dict.Int("Width")
	h, _ := s.Dict.Int("Height")
	corners := []model.Point{
		ctm.Transform(model.Point{X: 0, Y: 0}),
		ctm.Transform(model.Point{X: 1, Y: 0}),
		ctm.Transform(model.Point{X: 1, Y: 1}),
		ctm.Transform(model.Point{X: 0, Y: 1}),
	}
	return model.ImageElement{
		BBox:   model.BBoxFromPoints(corners),
		Width:  int(w),
		Height: int(h),
		Ref:    name,
	}
}
