package extractor

import (
	"github.com/citydesk/planex/model"
	"github.com/citydesk/planex/pdf"
)

// ExtractAnnotations returns the page's annotations. Markup notes on
// drawings often carry revision remarks or reviewer comments, which
// downstream checks surface alongside the geometry.
func (d *Document) ExtractAnnotations(i int) ([]model.Annotation, error) {
	p, err := d.page(i)
	if err != nil {
		return nil, err
	}
	annotsObj, err := d.reader.Resolve(p.Dict["Annots"])
	if err != nil {
		return nil, nil
	}
	arr, ok := annotsObj.(pdf.Array)
	if !ok {
		return nil, nil
	}

	var out []model.Annotation
	for _, entry := range arr {
		resolved, err := d.reader.Resolve(entry)
		if err != nil {
			continue
		}
		ad, ok := resolved.(pdf.Dict)
		if !ok {
			continue
		}
		a := model.Annotation{}
		a.Subtype, _ = ad.Name("Subtype")
		if rectObj, ok := ad.Array("Rect"); ok {
			if vals, err := rectObj.Floats(); err == nil && len(vals) == 4 {
				a.Rect = model.NewBBox(vals[0], vals[1], vals[2], vals[3])
			}
		}
		if contents, err := d.reader.Resolve(ad["Contents"]); err == nil {
			if s, ok := contents.(pdf.String); ok {
				a.Contents = decodeTextString([]byte(s))
			}
		}
		out = append(out, a)
	}
	return out, nil
}
