package pdf

import (
	"bytes"
	"fmt"
)

// Reader gives random access to the indirect objects of a PDF file and
// exposes its page tree. The whole file is held in memory; resolved
// objects are cached so repeated dictionary walks stay cheap.
type Reader struct {
	data    []byte
	xref    *xrefTable
	cache   map[int]Object
	objStms map[int]*objectStream
}

// Page is one leaf of the page tree with its inherited attributes
// already applied.
type Page struct {
	Dict      Dict
	MediaBox  [4]float64
	Rotate    int
	Resources Dict
}

// NewReader parses the cross-reference chain of the given file buffer.
func NewReader(data []byte) (*Reader, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		// the header may be preceded by junk, which viewers tolerate
		idx := bytes.Index(data, []byte("%PDF-"))
		if idx < 0 {
			return nil, fmt.Errorf("missing %%PDF header")
		}
		data = data[idx:]
	}
	start, err := findStartXref(data)
	if err != nil {
		return nil, err
	}
	xref, err := parseXref(data, start)
	if err != nil {
		return nil, err
	}
	return &Reader{
		data:    data,
		xref:    xref,
		cache:   make(map[int]Object),
		objStms: make(map[int]*objectStream),
	}, nil
}

// Trailer returns the merged trailer dictionary.
func (r *Reader) Trailer() Dict { return r.xref.trailer }

// Get fetches the indirect object with the given number.
func (r *Reader) Get(ref Ref) (Object, error) {
	if obj, ok := r.cache[ref.Num]; ok {
		return obj, nil
	}
	entry, ok := r.xref.entries[ref.Num]
	if !ok || entry.free {
		return Null{}, nil
	}

	var obj Object
	var err error
	if entry.inStream {
		obj, err = r.fromObjectStream(entry)
	} else {
		if entry.offset < 0 || entry.offset >= int64(len(r.data)) {
			return nil, fmt.Errorf("object %d: offset %d out of bounds", ref.Num, entry.offset)
		}
		sc := &scanner{data: r.data, pos: int(entry.offset)}
		obj, err = sc.scanIndirectObject()
	}
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", ref.Num, err)
	}

	// a stream Length given by reference was deferred during scanning
	if s, ok := obj.(*Stream); ok {
		if lref, isRef := s.Dict["Length"].(Ref); isRef {
			if lobj, lerr := r.Get(lref); lerr == nil {
				if n, isInt := lobj.(Integer); isInt && int(n) <= len(s.Raw) {
					s.Raw = s.Raw[:n]
				}
			}
		}
	}
	r.cache[ref.Num] = obj
	return obj, nil
}

func (r *Reader) fromObjectStream(entry xrefEntry) (Object, error) {
	os, ok := r.objStms[entry.streamNum]
	if !ok {
		container, err := r.Get(Ref{Num: entry.streamNum})
		if err != nil {
			return nil, err
		}
		s, isStream := container.(*Stream)
		if !isStream {
			return nil, fmt.Errorf("object stream %d is %T", entry.streamNum, container)
		}
		os, err = parseObjectStream(r, s)
		if err != nil {
			return nil, err
		}
		r.objStms[entry.streamNum] = os
	}
	return os.object(entry.streamIdx)
}

// Resolve follows indirect references until a direct object remains.
func (r *Reader) Resolve(obj Object) (Object, error) {
	for depth := 0; depth < 32; depth++ {
		ref, ok := obj.(Ref)
		if !ok {
			return obj, nil
		}
		var err error
		obj, err = r.Get(ref)
		if err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("reference chain too deep")
}

func (r *Reader) resolveDictKey(d Dict, key string) Object {
	obj, err := r.Resolve(d[key])
	if err != nil {
		return nil
	}
	return obj
}

// Catalog returns the document catalog from the trailer's Root entry.
func (r *Reader) Catalog() (Dict, error) {
	obj, err := r.Resolve(r.xref.trailer["Root"])
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	d, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("catalog is %T, not a dictionary", obj)
	}
	return d, nil
}

// Pages flattens the page tree into document order, applying the
// inheritable attributes (Resources, MediaBox, Rotate) on the way
// down.
func (r *Reader) Pages() ([]*Page, error) {
	catalog, err := r.Catalog()
	if err != nil {
		return nil, err
	}
	rootObj := r.resolveDictKey(catalog, "Pages")
	root, ok := rootObj.(Dict)
	if !ok {
		return nil, fmt.Errorf("page tree root is %T", rootObj)
	}
	inherited := pageAttrs{mediaBox: [4]float64{0, 0, 612, 792}}
	var pages []*Page
	if err := r.walkPageTree(root, inherited, &pages, 0); err != nil {
		return nil, err
	}
	return pages, nil
}

type pageAttrs struct {
	mediaBox  [4]float64
	rotate    int
	resources Dict
}

func (r *Reader) walkPageTree(node Dict, attrs pageAttrs, out *[]*Page, depth int) error {
	if depth > 64 {
		return fmt.Errorf("page tree too deep")
	}
	if mb, ok := r.resolveDictKey(node, "MediaBox").(Array); ok && len(mb) == 4 {
		if vals, err := mb.Floats(); err == nil {
			copy(attrs.mediaBox[:], vals)
		}
	}
	if rot, ok := r.resolveDictKey(node, "Rotate").(Integer); ok {
		attrs.rotate = ((int(rot) % 360) + 360) % 360
	}
	if res, ok := r.resolveDictKey(node, "Resources").(Dict); ok {
		attrs.resources = res
	}

	typ, _ := node.Name("Type")
	kidsObj := r.resolveDictKey(node, "Kids")
	if kids, ok := kidsObj.(Array); ok && typ != "Page" {
		for _, kid := range kids {
			kd, err := r.Resolve(kid)
			if err != nil {
				return err
			}
			kdict, ok := kd.(Dict)
			if !ok {
				continue
			}
			if err := r.walkPageTree(kdict, attrs, out, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	*out = append(*out, &Page{
		Dict:      node,
		MediaBox:  attrs.mediaBox,
		Rotate:    attrs.rotate,
		Resources: attrs.resources,
	})
	return nil
}

// Contents returns the page's content streams decoded and concatenated
// in order, separated by a newline so operators never fuse across
// stream boundaries.
func (r *Reader) Contents(p *Page) ([]byte, error) {
	obj := r.resolveDictKey(p.Dict, "Contents")
	var streams []*Stream
	switch c := obj.(type) {
	case *Stream:
		streams = append(streams, c)
	case Array:
		for _, entry := range c {
			resolved, err := r.Resolve(entry)
			if err != nil {
				return nil, err
			}
			if s, ok := resolved.(*Stream); ok {
				streams = append(streams, s)
			}
		}
	case nil, Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("contents is %T", obj)
	}

	var buf bytes.Buffer
	for _, s := range streams {
		data, err := DecodeStream(r, s)
		if err != nil {
			return nil, fmt.Errorf("content stream: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
