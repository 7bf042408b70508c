package ocr

import (
	"image"
	"image/color"
	"math"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Preprocess prepares a rasterized page for recognition: grayscale,
// light denoising, adaptive thresholding, and deskew when the page is
// noticeably tilted. Scanned permits are rarely clean; each step is
// best effort and the worst case is the unchanged image.
func Preprocess(img image.Image) image.Image {
	gray := toGray(img)
	gray = medianFilter(gray)
	bin := adaptiveThreshold(gray, 15, 10)
	if angle := estimateSkew(bin); math.Abs(angle) > 0.3 {
		bin = rotateGray(bin, -angle)
	}
	return bin
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// medianFilter applies a 3x3 median, which knocks out isolated
// speckle without blurring strokes the way a box filter would.
func medianFilter(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(b)
	var window [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx < 0 || yy < 0 || xx >= w || yy >= h {
						continue
					}
					window[n] = src.GrayAt(xx, yy).Y
					n++
				}
			}
			s := window[:n]
			sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
			dst.SetGray(x, y, color.Gray{Y: s[n/2]})
		}
	}
	return dst
}

// adaptiveThreshold binarizes against a local mean computed over a
// block x block neighborhood via an integral image. A pixel darker
// than its neighborhood mean minus delta becomes black.
func adaptiveThreshold(src *image.Gray, block, delta int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}

	integral := make([]int64, (w+1)*(h+1))
	stride := w + 1
	for y := 0; y < h; y++ {
		var row int64
		for x := 0; x < w; x++ {
			row += int64(src.GrayAt(x, y).Y)
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + row
		}
	}

	half := block / 2
	dst := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(0, x-half), max(0, y-half)
			x1, y1 := min(w, x+half+1), min(h, y+half+1)
			area := int64((x1 - x0) * (y1 - y0))
			sum := integral[y1*stride+x1] - integral[y0*stride+x1] -
				integral[y1*stride+x0] + integral[y0*stride+x0]
			mean := sum / area
			if int64(src.GrayAt(x, y).Y) < mean-int64(delta) {
				dst.SetGray(x, y, color.Gray{Y: 0})
			} else {
				dst.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return dst
}

// estimateSkew finds the small rotation, in degrees, that maximizes
// the variance of the horizontal projection profile of dark pixels.
// Straight text rows produce sharp profile peaks; a tilted page smears
// them out.
func estimateSkew(bin *image.Gray) float64 {
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	// Sample dark pixels on a coarse grid to keep this cheap on large
	// renders.
	step := 1
	if w*h > 1_000_000 {
		step = 2
	}
	type pt struct{ x, y float64 }
	var dark []pt
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			if bin.GrayAt(x, y).Y < 128 {
				dark = append(dark, pt{float64(x), float64(y)})
			}
		}
	}
	if len(dark) < 100 {
		return 0
	}

	best, bestScore := 0.0, -1.0
	for angle := -5.0; angle <= 5.0; angle += 0.25 {
		rad := angle * math.Pi / 180
		sin, cos := math.Sin(rad), math.Cos(rad)
		hist := make([]float64, h)
		for _, p := range dark {
			y := p.y*cos - p.x*sin
			i := int(y)
			if i >= 0 && i < h {
				hist[i]++
			}
		}
		var mean float64
		for _, v := range hist {
			mean += v
		}
		mean /= float64(h)
		var variance float64
		for _, v := range hist {
			d := v - mean
			variance += d * d
		}
		if variance > bestScore {
			bestScore = variance
			best = angle
		}
	}
	return best
}

// rotateGray rotates the image by angle degrees about its center,
// filling uncovered corners with white.
func rotateGray(src *image.Gray, angle float64) *image.Gray {
	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	dst := image.NewGray(b)
	for i := range dst.Pix {
		dst.Pix[i] = 255
	}

	rad := angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx, cy := w/2, h/2
	m := f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy,
		sin, cos, cy - sin*cx - cos*cy,
	}
	draw.BiLinear.Transform(dst, m, src, b, draw.Src, nil)
	return dst
}
