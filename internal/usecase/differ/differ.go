package differ

import (
	"errors"
	"fmt"
	"math"

	"design-checker/internal/domain/entity"
)

var ErrDimensionMismatch = errors.New("image dimensions differ")

// maxYIQDelta is the largest possible squared YIQ distance between two colours.
const maxYIQDelta = 35215.0

const (
	DefaultThreshold   = 0.1
	DefaultAlertCutoff = 50
)

type Options struct {
	// Threshold is the matching tolerance as a fraction of the full colour
	// range: 0 is exact, 1 accepts anything.
	Threshold float64
	// IncludeAA counts anti-aliased pixels as changes instead of ignoring them.
	IncludeAA bool
	// Alpha is the opacity of the faded current image under the diff marks.
	Alpha float64
}

func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		Alpha:     0.1,
	}
}

type Result struct {
	DiffImage     *entity.CapturedImage
	ChangedPixels int
	AAPixels      int
	TotalPixels   int
}

func (r *Result) ChangedRatio() float64 {
	if r.TotalPixels == 0 {
		return 0
	}
	return float64(r.ChangedPixels) / float64(r.TotalPixels)
}

// ExceedsCutoff reports whether an absolute changed-pixel count should raise a
// visual_diff issue.
func ExceedsCutoff(changed, cutoff int) bool {
	return changed > cutoff
}

// Diff compares current against baseline. Changed pixels are painted red in
// the diff image, anti-aliased ones yellow, everything else is a faded
// grayscale copy of current. The changed-pixel count does not depend on the
// argument order.
func Diff(current, baseline *entity.CapturedImage, opts Options) (*Result, error) {
	if current == nil || baseline == nil {
		return nil, fmt.Errorf("diff: nil image")
	}
	if !current.SameSize(baseline) {
		return nil, fmt.Errorf("%w: current %dx%d vs baseline %dx%d",
			ErrDimensionMismatch, current.Width, current.Height, baseline.Width, baseline.Height)
	}
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("diff: threshold %v outside [0,1]", opts.Threshold)
	}

	w, h := current.Width, current.Height
	a, b := current.Pix, baseline.Pix
	out := entity.NewCapturedImage(w, h)
	res := &Result{DiffImage: out, TotalPixels: w * h}

	maxDelta := maxYIQDelta * opts.Threshold * opts.Threshold

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pos := (y*w + x) * 4
			delta := colorDelta(a, b, pos, pos, false)

			if math.Abs(delta) <= maxDelta {
				drawGray(out.Pix, a, pos, opts.Alpha)
				continue
			}

			if !opts.IncludeAA && (antialiased(a, x, y, w, h, b) || antialiased(b, x, y, w, h, a)) {
				drawPixel(out.Pix, pos, 255, 255, 0)
				res.AAPixels++
				continue
			}

			drawPixel(out.Pix, pos, 255, 0, 0)
			res.ChangedPixels++
		}
	}

	return res, nil
}

// antialiased checks whether the pixel at (x1,y1) of img looks like an
// anti-aliasing artifact: few identical neighbours and both the darkest and
// brightest neighbour sitting in flat areas of both images.
func antialiased(img []uint8, x1, y1, w, h int, other []uint8) bool {
	x0 := max(x1-1, 0)
	y0 := max(y1-1, 0)
	x2 := min(x1+1, w-1)
	y2 := min(y1+1, h-1)
	pos := (y1*w + x1) * 4

	zeroes := 0
	if x1 == x0 || x1 == x2 || y1 == y0 || y1 == y2 {
		zeroes = 1
	}

	var lo, hi float64
	var loX, loY, hiX, hiY int

	for x := x0; x <= x2; x++ {
		for y := y0; y <= y2; y++ {
			if x == x1 && y == y1 {
				continue
			}
			delta := colorDelta(img, img, pos, (y*w+x)*4, true)
			switch {
			case delta == 0:
				zeroes++
				if zeroes > 2 {
					return false
				}
			case delta < lo:
				lo, loX, loY = delta, x, y
			case delta > hi:
				hi, hiX, hiY = delta, x, y
			}
		}
	}

	if lo == 0 || hi == 0 {
		return false
	}

	return (hasManySiblings(img, loX, loY, w, h) && hasManySiblings(other, loX, loY, w, h)) ||
		(hasManySiblings(img, hiX, hiY, w, h) && hasManySiblings(other, hiX, hiY, w, h))
}

func hasManySiblings(img []uint8, x1, y1, w, h int) bool {
	x0 := max(x1-1, 0)
	y0 := max(y1-1, 0)
	x2 := min(x1+1, w-1)
	y2 := min(y1+1, h-1)
	pos := (y1*w + x1) * 4

	zeroes := 0
	if x1 == x0 || x1 == x2 || y1 == y0 || y1 == y2 {
		zeroes = 1
	}

	for x := x0; x <= x2; x++ {
		for y := y0; y <= y2; y++ {
			if x == x1 && y == y1 {
				continue
			}
			pos2 := (y*w + x) * 4
			if img[pos] == img[pos2] && img[pos+1] == img[pos2+1] &&
				img[pos+2] == img[pos2+2] && img[pos+3] == img[pos2+3] {
				zeroes++
			}
			if zeroes > 2 {
				return true
			}
		}
	}
	return false
}

// colorDelta returns the squared YIQ distance between two pixels, signed by
// which one is brighter. With yOnly it returns the signed luma difference.
func colorDelta(img1, img2 []uint8, k, m int, yOnly bool) float64 {
	r1, g1, b1, a1 := float64(img1[k]), float64(img1[k+1]), float64(img1[k+2]), float64(img1[k+3])
	r2, g2, b2, a2 := float64(img2[m]), float64(img2[m+1]), float64(img2[m+2]), float64(img2[m+3])

	if a1 == a2 && r1 == r2 && g1 == g2 && b1 == b2 {
		return 0
	}

	if a1 < 255 {
		a1 /= 255
		r1, g1, b1 = blend(r1, a1), blend(g1, a1), blend(b1, a1)
	}
	if a2 < 255 {
		a2 /= 255
		r2, g2, b2 = blend(r2, a2), blend(g2, a2), blend(b2, a2)
	}

	y1 := rgb2y(r1, g1, b1)
	y2 := rgb2y(r2, g2, b2)
	dy := y1 - y2

	if yOnly {
		return dy
	}

	di := rgb2i(r1, g1, b1) - rgb2i(r2, g2, b2)
	dq := rgb2q(r1, g1, b1) - rgb2q(r2, g2, b2)

	delta := 0.5053*dy*dy + 0.299*di*di + 0.1957*dq*dq
	if y1 > y2 {
		return -delta
	}
	return delta
}

func rgb2y(r, g, b float64) float64 { return r*0.29889531 + g*0.58662247 + b*0.11448223 }
func rgb2i(r, g, b float64) float64 { return r*0.59597799 - g*0.27417610 - b*0.32180189 }
func rgb2q(r, g, b float64) float64 { return r*0.21147017 - g*0.52261711 + b*0.31114694 }

// blend composites a channel value with opacity a over white.
func blend(c, a float64) float64 {
	return 255 + (c-255)*a
}

func drawPixel(out []uint8, pos int, r, g, b uint8) {
	out[pos], out[pos+1], out[pos+2], out[pos+3] = r, g, b, 255
}

func drawGray(out, img []uint8, pos int, alpha float64) {
	r, g, b := float64(img[pos]), float64(img[pos+1]), float64(img[pos+2])
	v := blend(rgb2y(r, g, b), alpha*float64(img[pos+3])/255)
	gray := uint8(math.Round(math.Max(0, math.Min(255, v))))
	drawPixel(out, pos, gray, gray, gray)
}
