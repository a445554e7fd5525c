package differ

import (
	"math/rand"
	"testing"

	"design-checker/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(w, h int, r, g, b, a uint8) *entity.CapturedImage {
	img := entity.NewCapturedImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, r, g, b, a)
		}
	}
	return img
}

func noisy(rng *rand.Rand, w, h int) *entity.CapturedImage {
	img := entity.NewCapturedImage(w, h)
	rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		if rng.Intn(4) > 0 {
			img.Pix[i] = 255
		}
	}
	return img
}

func clone(c *entity.CapturedImage) *entity.CapturedImage {
	out := entity.NewCapturedImage(c.Width, c.Height)
	copy(out.Pix, c.Pix)
	return out
}

func TestDiff_Identity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	img := noisy(rng, 40, 30)

	res, err := Diff(img, clone(img), DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, res.ChangedPixels)
	assert.Zero(t, res.AAPixels)
	assert.Equal(t, 1200, res.TotalPixels)
}

func TestDiff_Symmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 20; i++ {
		a := noisy(rng, 24, 16)
		b := clone(a)
		for j := 0; j < 60; j++ {
			pos := rng.Intn(len(b.Pix))
			b.Pix[pos] = uint8(rng.Intn(256))
		}

		for _, includeAA := range []bool{false, true} {
			opts := DefaultOptions()
			opts.IncludeAA = includeAA
			opts.Threshold = rng.Float64()

			ab, err := Diff(a, b, opts)
			require.NoError(t, err)
			ba, err := Diff(b, a, opts)
			require.NoError(t, err)

			assert.Equal(t, ab.ChangedPixels, ba.ChangedPixels, "iteration %d includeAA=%v", i, includeAA)
			assert.Equal(t, ab.AAPixels, ba.AAPixels, "iteration %d includeAA=%v", i, includeAA)
		}
	}
}

func TestDiff_DimensionMismatch(t *testing.T) {
	_, err := Diff(entity.NewCapturedImage(10, 10), entity.NewCapturedImage(10, 11), DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestDiff_InvalidThreshold(t *testing.T) {
	img := entity.NewCapturedImage(2, 2)
	_, err := Diff(img, img, Options{Threshold: 1.2})
	assert.Error(t, err)
}

func TestDiff_BlockChangeCountsEveryPixel(t *testing.T) {
	baseline := filled(100, 100, 255, 255, 255, 255)
	current := clone(baseline)
	for y := 40; y < 45; y++ {
		for x := 30; x < 45; x++ {
			current.Set(x, y, 0, 0, 0, 255)
		}
	}

	res, err := Diff(current, baseline, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 75, res.ChangedPixels)
	assert.True(t, ExceedsCutoff(res.ChangedPixels, DefaultAlertCutoff))

	off := current.Offset(30, 40)
	assert.Equal(t, []uint8{255, 0, 0, 255}, res.DiffImage.Pix[off:off+4])

	same := current.Offset(0, 0)
	p := res.DiffImage.Pix[same : same+4]
	assert.Equal(t, p[0], p[1])
	assert.Equal(t, p[1], p[2])
	assert.Equal(t, uint8(255), p[3])
}

func TestDiff_Threshold(t *testing.T) {
	baseline := filled(10, 10, 200, 200, 200, 255)
	current := filled(10, 10, 205, 205, 205, 255)

	res, err := Diff(current, baseline, DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, res.ChangedPixels, "small shift stays under the default threshold")

	strict := DefaultOptions()
	strict.Threshold = 0
	res, err = Diff(current, baseline, strict)
	require.NoError(t, err)
	assert.Equal(t, 100, res.ChangedPixels)
	assert.InDelta(t, 1.0, res.ChangedRatio(), 1e-9)
}

func TestDiff_TransparentBlendsOverWhite(t *testing.T) {
	transparent := filled(4, 4, 0, 0, 0, 0)
	white := filled(4, 4, 255, 255, 255, 255)

	opts := DefaultOptions()
	opts.Threshold = 0
	res, err := Diff(transparent, white, opts)
	require.NoError(t, err)
	assert.Zero(t, res.ChangedPixels)
}

func TestDiff_AntiAliasedEdgeIgnored(t *testing.T) {
	// A hard vertical edge shifted by a softened column: the soft column
	// sits between two flat areas, which is what anti-aliasing looks like.
	baseline := entity.NewCapturedImage(12, 12)
	current := entity.NewCapturedImage(12, 12)
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			if x < 6 {
				baseline.Set(x, y, 0, 0, 0, 255)
				current.Set(x, y, 0, 0, 0, 255)
			} else {
				baseline.Set(x, y, 255, 255, 255, 255)
				current.Set(x, y, 255, 255, 255, 255)
			}
		}
	}
	current.Set(6, 5, 128, 128, 128, 255)

	res, err := Diff(current, baseline, DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, res.ChangedPixels)
	assert.Equal(t, 1, res.AAPixels)

	opts := DefaultOptions()
	opts.IncludeAA = true
	res, err = Diff(current, baseline, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ChangedPixels)
}

func TestExceedsCutoff(t *testing.T) {
	assert.False(t, ExceedsCutoff(50, 50))
	assert.True(t, ExceedsCutoff(51, 50))
	assert.False(t, ExceedsCutoff(0, 0))
}
