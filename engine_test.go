package seamcarve

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/seamcarve/seamcarve/imop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, img image.Image, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(img, opts...)
	require.NoError(t, err)
	return e
}

func TestEngine_NewEngine(t *testing.T) {
	img := gradientImage(12, 8)
	e := newTestEngine(t, img)

	assert.Equal(t, img.Bounds(), e.OriginalBounds())
	assert.Equal(t, img.Bounds().Size(), e.EnergyMap().Bounds().Size())
	assert.Equal(t, img.Pix, e.SeamOverlay().Pix)
	assert.Equal(t, img.Pix, e.Image().(*image.NRGBA).Pix)
	assert.Zero(t, e.Timings().Len())

	rows, cols := e.Removed()
	assert.Zero(t, rows)
	assert.Zero(t, cols)

	// The engine works on its own copy.
	img.Pix[0] = ^img.Pix[0]
	assert.NotEqual(t, img.Pix[0], e.Image().(*image.NRGBA).Pix[0])
}

func TestEngine_NewEngineInvalidImage(t *testing.T) {
	_, err := NewEngine(image.NewNRGBA(image.Rectangle{}))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = NewEngine(image.NewCMYK(image.Rect(0, 0, 3, 3)))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestEngine_RetargetWidth(t *testing.T) {
	e := newTestEngine(t, gradientImage(100, 100))

	require.NoError(t, e.Retarget(100, 90))

	assert.Equal(t, image.Rect(0, 0, 90, 100), e.Image().Bounds())
	rows, cols := e.Removed()
	assert.Equal(t, 0, rows)
	assert.Equal(t, 10, cols)

	timings := e.Timings()
	assert.Equal(t, 10, timings.Len())
	assert.Len(t, timings.Search, 10)
	assert.Len(t, timings.Remove, 10)
}

func TestEngine_RetargetGrowthFails(t *testing.T) {
	img := gradientImage(100, 100)
	e := newTestEngine(t, img)

	err := e.Retarget(100, 110)
	assert.ErrorIs(t, err, ErrUnsupportedGrowth)
	assert.Equal(t, img.Pix, e.Image().(*image.NRGBA).Pix)
	assert.Zero(t, e.Timings().Len())

	err = e.Retarget(101, 100)
	assert.ErrorIs(t, err, ErrUnsupportedGrowth)
	assert.Equal(t, img.Bounds(), e.Image().Bounds())
}

func TestEngine_RetargetShrinksColumnsBeforeRowGrowthFails(t *testing.T) {
	e := newTestEngine(t, gradientImage(30, 20))

	err := e.Retarget(25, 27)
	assert.ErrorIs(t, err, ErrUnsupportedGrowth)
	assert.Equal(t, image.Rect(0, 0, 27, 20), e.Image().Bounds())

	rows, cols := e.Removed()
	assert.Equal(t, 0, rows)
	assert.Equal(t, 3, cols)
}

func TestEngine_RetargetInvalidTarget(t *testing.T) {
	e := newTestEngine(t, gradientImage(10, 10))

	assert.ErrorIs(t, e.Retarget(0, 5), ErrInvalidTarget)
	assert.ErrorIs(t, e.Retarget(5, 0), ErrInvalidTarget)
	assert.ErrorIs(t, e.Retarget(-1, -1), ErrInvalidTarget)
	assert.Equal(t, image.Rect(0, 0, 10, 10), e.Image().Bounds())
}

func TestEngine_RetargetToCurrentSizeIsNoop(t *testing.T) {
	img := gradientImage(16, 9)
	e := newTestEngine(t, img)

	require.NoError(t, e.Retarget(9, 16))
	assert.Equal(t, img.Pix, e.Image().(*image.NRGBA).Pix)
	assert.Zero(t, e.Timings().Len())
}

func TestEngine_RetargetRows(t *testing.T) {
	e := newTestEngine(t, gradientImage(20, 30))

	require.NoError(t, e.Retarget(25, 20))

	assert.Equal(t, image.Rect(0, 0, 20, 25), e.Image().Bounds())
	rows, cols := e.Removed()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 0, cols)

	// The last energy map and overlay describe the image the last row was removed from,
	// in the original orientation.
	assert.Equal(t, image.Pt(20, 26), e.EnergyMap().Bounds().Size())
	assert.Equal(t, image.Pt(20, 26), e.SeamOverlay().Bounds().Size())
}

func TestEngine_RetargetBothAxes(t *testing.T) {
	e := newTestEngine(t, gradientImage(30, 30))

	require.NoError(t, e.Retarget(25, 20))

	assert.Equal(t, image.Rect(0, 0, 20, 25), e.Image().Bounds())
	rows, cols := e.Removed()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 10, cols)
	assert.Equal(t, 15, e.Timings().Len())
}

func TestEngine_RetargetKeepsGrayImages(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 12, 12))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i * 7)
	}
	e := newTestEngine(t, gray)

	require.NoError(t, e.Retarget(10, 10))
	assert.IsType(t, &image.Gray{}, e.Image())
	assert.Equal(t, image.Rect(0, 0, 10, 10), e.Image().Bounds())
}

func TestEngine_UniformImage(t *testing.T) {
	fill := color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff}
	img := image.NewNRGBA(image.Rect(0, 0, imgWidth, imgHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{fill}, image.Point{}, draw.Src)

	e := newTestEngine(t, img)
	require.NoError(t, e.Retarget(imgHeight, imgWidth-1))

	res := e.Image().(*image.NRGBA)
	assert.Equal(t, image.Rect(0, 0, imgWidth-1, imgHeight), res.Bounds())
	for y := 0; y < imgHeight; y++ {
		for x := 0; x < imgWidth-1; x++ {
			assert.Equal(t, fill, res.NRGBAAt(x, y))
		}
	}
	for _, v := range e.EnergyMap().Pix {
		assert.Zero(t, v)
	}
}

// columnEnergy returns an energy function where only column col is free to remove.
func columnEnergy(col int) EnergyFunc {
	return func(img image.Image) *image.Gray {
		b := img.Bounds()
		energy := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				if x != col {
					energy.Pix[y*energy.Stride+x] = 0xff
				}
			}
		}
		return energy
	}
}

func TestEngine_WithEnergyFuncAndSeamColor(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 10; x++ {
			img.Pix[y*img.Stride+x] = uint8(x * 10)
		}
	}
	green := color.NRGBA{G: 0xff, A: 0xff}
	e := newTestEngine(t, img, WithEnergyFunc(columnEnergy(7)), WithSeamColor(green))

	require.NoError(t, e.Retarget(4, 9))

	res := e.Image().(*image.Gray)
	for y := 0; y < 4; y++ {
		row := res.Pix[y*res.Stride : y*res.Stride+9]
		if diff := cmp.Diff([]uint8{0, 10, 20, 30, 40, 50, 60, 80, 90}, row); diff != "" {
			t.Errorf("row %d mismatch (-want +got):\n%s", y, diff)
		}
		assert.Equal(t, green, e.SeamOverlay().NRGBAAt(7, y))
	}
}

func TestEngine_WithSeamOp(t *testing.T) {
	img := gradientImage(10, 4)
	e := newTestEngine(t, img, WithEnergyFunc(columnEnergy(2)), WithSeamOp(imop.DstOver))

	require.NoError(t, e.Retarget(4, 9))
	// The backdrop is opaque, painting the seam behind it changes nothing.
	assert.Equal(t, img.Pix, e.SeamOverlay().Pix)

	translucent := color.NRGBA{R: 0xff, A: 0x80}
	e = newTestEngine(t, img, WithEnergyFunc(columnEnergy(2)), WithSeamColor(translucent))
	require.NoError(t, e.Retarget(4, 9))
	for y := 0; y < 4; y++ {
		want := imop.Compose(imop.SrcOver, translucent, img.NRGBAAt(2, y))
		assert.Equal(t, want, e.SeamOverlay().NRGBAAt(2, y))
	}
}

func TestEngine_NilOptionsKeepDefaults(t *testing.T) {
	e := newTestEngine(t, gradientImage(5, 5), WithLogger(nil), WithSeamColor(nil), WithEnergyFunc(nil), WithSeamOp(""))

	require.NoError(t, e.Retarget(5, 4))
	assert.Equal(t, image.Pt(4, 5), e.Image().Bounds().Size())
}

func TestEngine_MismatchedEnergyMapPanics(t *testing.T) {
	bad := func(img image.Image) *image.Gray {
		return image.NewGray(image.Rect(0, 0, 1, 1))
	}
	e, err := NewEngine(image.NewGray(image.Rect(0, 0, 1, 1)), WithEnergyFunc(bad))
	require.NoError(t, err)

	e.img = gradientImage(4, 4)
	assert.Panics(t, func() { e.Retarget(4, 3) })
}

func TestEngine_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	e := newTestEngine(t, gradientImage(10, 10), WithLogger(logger))

	require.NoError(t, e.Retarget(8, 7))

	out := buf.String()
	assert.Equal(t, 5, strings.Count(out, "seam removed"))
	assert.Contains(t, out, "axis=columns")
	assert.Contains(t, out, "axis=rows")
}

func TestEngine_TimingsAreCopied(t *testing.T) {
	e := newTestEngine(t, gradientImage(10, 10))
	require.NoError(t, e.Retarget(10, 8))

	timings := e.Timings()
	timings.Energy[0] = -1
	assert.NotEqual(t, timings.Energy[0], e.Timings().Energy[0])
}
