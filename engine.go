package seamcarve

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/seamcarve/seamcarve/imop"
	"github.com/seamcarve/seamcarve/utils"
)

// DefaultSeamColor is the color used to mark the removed seam on the overlay.
var DefaultSeamColor color.Color = color.NRGBA{R: 0xff, A: 0xff}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger makes the engine log every removed seam at debug level.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSeamColor sets the color of the seam on the overlay image.
func WithSeamColor(c color.Color) Option {
	return func(e *Engine) {
		if c != nil {
			e.seamColor = c
		}
	}
}

// WithSeamOp sets how the seam color is composed onto the overlay image.
// The default is source-over, which only matters for translucent seam colors.
func WithSeamOp(op imop.Op) Option {
	return func(e *Engine) {
		if op != "" {
			e.seamOp = op
		}
	}
}

// WithEnergyFunc replaces the energy function.
func WithEnergyFunc(fn EnergyFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.energyFn = fn
		}
	}
}

// axis names the dimension being carved.
type axis string

const (
	axisColumns axis = "columns"
	axisRows    axis = "rows"
)

// Engine owns a working image and retargets it by removing seams.
// The energy map and the seam overlay always describe the last removed seam.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	original image.Rectangle
	img      image.Image
	energy   *image.Gray
	overlay  *image.NRGBA

	energyFn  EnergyFunc
	seamColor color.Color
	seamOp    imop.Op
	logger    *log.Logger

	timings     Timings
	removedCols int
	removedRows int
}

// NewEngine copies src into a new engine. The energy map is computed right away,
// and the overlay starts as a plain copy of the image.
// It fails with ErrInvalidImage if src has no pixels or an unsupported pixel layout.
func NewEngine(src image.Image, opts ...Option) (*Engine, error) {
	img, err := toWorkingImage(src)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		original:  img.Bounds(),
		img:       img,
		energyFn:  defaultEnergyFunc,
		seamColor: DefaultSeamColor,
		seamOp:    imop.SrcOver,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.energy = e.energyFn(img)
	e.overlay = imaging.Clone(img)
	return e, nil
}

// Retarget shrinks the working image to targetCols x targetRows.
//
// Columns are carved first, then rows, on the image rotated once before
// the row loop and rotated back once after it. Each axis is checked right
// before it is carved, so a request shrinking the width and growing the height
// removes the columns before failing with ErrUnsupportedGrowth.
func (e *Engine) Retarget(targetRows, targetCols int) error {
	if targetRows < 1 || targetCols < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidTarget, targetCols, targetRows)
	}

	width := e.img.Bounds().Dx()
	dCols := targetCols - width
	if dCols > 0 {
		return fmt.Errorf("%w: cannot increase the width from %d to %d", ErrUnsupportedGrowth, width, targetCols)
	}
	for i := 0; i < utils.Abs(dCols); i++ {
		e.carve(axisColumns, i)
	}

	height := e.img.Bounds().Dy()
	dRows := targetRows - height
	if dRows > 0 {
		return fmt.Errorf("%w: cannot increase the height from %d to %d", ErrUnsupportedGrowth, height, targetRows)
	}
	if dRows < 0 {
		e.img = rotateImage90(e.img)
		for i := 0; i < utils.Abs(dRows); i++ {
			e.carve(axisRows, i)
		}
		e.img = rotateImage270(e.img)
		e.energy = rotateImage270(e.energy).(*image.Gray)
		e.overlay = rotateImage270(e.overlay).(*image.NRGBA)
	}
	return nil
}

// carve removes the lowest energy vertical seam of the working image.
func (e *Engine) carve(ax axis, iter int) {
	start := time.Now()
	e.energy = e.energyFn(e.img)
	energyTime := time.Since(start)

	if e.energy.Bounds().Size() != e.img.Bounds().Size() {
		panic(fmt.Sprintf("seamcarve: energy map of %v for an image of %v",
			e.energy.Bounds().Size(), e.img.Bounds().Size()))
	}

	start = time.Now()
	table, seam := FindMinimumSeam(e.energy)
	searchTime := time.Since(start)

	start = time.Now()
	e.img, e.overlay = removeSeam(e.img, seam, e.seamColor, e.seamOp)
	removeTime := time.Since(start)

	e.timings.add(energyTime, searchTime, removeTime)
	if ax == axisColumns {
		e.removedCols++
	} else {
		e.removedRows++
	}

	last := len(seam) - 1
	e.logger.Debug("seam removed",
		"axis", ax,
		"iteration", iter+1,
		"energy", table.Cost(seam[last], last),
		"energy_time", energyTime,
		"search_time", searchTime,
		"remove_time", removeTime,
	)
}

// Image returns the current working image, *image.Gray or *image.NRGBA.
func (e *Engine) Image() image.Image {
	return e.img
}

// EnergyMap returns the energy map computed in the last iteration.
func (e *Engine) EnergyMap() *image.Gray {
	return e.energy
}

// SeamOverlay returns the image of the last iteration with its removed seam marked.
func (e *Engine) SeamOverlay() *image.NRGBA {
	return e.overlay
}

// OriginalBounds returns the bounds of the image the engine was created with.
func (e *Engine) OriginalBounds() image.Rectangle {
	return e.original
}

// Removed returns the number of row and column seams removed so far.
func (e *Engine) Removed() (rows, cols int) {
	return e.removedRows, e.removedCols
}

// Timings returns a copy of the per iteration stage durations.
func (e *Engine) Timings() Timings {
	return e.timings.clone()
}
