package seamcarve

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/seamcarve/seamcarve/imop"
	"github.com/seamcarve/seamcarve/utils"
)

// Seam holds, for every image row, the column of the pixel to remove.
type Seam []int

// Energy sums the energy values along the seam.
func (s Seam) Energy(energy *image.Gray) uint32 {
	var total uint32
	b := energy.Bounds()
	for y, x := range s {
		total += uint32(energy.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
	}
	return total
}

// CostTable holds the dynamic programming tables of a minimum seam search.
// The cumulative costs use 32 bits, since the sum over a tall image
// quickly exceeds the range of the 8 bit energy values.
type CostTable struct {
	Width  int
	Height int
	cost   []uint32
	from   []int32
}

// Cost returns the minimum energy of any seam from the top row ending at (x, y).
func (t *CostTable) Cost(x, y int) uint32 {
	return t.cost[y*t.Width+x]
}

// From returns the column in row y-1 the cheapest seam to (x, y) comes from.
// It is meaningless for the top row.
func (t *CostTable) From(x, y int) int {
	return int(t.from[y*t.Width+x])
}

// FindMinimumSeam computes the minimum cumulative energy M for all possible
// connected seams ending at each pixel, with the following logic:
//   - the top row of M equals the top row of the energy map.
//   - every other entry is the pixel energy summed with the minimum of the
//     (up to three) neighboring entries from the previous row.
//
// Ties between neighbors, and between the bottom row entries, go to the leftmost column.
// The seam is rebuilt by walking the backtrack table up from the cheapest bottom entry.
func FindMinimumSeam(energy *image.Gray) (*CostTable, Seam) {
	b := energy.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		panic("seamcarve: minimum seam of an empty energy map")
	}

	t := &CostTable{
		Width:  width,
		Height: height,
		cost:   make([]uint32, width*height),
		from:   make([]int32, width*height),
	}

	row := energy.Pix[energy.PixOffset(b.Min.X, b.Min.Y):]
	for x := 0; x < width; x++ {
		t.cost[x] = uint32(row[x])
	}

	for y := 1; y < height; y++ {
		prev := t.cost[(y-1)*width : y*width]
		row = energy.Pix[energy.PixOffset(b.Min.X, b.Min.Y+y):]

		for x := 0; x < width; x++ {
			// The far left and far right pixels have only two neighbors.
			left, right := utils.Max(x-1, 0), utils.Min(x+1, width-1)

			best := left
			for c := left + 1; c <= right; c++ {
				if prev[c] < prev[best] {
					best = c
				}
			}

			idx := y*width + x
			t.from[idx] = int32(best)
			t.cost[idx] = uint32(row[x]) + prev[best]
		}
	}

	// Find the lowest cost seam end on the bottom row.
	bottom := t.cost[(height-1)*width:]
	px := 0
	for x := 1; x < width; x++ {
		if bottom[x] < bottom[px] {
			px = x
		}
	}

	seam := make(Seam, height)
	for y := height - 1; y >= 0; y-- {
		seam[y] = px
		px = t.From(px, y)
	}
	return t, seam
}

// RemoveSeam returns a copy of img narrower by one column, with the seam pixels dropped,
// and a color copy of img with seamColor painted over the seam pixels.
// Gray images stay gray, every other image is returned as *image.NRGBA.
//
// The seam must have one in range entry per image row.
func RemoveSeam(img image.Image, seam Seam, seamColor color.Color) (image.Image, *image.NRGBA) {
	return removeSeam(img, seam, seamColor, imop.SrcOver)
}

// removeSeam is RemoveSeam with a configurable composition of the seam color.
func removeSeam(img image.Image, seam Seam, seamColor color.Color, op imop.Op) (image.Image, *image.NRGBA) {
	img = asWorkingImage(img)
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if len(seam) != height {
		panic(fmt.Sprintf("seamcarve: seam of %d entries for an image of %d rows", len(seam), height))
	}

	src, srcStride, bpp := pixels(img)
	dst := newLike(img, width-1, height)
	dstPix, dstStride, _ := pixels(dst)

	overlay := imaging.Clone(img)
	mark := color.NRGBAModel.Convert(seamColor).(color.NRGBA)

	for y, x := range seam {
		if x < 0 || x >= width {
			panic(fmt.Sprintf("seamcarve: seam column %d out of range [0, %d) on row %d", x, width, y))
		}
		si, di := y*srcStride, y*dstStride

		// Copy the pixels on the left of the seam, then shift the ones on its right.
		copy(dstPix[di:di+x*bpp], src[si:si+x*bpp])
		copy(dstPix[di+x*bpp:di+(width-1)*bpp], src[si+(x+1)*bpp:si+width*bpp])

		overlay.SetNRGBA(x, y, imop.Compose(op, mark, overlay.NRGBAAt(x, y)))
	}
	return dst, overlay
}
