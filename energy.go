package seamcarve

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// EnergyFunc computes the energy map of an image.
// The returned map must have the same dimensions as the image.
type EnergyFunc func(img image.Image) *image.Gray

// defaultEnergyFunc is used by engines created without WithEnergyFunc.
var defaultEnergyFunc EnergyFunc = ComputeEnergy

var (
	// gaussian5x5 is the binomial kernel OpenCV derives for a 5x5 window and zero sigma.
	gaussian5x5 = [25]float64{
		1, 4, 6, 4, 1,
		4, 16, 24, 16, 4,
		6, 24, 36, 24, 6,
		4, 16, 24, 16, 4,
		1, 4, 6, 4, 1,
	}

	kernelX = [9]float64{
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1,
	}

	kernelY = [9]float64{
		-1, -2, -1,
		0, 0, 0,
		1, 2, 1,
	}
)

// ComputeEnergy returns the backward energy of every pixel.
// The image is converted to grayscale, smoothed with a 5x5 Gaussian kernel,
// then the absolute horizontal and vertical Sobel responses (saturated to 255)
// are averaged with equal weights.
// See https://en.wikipedia.org/wiki/Sobel_operator
func ComputeEnergy(img image.Image) *image.Gray {
	b := img.Bounds()
	if b.Empty() {
		panic("seamcarve: energy of an empty image")
	}

	blurred := imaging.Convolve5x5(luminance(img), gaussian5x5, &imaging.ConvolveOptions{Normalize: true})
	gx := imaging.Convolve3x3(blurred, kernelX, &imaging.ConvolveOptions{Abs: true})
	gy := imaging.Convolve3x3(blurred, kernelY, &imaging.ConvolveOptions{Abs: true})

	dx, dy := b.Dx(), b.Dy()
	energy := image.NewGray(image.Rect(0, 0, dx, dy))
	for y := 0; y < dy; y++ {
		for x := 0; x < dx; x++ {
			// The gradient images are gray, we need only the R channel.
			i := gx.PixOffset(x, y)
			energy.Pix[y*energy.Stride+x] = combine(gx.Pix[i], gy.Pix[i])
		}
	}
	return energy
}

// luminance converts color images to grayscale. Gray images pass through.
func luminance(img image.Image) image.Image {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	return imaging.Grayscale(img)
}

// combine weights both gradient magnitudes by 0.5, rounding half to even.
func combine(gx, gy uint8) uint8 {
	return uint8(math.RoundToEven(0.5*float64(gx) + 0.5*float64(gy)))
}
