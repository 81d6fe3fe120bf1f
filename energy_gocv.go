//go:build gocv

package seamcarve

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

func init() {
	defaultEnergyFunc = ComputeEnergyCV
}

// ComputeEnergyCV computes the same energy map as ComputeEnergy with OpenCV.
// It differs only on the image border, where OpenCV reflects the pixels
// instead of replicating the edge.
func ComputeEnergyCV(img image.Image) *image.Gray {
	b := img.Bounds()
	if b.Empty() {
		panic("seamcarve: energy of an empty image")
	}

	gray, err := grayMat(img)
	if err != nil {
		panic(fmt.Sprintf("seamcarve: %v", err))
	}
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: 5, Y: 5}, 0, 0, gocv.BorderDefault)

	dx := gocv.NewMat()
	defer dx.Close()
	gocv.Sobel(blurred, &dx, gocv.MatTypeCV16S, 1, 0, 3, 1, 0, gocv.BorderDefault)

	dy := gocv.NewMat()
	defer dy.Close()
	gocv.Sobel(blurred, &dy, gocv.MatTypeCV16S, 0, 1, 3, 1, 0, gocv.BorderDefault)

	dxAbs := gocv.NewMat()
	defer dxAbs.Close()
	gocv.ConvertScaleAbs(dx, &dxAbs, 1, 0)

	dyAbs := gocv.NewMat()
	defer dyAbs.Close()
	gocv.ConvertScaleAbs(dy, &dyAbs, 1, 0)

	energy := gocv.NewMat()
	defer energy.Close()
	gocv.AddWeighted(dxAbs, 0.5, dyAbs, 0.5, 0, &energy)

	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	copy(dst.Pix, energy.ToBytes())
	return dst
}

// grayMat builds a single channel Mat holding the luminance of img.
func grayMat(img image.Image) (gocv.Mat, error) {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok {
		g = cloneGray(g)
		m, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, g.Pix)
		if err != nil {
			return gocv.Mat{}, err
		}
		defer m.Close()
		// The Mat shares the Go buffer, keep a copy owned by OpenCV.
		return m.Clone(), nil
	}

	nrgba := imaging.Clone(img)
	rgba, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, nrgba.Pix)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer rgba.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(rgba, &gray, gocv.ColorRGBAToGray)
	return gray, nil
}
