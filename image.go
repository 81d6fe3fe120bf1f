package seamcarve

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Load opens an image file, applying the EXIF orientation if there is one.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("could not open the source image: %w", err)
	}
	return img, nil
}

// Decode decodes an image from r, applying the EXIF orientation if there is one.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("could not decode the source image: %w", err)
	}
	return img, nil
}

// encodeImg encodes an image to w in the format matching the file extension.
// An empty extension stands for a stream and is encoded as JPEG.
func encodeImg(w io.Writer, img image.Image, ext string, quality int) error {
	switch strings.ToLower(ext) {
	case "", ".jpg", ".jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case ".png":
		return imaging.Encode(w, img, imaging.PNG)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".gif":
		return imaging.Encode(w, img, imaging.GIF)
	case ".tif", ".tiff":
		return imaging.Encode(w, img, imaging.TIFF)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// toWorkingImage copies src into the engine's own buffer:
// *image.Gray for single channel images, *image.NRGBA for color ones,
// both with the min-point at (0, 0). 16-bit images keep the high byte of each sample.
func toWorkingImage(src image.Image) (image.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: the image has no pixels", ErrInvalidImage)
	}

	switch src := src.(type) {
	case *image.Gray:
		return cloneGray(src), nil
	case *image.Gray16:
		b := src.Bounds()
		dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				dst.Pix[y*dst.Stride+x] = uint8(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y >> 8)
			}
		}
		return dst, nil
	case *image.NRGBA, *image.RGBA, *image.NRGBA64, *image.RGBA64,
		*image.YCbCr, *image.NYCbCrA, *image.Paletted:
		return imaging.Clone(src), nil
	default:
		return nil, fmt.Errorf("%w: unsupported pixel layout %T", ErrInvalidImage, src)
	}
}

// asWorkingImage returns img untouched when it is already laid out like a working image.
func asWorkingImage(img image.Image) image.Image {
	if img.Bounds().Min != (image.Point{}) {
		if g, ok := img.(*image.Gray); ok {
			return cloneGray(g)
		}
		return imaging.Clone(img)
	}
	switch img.(type) {
	case *image.Gray, *image.NRGBA:
		return img
	}
	return imaging.Clone(img)
}

// cloneGray copies a gray image, moving its min-point to (0, 0).
func cloneGray(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		di := y * dst.Stride
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst.Pix[di:di+b.Dx()], src.Pix[si:si+b.Dx()])
	}
	return dst
}

// pixels exposes the pixel buffer of a working image and its bytes per pixel.
func pixels(img image.Image) (pix []uint8, stride, bpp int) {
	switch img := img.(type) {
	case *image.Gray:
		return img.Pix, img.Stride, 1
	case *image.NRGBA:
		return img.Pix, img.Stride, 4
	}
	panic(fmt.Sprintf("seamcarve: unexpected working image type %T", img))
}

// newLike allocates a blank working image of the same type as img.
func newLike(img image.Image, width, height int) image.Image {
	r := image.Rect(0, 0, width, height)
	switch img.(type) {
	case *image.Gray:
		return image.NewGray(r)
	case *image.NRGBA:
		return image.NewNRGBA(r)
	}
	panic(fmt.Sprintf("seamcarve: unexpected working image type %T", img))
}

// rotateImage90 rotates the image by 90 degree counter clockwise.
func rotateImage90(src image.Image) image.Image {
	b := src.Bounds()
	dst := newLike(src, b.Dy(), b.Dx())
	srcPix, srcStride, bpp := pixels(src)
	dstPix, dstStride, _ := pixels(dst)

	for dstY := 0; dstY < b.Dx(); dstY++ {
		for dstX := 0; dstX < b.Dy(); dstX++ {
			srcX := b.Dx() - dstY - 1
			srcY := dstX

			srcOff := srcY*srcStride + srcX*bpp
			dstOff := dstY*dstStride + dstX*bpp
			copy(dstPix[dstOff:dstOff+bpp], srcPix[srcOff:srcOff+bpp])
		}
	}
	return dst
}

// rotateImage270 rotates the image by 270 degree counter clockwise, undoing rotateImage90.
func rotateImage270(src image.Image) image.Image {
	b := src.Bounds()
	dst := newLike(src, b.Dy(), b.Dx())
	srcPix, srcStride, bpp := pixels(src)
	dstPix, dstStride, _ := pixels(dst)

	for dstY := 0; dstY < b.Dx(); dstY++ {
		for dstX := 0; dstX < b.Dy(); dstX++ {
			srcX := dstY
			srcY := b.Dy() - dstX - 1

			srcOff := srcY*srcStride + srcX*bpp
			dstOff := dstY*dstStride + dstX*bpp
			copy(dstPix[dstOff:dstOff+bpp], srcPix[srcOff:srcOff+bpp])
		}
	}
	return dst
}
