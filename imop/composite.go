// Package imop implements the Porter-Duff composition operations
// used for mixing a graphic element with its backdrop.
// The image/draw package implements only source and source-over-destination,
// this package covers the remaining operators for single pixels.
//
// It is used to paint the removed seams on the overlay image, where
// a translucent seam color lets the original pixels show through.
package imop

import (
	"fmt"
	"image/color"
	"math"
)

// Op is a Porter-Duff composition operator.
type Op string

const (
	Copy    Op = "copy"
	SrcOver Op = "src_over"
	DstOver Op = "dst_over"
	SrcIn   Op = "src_in"
	DstIn   Op = "dst_in"
	SrcOut  Op = "src_out"
	DstOut  Op = "dst_out"
	SrcAtop Op = "src_atop"
	DstAtop Op = "dst_atop"
	Xor     Op = "xor"
)

// ParseOp returns the operator with the given name.
func ParseOp(name string) (Op, error) {
	op := Op(name)
	if _, _, ok := op.factors(1, 1); !ok {
		return "", fmt.Errorf("unknown composite operation %q", name)
	}
	return op, nil
}

// factors returns the fraction of the source and of the backdrop
// contributing to the result, given their alpha values.
func (op Op) factors(as, ab float64) (fa, fb float64, ok bool) {
	switch op {
	case Copy:
		return 1, 0, true
	case SrcOver:
		return 1, 1 - as, true
	case DstOver:
		return 1 - ab, 1, true
	case SrcIn:
		return ab, 0, true
	case DstIn:
		return 0, as, true
	case SrcOut:
		return 1 - ab, 0, true
	case DstOut:
		return 0, 1 - as, true
	case SrcAtop:
		return ab, 1 - as, true
	case DstAtop:
		return 1 - ab, as, true
	case Xor:
		return 1 - ab, 1 - as, true
	}
	return 0, 0, false
}

// Compose mixes the src color onto the dst backdrop.
// Unknown operators leave the backdrop untouched.
func Compose(op Op, src, dst color.NRGBA) color.NRGBA {
	as, ab := float64(src.A)/255, float64(dst.A)/255
	fa, fb, ok := op.factors(as, ab)
	if !ok {
		return dst
	}

	ao := as*fa + ab*fb
	if ao == 0 {
		return color.NRGBA{}
	}
	channel := func(cs, cb uint8) uint8 {
		// Premultiplied sum, brought back to straight alpha.
		c := (float64(cs)*as*fa + float64(cb)*ab*fb) / ao
		return uint8(math.Round(math.Min(c, 255)))
	}
	return color.NRGBA{
		R: channel(src.R, dst.R),
		G: channel(src.G, dst.G),
		B: channel(src.B, dst.B),
		A: uint8(math.Round(ao * 255)),
	}
}
