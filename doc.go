/*
Package seamcarve is a content aware image resize library, which shrinks the source image
horizontally and vertically by removing, one at a time, the connected paths of pixels
carrying the least visual information.

Every iteration computes an energy map of the current image (grayscale, 5x5 Gaussian blur,
Sobel gradient magnitude), finds the top to bottom seam of minimum cumulative energy with
dynamic programming and cuts it out. Rows are carved by rotating the image once, removing
column seams and rotating it back.

The package provides a command line interface as well. To check the supported flags type:

	$ seamcarve --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"

		"github.com/seamcarve/seamcarve"
	)

	func main() {
		img, err := seamcarve.Load("input.jpg")
		if err != nil {
			fmt.Printf("Error loading image: %s", err.Error())
			return
		}
		e, err := seamcarve.NewEngine(img)
		if err != nil {
			fmt.Printf("Error creating engine: %s", err.Error())
			return
		}
		b := img.Bounds()
		if err := e.Retarget(b.Dy(), b.Dx()*9/10); err != nil {
			fmt.Printf("Error rescaling image: %s", err.Error())
		}
	}

Seam insertion is not supported: requesting a larger width or height fails with ErrUnsupportedGrowth.
*/
package seamcarve
