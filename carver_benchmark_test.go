package seamcarve

import (
	"image"
	"testing"
)

func Benchmark_Carver(b *testing.B) {
	img := gradientImage(320, 240)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if img.Bounds().Dx() < 2 {
			b.StopTimer()
			img = gradientImage(320, 240)
			b.StartTimer()
		}
		energy := ComputeEnergy(img)
		_, seam := FindMinimumSeam(energy)
		res, _ := RemoveSeam(img, seam, DefaultSeamColor)
		img = res.(*image.NRGBA)
	}
}

func Benchmark_Energy(b *testing.B) {
	img := gradientImage(320, 240)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		ComputeEnergy(img)
	}
}

func Benchmark_Retarget(b *testing.B) {
	src := gradientImage(160, 120)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		e, err := NewEngine(src)
		if err != nil {
			b.Fatal(err)
		}
		if err := e.Retarget(110, 140); err != nil {
			b.Fatal(err)
		}
	}
}
