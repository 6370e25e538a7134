package classifier

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Preprocess decodes an image and lays it out as a 1x3x224x224 RGB tensor
// scaled to [0,1], channel-major, the layout the model was trained with.
func Preprocess(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return toTensor(resize(src)), nil
}

func resize(src image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func toTensor(img *image.RGBA) []float32 {
	const plane = InputSize * InputSize
	out := make([]float32, channels*plane)
	for y := 0; y < InputSize; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < InputSize; x++ {
			px := row[x*4:]
			i := y*InputSize + x
			out[i] = float32(px[0]) / 255
			out[plane+i] = float32(px[1]) / 255
			out[2*plane+i] = float32(px[2]) / 255
		}
	}
	return out
}
