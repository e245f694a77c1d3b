package vision

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// PreviewMIME тип превью
const PreviewMIME = "image/jpeg"

// EncodePreview перекодирует растр в JPEG, при необходимости уменьшая его.
// На площадь превью не влияет: пиксели считаются до кодирования.
func EncodePreview(img image.Image, quality, maxSide int) ([]byte, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}

	if maxSide > 0 && maxInt(b.Dx(), b.Dy()) > maxSide {
		img = downscale(img, maxSide)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	scale := float64(maxSide) / float64(maxInt(b.Dx(), b.Dy()))
	w := maxInt(1, int(float64(b.Dx())*scale))
	h := maxInt(1, int(float64(b.Dy())*scale))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
