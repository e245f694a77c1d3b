package raster

import (
	"bytes"
	"image"
	"os"

	_ "image/jpeg" // JPEG-вывод конвертера
	_ "image/png"  // PNG-вывод конвертера (по умолчанию)

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // BMP-вывод конвертера
	_ "golang.org/x/image/tiff" // TIFF-вывод конвертера

	"vector-area/internal/domain/entity"
)

// Limits ограничения на размер растра; нулевые значения отключают проверку
type Limits struct {
	MaxPixels int64
}

// Check проверяет размеры растра
func (l Limits) Check(width, height int) error {
	if l.MaxPixels > 0 && int64(width)*int64(height) > l.MaxPixels {
		return entity.NewError(entity.KindInvalidInput,
			"rasterized image is too large",
			errors.Errorf("%dx%d exceeds %d pixels", width, height, l.MaxPixels))
	}
	return nil
}

// Load открывает растр, созданный конвертером
func Load(path string, limits Limits) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, entity.NewError(entity.KindInternal, "converter produced no raster", err)
	}
	return Decode(data, limits)
}

// Decode сначала читает только заголовок, чтобы не выделять память под слишком большой растр
func Decode(data []byte, limits Limits) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, entity.NewError(entity.KindInternal, "failed to decode raster", err)
	}
	if err := limits.Check(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, entity.NewError(entity.KindInternal, "failed to decode raster", err)
	}
	return img, nil
}
