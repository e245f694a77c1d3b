package vision

import (
	"context"
	"image"
	"image/color"

	"github.com/pkg/errors"

	"vector-area/internal/domain/entity"
	"vector-area/internal/domain/port"
)

// DefaultBlackThreshold максимальная сумма R+G+B, при которой пиксель считается чёрным
const DefaultBlackThreshold = 50

// EstimatorConfig параметры оценки площади
type EstimatorConfig struct {
	Resolution     entity.Resolution // то же разрешение, с которым запускался конвертер
	Threshold      int
	PreviewQuality int
	PreviewMaxSide int
}

func (c EstimatorConfig) validate() error {
	if err := c.Resolution.Validate(); err != nil {
		return err
	}
	if c.Threshold < 0 || c.Threshold > 3*255 {
		return errors.Errorf("threshold must be in [0, 765], got %d", c.Threshold)
	}
	return nil
}

// Estimator считает чёрные пиксели на чистом Go
type Estimator struct {
	cfg EstimatorConfig
}

// NewEstimator создаёт оценщик площади
func NewEstimator(cfg EstimatorConfig) (*Estimator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Estimator{cfg: cfg}, nil
}

// Estimate считает площадь чёрного и кодирует превью
func (e *Estimator) Estimate(ctx context.Context, img image.Image) (*entity.Measurement, error) {
	black, err := CountBlack(ctx, img, e.cfg.Threshold)
	if err != nil {
		return nil, err
	}
	return buildMeasurement(img, black, e.cfg)
}

// IsBlack порог включительный: сумма 50 - чёрный, 51 - нет
func IsBlack(r, g, b uint8, threshold int) bool {
	return int(r)+int(g)+int(b) <= threshold
}

// CountBlack обходит каждый пиксель ровно один раз.
// Альфа-канал отбрасывается: цвет берётся без премультипликации, как при переводе RGBA в RGB.
func CountBlack(ctx context.Context, img image.Image, threshold int) (int64, error) {
	b := img.Bounds()
	if b.Empty() {
		return 0, nil
	}

	var count int64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return 0, entity.NewError(entity.KindInternal, "measurement cancelled", err)
		}
		count += countRow(img, y, b.Min.X, b.Max.X, threshold)
	}
	return count, nil
}

func countRow(img image.Image, y, x0, x1, threshold int) int64 {
	var n int64
	switch src := img.(type) {
	case *image.NRGBA:
		row := src.Pix[src.PixOffset(x0, y):src.PixOffset(x1, y)]
		for i := 0; i < len(row); i += 4 {
			if IsBlack(row[i], row[i+1], row[i+2], threshold) {
				n++
			}
		}
	case *image.RGBA:
		row := src.Pix[src.PixOffset(x0, y):src.PixOffset(x1, y)]
		for i := 0; i < len(row); i += 4 {
			r, g, bl, a := row[i], row[i+1], row[i+2], row[i+3]
			if a != 0xff {
				c := color.NRGBAModel.Convert(color.RGBA{R: r, G: g, B: bl, A: a}).(color.NRGBA)
				r, g, bl = c.R, c.G, c.B
			}
			if IsBlack(r, g, bl, threshold) {
				n++
			}
		}
	case *image.Gray:
		row := src.Pix[src.PixOffset(x0, y):src.PixOffset(x1, y)]
		for _, v := range row {
			if IsBlack(v, v, v, threshold) {
				n++
			}
		}
	default:
		for x := x0; x < x1; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if IsBlack(c.R, c.G, c.B, threshold) {
				n++
			}
		}
	}
	return n
}

func buildMeasurement(img image.Image, black int64, cfg EstimatorConfig) (*entity.Measurement, error) {
	preview, err := EncodePreview(img, cfg.PreviewQuality, cfg.PreviewMaxSide)
	if err != nil {
		return nil, entity.NewError(entity.KindInternal, "failed to encode preview", err)
	}

	b := img.Bounds()
	return &entity.Measurement{
		AreaCM2:     cfg.Resolution.AreaCM2(black),
		BlackPixels: black,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Resolution:  cfg.Resolution,
		Preview:     preview,
		PreviewMIME: PreviewMIME,
	}, nil
}

// Проверка реализации интерфейса
var _ port.AreaEstimator = (*Estimator)(nil)
