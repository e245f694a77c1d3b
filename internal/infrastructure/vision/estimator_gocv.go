//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"

	"gocv.io/x/gocv"

	"vector-area/internal/domain/entity"
	"vector-area/internal/domain/port"
)

// GoCVEnabled сборка с OpenCV
const GoCVEnabled = true

// GoCVEstimator считает чёрные пиксели средствами OpenCV.
// Ожидает уже сплющенный на белый фон растр: альфа-канал OpenCV не учитывает.
type GoCVEstimator struct {
	cfg EstimatorConfig
}

// NewGoCVEstimator создаёт оценщик на OpenCV
func NewGoCVEstimator(cfg EstimatorConfig) (*GoCVEstimator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &GoCVEstimator{cfg: cfg}, nil
}

// Estimate считает площадь чёрного и кодирует превью
func (e *GoCVEstimator) Estimate(ctx context.Context, img image.Image) (*entity.Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, entity.NewError(entity.KindInternal, "measurement cancelled", err)
	}

	black, err := e.countBlack(img)
	if err != nil {
		return nil, err
	}
	return buildMeasurement(img, black, e.cfg)
}

func (e *GoCVEstimator) countBlack(img image.Image) (int64, error) {
	if img.Bounds().Empty() {
		return 0, nil
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return 0, entity.NewError(entity.KindInternal, "failed to convert raster", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return 0, nil
	}

	channels := gocv.Split(mat)
	for i := range channels {
		defer channels[i].Close()
	}
	if len(channels) < 3 {
		return 0, entity.NewError(entity.KindInternal, "raster has fewer than three channels", nil)
	}

	// Сумма каналов не помещается в 8 бит, считаем во float32.
	sum := gocv.NewMat()
	defer sum.Close()
	channels[0].ConvertTo(&sum, gocv.MatTypeCV32F)

	tmp := gocv.NewMat()
	defer tmp.Close()
	for _, ch := range channels[1:3] {
		ch.ConvertTo(&tmp, gocv.MatTypeCV32F)
		gocv.Add(sum, tmp, &sum)
	}

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(sum,
		gocv.NewScalar(0, 0, 0, 0),
		gocv.NewScalar(float64(e.cfg.Threshold), 0, 0, 0),
		&mask)

	return int64(gocv.CountNonZero(mask)), nil
}

// Проверка реализации интерфейса
var _ port.AreaEstimator = (*GoCVEstimator)(nil)
