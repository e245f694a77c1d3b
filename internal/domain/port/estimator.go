package port

import (
	"context"
	"image"

	"vector-area/internal/domain/entity"
)

// AreaEstimator интерфейс подсчёта чёрной площади
type AreaEstimator interface {
	// Estimate классифицирует пиксели растра и возвращает площадь и превью
	Estimate(ctx context.Context, img image.Image) (*entity.Measurement, error)
}
