//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"vector-area/internal/domain/entity"
)

// GoCVEnabled сборка без OpenCV
const GoCVEnabled = false

type GoCVEstimator struct {
	cfg EstimatorConfig
}

// NewGoCVEstimator создаёт оценщик-заглушку (без OpenCV).
func NewGoCVEstimator(cfg EstimatorConfig) (*GoCVEstimator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &GoCVEstimator{cfg: cfg}, nil
}

// Estimate возвращает ошибку, если сборка без тега gocv.
func (e *GoCVEstimator) Estimate(ctx context.Context, img image.Image) (*entity.Measurement, error) {
	_ = ctx
	_ = img
	return nil, errors.New("gocv build tag is not enabled")
}
