package app

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"vector-area/internal/domain/entity"
	"vector-area/internal/domain/port"
	"vector-area/internal/infrastructure/metrics"
)

// MeasurementConfig параметры растеризации, общие для всех запросов
type MeasurementConfig struct {
	Resolution    entity.Resolution // то же значение, что у оценщика площади
	Quality       int
	Background    string
	MaxConcurrent int64 // 0 - без ограничения
}

// MeasurementService проводит документ через конвейер: проверка, растеризация, подсчёт
type MeasurementService struct {
	cfg        MeasurementConfig
	workspace  port.Workspace
	rasterizer port.Rasterizer
	estimator  port.AreaEstimator
	metrics    *metrics.Metrics
	logger     logrus.FieldLogger
	slots      *semaphore.Weighted
}

// NewMeasurementService создаёт сервис измерения площади
func NewMeasurementService(
	cfg MeasurementConfig,
	workspace port.Workspace,
	rasterizer port.Rasterizer,
	estimator port.AreaEstimator,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
) *MeasurementService {
	s := &MeasurementService{
		cfg:        cfg,
		workspace:  workspace,
		rasterizer: rasterizer,
		estimator:  estimator,
		metrics:    m,
		logger:     logger.WithField("component", "measurement"),
	}
	if cfg.MaxConcurrent > 0 {
		s.slots = semaphore.NewWeighted(cfg.MaxConcurrent)
	}
	return s
}

// Measure измеряет чёрную площадь документа. При ошибке результат всегда nil,
// а временные файлы запроса удалены на любом пути выхода.
func (s *MeasurementService) Measure(ctx context.Context, filename string, data []byte) (m *entity.Measurement, err error) {
	started := time.Now()
	log := s.logger.WithFields(logrus.Fields{
		"filename": filename,
		"size":     len(data),
	})

	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = entity.NewError(entity.KindInternal, "internal error", errors.Errorf("panic: %v", r))
		}
		s.finish(log, m, err, started)
	}()

	doc, err := entity.NewSourceDocument(filename, data)
	if err != nil {
		return nil, err
	}

	if s.slots != nil {
		if err := s.slots.Acquire(ctx, 1); err != nil {
			return nil, entity.NewError(entity.KindInternal, "request cancelled", err)
		}
		defer s.slots.Release(1)
	}

	scratch, err := s.workspace.Acquire(doc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := scratch.Release(); err != nil {
			log.WithError(err).Error("failed to remove transient files")
		}
	}()

	img, err := s.rasterize(ctx, doc, scratch)
	if err != nil {
		return nil, err
	}

	stage := time.Now()
	measurement, err := s.estimator.Estimate(ctx, img)
	s.metrics.ObserveStage("estimate", time.Since(stage))
	if err != nil {
		return nil, errors.Wrap(err, "estimate")
	}

	return measurement, nil
}

func (s *MeasurementService) rasterize(ctx context.Context, doc *entity.SourceDocument, scratch port.Scratch) (image.Image, error) {
	stage := time.Now()
	defer func() { s.metrics.ObserveStage("rasterize", time.Since(stage)) }()

	img, err := s.rasterizer.Rasterize(ctx, entity.RasterJob{
		Document:   doc,
		Resolution: s.cfg.Resolution,
		Quality:    s.cfg.Quality,
		Background: s.cfg.Background,
		InputPath:  scratch.InputPath(),
		OutputPath: scratch.OutputPath(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "rasterize")
	}
	return img, nil
}

func (s *MeasurementService) finish(log logrus.FieldLogger, m *entity.Measurement, err error, started time.Time) {
	log = log.WithField("duration_ms", time.Since(started).Milliseconds())

	if err == nil {
		s.metrics.ObserveOutcome("ok")
		s.metrics.ObserveArea(m.AreaCM2)
		log.WithFields(logrus.Fields{
			"area_cm2":     m.AreaCM2,
			"black_pixels": m.BlackPixels,
			"width":        m.Width,
			"height":       m.Height,
		}).Info("measured")
		return
	}

	kind := entity.KindOf(err)
	s.metrics.ObserveOutcome(string(kind))
	log = log.WithField("kind", kind)
	if kind == entity.KindInvalidInput {
		log.WithError(err).Warn("rejected")
		return
	}
	// полная причина со стеком остаётся только в логах сервера
	log.Errorf("measurement failed: %+v", err)
}
