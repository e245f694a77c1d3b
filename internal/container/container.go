package container

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"vector-area/config"
	app "vector-area/internal/application"
	"vector-area/internal/domain/entity"
	"vector-area/internal/domain/port"
	"vector-area/internal/infrastructure/magick"
	"vector-area/internal/infrastructure/metrics"
	"vector-area/internal/infrastructure/raster"
	"vector-area/internal/infrastructure/storage"
	"vector-area/internal/infrastructure/vision"
)

type Container struct {
	UserService        *app.UserService
	MeasurementService *app.MeasurementService
	Rasterizer         *magick.Rasterizer
	Workspace          *storage.Workspace
	Metrics            *metrics.Metrics
}

// New собирает сервисы из настроек. Разрешение одно и то же для конвертера и оценщика.
func New(cfg *config.Config, userRepo port.UserRepository, logger logrus.FieldLogger) (*Container, error) {
	resolution := entity.Resolution(cfg.Raster.DPI)

	workspace, err := storage.NewWorkspace(cfg.Workspace.Dir)
	if err != nil {
		return nil, err
	}

	rasterizer := magick.NewRasterizer(magick.Config{
		Command: cfg.Raster.Command,
		Args:    cfg.Raster.Args,
		Timeout: cfg.Raster.Timeout,
		Limits:  raster.Limits{MaxPixels: cfg.Limits.MaxPixels},
	}, logger)

	estimator, err := newEstimator(cfg, resolution)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	userService := app.NewUserService(userRepo)
	measurementService := app.NewMeasurementService(app.MeasurementConfig{
		Resolution:    resolution,
		Quality:       cfg.Raster.Quality,
		Background:    cfg.Raster.Background,
		MaxConcurrent: cfg.Limits.MaxConcurrent,
	}, workspace, rasterizer, estimator, m, logger)

	return &Container{
		UserService:        userService,
		MeasurementService: measurementService,
		Rasterizer:         rasterizer,
		Workspace:          workspace,
		Metrics:            m,
	}, nil
}

func newEstimator(cfg *config.Config, resolution entity.Resolution) (port.AreaEstimator, error) {
	estimatorCfg := vision.EstimatorConfig{
		Resolution:     resolution,
		Threshold:      cfg.Measure.BlackThreshold,
		PreviewQuality: cfg.Measure.PreviewQuality,
		PreviewMaxSide: cfg.Measure.PreviewMaxSide,
	}

	if cfg.Measure.Backend == config.BackendGoCV {
		if !vision.GoCVEnabled {
			return nil, errors.New("measure.backend is gocv but the binary was built without the gocv tag")
		}
		return vision.NewGoCVEstimator(estimatorCfg)
	}
	return vision.NewEstimator(estimatorCfg)
}
