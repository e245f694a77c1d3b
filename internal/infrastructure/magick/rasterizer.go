package magick

import (
	"bytes"
	"context"
	"image"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"vector-area/internal/domain/entity"
	"vector-area/internal/domain/port"
	"vector-area/internal/infrastructure/raster"
)

// waitDelay сколько ждать закрытия stderr после убийства конвертера (gs может держать пайп)
const waitDelay = 5 * time.Second

// Config параметры запуска ImageMagick
type Config struct {
	Command string        // convert или magick
	Args    []string      // аргументы до опций, например ["convert"]
	Timeout time.Duration // 0 - ждать сколько угодно
	Limits  raster.Limits
}

// Rasterizer растеризует AI/EPS через ImageMagick
type Rasterizer struct {
	cfg    Config
	logger logrus.FieldLogger
}

// NewRasterizer создаёт адаптер конвертера
func NewRasterizer(cfg Config, logger logrus.FieldLogger) *Rasterizer {
	return &Rasterizer{cfg: cfg, logger: logger.WithField("component", "magick")}
}

// Available проверяет, что исполняемый файл конвертера находится
func (r *Rasterizer) Available() error {
	if _, err := exec.LookPath(r.cfg.Command); err != nil {
		return entity.NewError(entity.KindUnavailable, "image converter is not installed", err)
	}
	return nil
}

// BuildArgs собирает командную строку.
// -density стоит перед входным файлом: иначе векторный документ читается с разрешением по умолчанию.
func (r *Rasterizer) BuildArgs(job entity.RasterJob) []string {
	args := make([]string, 0, len(r.cfg.Args)+9)
	args = append(args, r.cfg.Args...)
	return append(args,
		"-density", strconv.FormatFloat(float64(job.Resolution), 'f', -1, 64),
		job.InputPath,
		"-quality", strconv.Itoa(job.Quality),
		"-background", job.Background,
		"-flatten",
		job.OutputPath,
	)
}

// Rasterize записывает документ, запускает конвертер и декодирует результат
func (r *Rasterizer) Rasterize(ctx context.Context, job entity.RasterJob) (image.Image, error) {
	if job.Document == nil || !job.Document.Format.Supported() {
		return nil, entity.NewError(entity.KindInvalidInput, "only .ai and .eps files are accepted", nil)
	}
	if err := job.Resolution.Validate(); err != nil {
		return nil, entity.NewError(entity.KindInternal, "invalid rasterizer settings", err)
	}

	if err := os.WriteFile(job.InputPath, job.Document.Data, 0o600); err != nil {
		return nil, entity.NewError(entity.KindInternal, "failed to store uploaded file", err)
	}

	runCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	args := r.BuildArgs(job)
	cmd := exec.CommandContext(runCtx, r.cfg.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	started := time.Now()
	err := cmd.Run()
	log := r.logger.WithFields(logrus.Fields{
		"format":      job.Document.Format,
		"dpi":         float64(job.Resolution),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	if err != nil {
		classified := r.classify(runCtx, err, stderr.String())
		log.WithError(err).WithField("kind", classified.Kind).Warn("converter failed")
		return nil, classified
	}
	log.Debug("converter finished")

	return raster.Load(job.OutputPath, r.cfg.Limits)
}

func (r *Rasterizer) classify(ctx context.Context, err error, stderr string) *entity.Error {
	stderr = strings.TrimSpace(stderr)

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return entity.NewError(entity.KindUnavailable, "image converter is not installed", err)
	}

	switch ctx.Err() {
	case context.DeadlineExceeded:
		return entity.NewError(entity.KindConversionFailed, "conversion timed out",
			errors.Errorf("converter did not finish within %s", r.cfg.Timeout))
	case context.Canceled:
		return entity.NewError(entity.KindInternal, "conversion cancelled", ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if stderr == "" {
			return entity.NewError(entity.KindConversionFailed, "conversion failed", exitErr)
		}
		return entity.NewError(entity.KindConversionFailed, "conversion failed", errors.New(stderr))
	}

	return entity.NewError(entity.KindInternal, "failed to run converter", err)
}

// Проверка реализации интерфейса
var _ port.Rasterizer = (*Rasterizer)(nil)
