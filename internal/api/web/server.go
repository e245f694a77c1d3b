package web

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"vector-area/internal/domain/entity"
)

// Measurer то, что нужно HTTP-слою от сервиса измерения
type Measurer interface {
	Measure(ctx context.Context, filename string, data []byte) (*entity.Measurement, error)
}

// HealthChecker проверка доступности конвертера
type HealthChecker interface {
	Available() error
}

// Server HTTP-вход: форма загрузки и JSON API
type Server struct {
	measurer  Measurer
	health    HealthChecker
	metrics   http.Handler
	logger    logrus.FieldLogger
	maxUpload int64
}

// NewServer создаёт HTTP-обработчики; metrics может быть nil
func NewServer(measurer Measurer, health HealthChecker, metrics http.Handler, maxUpload int64, logger logrus.FieldLogger) *Server {
	return &Server{
		measurer:  measurer,
		health:    health,
		metrics:   metrics,
		logger:    logger.WithField("component", "web"),
		maxUpload: maxUpload,
	}
}

// Register вешает маршруты на engine
func (s *Server) Register(engine *gin.Engine) {
	engine.GET("/", s.handleIndex)
	engine.POST("/calculate_area", s.handleCalculateArea)
	engine.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		engine.GET("/metrics", gin.WrapH(s.metrics))
	}
}

// Router создаёт gin.Engine со всеми маршрутами
func (s *Server) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	s.Register(engine)
	return engine
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

// handleCalculateArea принимает multipart-поле file
func (s *Server) handleCalculateArea(c *gin.Context) {
	if s.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(c, entity.NewError(entity.KindInvalidInput, "file is too large", err))
			return
		}
		s.respondError(c, entity.NewError(entity.KindInvalidInput, "no file uploaded", err))
		return
	}
	if header.Filename == "" {
		s.respondError(c, entity.NewError(entity.KindInvalidInput, "no file selected", nil))
		return
	}

	file, err := header.Open()
	if err != nil {
		s.respondError(c, entity.NewError(entity.KindInternal, "failed to read upload", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(c, entity.NewError(entity.KindInternal, "failed to read upload", err))
		return
	}

	m, err := s.measurer.Measure(c.Request.Context(), header.Filename, data)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AreaResponse{
		Area:        m.AreaCM2,
		ImageBase64: m.PreviewBase64(),
		BlackPixels: m.BlackPixels,
		Width:       m.Width,
		Height:      m.Height,
		DPI:         float64(m.Resolution),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.health.Available(); err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Converter: err.Error()})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) respondError(c *gin.Context, err error) {
	e := entity.AsError(err)
	c.JSON(StatusFor(e.Kind), ErrorResponse{Error: e.Error(), Kind: string(e.Kind)})
}

// StatusFor переводит класс ошибки в HTTP-код
func StatusFor(kind entity.ErrorKind) int {
	switch kind {
	case entity.KindInvalidInput:
		return http.StatusBadRequest
	case entity.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		}).Debug("request")
	}
}
