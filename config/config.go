package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config настройки процесса. Создаётся один раз при старте и дальше только читается.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Raster    RasterConfig    `yaml:"raster"`
	Measure   MeasureConfig   `yaml:"measure"`
	Limits    LimitsConfig    `yaml:"limits"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
}

// RasterConfig параметры запуска ImageMagick
type RasterConfig struct {
	Command    string        `yaml:"command"`    // convert или magick
	Args       []string      `yaml:"args"`       // аргументы перед входным файлом, например ["convert"] для magick
	DPI        float64       `yaml:"dpi"`        // одно значение и для -density, и для пересчёта площади
	Quality    int           `yaml:"quality"`    // -quality
	Background string        `yaml:"background"` // -background
	Timeout    time.Duration `yaml:"timeout"`    // 0 - без ограничения
}

// MeasureConfig параметры оценки площади
type MeasureConfig struct {
	Backend        string `yaml:"backend"`          // native или gocv
	BlackThreshold int    `yaml:"black_threshold"`  // пиксель чёрный, если R+G+B <= порога
	PreviewQuality int    `yaml:"preview_quality"`  // качество JPEG превью
	PreviewMaxSide int    `yaml:"preview_max_side"` // 0 - превью в исходном размере
}

type LimitsConfig struct {
	MaxPixels     int64 `yaml:"max_pixels"`
	MaxConcurrent int64 `yaml:"max_concurrent"`
}

type WorkspaceConfig struct {
	Dir      string        `yaml:"dir"`
	StaleAge time.Duration `yaml:"stale_age"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json или text
}

const (
	BackendNative = "native"
	BackendGoCV   = "gocv"
)

// Default возвращает настройки по умолчанию
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 50 << 20,
		},
		Raster: RasterConfig{
			Command:    "convert",
			DPI:        254,
			Quality:    90,
			Background: "white",
		},
		Measure: MeasureConfig{
			Backend:        BackendNative,
			BlackThreshold: 50,
			PreviewQuality: 90,
		},
		Limits: LimitsConfig{
			MaxPixels:     100_000_000,
			MaxConcurrent: 4,
		},
		Workspace: WorkspaceConfig{
			Dir:      filepath.Join(os.TempDir(), "vector-area"),
			StaleAge: time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load читает config.yaml (путь из CONFIG_PATH) и переменные окружения
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile читает YAML поверх значений по умолчанию; отсутствие файла не ошибка
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if fields := strings.Fields(os.Getenv("MAGICK_COMMAND")); len(fields) > 0 {
		c.Raster.Command = fields[0]
		c.Raster.Args = fields[1:]
	}
	if v := os.Getenv("RASTER_DPI"); v != "" {
		dpi, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(err, "RASTER_DPI")
		}
		c.Raster.DPI = dpi
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("WORKSPACE_DIR"); v != "" {
		c.Workspace.Dir = v
	}
	return nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if c.Raster.DPI <= 0 {
		return errors.Errorf("raster.dpi must be positive, got %v", c.Raster.DPI)
	}
	if c.Raster.Command == "" {
		return errors.New("raster.command is required")
	}
	if c.Raster.Quality < 1 || c.Raster.Quality > 100 {
		return errors.Errorf("raster.quality must be in [1, 100], got %d", c.Raster.Quality)
	}
	if c.Raster.Timeout < 0 {
		return errors.New("raster.timeout must not be negative")
	}
	if c.Measure.BlackThreshold < 0 || c.Measure.BlackThreshold > 3*255 {
		return errors.Errorf("measure.black_threshold must be in [0, 765], got %d", c.Measure.BlackThreshold)
	}
	if c.Measure.PreviewQuality < 1 || c.Measure.PreviewQuality > 100 {
		return errors.Errorf("measure.preview_quality must be in [1, 100], got %d", c.Measure.PreviewQuality)
	}
	switch c.Measure.Backend {
	case BackendNative, BackendGoCV:
	default:
		return errors.Errorf("measure.backend must be %q or %q, got %q", BackendNative, BackendGoCV, c.Measure.Backend)
	}
	if c.Workspace.Dir == "" {
		return errors.New("workspace.dir is required")
	}
	return nil
}

// TelegramEnabled сообщает, нужно ли запускать бота
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != ""
}
