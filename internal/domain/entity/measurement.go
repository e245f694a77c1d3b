package entity

import (
	"encoding/base64"

	"github.com/pkg/errors"
)

const cmPerInch = 2.54

// Resolution плотность растеризации в пикселях на дюйм
type Resolution float64

// Validate проверяет, что разрешение положительное
func (r Resolution) Validate() error {
	if r <= 0 {
		return errors.Errorf("resolution must be positive, got %v", float64(r))
	}
	return nil
}

// PixelsPerCM возвращает линейную плотность в пикселях на сантиметр
func (r Resolution) PixelsPerCM() float64 {
	return float64(r) / cmPerInch
}

// PixelArea площадь одного квадратного пикселя в см²
func (r Resolution) PixelArea() float64 {
	ppcm := r.PixelsPerCM()
	return 1 / (ppcm * ppcm)
}

// AreaCM2 переводит количество пикселей в площадь
func (r Resolution) AreaCM2(pixels int64) float64 {
	if pixels <= 0 {
		return 0
	}
	ppcm := r.PixelsPerCM()
	return float64(pixels) / (ppcm * ppcm)
}

// RasterJob параметры одного запуска конвертера
type RasterJob struct {
	Document   *SourceDocument
	Resolution Resolution
	Quality    int
	Background string
	InputPath  string // куда записать исходный документ
	OutputPath string // куда конвертер должен положить растр
}

// Measurement результат измерения чёрной площади
type Measurement struct {
	AreaCM2     float64
	BlackPixels int64
	Width       int
	Height      int
	Resolution  Resolution
	Preview     []byte // перекодированный растр для показа клиенту
	PreviewMIME string
}

// PreviewBase64 возвращает превью в base64
func (m *Measurement) PreviewBase64() string {
	return base64.StdEncoding.EncodeToString(m.Preview)
}
