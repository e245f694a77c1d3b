package entity

import (
	"path/filepath"
	"strings"
)

// Format формат исходного векторного документа
type Format string

const (
	FormatAI  Format = "ai"  // Adobe Illustrator
	FormatEPS Format = "eps" // Encapsulated PostScript
)

// Ext возвращает расширение файла с точкой
func (f Format) Ext() string {
	return "." + string(f)
}

// Supported сообщает, принимается ли формат на вход
func (f Format) Supported() bool {
	return f == FormatAI || f == FormatEPS
}

// ParseFormat определяет формат по имени файла (без учёта регистра)
func ParseFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case FormatAI.Ext():
		return FormatAI, nil
	case FormatEPS.Ext():
		return FormatEPS, nil
	}
	return "", NewError(KindInvalidInput, "only .ai and .eps files are accepted", nil)
}

// SourceDocument исходный документ, полученный от клиента
type SourceDocument struct {
	Filename string // имя файла в том виде, в каком его прислал клиент
	Format   Format
	Data     []byte
}

// NewSourceDocument проверяет входные данные и создаёт документ.
// Используется только для валидации и логов: имя файла никогда не попадает в пути на диске.
func NewSourceDocument(filename string, data []byte) (*SourceDocument, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, NewError(KindInvalidInput, "no file selected", nil)
	}

	format, err := ParseFormat(filename)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, NewError(KindInvalidInput, "uploaded file is empty", nil)
	}

	return &SourceDocument{
		Filename: filename,
		Format:   format,
		Data:     data,
	}, nil
}
