package port

import "vector-area/internal/domain/entity"

// Scratch временные пути одного запроса
type Scratch interface {
	InputPath() string
	OutputPath() string
	// Release удаляет все временные файлы запроса; повторный вызов безопасен
	Release() error
}

// Workspace выдаёт уникальные временные каталоги под запросы
type Workspace interface {
	Acquire(doc *entity.SourceDocument) (Scratch, error)
}
