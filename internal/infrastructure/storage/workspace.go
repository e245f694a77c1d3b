package storage

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"vector-area/internal/domain/entity"
	"vector-area/internal/domain/port"
)

const rasterName = "raster.png"

// Workspace раздаёт каждому запросу собственный каталог с uuid-именем.
// Имя загруженного файла в путях не участвует.
type Workspace struct {
	root string
}

// NewWorkspace создаёт корневой каталог для временных файлов
func NewWorkspace(root string) (*Workspace, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create workspace %s", root)
	}
	return &Workspace{root: root}, nil
}

// Root возвращает корневой каталог
func (w *Workspace) Root() string {
	return w.root
}

// Acquire создаёт каталог запроса
func (w *Workspace) Acquire(doc *entity.SourceDocument) (port.Scratch, error) {
	dir := filepath.Join(w.root, uuid.NewString())
	// Mkdir, а не MkdirAll: существующий каталог означает коллизию и должен дать ошибку
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, entity.NewError(entity.KindInternal, "failed to allocate workspace", err)
	}

	return &Scratch{
		dir:    dir,
		input:  filepath.Join(dir, "source"+doc.Format.Ext()),
		output: filepath.Join(dir, rasterName),
	}, nil
}

// Sweep удаляет каталоги, оставшиеся от упавшего процесса
func (w *Workspace) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return 0, errors.Wrapf(err, "read workspace %s", w.root)
	}

	now := time.Now()
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= olderThan {
			continue
		}
		if err := os.RemoveAll(filepath.Join(w.root, entry.Name())); err != nil {
			return removed, errors.Wrapf(err, "remove %s", entry.Name())
		}
		removed++
	}

	return removed, nil
}

// Scratch временные файлы одного запроса
type Scratch struct {
	dir    string
	input  string
	output string
}

func (s *Scratch) Dir() string        { return s.dir }
func (s *Scratch) InputPath() string  { return s.input }
func (s *Scratch) OutputPath() string { return s.output }

// Release удаляет каталог запроса целиком
func (s *Scratch) Release() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return errors.Wrapf(err, "remove scratch %s", s.dir)
	}
	return nil
}

// Проверка реализации интерфейса
var (
	_ port.Workspace = (*Workspace)(nil)
	_ port.Scratch   = (*Scratch)(nil)
)
