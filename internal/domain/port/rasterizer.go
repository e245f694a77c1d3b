package port

import (
	"context"
	"image"

	"vector-area/internal/domain/entity"
)

// Rasterizer интерфейс внешнего конвертера вектор -> растр
type Rasterizer interface {
	// Rasterize растеризует документ в job.OutputPath и возвращает декодированный растр.
	// Файлы по путям из job принадлежат вызывающей стороне.
	Rasterize(ctx context.Context, job entity.RasterJob) (image.Image, error)
}
