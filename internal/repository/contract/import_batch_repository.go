package contract

import (
	"context"

	"knowledge-workspace/internal/entity"
	"knowledge-workspace/internal/repository/specification"
)

type ImportBatchRepository interface {
	Create(ctx context.Context, batch *entity.ImportBatch) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ImportBatch, error)
}
