package implementation

import (
	"context"

	"knowledge-workspace/internal/entity"
	"knowledge-workspace/internal/mapper"
	"knowledge-workspace/internal/model"
	"knowledge-workspace/internal/repository/contract"
	"knowledge-workspace/internal/repository/scope"
	"knowledge-workspace/internal/repository/specification"

	"gorm.io/gorm"
)

type ImportBatchRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ImportBatchMapper
}

func NewImportBatchRepository(db *gorm.DB) contract.ImportBatchRepository {
	return &ImportBatchRepositoryImpl{
		db:     db,
		mapper: mapper.NewImportBatchMapper(),
	}
}

func (r *ImportBatchRepositoryImpl) Create(ctx context.Context, batch *entity.ImportBatch) error {
	m, err := r.mapper.ToModel(batch)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*batch = *r.mapper.ToEntity(m)
	return nil
}

func (r *ImportBatchRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ImportBatch, error) {
	var models []*model.ImportBatch
	query := applySpecifications(r.db.WithContext(ctx).Scopes(scope.NewestFirst), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
