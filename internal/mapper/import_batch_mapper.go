package mapper

import (
	"encoding/json"

	"knowledge-workspace/internal/entity"
	"knowledge-workspace/internal/model"

	"gorm.io/datatypes"
)

type ImportBatchMapper struct{}

func NewImportBatchMapper() *ImportBatchMapper {
	return &ImportBatchMapper{}
}

func (m *ImportBatchMapper) ToEntity(b *model.ImportBatch) *entity.ImportBatch {
	if b == nil {
		return nil
	}

	failures := []entity.ImportFailure{}
	if len(b.Failures) > 0 {
		// A malformed column leaves the list empty rather than failing the read.
		_ = json.Unmarshal(b.Failures, &failures)
	}

	return &entity.ImportBatch{
		Id:        b.Id,
		UserId:    b.UserId,
		Format:    b.Format,
		Total:     b.Total,
		Imported:  b.Imported,
		Failures:  failures,
		CreatedAt: b.CreatedAt,
	}
}

func (m *ImportBatchMapper) ToModel(b *entity.ImportBatch) (*model.ImportBatch, error) {
	if b == nil {
		return nil, nil
	}

	failures := b.Failures
	if failures == nil {
		failures = []entity.ImportFailure{}
	}
	raw, err := json.Marshal(failures)
	if err != nil {
		return nil, err
	}

	return &model.ImportBatch{
		Id:        b.Id,
		UserId:    b.UserId,
		Format:    b.Format,
		Total:     b.Total,
		Imported:  b.Imported,
		Failures:  datatypes.JSON(raw),
		CreatedAt: b.CreatedAt,
	}, nil
}

func (m *ImportBatchMapper) ToEntities(batches []*model.ImportBatch) []*entity.ImportBatch {
	entities := make([]*entity.ImportBatch, len(batches))
	for i, b := range batches {
		entities[i] = m.ToEntity(b)
	}
	return entities
}
