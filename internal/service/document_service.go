package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"knowledge-workspace/internal/dto"
	"knowledge-workspace/internal/entity"
	"knowledge-workspace/internal/pkg/logger"
	"knowledge-workspace/internal/pkg/serverutils"
	"knowledge-workspace/internal/repository/memory"
	"knowledge-workspace/internal/repository/specification"
	"knowledge-workspace/internal/repository/unitofwork"
	"knowledge-workspace/pkg/events"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const documentModule = "DocumentService"

type IDocumentService interface {
	List(ctx context.Context, query string) ([]*dto.DocumentResponse, error)
	Show(ctx context.Context, id int64) (*dto.DocumentResponse, error)
	Create(ctx context.Context, actor uuid.UUID, req *dto.CreateDocumentRequest) (*dto.DocumentResponse, error)
	Update(ctx context.Context, actor uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.DocumentResponse, error)
	Delete(ctx context.Context, actor uuid.UUID, id int64) error
	Import(ctx context.Context, actor uuid.UUID, req *dto.ImportDocumentsRequest) (*dto.ImportDocumentsResponse, error)
	ListImports(ctx context.Context) ([]*dto.ImportBatchResponse, error)
	Export(ctx context.Context) (*dto.ExportDocumentsResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	cache            *memory.DocumentCache
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	cache *memory.DocumentCache,
	publisherService IPublisherService,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		cache:            cache,
		publisherService: publisherService,
		logger:           log,
	}
}

func (c *documentService) List(ctx context.Context, query string) ([]*dto.DocumentResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		if docs, ok := c.cache.GetAll(); ok {
			return toDocumentResponses(docs), nil
		}
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx, specification.DocumentFilter{Query: query})
	if err != nil {
		return nil, err
	}

	if query == "" {
		c.cache.SaveAll(docs)
	}
	return toDocumentResponses(docs), nil
}

func (c *documentService) Show(ctx context.Context, id int64) (*dto.DocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return toDocumentResponse(doc), nil
}

func (c *documentService) Create(ctx context.Context, actor uuid.UUID, req *dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	doc := &entity.Document{
		Title:     strings.TrimSpace(req.Title),
		Category:  strings.TrimSpace(req.Category),
		Summary:   req.Summary,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}

	c.publishChange(ctx, entity.DocumentCreated, actor, doc.Id)
	return toDocumentResponse(doc), nil
}

func (c *documentService) Update(ctx context.Context, actor uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.DocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	now := time.Now()
	doc.Title = strings.TrimSpace(req.Title)
	doc.Category = strings.TrimSpace(req.Category)
	doc.Summary = req.Summary
	doc.Content = req.Content
	doc.UpdatedAt = &now

	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, err
	}

	c.publishChange(ctx, entity.DocumentUpdated, actor, doc.Id)
	return toDocumentResponse(doc), nil
}

func (c *documentService) Delete(ctx context.Context, actor uuid.UUID, id int64) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}

	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}

	c.publishChange(ctx, entity.DocumentDeleted, actor, id)
	return nil
}

// Import inserts every valid row in one transaction and records the batch.
// Invalid rows are reported back with their index instead of failing the request.
func (c *documentService) Import(ctx context.Context, actor uuid.UUID, req *dto.ImportDocumentsRequest) (*dto.ImportDocumentsResponse, error) {
	if len(req.Documents) > dto.MaxImportRows {
		return nil, &DomainError{Status: 400, Message: fmt.Sprintf("at most %d documents per import", dto.MaxImportRows)}
	}

	now := time.Now()
	docs := make([]*entity.Document, 0, len(req.Documents))
	failures := []entity.ImportFailure{}

	for i, row := range req.Documents {
		doc, reason := prepareImportRow(req.Format, row, now)
		if reason != "" {
			failures = append(failures, entity.ImportFailure{Index: i, Reason: reason})
			continue
		}
		docs = append(docs, doc)
	}

	batch := &entity.ImportBatch{
		Id:        uuid.New(),
		UserId:    actor,
		Format:    req.Format,
		Total:     len(req.Documents),
		Imported:  len(docs),
		Failures:  failures,
		CreatedAt: now,
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().CreateBulk(ctx, docs); err != nil {
		return nil, err
	}
	if err := uow.ImportBatchRepository().Create(ctx, batch); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	c.logger.Info(documentModule, "Documents imported", map[string]interface{}{
		"batch_id": batch.Id.String(),
		"format":   req.Format,
		"imported": len(docs),
		"failed":   len(failures),
	})

	if len(docs) > 0 {
		ids := make([]int64, len(docs))
		for i, d := range docs {
			ids[i] = d.Id
		}
		c.publishChange(ctx, entity.DocumentImported, actor, ids...)
	}

	return &dto.ImportDocumentsResponse{
		BatchId:  batch.Id,
		Imported: len(docs),
		Failed:   toImportFailures(failures),
	}, nil
}

func prepareImportRow(format string, row dto.CreateDocumentRequest, now time.Time) (*entity.Document, string) {
	row.Title = strings.TrimSpace(row.Title)
	row.Category = strings.TrimSpace(row.Category)

	if err := serverutils.ValidateRequest(row); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, serverutils.ValidationMessage(verrs)
		}
		return nil, err.Error()
	}

	content := row.Content
	if format == dto.ImportFormatHTML && strings.TrimSpace(content) != "" {
		markdown, err := htmltomarkdown.ConvertString(content)
		if err != nil {
			return nil, fmt.Sprintf("content is not valid html: %v", err)
		}
		content = markdown
	}

	return &entity.Document{
		Title:     row.Title,
		Category:  row.Category,
		Summary:   row.Summary,
		Content:   content,
		CreatedAt: now,
	}, ""
}

func (c *documentService) ListImports(ctx context.Context) ([]*dto.ImportBatchResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	batches, err := uow.ImportBatchRepository().FindAll(ctx, specification.Pagination{Limit: 20})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ImportBatchResponse, len(batches))
	for i, b := range batches {
		res[i] = &dto.ImportBatchResponse{
			Id:        b.Id,
			UserId:    b.UserId,
			Format:    b.Format,
			Total:     b.Total,
			Imported:  b.Imported,
			Failures:  toImportFailures(b.Failures),
			CreatedAt: b.CreatedAt,
		}
	}
	return res, nil
}

func (c *documentService) Export(ctx context.Context) (*dto.ExportDocumentsResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	res := &dto.ExportDocumentsResponse{
		ExportedAt: time.Now(),
		Documents:  make([]dto.DocumentResponse, len(docs)),
	}
	for i, d := range docs {
		res.Documents[i] = *toDocumentResponse(d)
	}
	return res, nil
}

// publishChange never fails the mutation; subscribers catch up on the next change.
func (c *documentService) publishChange(ctx context.Context, kind entity.DocumentChangeKind, actor uuid.UUID, ids ...int64) {
	c.cache.Invalidate()

	payload, err := json.Marshal(events.DocumentChanged{
		Kind:  string(kind),
		IDs:   ids,
		Actor: actor.String(),
	})
	if err != nil {
		c.logger.Error(documentModule, "Failed to encode change event", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := c.publisherService.Publish(ctx, payload); err != nil {
		c.logger.Warn(documentModule, "Failed to publish change event", map[string]interface{}{
			"kind":  string(kind),
			"error": err.Error(),
		})
	}
}

func toDocumentResponse(d *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:        d.Id,
		Title:     d.Title,
		Category:  d.Category,
		Summary:   d.Summary,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toDocumentResponses(docs []*entity.Document) []*dto.DocumentResponse {
	res := make([]*dto.DocumentResponse, len(docs))
	for i, d := range docs {
		res[i] = toDocumentResponse(d)
	}
	return res
}

func toImportFailures(failures []entity.ImportFailure) []dto.ImportFailure {
	res := make([]dto.ImportFailure, len(failures))
	for i, f := range failures {
		res[i] = dto.ImportFailure{Index: f.Index, Reason: f.Reason}
	}
	return res
}
