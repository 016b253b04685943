package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"knowledge-workspace/internal/dto"
	"knowledge-workspace/internal/pkg/logger"
	"knowledge-workspace/internal/repository/memory"
	"knowledge-workspace/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type documentFixture struct {
	store     *fakeStore
	cache     *memory.DocumentCache
	publisher *recordingPublisher
	svc       IDocumentService
	actor     uuid.UUID
}

func newDocumentFixture() *documentFixture {
	f := &documentFixture{
		store:     newFakeStore(),
		cache:     memory.NewDocumentCache(time.Minute),
		publisher: &recordingPublisher{},
		actor:     uuid.New(),
	}
	f.svc = NewDocumentService(f.store, f.cache, f.publisher, logger.NewNopLogger())
	return f
}

func (f *documentFixture) changes(t *testing.T) []events.DocumentChanged {
	t.Helper()
	out := make([]events.DocumentChanged, len(f.publisher.payloads))
	for i, p := range f.publisher.payloads {
		require.NoError(t, json.Unmarshal(p, &out[i]))
	}
	return out
}

func (f *documentFixture) seed(t *testing.T, titles ...string) {
	t.Helper()
	for _, title := range titles {
		_, err := f.svc.Create(context.Background(), f.actor, &dto.CreateDocumentRequest{Title: title, Category: "Guides"})
		require.NoError(t, err)
	}
	f.publisher.payloads = nil
}

func TestDocumentService_CreatePublishesChange(t *testing.T) {
	f := newDocumentFixture()

	res, err := f.svc.Create(context.Background(), f.actor, &dto.CreateDocumentRequest{
		Title:    "  Release checklist ",
		Category: "Engineering",
		Content:  "Tag, build, ship.",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Id)
	assert.Equal(t, "Release checklist", res.Title)

	changes := f.changes(t)
	require.Len(t, changes, 1)
	assert.Equal(t, "created", changes[0].Kind)
	assert.Equal(t, []int64{1}, changes[0].IDs)
	assert.Equal(t, f.actor.String(), changes[0].Actor)
}

func TestDocumentService_ListCache(t *testing.T) {
	f := newDocumentFixture()
	f.seed(t, "Onboarding", "Expenses")
	ctx := context.Background()

	first, err := f.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, first, 2)

	_, err = f.svc.List(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.findAllCalls, "second unfiltered list is served from cache")

	filtered, err := f.svc.List(ctx, "expense")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Expenses", filtered[0].Title)
	assert.Equal(t, 2, f.store.findAllCalls)

	_, err = f.svc.Create(ctx, f.actor, &dto.CreateDocumentRequest{Title: "Travel"})
	require.NoError(t, err)
	all, err := f.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3, "mutation invalidates the cached list")
}

func TestDocumentService_NotFound(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()

	_, err := f.svc.Show(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Update(ctx, f.actor, &dto.UpdateDocumentRequest{Id: 42, Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.actor, 42), ErrNotFound)
	assert.Empty(t, f.publisher.payloads)
}

func TestDocumentService_UpdateAndDelete(t *testing.T) {
	f := newDocumentFixture()
	f.seed(t, "Draft")
	ctx := context.Background()

	res, err := f.svc.Update(ctx, f.actor, &dto.UpdateDocumentRequest{Id: 1, Title: "Final", Summary: "done"})
	require.NoError(t, err)
	assert.Equal(t, "Final", res.Title)
	assert.NotNil(t, res.UpdatedAt)

	require.NoError(t, f.svc.Delete(ctx, f.actor, 1))
	_, err = f.svc.Show(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	changes := f.changes(t)
	require.Len(t, changes, 2)
	assert.Equal(t, "updated", changes[0].Kind)
	assert.Equal(t, "deleted", changes[1].Kind)
}

func TestDocumentService_PublishFailureDoesNotFailMutation(t *testing.T) {
	f := newDocumentFixture()
	f.publisher.err = errors.New("bus closed")

	_, err := f.svc.Create(context.Background(), f.actor, &dto.CreateDocumentRequest{Title: "Still saved"})
	assert.NoError(t, err)
}

func TestDocumentService_Import(t *testing.T) {
	tests := []struct {
		name         string
		format       string
		rows         []dto.CreateDocumentRequest
		wantImported int
		wantFailed   []dto.ImportFailure
		check        func(t *testing.T, f *documentFixture)
	}{
		{
			name:   "markdown stored as is",
			format: dto.ImportFormatMarkdown,
			rows: []dto.CreateDocumentRequest{
				{Title: "A", Content: "# Heading"},
				{Title: "B", Content: "- item"},
			},
			wantImported: 2,
			wantFailed:   []dto.ImportFailure{},
			check: func(t *testing.T, f *documentFixture) {
				assert.Equal(t, "# Heading", f.store.docs[1].Content)
			},
		},
		{
			name:   "html converted to markdown",
			format: dto.ImportFormatHTML,
			rows: []dto.CreateDocumentRequest{
				{Title: "Policy", Content: "<p>Read the <strong>whole</strong> policy.</p>"},
			},
			wantImported: 1,
			wantFailed:   []dto.ImportFailure{},
			check: func(t *testing.T, f *documentFixture) {
				assert.Contains(t, f.store.docs[1].Content, "**whole**")
				assert.NotContains(t, f.store.docs[1].Content, "<p>")
			},
		},
		{
			name:   "invalid rows reported by index",
			format: dto.ImportFormatJSON,
			rows: []dto.CreateDocumentRequest{
				{Title: "Good"},
				{Title: "   "},
				{Title: "Also good"},
				{Title: "Bad category", Category: string(make([]byte, 101))},
			},
			wantImported: 2,
			wantFailed: []dto.ImportFailure{
				{Index: 1, Reason: "Title is required"},
				{Index: 3, Reason: "Category must be at most 100"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocumentFixture()

			res, err := f.svc.Import(context.Background(), f.actor, &dto.ImportDocumentsRequest{
				Format:    tt.format,
				Documents: tt.rows,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantImported, res.Imported)
			assert.Equal(t, tt.wantFailed, res.Failed)
			assert.Equal(t, 1, f.store.commits)

			require.Len(t, f.store.batches, 1)
			batch := f.store.batches[0]
			assert.Equal(t, res.BatchId, batch.Id)
			assert.Equal(t, f.actor, batch.UserId)
			assert.Equal(t, len(tt.rows), batch.Total)
			assert.Equal(t, tt.wantImported, batch.Imported)

			changes := f.changes(t)
			require.Len(t, changes, 1)
			assert.Equal(t, "imported", changes[0].Kind)
			assert.Len(t, changes[0].IDs, tt.wantImported)

			if tt.check != nil {
				tt.check(t, f)
			}
		})
	}
}

func TestDocumentService_ImportNothingValid(t *testing.T) {
	f := newDocumentFixture()

	res, err := f.svc.Import(context.Background(), f.actor, &dto.ImportDocumentsRequest{
		Format:    dto.ImportFormatJSON,
		Documents: []dto.CreateDocumentRequest{{Title: ""}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Imported)
	assert.Len(t, f.store.batches, 1, "the failed batch is still recorded")
	assert.Empty(t, f.publisher.payloads)
}

func TestDocumentService_ImportLimits(t *testing.T) {
	f := newDocumentFixture()
	rows := make([]dto.CreateDocumentRequest, dto.MaxImportRows+1)

	_, err := f.svc.Import(context.Background(), f.actor, &dto.ImportDocumentsRequest{Format: "json", Documents: rows})
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, 400, domainErr.StatusCode())
}

func TestDocumentService_ImportRollsBack(t *testing.T) {
	f := newDocumentFixture()
	f.store.bulkErr = errors.New("constraint violation")

	_, err := f.svc.Import(context.Background(), f.actor, &dto.ImportDocumentsRequest{
		Format:    "json",
		Documents: []dto.CreateDocumentRequest{{Title: "A"}},
	})
	assert.Error(t, err)
	assert.Equal(t, 0, f.store.commits)
	assert.Empty(t, f.store.batches)
	assert.Empty(t, f.publisher.payloads)
}

func TestDocumentService_ListImportsAndExport(t *testing.T) {
	f := newDocumentFixture()
	ctx := context.Background()

	for _, format := range []string{"json", "markdown"} {
		_, err := f.svc.Import(ctx, f.actor, &dto.ImportDocumentsRequest{
			Format:    format,
			Documents: []dto.CreateDocumentRequest{{Title: "Doc " + format}},
		})
		require.NoError(t, err)
	}

	batches, err := f.svc.ListImports(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "markdown", batches[0].Format, "newest first")

	export, err := f.svc.Export(ctx)
	require.NoError(t, err)
	require.Len(t, export.Documents, 2)
	assert.Equal(t, "Doc json", export.Documents[0].Title)
	assert.WithinDuration(t, time.Now(), export.ExportedAt, time.Minute)
}
