package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"knowledge-workspace/internal/entity"
	"knowledge-workspace/internal/repository/contract"
	"knowledge-workspace/internal/repository/specification"
	"knowledge-workspace/internal/repository/unitofwork"
	"knowledge-workspace/pkg/events"

	"github.com/google/uuid"
)

// fakeStore backs every fake repository; it stands in for the database.
type fakeStore struct {
	mu sync.Mutex

	docs    map[int64]*entity.Document
	nextID  int64
	users   map[uuid.UUID]*entity.User
	batches []*entity.ImportBatch

	findAllCalls int
	commits      int
	bulkErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:   make(map[int64]*entity.Document),
		users:  make(map[uuid.UUID]*entity.User),
		nextID: 1,
	}
}

func (s *fakeStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: s}
}

type fakeUow struct {
	store *fakeStore
	open  bool
}

func (u *fakeUow) Begin(ctx context.Context) error {
	if u.open {
		return errors.New("transaction already started")
	}
	u.open = true
	return nil
}

func (u *fakeUow) Commit() error {
	if !u.open {
		return errors.New("no transaction to commit")
	}
	u.open = false
	u.store.commits++
	return nil
}

func (u *fakeUow) Rollback() error {
	u.open = false
	return nil
}

func (u *fakeUow) UserRepository() contract.UserRepository { return &fakeUserRepo{u.store} }

func (u *fakeUow) DocumentRepository() contract.DocumentRepository {
	return &fakeDocumentRepo{u.store}
}

func (u *fakeUow) ImportBatchRepository() contract.ImportBatchRepository {
	return &fakeBatchRepo{u.store}
}

type fakeDocumentRepo struct{ s *fakeStore }

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doc.Id = r.s.nextID
	r.s.nextID++
	cp := *doc
	r.s.docs[doc.Id] = &cp
	return nil
}

func (r *fakeDocumentRepo) CreateBulk(ctx context.Context, docs []*entity.Document) error {
	if r.s.bulkErr != nil {
		return r.s.bulkErr
	}
	for _, d := range docs {
		if err := r.Create(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeDocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *doc
	r.s.docs[doc.Id] = &cp
	return nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.docs, id)
	return nil
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	all, _ := r.find(specs)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.s.mu.Lock()
	r.s.findAllCalls++
	r.s.mu.Unlock()
	return r.find(specs)
}

func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.find(specs)
	return int64(len(all)), err
}

func (r *fakeDocumentRepo) find(specs []specification.Specification) ([]*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []*entity.Document{}
	for _, d := range r.s.docs {
		if matchesDocument(d, specs) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func matchesDocument(d *entity.Document, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if id, ok := s.ID.(int64); !ok || id != d.Id {
				return false
			}
		case specification.DocumentFilter:
			q := strings.ToLower(strings.TrimSpace(s.Query))
			if q == "" {
				continue
			}
			hay := strings.ToLower(d.Title + "\n" + d.Category + "\n" + d.Summary)
			if !strings.Contains(hay, q) {
				return false
			}
		}
	}
	return true
}

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *user
	r.s.users[user.Id] = &cp
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		ok := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByEmail:
				ok = ok && u.Email == strings.ToLower(strings.TrimSpace(s.Email))
			case specification.ByID:
				id, isUUID := s.ID.(uuid.UUID)
				ok = ok && isUUID && id == u.Id
			}
		}
		if ok {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

type fakeBatchRepo struct{ s *fakeStore }

func (r *fakeBatchRepo) Create(ctx context.Context, batch *entity.ImportBatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.batches = append(r.s.batches, batch)
	return nil
}

func (r *fakeBatchRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ImportBatch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.ImportBatch, 0, len(r.s.batches))
	for i := len(r.s.batches) - 1; i >= 0; i-- {
		out = append(out, r.s.batches[i])
	}
	return out, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return p.err
}

type recordingAudit struct {
	mu     sync.Mutex
	events []events.Event
}

func (a *recordingAudit) Publish(ctx context.Context, event events.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

func (a *recordingAudit) types() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.events))
	for i, e := range a.events {
		out[i] = e.EventType()
	}
	return out
}
