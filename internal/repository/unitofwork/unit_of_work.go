package unitofwork

import (
	"context"

	"knowledge-workspace/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	DocumentRepository() contract.DocumentRepository
	ImportBatchRepository() contract.ImportBatchRepository
}

// RepositoryFactory hands out a fresh UnitOfWork per request or consumed message.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
