package repository

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/jurisearch/backend/internal/domain/entity"
)

type CaseRepository interface {
	// SaveCaseWithChunks persists a case and every chunk in one
	// transaction and returns the new case id. Nothing is written when
	// any part fails.
	SaveCaseWithChunks(ctx context.Context, c *entity.Case, chunks []entity.CaseChunk) (int64, error)
	FindByID(ctx context.Context, id int64) (*entity.Case, error)
	FindChunksByCaseID(ctx context.Context, caseID int64) ([]entity.CaseChunk, error)
	// SearchChunks runs approximate nearest-neighbor search, closest
	// first, annotated with the owning case's metadata.
	SearchChunks(ctx context.Context, embedding pgvector.Vector, filters entity.SearchFilters, limit int) ([]entity.SearchResult, error)
	DeleteAll(ctx context.Context) error
}
