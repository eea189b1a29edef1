package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/jurisearch/backend/internal/domain/apperr"
	"github.com/jurisearch/backend/internal/domain/entity"
	"github.com/jurisearch/backend/internal/domain/repository"
)

type caseRepository struct {
	db *sqlx.DB
}

func NewCaseRepository(db *sqlx.DB) repository.CaseRepository {
	return &caseRepository{db: db}
}

// SaveCaseWithChunks writes the case row and all of its chunks in a
// single transaction, so a failure at any point leaves no partial rows.
func (r *caseRepository) SaveCaseWithChunks(ctx context.Context, c *entity.Case, chunks []entity.CaseChunk) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindStore, "begin transaction", err)
	}
	defer tx.Rollback()

	var caseID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO cases (case_number, title, court, promulgation_date, ponente, division, full_text, source_file)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		c.CaseNumber,
		c.Title,
		c.Court,
		c.PromulgationDate,
		c.Ponente,
		c.Division,
		c.FullText,
		c.SourceFile,
	).Scan(&caseID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindStore, "insert case", err)
	}

	chunkQuery := `
		INSERT INTO case_chunks (case_id, section_type, chunk_index, chunk_text, token_count, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range chunks {
		_, err := tx.ExecContext(ctx, chunkQuery,
			caseID,
			chunks[i].SectionType,
			chunks[i].ChunkIndex,
			chunks[i].ChunkText,
			chunks[i].TokenCount,
			chunks[i].Embedding,
		)
		if err != nil {
			return 0, apperr.Wrap(apperr.KindStore, fmt.Sprintf("insert chunk %d", chunks[i].ChunkIndex), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperr.Wrap(apperr.KindStore, "commit case", err)
	}
	return caseID, nil
}

func (r *caseRepository) FindByID(ctx context.Context, id int64) (*entity.Case, error) {
	var c entity.Case
	err := r.db.GetContext(ctx, &c, `
		SELECT id, case_number, title, court, promulgation_date, ponente, division, full_text, source_file, created_at
		FROM cases
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.KindNotFound, "case %d not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "find case", err)
	}
	return &c, nil
}

func (r *caseRepository) FindChunksByCaseID(ctx context.Context, caseID int64) ([]entity.CaseChunk, error) {
	var chunks []entity.CaseChunk
	err := r.db.SelectContext(ctx, &chunks, `
		SELECT id, case_id, section_type, chunk_index, chunk_text, token_count, embedding, created_at
		FROM case_chunks
		WHERE case_id = $1
		ORDER BY chunk_index ASC
	`, caseID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "find case chunks", err)
	}
	return chunks, nil
}

// SearchChunks runs an approximate nearest-neighbor query over
// case_chunks with optional metadata filters. Results come back closest
// first; ties break on chunk id so a single query is deterministic.
func (r *caseRepository) SearchChunks(ctx context.Context, embedding pgvector.Vector, filters entity.SearchFilters, limit int) ([]entity.SearchResult, error) {
	var (
		conds []string
		args  []any
	)
	args = append(args, embedding)

	if filters.Court != nil && *filters.Court != "" {
		args = append(args, *filters.Court)
		conds = append(conds, fmt.Sprintf("c.court = $%d", len(args)))
	}
	if filters.DateFrom != nil {
		args = append(args, *filters.DateFrom)
		conds = append(conds, fmt.Sprintf("c.promulgation_date >= $%d", len(args)))
	}
	if filters.DateTo != nil {
		args = append(args, *filters.DateTo)
		conds = append(conds, fmt.Sprintf("c.promulgation_date <= $%d", len(args)))
	}
	if filters.CaseNumber != nil && *filters.CaseNumber != "" {
		args = append(args, "%"+*filters.CaseNumber+"%")
		conds = append(conds, fmt.Sprintf("c.case_number ILIKE $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT
			cc.id AS chunk_id,
			cc.case_id,
			cc.section_type,
			cc.chunk_index,
			cc.chunk_text,
			cc.token_count,
			c.case_number,
			c.title,
			c.promulgation_date,
			c.court,
			cc.embedding <=> $1 AS distance
		FROM case_chunks cc
		INNER JOIN cases c ON c.id = cc.case_id
		%s
		ORDER BY cc.embedding <=> $1, cc.id
		LIMIT $%d
	`, where, len(args))

	var results []entity.SearchResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "vector search", err)
	}
	return results, nil
}

// DeleteAll removes every case; chunks go with them via cascade.
func (r *caseRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `TRUNCATE case_chunks, cases RESTART IDENTITY CASCADE`)
	if err != nil {
		return apperr.Wrap(apperr.KindStore, "delete all cases", err)
	}
	return nil
}
