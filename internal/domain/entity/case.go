package entity

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Case is a fully ingested Supreme Court decision.
type Case struct {
	ID               int64      `db:"id" json:"id"`
	CaseNumber       *string    `db:"case_number" json:"caseNumber"`
	Title            *string    `db:"title" json:"title"`
	Court            *string    `db:"court" json:"court"`
	PromulgationDate *time.Time `db:"promulgation_date" json:"promulgationDate"`
	Ponente          *string    `db:"ponente" json:"ponente"`
	Division         *string    `db:"division" json:"division"`
	FullText         string     `db:"full_text" json:"fullText"`
	SourceFile       *string    `db:"source_file" json:"sourceFile"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
}

// CaseChunk is a bounded slice of a case's text. Chunks are immutable
// once written; re-ingestion replaces them wholesale.
type CaseChunk struct {
	ID          int64           `db:"id" json:"id"`
	CaseID      int64           `db:"case_id" json:"caseId"`
	SectionType *string         `db:"section_type" json:"sectionType"`
	ChunkIndex  int             `db:"chunk_index" json:"chunkIndex"`
	ChunkText   string          `db:"chunk_text" json:"chunkText"`
	TokenCount  int             `db:"token_count" json:"tokenCount"`
	Embedding   pgvector.Vector `db:"embedding" json:"-"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}

// SearchFilters narrow a vector search by case metadata. Nil fields
// match everything.
type SearchFilters struct {
	Court      *string
	DateFrom   *time.Time
	DateTo     *time.Time
	CaseNumber *string
}

// SearchResult is a chunk hit annotated with its distance and the
// owning case's denormalized metadata.
type SearchResult struct {
	ChunkID          int64      `db:"chunk_id" json:"chunkId"`
	CaseID           int64      `db:"case_id" json:"caseId"`
	SectionType      *string    `db:"section_type" json:"sectionType"`
	ChunkIndex       int        `db:"chunk_index" json:"chunkIndex"`
	ChunkText        string     `db:"chunk_text" json:"chunkText"`
	TokenCount       int        `db:"token_count" json:"tokenCount"`
	CaseNumber       *string    `db:"case_number" json:"caseNumber"`
	Title            *string    `db:"title" json:"title"`
	PromulgationDate *time.Time `db:"promulgation_date" json:"promulgationDate"`
	Court            *string    `db:"court" json:"court"`
	Distance         float64    `db:"distance" json:"distance"`
}
