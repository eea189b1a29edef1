package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/jurisearch/backend/internal/domain/apperr"
	"github.com/jurisearch/backend/internal/domain/entity"
	"github.com/jurisearch/backend/internal/domain/repository"
)

const embedMaxRetries = 3

// Embedder turns a batch of texts into fixed-dimension vectors. The
// whole batch succeeds or fails together.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]pgvector.Vector, error)
}

// Pipeline runs extract -> chunk -> embed -> persist for one document.
// The case and its chunks are written only after every chunk has an
// embedding, so a failed decision leaves no partial rows.
type Pipeline struct {
	cases     repository.CaseRepository
	embedder  Embedder
	extractor *Extractor
	chunker   *Chunker
	logger    *zap.Logger
}

func NewPipeline(
	cases repository.CaseRepository,
	embedder Embedder,
	extractor *Extractor,
	chunker *Chunker,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		cases:     cases,
		embedder:  embedder,
		extractor: extractor,
		chunker:   chunker,
		logger:    logger,
	}
}

// IngestFile processes a single document into the case store and
// returns the created case id and chunk count.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (int64, int, error) {
	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return 0, 0, err
	}
	if text == "" {
		return 0, 0, apperr.Newf(apperr.KindExtraction, "no text extracted from %s", path)
	}

	meta := ExtractMetadata(text)
	chunks := p.chunker.Chunk(text)
	if len(chunks) == 0 {
		// well-formed text always chunks; treat this as a bug signal
		return 0, 0, apperr.Newf(apperr.KindChunking, "no chunks produced for %s", path)
	}

	embeddings, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return 0, 0, err
	}

	caseChunks := make([]entity.CaseChunk, len(chunks))
	for i, chunk := range chunks {
		caseChunks[i] = entity.CaseChunk{
			SectionType: chunk.SectionType,
			ChunkIndex:  chunk.Index,
			ChunkText:   chunk.Text,
			TokenCount:  chunk.TokenCount,
			Embedding:   embeddings[i],
		}
	}

	caseID, err := p.cases.SaveCaseWithChunks(ctx, &entity.Case{
		CaseNumber:       meta.CaseNumber,
		Title:            meta.Title,
		Court:            meta.Court,
		PromulgationDate: meta.PromulgationDate,
		Ponente:          meta.Ponente,
		Division:         meta.Division,
		FullText:         text,
		SourceFile:       &path,
	}, caseChunks)
	if err != nil {
		return 0, 0, err
	}

	p.logger.Info("document ingested",
		zap.String("path", path),
		zap.Int64("case_id", caseID),
		zap.Int("chunks", len(caseChunks)))
	return caseID, len(caseChunks), nil
}

// embedChunks retries the whole batch with bounded backoff before
// giving up; partial batch success is not a thing at this layer.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []Chunk) ([]pgvector.Vector, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var embeddings []pgvector.Vector
	operation := func() error {
		vectors, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			if !apperr.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if len(vectors) != len(texts) {
			return backoff.Permanent(apperr.Newf(apperr.KindEmbedding,
				"embedder returned %d vectors for %d chunks", len(vectors), len(texts)))
		}
		embeddings = vectors
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), embedMaxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// ReindexSummary reports a folder reindex run.
type ReindexSummary struct {
	Cases  int      `json:"cases"`
	Chunks int      `json:"chunks"`
	Failed []string `json:"failed"`
}

// ReindexFolder re-ingests every .pdf/.txt file under dir. With
// dropExisting set, all prior cases are removed first. Per-file
// failures are collected, never aborting the walk.
func (p *Pipeline) ReindexFolder(ctx context.Context, dir string, dropExisting bool) (*ReindexSummary, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf", ".txt":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidArgument, "walk folder "+dir, err)
	}
	sort.Strings(files)

	if dropExisting {
		p.logger.Warn("dropping existing cases before reindexing", zap.String("dir", dir))
		if err := p.cases.DeleteAll(ctx); err != nil {
			return nil, err
		}
	}

	summary := &ReindexSummary{Failed: []string{}}
	start := time.Now()
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		_, chunkCount, err := p.IngestFile(ctx, path)
		if err != nil {
			p.logger.Error("reindex file failed", zap.String("path", path), zap.Error(err))
			summary.Failed = append(summary.Failed, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		summary.Cases++
		summary.Chunks += chunkCount
	}

	p.logger.Info("reindex finished",
		zap.String("dir", dir),
		zap.Int("cases", summary.Cases),
		zap.Int("chunks", summary.Chunks),
		zap.Int("failed", len(summary.Failed)),
		zap.Duration("took", time.Since(start)))
	return summary, nil
}

// IngestScraped ingests the pre-extracted text files listed in a
// scraper metadata CSV (one row per decision, file location in the
// text_path column). Rows with a missing or failing file are collected
// like ReindexFolder failures, never aborting the run.
func (p *Pipeline) IngestScraped(ctx context.Context, metadataCSV string, dropExisting bool) (*ReindexSummary, error) {
	f, err := os.Open(metadataCSV)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Newf(apperr.KindNotFound, "metadata file not found: %s", metadataCSV)
		}
		return nil, apperr.Wrap(apperr.KindInvalidArgument, "open metadata CSV", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidArgument, "read metadata CSV header", err)
	}
	pathCol := -1
	for i, name := range header {
		if strings.TrimSpace(name) == "text_path" {
			pathCol = i
			break
		}
	}
	if pathCol == -1 {
		return nil, apperr.Newf(apperr.KindInvalidArgument, "metadata CSV %s has no text_path column", metadataCSV)
	}

	if dropExisting {
		p.logger.Warn("dropping existing cases before ingesting scraped data", zap.String("csv", metadataCSV))
		if err := p.cases.DeleteAll(ctx); err != nil {
			return nil, err
		}
	}

	summary := &ReindexSummary{Failed: []string{}}
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, apperr.Wrap(apperr.KindInvalidArgument, "read metadata CSV row", err)
		}

		textPath := ""
		if pathCol < len(row) {
			textPath = strings.TrimSpace(row[pathCol])
		}
		if textPath == "" {
			summary.Failed = append(summary.Failed, "missing text file path in metadata row")
			continue
		}
		if _, err := os.Stat(textPath); err != nil {
			summary.Failed = append(summary.Failed, "missing text file: "+textPath)
			continue
		}

		_, chunkCount, err := p.IngestFile(ctx, textPath)
		if err != nil {
			p.logger.Error("scraped file failed", zap.String("path", textPath), zap.Error(err))
			summary.Failed = append(summary.Failed, fmt.Sprintf("%s: %v", textPath, err))
			continue
		}
		summary.Cases++
		summary.Chunks += chunkCount
	}

	p.logger.Info("scraped ingest finished",
		zap.String("csv", metadataCSV),
		zap.Int("cases", summary.Cases),
		zap.Int("chunks", summary.Chunks),
		zap.Int("failed", len(summary.Failed)),
		zap.Duration("took", time.Since(start)))
	return summary, nil
}
