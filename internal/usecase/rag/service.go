// Package rag serves filtered semantic search and grounded question
// answering over the vector index.
package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/jurisearch/backend/internal/domain/apperr"
	"github.com/jurisearch/backend/internal/domain/entity"
	"github.com/jurisearch/backend/internal/domain/repository"
)

// InsufficientGroundingAnswer is returned when retrieval comes back
// empty; the generator is never called without context.
const InsufficientGroundingAnswer = "I could not find any relevant passages in the indexed decisions to ground an answer. " +
	"Try rephrasing the question or broadening the filters."

const mmrLambda = 0.6

// Embedder produces the query vector.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]pgvector.Vector, error)
}

// Generator is the pluggable language-generation capability. It only
// ever sees the retrieved context.
type Generator interface {
	Generate(ctx context.Context, question, contextBlock string) (string, error)
}

type Service struct {
	cases       repository.CaseRepository
	embedder    Embedder
	generator   Generator
	defaultTopK int
	logger      *zap.Logger
}

func NewService(cases repository.CaseRepository, embedder Embedder, generator Generator, defaultTopK int, logger *zap.Logger) *Service {
	if defaultTopK <= 0 {
		defaultTopK = 10
	}
	return &Service{cases: cases, embedder: embedder, generator: generator, defaultTopK: defaultTopK, logger: logger}
}

// Search embeds the query, retrieves twice the requested depth, and
// MMR-reranks down to topK to trade a little relevance for diversity.
func (s *Service) Search(ctx context.Context, query string, filters entity.SearchFilters, topK int) ([]entity.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, "query must not be empty")
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, apperr.New(apperr.KindEmbedding, "no embedding produced for query")
	}

	candidates, err := s.cases.SearchChunks(ctx, vectors[0], filters, topK*2)
	if err != nil {
		return nil, err
	}
	return mmrRerank(candidates, mmrLambda, topK), nil
}

// Answer is a grounded response with its supporting evidence.
type Answer struct {
	Question         string                `json:"question"`
	Answer           string                `json:"answer"`
	SupportingChunks []entity.SearchResult `json:"supportingChunks"`
	CaseIDs          []int64               `json:"caseIds"`
}

// Ask retrieves supporting chunks and has the generator answer from
// them alone. Zero retrieved chunks short-circuits to an
// insufficient-grounding response.
func (s *Service) Ask(ctx context.Context, question string, filters entity.SearchFilters, topK int) (*Answer, error) {
	chunks, err := s.Search(ctx, question, filters, topK)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		s.logger.Info("ask returned no grounding", zap.String("question", question))
		return &Answer{
			Question:         question,
			Answer:           InsufficientGroundingAnswer,
			SupportingChunks: []entity.SearchResult{},
			CaseIDs:          []int64{},
		}, nil
	}

	answer, err := s.generator.Generate(ctx, question, buildContextBlock(chunks))
	if err != nil {
		return nil, err
	}

	return &Answer{
		Question:         question,
		Answer:           answer,
		SupportingChunks: chunks,
		CaseIDs:          distinctCaseIDs(chunks),
	}, nil
}

// buildContextBlock orders chunks most relevant first, each tagged with
// its source case citation.
func buildContextBlock(chunks []entity.SearchResult) string {
	var sb strings.Builder
	for i, chunk := range chunks {
		title := "Unknown Title"
		if chunk.Title != nil && *chunk.Title != "" {
			title = *chunk.Title
		}
		citation := title
		if chunk.CaseNumber != nil && *chunk.CaseNumber != "" {
			citation = fmt.Sprintf("%s (%s)", title, *chunk.CaseNumber)
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(citation)
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(chunk.ChunkText))
	}
	return sb.String()
}

func distinctCaseIDs(chunks []entity.SearchResult) []int64 {
	seen := make(map[int64]struct{}, len(chunks))
	var ids []int64
	for _, chunk := range chunks {
		if _, ok := seen[chunk.CaseID]; ok {
			continue
		}
		seen[chunk.CaseID] = struct{}{}
		ids = append(ids, chunk.CaseID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// mmrRerank balances relevance against diversity: each pick maximizes
// lambda*relevance - (1-lambda)*similarity-to-already-picked, with a
// token-overlap proxy for inter-chunk similarity.
func mmrRerank(candidates []entity.SearchResult, lambda float64, limit int) []entity.SearchResult {
	if len(candidates) == 0 {
		return []entity.SearchResult{}
	}
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}

	selected := make([]entity.SearchResult, 0, limit)
	remaining := append([]entity.SearchResult(nil), candidates...)
	seen := make(map[int64]struct{})

	for len(remaining) > 0 && len(selected) < limit {
		bestIdx := -1
		bestScore := 0.0
		for idx, cand := range remaining {
			if _, dup := seen[cand.ChunkID]; dup {
				continue
			}
			relevance := -cand.Distance
			diversity := 0.0
			if len(selected) > 0 {
				diversity = 1.0
				for _, chosen := range selected {
					if sim := overlapSimilarity(cand.ChunkText, chosen.ChunkText); sim < diversity {
						diversity = sim
					}
				}
			}
			score := lambda*relevance - (1-lambda)*diversity
			if bestIdx == -1 || score > bestScore {
				bestScore = score
				bestIdx = idx
			}
		}
		if bestIdx == -1 {
			break
		}
		chosen := remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		seen[chosen.ChunkID] = struct{}{}
		selected = append(selected, chosen)
	}
	return selected
}

// overlapSimilarity is a cheap cosine proxy over token sets.
func overlapSimilarity(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	overlap := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			overlap++
		}
	}
	return float64(overlap) / math.Sqrt(float64(len(tokensA))*float64(len(tokensB)))
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(text)) {
		set[token] = struct{}{}
	}
	return set
}
