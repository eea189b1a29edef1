package dto

import "github.com/jurisearch/backend/internal/domain/entity"

// SearchFilters are shared by search and ask. Dates use YYYY-MM-DD.
type SearchFilters struct {
	Court      *string `json:"court"`
	DateFrom   *string `json:"dateFrom"`
	DateTo     *string `json:"dateTo"`
	CaseNumber *string `json:"caseNumber"`
}

type SearchRequest struct {
	Query string `json:"query"`
	SearchFilters
	TopK int `json:"topK"`
}

type SearchResponse struct {
	Results []entity.SearchResult `json:"results"`
}

type AskRequest struct {
	Question string `json:"question"`
	SearchFilters
	TopK int `json:"topK"`
}

type AskResponse struct {
	Answer           string                `json:"answer"`
	SupportingChunks []entity.SearchResult `json:"supportingChunks"`
	CaseIDs          []int64               `json:"caseIds"`
}
