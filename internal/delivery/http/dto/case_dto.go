package dto

import "github.com/jurisearch/backend/internal/domain/entity"

type CaseResponse struct {
	entity.Case
	Chunks []entity.CaseChunk `json:"chunks"`
}
