package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/mcqgen/internal/api"
	"github.com/cloo-solutions/mcqgen/internal/domain"
)

type SearchService interface {
	Search(ctx context.Context, query string, limit int) ([]*domain.SimilarQuestion, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type SearchResponse struct {
	Results []*domain.SimilarQuestion `json:"results"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	results, err := h.svc.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if results == nil {
		results = []*domain.SimilarQuestion{}
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: results})
}
