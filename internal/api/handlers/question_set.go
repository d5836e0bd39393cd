package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/api"
	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/service"
	"github.com/go-chi/chi/v5"
)

type ExportService interface {
	DownloadURL(ctx context.Context, questionSetID string) (string, error)
}

type QuestionSetHandler struct {
	svc     GenerationService
	exports ExportService
}

func NewQuestionSetHandler(svc GenerationService, exports ExportService) *QuestionSetHandler {
	return &QuestionSetHandler{svc: svc, exports: exports}
}

type QuestionSetResponse struct {
	ID             string             `json:"id"`
	Status         string             `json:"status"`
	MaxMCQs        int                `json:"max_mcqs"`
	MinDistractors int                `json:"min_distractors"`
	Error          string             `json:"error,omitempty"`
	MCQCount       int                `json:"mcq_count"`
	MCQs           []domain.MCQ       `json:"mcqs,omitempty"`
	Statistics     *domain.Statistics `json:"statistics,omitempty"`
	ExportReady    bool               `json:"export_ready"`
	CreatedAt      string             `json:"created_at"`
	UpdatedAt      string             `json:"updated_at"`
}

type QuestionSetListResponse struct {
	Items   []*QuestionSetResponse `json:"items"`
	Cursor  string                 `json:"cursor,omitempty"`
	HasMore bool                   `json:"has_more"`
}

type ExportResponse struct {
	URL string `json:"url"`
}

func questionSetToResponse(s *domain.QuestionSet) *QuestionSetResponse {
	resp := &QuestionSetResponse{
		ID:             s.ID,
		Status:         string(s.Status),
		MaxMCQs:        s.MaxItems,
		MinDistractors: s.MinDistractors,
		Error:          s.Error,
		MCQs:           s.Items,
		Statistics:     s.Statistics,
		ExportReady:    s.ExportKey != "",
		CreatedAt:      s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      s.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if s.Statistics != nil {
		resp.MCQCount = s.Statistics.TotalMCQs
	}
	return resp
}

// Create queues a transcript for background generation.
func (h *QuestionSetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	set, err := h.svc.Submit(r.Context(), req.input())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/question-sets/"+set.ID)
	api.Success(w, http.StatusAccepted, questionSetToResponse(set))
}

func (h *QuestionSetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	set, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, questionSetToResponse(set))
}

func (h *QuestionSetHandler) List(w http.ResponseWriter, r *http.Request) {
	output, err := h.svc.List(r.Context(), service.ListInput{
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  queryInt(r, "limit", 20),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*QuestionSetResponse, len(output.Items))
	for i, s := range output.Items {
		items[i] = questionSetToResponse(s)
	}

	api.Success(w, http.StatusOK, QuestionSetListResponse{
		Items:   items,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

// Export returns a presigned link to the stored export document.
func (h *QuestionSetHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	url, err := h.exports.DownloadURL(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ExportResponse{URL: url})
}
