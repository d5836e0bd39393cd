package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/mcqgen/internal/api"
	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/service"
)

type GenerationService interface {
	GenerateSync(ctx context.Context, input service.GenerateInput) (*service.GenerateOutput, error)
	Submit(ctx context.Context, input service.GenerateInput) (*domain.QuestionSet, error)
	Get(ctx context.Context, id string) (*domain.QuestionSet, error)
	List(ctx context.Context, input service.ListInput) (*service.ListOutput, error)
}

// GenerateRequest is the body of both the synchronous and queued
// generation endpoints. Omitted limits take the service defaults.
type GenerateRequest struct {
	Transcript     string `json:"transcript"`
	MaxMCQs        *int   `json:"max_mcqs"`
	MinDistractors *int   `json:"min_distractors"`
}

func (req GenerateRequest) input() service.GenerateInput {
	return service.GenerateInput{
		Transcript:     req.Transcript,
		MaxItems:       intOr(req.MaxMCQs, service.DefaultMaxItems),
		MinDistractors: intOr(req.MinDistractors, service.DefaultMinDistractors),
	}
}

type GenerateResponse struct {
	Success    bool              `json:"success"`
	MCQCount   int               `json:"mcq_count"`
	MCQs       []domain.MCQ      `json:"mcqs"`
	Statistics domain.Statistics `json:"statistics"`
}

type GenerateHandler struct {
	svc GenerationService
}

func NewGenerateHandler(svc GenerationService) *GenerateHandler {
	return &GenerateHandler{svc: svc}
}

// Generate runs the pipeline inline and returns the MCQs in the response.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := h.svc.GenerateSync(r.Context(), req.input())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	mcqs := out.MCQs
	if mcqs == nil {
		mcqs = []domain.MCQ{}
	}
	api.JSON(w, http.StatusOK, GenerateResponse{
		Success:    true,
		MCQCount:   len(mcqs),
		MCQs:       mcqs,
		Statistics: out.Statistics,
	})
}
