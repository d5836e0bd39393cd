package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSearchHandler_Search(t *testing.T) {
	svc := new(MockSearchService)
	handler := NewSearchHandler(svc)

	svc.On("Search", mock.Anything, "moon landing", 3).Return([]*domain.SimilarQuestion{
		{QuestionSetID: "set-1", MCQ: sampleMCQ(), Similarity: 0.87},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/questions/search", strings.NewReader(`{"query":"moon landing","limit":3}`))
	w := httptest.NewRecorder()

	handler.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data SearchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, "set-1", resp.Data.Results[0].QuestionSetID)
	assert.InDelta(t, 0.87, resp.Data.Results[0].Similarity, 1e-9)
}

func TestSearchHandler_Search_EmptyResults(t *testing.T) {
	svc := new(MockSearchService)
	handler := NewSearchHandler(svc)

	svc.On("Search", mock.Anything, "q", 0).Return(nil, nil)

	w := httptest.NewRecorder()
	handler.Search(w, httptest.NewRequest(http.MethodPost, "/v1/questions/search", strings.NewReader(`{"query":"q"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

func TestSearchHandler_Search_Errors(t *testing.T) {
	svc := new(MockSearchService)
	handler := NewSearchHandler(svc)

	svc.On("Search", mock.Anything, "", 0).Return(nil, domain.NewDomainError(domain.ErrCodeValidation, "query is required"))
	svc.On("Search", mock.Anything, "q", 0).Return(nil, errors.New("embedding provider down"))

	w := httptest.NewRecorder()
	handler.Search(w, httptest.NewRequest(http.MethodPost, "/v1/questions/search", strings.NewReader(`{"query":""}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	handler.Search(w, httptest.NewRequest(http.MethodPost, "/v1/questions/search", strings.NewReader(`{"query":"q"}`)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "provider down")
}
