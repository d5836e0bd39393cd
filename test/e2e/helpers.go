//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/api/handlers"
	"github.com/cloo-solutions/mcqgen/internal/domain"
	"github.com/cloo-solutions/mcqgen/internal/jobs"
	"github.com/cloo-solutions/mcqgen/internal/repository"
	"github.com/cloo-solutions/mcqgen/internal/server"
	"github.com/cloo-solutions/mcqgen/internal/service"
	"github.com/cloo-solutions/mcqgen/internal/storage"
	"github.com/cloo-solutions/mcqgen/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap/zaptest"
)

const (
	testAPIKey = "e2e-api-key"

	// Transcripts containing this marker make the stub generator fail.
	failMarker = "FAIL"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	RustFSC    *testutil.RustFSContainer
	Pool       *pgxpool.Pool
	Server     *httptest.Server
	ServerURL  string
	S3Client   *storage.S3Client
	Worker     *jobs.Worker
	HTTPClient *http.Client

	cancelWorker context.CancelFunc
}

// SetupE2EEnv starts Postgres and RustFS, then serves the full router with a
// running generation worker backed by a deterministic generator.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "e2e-exports",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	setRepo := repository.NewQuestionSetRepository(pool)
	itemRepo := repository.NewMCQItemRepository(pool)
	jobRepo := repository.NewGenerationJobRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	exportSvc := service.NewExportService(s3Client, setRepo, log)
	generationSvc := service.NewGenerationService(stubGenerator{}, txRunner, setRepo, itemRepo, exportSvc, log)
	searchSvc := service.NewSearchService(stubEmbedder{}, itemRepo)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	worker := jobs.NewWorker(jobs.NewGenerationWorker(jobRepo, generationSvc, log), 100*time.Millisecond, log)
	go worker.Start(workerCtx)

	router := server.NewRouter(server.RouterConfig{
		APIKey:             testAPIKey,
		Logger:             log,
		GenerateHandler:    handlers.NewGenerateHandler(generationSvc),
		QuestionSetHandler: handlers.NewQuestionSetHandler(generationSvc, exportSvc),
		SearchHandler:      handlers.NewSearchHandler(searchSvc),
	})
	srv := httptest.NewServer(router)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		Server:       srv,
		ServerURL:    srv.URL,
		S3Client:     s3Client,
		Worker:       worker,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		cancelWorker: cancelWorker,
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Worker != nil {
		e.cancelWorker()
		e.Worker.Stop()
	}
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		_ = e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		_ = e.PostgresC.Terminate(e.Ctx)
	}
}

// Response is a raw HTTP response with the "data" envelope split out.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Data       json.RawMessage
	Error      string
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, authToken string) *Response {
	return e.doRequest(http.MethodGet, path, nil, authToken)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body any, authToken string) *Response {
	return e.doRequest(http.MethodPost, path, body, authToken)
}

func (e *E2ETestEnv) doRequest(method, path string, body any, authToken string) *Response {
	e.T.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			e.T.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		e.T.Fatalf("failed to build request: %v", err)
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response: %v", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if json.Unmarshal(respBody, &env) == nil {
		out.Data = env.Data
		out.Error = env.Error
	}
	return out
}

// WaitForStatus polls a question set until it reaches one of the terminal
// statuses or the timeout elapses.
func (e *E2ETestEnv) WaitForStatus(id string, timeout time.Duration) handlers.QuestionSetResponse {
	e.T.Helper()

	deadline := time.Now().Add(timeout)
	for {
		resp := e.Get("/v1/question-sets/"+id, testAPIKey)
		if resp.StatusCode != http.StatusOK {
			e.T.Fatalf("unexpected status %d: %s", resp.StatusCode, resp.Body)
		}

		var set handlers.QuestionSetResponse
		if err := json.Unmarshal(resp.Data, &set); err != nil {
			e.T.Fatalf("failed to parse question set: %v", err)
		}
		if set.Status == string(domain.QuestionSetStatusCompleted) || set.Status == string(domain.QuestionSetStatusFailed) {
			return set
		}
		if time.Now().After(deadline) {
			e.T.Fatalf("question set %s still %s after %v", id, set.Status, timeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// Download fetches a presigned URL.
func (e *E2ETestEnv) Download(url string) []byte {
	e.T.Helper()

	resp, err := e.HTTPClient.Get(url)
	if err != nil {
		e.T.Fatalf("download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.T.Fatalf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read download: %v", err)
	}
	return data
}

// stubGenerator returns two fixed MCQs per transcript so the HTTP, worker
// and storage layers can be exercised without model providers.
type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, transcript string, maxItems, minDistractors int) ([]domain.MCQ, error) {
	if strings.Contains(transcript, failMarker) {
		return nil, fmt.Errorf("stub generator: refusing transcript")
	}

	items := []domain.MCQ{
		{
			Question:      "Who was the first person to walk on the Moon?",
			Options:       []domain.Option{{Letter: "A", Text: "Buzz Aldrin"}, {Letter: "B", Text: "Neil Armstrong"}},
			CorrectOption: "B",
			Explanation:   "The correct answer is 'Neil Armstrong' based on the context provided.",
			Confidence:    0.92,
			Difficulty:    domain.DifficultyEasy,
			QuestionType:  domain.QuestionTypePerson,
			Embedding:     unitVector(0),
		},
		{
			Question:      "When did Apollo 11 land on the Moon?",
			Options:       []domain.Option{{Letter: "A", Text: "1969"}, {Letter: "B", Text: "1972"}},
			CorrectOption: "A",
			Explanation:   "The correct answer is '1969' based on the context provided.",
			Confidence:    0.61,
			Difficulty:    domain.DifficultyMedium,
			QuestionType:  domain.QuestionTypeTemporal,
			Embedding:     unitVector(1),
		},
	}
	if maxItems < len(items) {
		items = items[:maxItems]
	}
	return items, nil
}

// stubEmbedder maps every query onto the first stored question.
type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return unitVector(0), nil
}

func unitVector(hot int) []float32 {
	v := make([]float32, repository.EmbeddingDimensions)
	v[hot] = 1
	return v
}
