//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoshlabs/shoshchat/internal/api/handlers"
	"github.com/shoshlabs/shoshchat/internal/api/middleware"
	"github.com/shoshlabs/shoshchat/internal/embedding"
	"github.com/shoshlabs/shoshchat/internal/extract"
	"github.com/shoshlabs/shoshchat/internal/jobs"
	"github.com/shoshlabs/shoshchat/internal/repository"
	"github.com/shoshlabs/shoshchat/internal/server"
	"github.com/shoshlabs/shoshchat/internal/service"
	"github.com/shoshlabs/shoshchat/internal/storage"
	"github.com/shoshlabs/shoshchat/internal/testutil"
)

// workerPollInterval keeps the ingest worker snappy in tests.
const workerPollInterval = 200 * time.Millisecond

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers, the HTTP
// server and a running ingest worker. Embeddings use the deterministic
// fallback, so no external services are needed.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "shoshchat-e2e",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, s3Client, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request scoped to a tenant
func (e *E2ETestEnv) Get(path, tenantID string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil, tenantID)
}

// Post performs a POST request scoped to a tenant
func (e *E2ETestEnv) Post(path string, body interface{}, tenantID string) (*APIResponse, error) {
	return e.doRequest("POST", path, body, tenantID)
}

// PostFile uploads a file source through the multipart endpoint
func (e *E2ETestEnv) PostFile(tenantID, title, fileName string, content []byte) (*APIResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if title != "" {
		if err := writer.WriteField("title", title); err != nil {
			return nil, err
		}
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", e.ServerURL+"/sources/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(middleware.TenantHeader, tenantID)

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeResponse(resp)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, tenantID string) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if tenantID != "" {
		req.Header.Set(middleware.TenantHeader, tenantID)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decodeResponse(resp)
}

func decodeResponse(resp *http.Response) (*APIResponse, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// SourceStatus is the slice of a source response the lifecycle tests poll on.
type SourceStatus struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// WaitForSourceStatus polls a source until the ingest worker moves it to the
// wanted status, failing the test on timeout.
func (e *E2ETestEnv) WaitForSourceStatus(tenantID, sourceID, want string, timeout time.Duration) SourceStatus {
	deadline := time.Now().Add(timeout)
	var last SourceStatus
	for time.Now().Before(deadline) {
		resp, err := e.Get("/sources/"+sourceID, tenantID)
		if err == nil {
			if err := json.Unmarshal(resp.Data, &last); err != nil {
				e.T.Fatalf("failed to parse source response: %v", err)
			}
			if last.Status == want {
				return last
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	e.T.Fatalf("source %s did not reach status %q within %v (last seen %q, error %q)",
		sourceID, want, timeout, last.Status, last.ErrorMessage)
	return last
}

// startServer wires the full stack the way the serve command does and runs
// the ingest worker alongside the HTTP server.
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, port int) (string, func()) {
	sourceRepo := repository.NewSourceRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	llmConfigRepo := repository.NewLLMConfigRepository(pool)

	embedder := embedding.NewEmbedder(llmConfigRepo)
	ingestSvc := service.NewIngestService(sourceRepo, chunkRepo, s3Client, extract.NewRegistry(nil), embedder)

	worker := jobs.NewWorker(jobs.NewIngestWorker(sourceRepo, ingestSvc), workerPollInterval)
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	go worker.Start(workerCtx)

	sourceSvc := service.NewSourceService(sourceRepo, s3Client)
	retrievalSvc := service.NewRetrievalService(chunkRepo, embedder)

	router := server.NewRouter(server.RouterConfig{
		SourceHandler:   handlers.NewSourceHandler(sourceSvc),
		RetrieveHandler: handlers.NewRetrieveHandler(retrievalSvc),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		worker.Stop()
		cancelWorker()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
