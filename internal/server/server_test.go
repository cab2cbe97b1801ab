package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findoc-io/findoc-analyzer/internal/common"
	"github.com/findoc-io/findoc-analyzer/internal/entity"
	"github.com/findoc-io/findoc-analyzer/internal/export"
	"github.com/findoc-io/findoc-analyzer/internal/extract"
	"github.com/findoc-io/findoc-analyzer/internal/ingest"
	"github.com/findoc-io/findoc-analyzer/internal/pdftext"
	"github.com/findoc-io/findoc-analyzer/internal/pipeline"
	"github.com/findoc-io/findoc-analyzer/internal/report"
	"github.com/findoc-io/findoc-analyzer/internal/repository"
)

type fakeTenants struct {
	byID map[uuid.UUID]*entity.Tenant
}

var _ repository.TenantRepository = (*fakeTenants)(nil)

func newFakeTenants() *fakeTenants {
	return &fakeTenants{byID: map[uuid.UUID]*entity.Tenant{}}
}

func (f *fakeTenants) Create(_ context.Context, name, defaultCurrency string, contactEmail *string) (*entity.Tenant, error) {
	t := &entity.Tenant{
		ID: uuid.New(), Name: name, DefaultCurrency: defaultCurrency,
		ContactEmail: contactEmail, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	f.byID[t.ID] = t
	return t, nil
}

func (f *fakeTenants) GetByID(_ context.Context, id uuid.UUID) (*entity.Tenant, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeTenants) GetByName(_ context.Context, name string) (*entity.Tenant, error) {
	for _, t := range f.byID {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeTenants) List(_ context.Context) ([]*entity.Tenant, error) {
	var out []*entity.Tenant
	for _, t := range f.byID {
		out = append(out, t)
	}
	return out, nil
}

type fakeFiles struct {
	byID map[uuid.UUID]*entity.DocumentFile
}

var _ repository.DocumentFileRepository = (*fakeFiles)(nil)

func newFakeFiles() *fakeFiles {
	return &fakeFiles{byID: map[uuid.UUID]*entity.DocumentFile{}}
}

func (f *fakeFiles) GetByID(_ context.Context, id uuid.UUID) (*entity.DocumentFile, error) {
	if file, ok := f.byID[id]; ok {
		return file, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeFiles) GetByTenantAndHash(_ context.Context, tenantID uuid.UUID, hash []byte) (*entity.DocumentFile, error) {
	for _, file := range f.byID {
		if file.TenantID == tenantID && bytes.Equal(file.ContentHash, hash) {
			return file, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeFiles) Create(_ context.Context, tenantID uuid.UUID, sourcePath, filename, ext string, size int, hash []byte, uploadedAt time.Time) (*entity.DocumentFile, error) {
	file := &entity.DocumentFile{
		ID: uuid.New(), TenantID: tenantID, SourcePath: sourcePath, ContentHash: hash,
		Filename: filename, FileExt: ext, FileSize: size, UploadedAt: uploadedAt,
	}
	f.byID[file.ID] = file
	return file, nil
}

func (f *fakeFiles) UpsertByHash(ctx context.Context, tenantID uuid.UUID, sourcePath, filename, ext string, size int, hash []byte, uploadedAt time.Time) (*entity.DocumentFile, bool, error) {
	if existing, err := f.GetByTenantAndHash(ctx, tenantID, hash); err == nil {
		return existing, true, nil
	}
	file, err := f.Create(ctx, tenantID, sourcePath, filename, ext, size, hash, uploadedAt)
	return file, false, err
}

func (f *fakeFiles) ListByTenant(_ context.Context, tenantID uuid.UUID, _ int) ([]*entity.DocumentFile, error) {
	var out []*entity.DocumentFile
	for _, file := range f.byID {
		if file.TenantID == tenantID {
			out = append(out, file)
		}
	}
	return out, nil
}

type fakeJobs struct {
	byID map[uuid.UUID]*entity.ExtractJob
}

var _ repository.ExtractJobRepository = (*fakeJobs)(nil)

func newFakeJobs() *fakeJobs {
	return &fakeJobs{byID: map[uuid.UUID]*entity.ExtractJob{}}
}

func (f *fakeJobs) Start(_ context.Context, fileID, tenantID uuid.UUID, format string) (*entity.ExtractJob, error) {
	j := &entity.ExtractJob{ID: uuid.New(), FileID: fileID, TenantID: tenantID, Format: format, StartedAt: time.Now(), Status: "RUNNING"}
	f.byID[j.ID] = j
	return j, nil
}

func (f *fakeJobs) FinishTextSuccess(_ context.Context, jobID uuid.UUID, documentText, method string, confidence float32) error {
	j := f.byID[jobID]
	j.DocumentText = &documentText
	j.ModelName = &method
	j.ExtractionConfidence = &confidence
	j.Status = "TEXT_OK"
	return nil
}

func (f *fakeJobs) FinishParseSuccess(_ context.Context, jobID uuid.UUID, portfolioID uuid.UUID, extractedJSON []byte, confidence float32, needsReview bool) error {
	j := f.byID[jobID]
	j.PortfolioID = &portfolioID
	j.ExtractedJSON = extractedJSON
	j.ExtractionConfidence = &confidence
	j.NeedsReview = needsReview
	j.Status = "PARSED"
	return nil
}

func (f *fakeJobs) FinishLLMSuccess(_ context.Context, jobID uuid.UUID, modelName string, _ map[string]any) error {
	j := f.byID[jobID]
	j.ModelName = &modelName
	j.Status = "LLM_OK"
	return nil
}

func (f *fakeJobs) FinishFailure(_ context.Context, jobID uuid.UUID, message string) error {
	j := f.byID[jobID]
	j.ErrorMessage = &message
	j.Status = "FAILED"
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	if j, ok := f.byID[jobID]; ok {
		return j, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeJobs) ListByTenant(_ context.Context, tenantID uuid.UUID, status string, _ int) ([]*entity.ExtractJob, error) {
	var out []*entity.ExtractJob
	for _, j := range f.byID {
		if j.TenantID == tenantID && (status == "" || j.Status == status) {
			out = append(out, j)
		}
	}
	return out, nil
}

type fakePortfolios struct {
	byID map[uuid.UUID]*entity.Portfolio
}

var _ repository.PortfolioRepository = (*fakePortfolios)(nil)

func newFakePortfolios() *fakePortfolios {
	return &fakePortfolios{byID: map[uuid.UUID]*entity.Portfolio{}}
}

func (f *fakePortfolios) Upsert(_ context.Context, p *entity.Portfolio) (*entity.Portfolio, error) {
	for _, existing := range f.byID {
		if existing.FileID == p.FileID {
			p.ID = existing.ID
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakePortfolios) GetByID(_ context.Context, id uuid.UUID) (*entity.Portfolio, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakePortfolios) GetByFileID(_ context.Context, fileID uuid.UUID) (*entity.Portfolio, error) {
	for _, p := range f.byID {
		if p.FileID == fileID {
			return p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakePortfolios) ListByTenant(_ context.Context, tenantID uuid.UUID, _ int) ([]*entity.Portfolio, error) {
	var out []*entity.Portfolio
	for _, p := range f.byID {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeIngestor registers a canned file in the files fake and returns it.
type fakeIngestor struct {
	files    *fakeFiles
	fileExt  string
	lastPath string
}

var _ ingest.Ingestor = (*fakeIngestor)(nil)

func (f *fakeIngestor) IngestPath(ctx context.Context, tenantID uuid.UUID, path string) (ingest.IngestionResult, error) {
	f.lastPath = path
	file, err := f.files.Create(ctx, tenantID, path, "statement.txt", f.fileExt, 1024, []byte{0xAB}, time.Now())
	if err != nil {
		return ingest.IngestionResult{}, err
	}
	return ingest.IngestionResult{
		SourcePath: path,
		FileID:     file.ID.String(),
		HashHex:    "ab",
		FileExt:    f.fileExt,
		UploadedAt: file.UploadedAt,
	}, nil
}

func (f *fakeIngestor) IngestDirectory(ctx context.Context, tenantID uuid.UUID, root string, _ bool) ([]ingest.IngestionResult, ingest.DirStats, error) {
	var results []ingest.IngestionResult
	for i := 0; i < 2; i++ {
		r, err := f.IngestPath(ctx, tenantID, fmt.Sprintf("%s/doc-%d.txt", root, i))
		if err != nil {
			return nil, ingest.DirStats{}, err
		}
		results = append(results, r)
	}
	return results, ingest.DirStats{Scanned: 2, Matched: 2, Succeeded: 2}, nil
}

type fakeTextExtractor struct {
	doc extract.Document
}

var _ pdftext.TextExtractor = (*fakeTextExtractor)(nil)

func (f *fakeTextExtractor) Extract(context.Context, string) (pdftext.Result, error) {
	return pdftext.Result{Doc: f.doc, Pages: 1, SourceType: "TEXT", Method: "text", Confidence: 0.9}, nil
}

func statementDoc() extract.Document {
	return extract.Document{
		Text: strings.Join([]string{
			"Global Balanced Portfolio",
			"Valuation date: 31.03.2024",
			"Total value: USD 1'250'000.00",
			"Client: Jordan Example",
		}, "\n"),
		Tables: []extract.Table{
			{
				Title:   "Holdings",
				Headers: []string{"ISIN", "Security Name", "Quantity", "Value", "Weight %"},
				Rows: [][]string{
					{"US0378331005", "Apple Inc", "1200", "230000.00", "18.4"},
					{"CH0012032048", "Roche Holding AG", "400", "110000.00", "8.8"},
				},
			},
		},
	}
}

type fixture struct {
	tenants    *fakeTenants
	files      *fakeFiles
	jobs       *fakeJobs
	portfolios *fakePortfolios
	ingestor   *fakeIngestor
	srv        *httptest.Server
	tenant     *entity.Tenant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	tenants := newFakeTenants()
	files := newFakeFiles()
	jobs := newFakeJobs()
	portfolios := newFakePortfolios()
	ingestor := &fakeIngestor{files: files, fileExt: "txt"}

	tenant, err := tenants.Create(context.Background(), "acme-wealth", "USD", nil)
	require.NoError(t, err)

	text := pipeline.NewTextStage(files, jobs, &fakeTextExtractor{doc: statementDoc()}, logger)
	parse := pipeline.NewParseStage(logger, pipeline.Config{MinConfidence: 0.6}, jobs, portfolios, nil)
	proc := pipeline.NewProcessor(logger, text, parse, nil, 2)

	s := New(logger, tenants, files, jobs, portfolios, ingestor, proc,
		export.NewService(portfolios, files, logger),
		report.NewService(portfolios, files, logger),
		nil,
	)

	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &fixture{tenants: tenants, files: files, jobs: jobs, portfolios: portfolios, ingestor: ingestor, srv: srv, tenant: tenant}
}

func (f *fixture) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.srv.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	resp := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthzUnavailable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s := New(logger, newFakeTenants(), newFakeFiles(), newFakeJobs(), newFakePortfolios(), nil, nil, nil, nil,
		func(context.Context) error { return errors.New("connection refused") })
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateTenantValidation(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/api/tenants", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = f.postJSON(t, "/api/tenants", map[string]any{"name": "x", "default_currency": "NOPE"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateTenantIdempotentByName(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/api/tenants", map[string]any{"name": "north-bank", "default_currency": "CHF"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[entity.Tenant](t, resp)
	assert.Equal(t, "CHF", created.DefaultCurrency)

	resp = f.postJSON(t, "/api/tenants", map[string]any{"name": "north-bank", "default_currency": "CHF"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	again := decodeBody[entity.Tenant](t, resp)
	assert.Equal(t, created.ID, again.ID)
}

func TestGetTenantNotFound(t *testing.T) {
	f := newFixture(t)
	resp := f.get(t, "/api/tenants/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestIngestFileRunsPipeline(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/api/ingest/file", map[string]any{
		"tenant_id": f.tenant.ID.String(),
		"path":      "/docs/statement.txt",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[ingestFileResponse](t, resp)

	assert.Empty(t, out.Error)
	assert.NotEmpty(t, out.JobID)
	assert.Equal(t, "/docs/statement.txt", f.ingestor.lastPath)

	fileID, err := uuid.Parse(out.FileID)
	require.NoError(t, err)
	p, err := f.portfolios.GetByFileID(context.Background(), fileID)
	require.NoError(t, err)
	assert.Len(t, p.Securities, 2)
	assert.Equal(t, "US0378331005", p.Securities[0].ISIN)
}

func TestIngestFileUnknownTenant(t *testing.T) {
	f := newFixture(t)
	resp := f.postJSON(t, "/api/ingest/file", map[string]any{
		"tenant_id": uuid.NewString(),
		"path":      "/docs/statement.txt",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestIngestDirectory(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/api/ingest/directory", map[string]any{
		"tenant_id": f.tenant.ID.String(),
		"root_path": "/docs",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[ingestDirectoryResponse](t, resp)

	assert.EqualValues(t, 2, out.Succeeded)
	assert.Equal(t, 2, out.Processed)
	require.Len(t, out.Results, 2)
	for _, r := range out.Results {
		assert.NotEmpty(t, r.JobID)
		assert.Empty(t, r.Error)
	}
}

func TestListJobsRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	resp := f.get(t, "/api/tenants/"+f.tenant.ID.String()+"/jobs?status=BOGUS")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/api/ingest/file", map[string]any{
		"tenant_id": f.tenant.ID.String(),
		"path":      "/docs/statement.txt",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[ingestFileResponse](t, resp)

	resp = f.get(t, "/api/jobs/"+out.JobID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	job := decodeBody[entity.ExtractJob](t, resp)
	assert.Equal(t, "PARSED", job.Status)
	require.NotNil(t, job.PortfolioID)

	// reparse reruns heuristics over the stored text
	resp = f.postJSON(t, "/api/jobs/"+out.JobID+"/reparse", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decodeBody[entity.Portfolio](t, resp)
	assert.Equal(t, *job.PortfolioID, p.ID)
}

func TestGetPortfolioByFile(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/api/ingest/file", map[string]any{
		"tenant_id": f.tenant.ID.String(),
		"path":      "/docs/statement.txt",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[ingestFileResponse](t, resp)

	resp = f.get(t, "/api/documents/"+out.FileID+"/portfolio")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decodeBody[entity.Portfolio](t, resp)
	assert.Len(t, p.Securities, 2)

	resp = f.get(t, "/api/documents/"+uuid.NewString()+"/portfolio")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestExportAndReportEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/api/ingest/file", map[string]any{
		"tenant_id": f.tenant.ID.String(),
		"path":      "/docs/statement.txt",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[ingestFileResponse](t, resp)

	resp = f.get(t, "/api/documents/"+out.FileID+"/export.xlsx")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	resp = f.get(t, "/api/documents/"+out.FileID+"/report.html")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var html bytes.Buffer
	_, err := html.ReadFrom(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Contains(t, html.String(), "Apple Inc")
	assert.Contains(t, html.String(), "<table>")
}
