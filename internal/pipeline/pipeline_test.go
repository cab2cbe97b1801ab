package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findoc-io/findoc-analyzer/constants"
	"github.com/findoc-io/findoc-analyzer/internal/common"
	"github.com/findoc-io/findoc-analyzer/internal/entity"
	"github.com/findoc-io/findoc-analyzer/internal/extract"
	"github.com/findoc-io/findoc-analyzer/internal/llm"
	"github.com/findoc-io/findoc-analyzer/internal/pdftext"
)

// ---- fakes ----

type fakeFiles struct {
	files map[uuid.UUID]*entity.DocumentFile
}

func (f *fakeFiles) GetByID(_ context.Context, id uuid.UUID) (*entity.DocumentFile, error) {
	df, ok := f.files[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return df, nil
}
func (f *fakeFiles) GetByTenantAndHash(context.Context, uuid.UUID, []byte) (*entity.DocumentFile, error) {
	return nil, common.ErrNotFound
}
func (f *fakeFiles) Create(context.Context, uuid.UUID, string, string, string, int, []byte, time.Time) (*entity.DocumentFile, error) {
	return nil, common.ErrInternal
}
func (f *fakeFiles) UpsertByHash(context.Context, uuid.UUID, string, string, string, int, []byte, time.Time) (*entity.DocumentFile, bool, error) {
	return nil, false, common.ErrInternal
}
func (f *fakeFiles) ListByTenant(context.Context, uuid.UUID, int) ([]*entity.DocumentFile, error) {
	return nil, nil
}

type fakeJobs struct {
	jobs map[uuid.UUID]*entity.ExtractJob
}

func newFakeJobs() *fakeJobs { return &fakeJobs{jobs: map[uuid.UUID]*entity.ExtractJob{}} }

func (f *fakeJobs) Start(_ context.Context, fileID, tenantID uuid.UUID, format string) (*entity.ExtractJob, error) {
	j := &entity.ExtractJob{
		ID: uuid.New(), FileID: fileID, TenantID: tenantID,
		Format: format, StartedAt: time.Now(), Status: string(constants.JobStatusRunning),
	}
	f.jobs[j.ID] = j
	return j, nil
}

func (f *fakeJobs) FinishTextSuccess(_ context.Context, jobID uuid.UUID, text, method string, confidence float32) error {
	j := f.jobs[jobID]
	j.DocumentText = &text
	j.ModelName = &method
	j.ExtractionConfidence = &confidence
	j.Status = string(constants.JobStatusTextOK)
	return nil
}

func (f *fakeJobs) FinishParseSuccess(_ context.Context, jobID, portfolioID uuid.UUID, extracted []byte, confidence float32, needsReview bool) error {
	j := f.jobs[jobID]
	j.PortfolioID = &portfolioID
	j.ExtractedJSON = extracted
	j.ExtractionConfidence = &confidence
	j.NeedsReview = needsReview
	j.Status = string(constants.JobStatusParsed)
	return nil
}

func (f *fakeJobs) FinishLLMSuccess(_ context.Context, jobID uuid.UUID, modelName string, _ map[string]any) error {
	j := f.jobs[jobID]
	j.ModelName = &modelName
	j.Status = string(constants.JobStatusLLMOK)
	return nil
}

func (f *fakeJobs) FinishFailure(_ context.Context, jobID uuid.UUID, message string) error {
	j := f.jobs[jobID]
	j.ErrorMessage = &message
	j.Status = string(constants.JobStatusFailed)
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	j, ok := f.jobs[jobID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return j, nil
}

func (f *fakeJobs) ListByTenant(context.Context, uuid.UUID, string, int) ([]*entity.ExtractJob, error) {
	return nil, nil
}

type fakePortfolios struct {
	byFile map[uuid.UUID]*entity.Portfolio
}

func newFakePortfolios() *fakePortfolios {
	return &fakePortfolios{byFile: map[uuid.UUID]*entity.Portfolio{}}
}

func (f *fakePortfolios) Upsert(_ context.Context, p *entity.Portfolio) (*entity.Portfolio, error) {
	if existing, ok := f.byFile[p.FileID]; ok {
		p.ID = existing.ID
	} else if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	f.byFile[p.FileID] = &cp
	return &cp, nil
}

func (f *fakePortfolios) GetByID(_ context.Context, id uuid.UUID) (*entity.Portfolio, error) {
	for _, p := range f.byFile {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakePortfolios) GetByFileID(_ context.Context, fileID uuid.UUID) (*entity.Portfolio, error) {
	p, ok := f.byFile[fileID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p, nil
}

func (f *fakePortfolios) ListByTenant(context.Context, uuid.UUID, int) ([]*entity.Portfolio, error) {
	return nil, nil
}

type fakeTenants struct {
	tenant *entity.Tenant
}

func (f *fakeTenants) Create(context.Context, string, string, *string) (*entity.Tenant, error) {
	return f.tenant, nil
}
func (f *fakeTenants) GetByID(_ context.Context, id uuid.UUID) (*entity.Tenant, error) {
	if f.tenant != nil && f.tenant.ID == id {
		return f.tenant, nil
	}
	return nil, common.ErrNotFound
}
func (f *fakeTenants) GetByName(context.Context, string) (*entity.Tenant, error) {
	return f.tenant, nil
}
func (f *fakeTenants) List(context.Context) ([]*entity.Tenant, error) {
	return []*entity.Tenant{f.tenant}, nil
}

type fakeTextExtractor struct {
	res pdftext.Result
	err error
}

func (f *fakeTextExtractor) Extract(context.Context, string) (pdftext.Result, error) {
	return f.res, f.err
}

type fakeFieldExtractor struct {
	fields llm.PortfolioFields
	err    error
	calls  int
	lastRq llm.ExtractRequest
}

func (f *fakeFieldExtractor) ExtractFields(_ context.Context, req llm.ExtractRequest) (llm.PortfolioFields, []byte, error) {
	f.calls++
	f.lastRq = req
	return f.fields, nil, f.err
}

// ---- fixtures ----

func statementDocument() extract.Document {
	return extract.Document{
		Text: "Portfolio Valuation Report\nValuation Date: 31.12.2024\nTotal Value: CHF 1'250'000.00\n",
		Tables: []extract.Table{
			{
				Title:   "Holdings",
				Headers: []string{"ISIN", "Security Name", "Quantity", "Market Value", "Weight"},
				Rows: [][]string{
					{"US0378331005", "Apple Inc", "500", "95'000.00", "7.6%"},
					{"CH0012032048", "Roche Holding AG", "300", "83'400.00", "6.7%"},
				},
			},
		},
	}
}

func newPipelineFixture() (*fakeFiles, *fakeJobs, *fakePortfolios, *fakeTenants, uuid.UUID, uuid.UUID) {
	tenantID := uuid.New()
	fileID := uuid.New()
	files := &fakeFiles{files: map[uuid.UUID]*entity.DocumentFile{
		fileID: {
			ID: fileID, TenantID: tenantID,
			SourcePath: "/data/statements/q4.pdf", Filename: "q4.pdf", FileExt: "pdf",
		},
	}}
	tenants := &fakeTenants{tenant: &entity.Tenant{ID: tenantID, Name: "acme", DefaultCurrency: "CHF"}}
	return files, newFakeJobs(), newFakePortfolios(), tenants, tenantID, fileID
}

// ---- tests ----

func TestTextStageRun(t *testing.T) {
	files, jobs, _, _, _, fileID := newPipelineFixture()
	tx := &fakeTextExtractor{res: pdftext.Result{
		Doc: statementDocument(), Method: "pdf-lib", Pages: 3, Confidence: 0.8,
		SourceType: constants.PDF,
	}}
	stage := NewTextStage(files, jobs, tx, nil)

	jobID, res, err := stage.Run(context.Background(), fileID)
	require.NoError(t, err)
	assert.Equal(t, "pdf-lib", res.Method)

	job := jobs.jobs[jobID]
	assert.Equal(t, string(constants.JobStatusTextOK), job.Status)
	require.NotNil(t, job.DocumentText)
	assert.Contains(t, *job.DocumentText, "Portfolio Valuation Report")
}

func TestTextStageFailureMarksJob(t *testing.T) {
	files, jobs, _, _, _, fileID := newPipelineFixture()
	tx := &fakeTextExtractor{err: assert.AnError}
	stage := NewTextStage(files, jobs, tx, nil)

	jobID, _, err := stage.Run(context.Background(), fileID)
	require.Error(t, err)
	assert.Equal(t, string(constants.JobStatusFailed), jobs.jobs[jobID].Status)
}

func TestParseStageRun(t *testing.T) {
	files, jobs, portfolios, _, tenantID, fileID := newPipelineFixture()
	_ = files

	job, err := jobs.Start(context.Background(), fileID, tenantID, constants.PDF)
	require.NoError(t, err)

	doc := statementDocument()
	stage := NewParseStage(nil, Config{MinConfidence: 0.60}, jobs, portfolios, nil)

	p, err := stage.Run(context.Background(), job.ID, &doc)
	require.NoError(t, err)
	assert.Equal(t, tenantID, p.TenantID)
	assert.Equal(t, fileID, p.FileID)
	require.Len(t, p.Securities, 2)
	assert.Equal(t, "US0378331005", p.Securities[0].ISIN)

	stored := jobs.jobs[job.ID]
	assert.Equal(t, string(constants.JobStatusParsed), stored.Status)
	assert.NotEmpty(t, stored.ExtractedJSON)
	require.NotNil(t, stored.PortfolioID)
	assert.Equal(t, p.ID, *stored.PortfolioID)
}

func TestParseStageRebuildsDocFromText(t *testing.T) {
	_, jobs, portfolios, _, tenantID, fileID := newPipelineFixture()

	job, err := jobs.Start(context.Background(), fileID, tenantID, constants.PDF)
	require.NoError(t, err)

	text := "Holdings\nISIN          Name             Value\nUS0378331005  Apple Inc        12'000.00\nCH0012032048  Roche Holding AG  8'500.00\n"
	require.NoError(t, jobs.FinishTextSuccess(context.Background(), job.ID, text, "pdf-lib", 0.8))

	stage := NewParseStage(nil, Config{}, jobs, portfolios, nil)
	p, err := stage.Run(context.Background(), job.ID, nil)
	require.NoError(t, err)
	assert.Len(t, p.Securities, 2)
}

func TestMissingSections(t *testing.T) {
	p := &entity.Portfolio{}
	assert.ElementsMatch(t, []string{"metadata", "securities", "allocations", "performance"}, MissingSections(p))

	full := &entity.Portfolio{
		Title:    "Q4",
		Currency: "CHF",
	}
	now := time.Now()
	full.ValuationDate = &now
	tv := decimalFromString(t, "100")
	full.TotalValue = tv
	full.Securities = []entity.Security{{Name: "Apple Inc"}}
	full.Allocations = []entity.Allocation{{AssetClass: "Equities"}}
	full.Performance = &entity.Performance{YTD: decimalFromString(t, "5")}
	assert.Empty(t, MissingSections(full))
}

func TestMergeFieldsHeuristicsWin(t *testing.T) {
	p := &entity.Portfolio{
		Title:    "Portfolio Valuation Report",
		Currency: "CHF",
		Securities: []entity.Security{
			{ISIN: "US0378331005", Name: "Apple Inc"},
		},
		Confidence: entity.SectionConfidence{Metadata: 0.8, Securities: 0.9},
	}

	fields := llm.PortfolioFields{
		Title:        "Some Other Title",
		CurrencyCode: "EUR",
		Owner:        "John Example",
		Securities: []llm.SecurityFields{
			{ISIN: "US0378331005", Name: "Apple Inc"},                  // dup, skipped
			{ISIN: "US1234567890", Name: "Bogus Corp"},                 // bad check digit
			{ISIN: "CH0012032048", Name: "Roche Holding AG", Value: "83400"},
		},
		Allocations: []llm.AllocationFields{
			{AssetClass: "Equities", Percent: "60"},
			{AssetClass: "Fixed Income", Percent: "40"},
		},
		Performance: map[string]string{"ytd": "8.4", "bogus": "1"},
	}

	merged := MergeFields(p, fields, nil)

	// heuristic values survive
	assert.Equal(t, "Portfolio Valuation Report", merged.Title)
	assert.Equal(t, "CHF", merged.Currency)
	// blanks get filled
	assert.Equal(t, "John Example", merged.Owner)

	require.Len(t, merged.Securities, 3)
	assert.Equal(t, "CH0012032048", merged.Securities[2].ISIN)
	// the invalid identifier was dropped but the holding kept
	assert.Empty(t, merged.Securities[1].ISIN)
	assert.Equal(t, "Bogus Corp", merged.Securities[1].Name)

	require.Len(t, merged.Allocations, 2)
	assert.Equal(t, "Fixed Income", merged.Allocations[1].AssetClass)

	require.NotNil(t, merged.Performance)
	require.NotNil(t, merged.Performance.YTD)
	assert.Equal(t, "8.4", merged.Performance.YTD.String())

	assert.Equal(t, llmSectionConfidence, merged.Confidence.Allocations)
	assert.Equal(t, llmSectionConfidence, merged.Confidence.Performance)
	// already-confident sections keep their score
	assert.Equal(t, float32(0.9), merged.Confidence.Securities)
	assert.Greater(t, merged.Confidence.Overall, float32(0))
}

func TestLLMStageSkipsWhenComplete(t *testing.T) {
	files, jobs, portfolios, tenants, tenantID, fileID := newPipelineFixture()

	job, err := jobs.Start(context.Background(), fileID, tenantID, constants.PDF)
	require.NoError(t, err)

	now := time.Now()
	p := &entity.Portfolio{
		TenantID: tenantID, FileID: fileID,
		Title: "Q4", Currency: "CHF", ValuationDate: &now, TotalValue: decimalFromString(t, "100"),
		Securities:  []entity.Security{{Name: "Apple Inc"}},
		Allocations: []entity.Allocation{{AssetClass: "Equities"}},
		Performance: &entity.Performance{YTD: decimalFromString(t, "5")},
		Confidence:  entity.SectionConfidence{Overall: 0.9},
	}

	fe := &fakeFieldExtractor{}
	stage := NewLLMStage(nil, Config{MinConfidence: 0.60}, jobs, files, portfolios, tenants, fe, "test/model")

	out, err := stage.Run(context.Background(), job.ID, p, "text")
	require.NoError(t, err)
	assert.Zero(t, fe.calls)
	assert.Same(t, p, out)
}

func TestLLMStageFillsGaps(t *testing.T) {
	files, jobs, portfolios, tenants, tenantID, fileID := newPipelineFixture()

	job, err := jobs.Start(context.Background(), fileID, tenantID, constants.PDF)
	require.NoError(t, err)

	p := &entity.Portfolio{
		TenantID: tenantID, FileID: fileID,
		Securities: []entity.Security{{ISIN: "US0378331005", Name: "Apple Inc"}},
		Confidence: entity.SectionConfidence{Securities: 0.9, Overall: 0.45},
	}

	fe := &fakeFieldExtractor{fields: llm.PortfolioFields{
		Title:        "Q4 Statement",
		CurrencyCode: "CHF",
		Allocations:  []llm.AllocationFields{{AssetClass: "Equities", Percent: "100"}},
	}}
	stage := NewLLMStage(nil, Config{MinConfidence: 0.60}, jobs, files, portfolios, tenants, fe, "test/model")

	out, err := stage.Run(context.Background(), job.ID, p, "document text")
	require.NoError(t, err)
	assert.Equal(t, 1, fe.calls)

	// tenant default currency flows into the request
	assert.Equal(t, "CHF", fe.lastRq.DefaultCurrency)
	assert.Equal(t, []string{"US0378331005"}, fe.lastRq.KnownIdentifiers)
	assert.Equal(t, "q4.pdf", fe.lastRq.FilenameHint)
	assert.Contains(t, fe.lastRq.WantSections, "allocations")

	assert.Equal(t, "Q4 Statement", out.Title)
	assert.Len(t, out.Allocations, 1)
	assert.Equal(t, string(constants.JobStatusLLMOK), jobs.jobs[job.ID].Status)
}

func TestProcessorProcessFile(t *testing.T) {
	files, jobs, portfolios, tenants, _, fileID := newPipelineFixture()

	tx := &fakeTextExtractor{res: pdftext.Result{
		Doc: statementDocument(), Method: "pdf-lib", Confidence: 0.8, SourceType: constants.PDF,
	}}
	fe := &fakeFieldExtractor{fields: llm.PortfolioFields{
		Allocations: []llm.AllocationFields{{AssetClass: "Equities", Percent: "100"}},
	}}

	text := NewTextStage(files, jobs, tx, nil)
	parse := NewParseStage(nil, Config{}, jobs, portfolios, nil)
	llmStage := NewLLMStage(nil, Config{}, jobs, files, portfolios, tenants, fe, "test/model")
	proc := NewProcessor(nil, text, parse, llmStage, 2)

	jobID, portfolio, err := proc.ProcessFile(context.Background(), fileID)
	require.NoError(t, err)
	require.NotNil(t, portfolio)
	assert.Len(t, portfolio.Securities, 2)

	job := jobs.jobs[jobID]
	assert.Equal(t, string(constants.JobStatusLLMOK), job.Status)
}

func TestProcessorProcessBatch(t *testing.T) {
	files, jobs, portfolios, _, tenantID, fileID := newPipelineFixture()

	otherID := uuid.New()
	files.files[otherID] = &entity.DocumentFile{
		ID: otherID, TenantID: tenantID,
		SourcePath: "/data/statements/q3.pdf", Filename: "q3.pdf", FileExt: "pdf",
	}

	tx := &fakeTextExtractor{res: pdftext.Result{
		Doc: statementDocument(), Method: "pdf-lib", Confidence: 0.8, SourceType: constants.PDF,
	}}
	proc := NewProcessor(nil,
		NewTextStage(files, jobs, tx, nil),
		NewParseStage(nil, Config{}, jobs, portfolios, nil),
		nil, 2)

	outcomes := proc.ProcessBatch(context.Background(), []uuid.UUID{fileID, otherID, uuid.New()})
	require.Len(t, outcomes, 3)
	assert.NoError(t, outcomes[0].Err)
	assert.NoError(t, outcomes[1].Err)
	assert.Error(t, outcomes[2].Err) // unknown file
}

func decimalFromString(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return &d
}
