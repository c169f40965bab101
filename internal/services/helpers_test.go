package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/ats-matcher/internal/models"
	"alfredoptarigan/ats-matcher/internal/repositories"
)

// fakeGemini answers by recognising which prompt it was given.
type fakeGemini struct {
	mu           sync.Mutex
	prompts      []string
	temperatures []float32
	resumeResp   string
	jdResp       string
	matchResp    string
	failAll      error
	failMatch    error
	embedding    []float32
	embedErr     error
	embedQueries []string
}

func newFakeGemini() *fakeGemini {
	return &fakeGemini{
		resumeResp: "Candidate Name: Jane Doe\nTop 5 Technical Skills: Go, SQL, Docker, gRPC, AWS",
		jdResp:     "Key Technical Requirements: Go, PostgreSQL",
		matchResp:  "1. Match Percentage: 82%\n2. Matching Skills: Go\n3. Missing Skills: Kafka\n4. Verdict: Strong\n5. Improvement Suggestions: add metrics",
		embedding:  []float32{0.1, 0.2, 0.3},
	}
}

func (f *fakeGemini) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.temperatures = append(f.temperatures, temperature)

	if f.failAll != nil {
		return "", f.failAll
	}

	switch {
	case strings.Contains(prompt, "Resume Parser"):
		return f.resumeResp, nil
	case strings.Contains(prompt, "HR Assistant"):
		return f.jdResp, nil
	case strings.Contains(prompt, "Applicant Tracking System"):
		if f.failMatch != nil {
			return "", f.failMatch
		}
		return f.matchResp, nil
	}
	return "", errors.New("unexpected prompt")
}

func (f *fakeGemini) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedQueries = append(f.embedQueries, text)
	return f.embedding, f.embedErr
}

func (f *fakeGemini) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// memoryRepo is an in-memory AnalysisRepository.
type memoryRepo struct {
	mu        sync.Mutex
	analyses  map[uuid.UUID]*models.Analysis
	createErr error
	resultErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{analyses: make(map[uuid.UUID]*models.Analysis)}
}

func (r *memoryRepo) Create(a *models.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	copied := *a
	r.analyses[a.ID] = &copied
	return nil
}

func (r *memoryRepo) FindByID(id uuid.UUID) (*models.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.analyses[id]
	if !ok {
		return nil, repositories.ErrAnalysisNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *memoryRepo) List(limit int) ([]models.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Analysis
	for _, a := range r.analyses {
		out = append(out, *a)
	}
	return out, nil
}

func (r *memoryRepo) MarkProcessing(id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.analyses[id]
	if !ok || a.Status != models.StatusQueued {
		return false, nil
	}
	a.Status = models.StatusProcessing
	a.UpdatedAt = time.Now()
	return true, nil
}

func (r *memoryRepo) UpdateResult(id uuid.UUID, data *repositories.AnalysisUpdateData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resultErr != nil {
		return r.resultErr
	}
	a, ok := r.analyses[id]
	if !ok {
		return repositories.ErrAnalysisNotFound
	}
	a.Status = models.StatusCompleted
	a.ParsedResume = data.ParsedResume
	a.ParsedJobDescription = data.ParsedJobDescription
	a.ATSResult = data.ATSResult
	a.MatchPercentage = data.MatchPercentage
	return nil
}

func (r *memoryRepo) UpdateError(id uuid.UUID, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.analyses[id]
	if !ok {
		return repositories.ErrAnalysisNotFound
	}
	a.Status = models.StatusFailed
	a.ErrorMessage = &msg
	return nil
}

func (r *memoryRepo) FindQueued(limit int) ([]models.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Analysis
	for _, a := range r.analyses {
		if a.Status == models.StatusQueued && len(out) < limit {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memoryRepo) FailStale(before time.Time, msg string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.analyses {
		if a.Status == models.StatusProcessing && a.UpdatedAt.Before(before) {
			a.Status = models.StatusFailed
			message := msg
			a.ErrorMessage = &message
			n++
		}
	}
	return n, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []AnalysisEvent
}

func (p *recordingPublisher) PublishAnalysisEvent(ctx context.Context, event AnalysisEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingArchive struct {
	mu    sync.Mutex
	files []string
	err   error
}

func (a *recordingArchive) Archive(ctx context.Context, storedFilename, filePath string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files = append(a.files, storedFilename)
	return a.err
}

func (a *recordingArchive) Enabled() bool { return true }

// newFileHeader builds a real multipart.FileHeader the way a server would receive it.
func newFileHeader(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	t.Cleanup(func() { req.MultipartForm.RemoveAll() })

	return req.MultipartForm.File[field][0]
}
