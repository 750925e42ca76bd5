package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"jobapply/internal/app"
	"jobapply/internal/common"
	"jobapply/internal/datauri"
	"jobapply/internal/domain/application"
	"jobapply/internal/http/handlers"
	"jobapply/internal/http/metrics"
)

type memoryApplicationRepo struct {
	mu    sync.Mutex
	apps  map[string]*application.Application
	order []string
}

func newMemoryApplicationRepo() *memoryApplicationRepo {
	return &memoryApplicationRepo{apps: make(map[string]*application.Application)}
}

func (r *memoryApplicationRepo) Create(ctx context.Context, app application.Application) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.Email == app.Email || existing.Phone == app.Phone {
			return "", common.NewError(common.CodeConflict, "an application with this email or phone number already exists", nil)
		}
	}
	r.apps[app.RefNo] = &app
	r.order = append(r.order, app.RefNo)
	return app.RefNo, nil
}

func (r *memoryApplicationRepo) ExistsByContact(ctx context.Context, email, phone string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.Email == email || existing.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryApplicationRepo) List(ctx context.Context) ([]application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]application.Application, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		app, ok := r.apps[r.order[i]]
		if !ok {
			continue
		}
		withTypes, err := withDocumentTypes(*app)
		if err != nil {
			return nil, err
		}
		items = append(items, *withTypes)
	}
	return items, nil
}

func (r *memoryApplicationRepo) GetByRefNo(ctx context.Context, refNo string) (*application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[refNo]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	return withDocumentTypes(*app)
}

func (r *memoryApplicationRepo) GetOfferLetter(ctx context.Context, refNo string) (*application.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[refNo]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "application not found", nil)
	}
	if app.Documents.OfferLetter == nil {
		return nil, common.NewError(common.CodeNotFound, "offer letter not found for this application", nil)
	}
	letter := *app.Documents.OfferLetter
	return &letter, nil
}

func (r *memoryApplicationRepo) UpdateStatus(ctx context.Context, refNo, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[refNo]
	if !ok {
		return common.NewError(common.CodeNotFound, "application not found", nil)
	}
	app.Status = status
	return nil
}

func (r *memoryApplicationRepo) AttachOfferLetter(ctx context.Context, refNo string, letter application.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[refNo]
	if !ok {
		return common.NewError(common.CodeNotFound, "application not found", nil)
	}
	app.Status = application.StatusApproved
	app.Documents.OfferLetter = &letter
	return nil
}

func (r *memoryApplicationRepo) DeleteByRefNos(ctx context.Context, refNos []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for _, refNo := range refNos {
		if _, ok := r.apps[refNo]; ok {
			delete(r.apps, refNo)
			deleted++
		}
	}
	return deleted, nil
}

func withDocumentTypes(app application.Application) (*application.Application, error) {
	required := []*application.Document{&app.Documents.SSCCertificate, &app.Documents.HSCCertificate, &app.Documents.GraduationCertificate}
	for _, doc := range required {
		mimeType, err := datauri.MIMEType(doc.Data)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "stored document is not a valid data URI", err)
		}
		doc.Type = mimeType
	}
	for _, slot := range []**application.Document{&app.Documents.PGCertificate, &app.Documents.RelievingLetter, &app.Documents.OfferLetter} {
		if *slot == nil {
			continue
		}
		copied := **slot
		mimeType, err := datauri.MIMEType(copied.Data)
		if err != nil {
			return nil, common.NewError(common.CodeInternal, "stored document is not a valid data URI", err)
		}
		copied.Type = mimeType
		*slot = &copied
	}
	return &app, nil
}

func newTestRouter() http.Handler {
	repo := newMemoryApplicationRepo()
	service := app.NewApplicationService(repo)
	handler := handlers.NewApplicationHandler(service, nil, 0)
	collector := metrics.NewCollector()
	return NewRouter(RouterDependencies{
		ApplicationHandler: handler,
		MetricsHandler:     metrics.NewHandler(collector),
		Metrics:            collector,
		RequestTimeout:     5 * time.Second,
		MaxBodyBytes:       1 << 20,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const createBody = `{
	"refNo": "APP1001",
	"name": "Asha Rao",
	"email": "a@x.com",
	"phone": "1111111111",
	"documents": {
		"sscCertificate": {"name": "s.pdf", "data": "data:application/pdf;base64,AAA="},
		"hscCertificate": {"name": "h.pdf", "data": "data:application/pdf;base64,AAA="},
		"graduationCertificate": {"name": "g.pdf", "data": "data:application/pdf;base64,AAA="}
	}
}`

func TestCheckDuplicateRequiresFields(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodPost, "/api/check-duplicate", `{"email": "a@x.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if msg, ok := body["error"].(string); !ok || msg == "" {
		t.Fatalf("expected error message in body, got %v", body)
	}
}

func TestCreateAndFetchApplication(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/api/applications", createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		RefNo   string `json:"refNo"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if created.RefNo != "APP1001" {
		t.Fatalf("unexpected refNo: %s", created.RefNo)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/applications/APP1001", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var fetched map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if fetched["status"] != "New" {
		t.Fatalf("expected status New, got %v", fetched["status"])
	}
	documents := fetched["documents"].(map[string]any)
	ssc := documents["sscCertificate"].(map[string]any)
	if ssc["type"] != "application/pdf" {
		t.Fatalf("expected derived pdf type, got %v", ssc["type"])
	}
	if _, present := documents["pgCertificate"]; present {
		t.Fatalf("absent optional document must be omitted, not null")
	}
}

func TestCreateDuplicateReturns400(t *testing.T) {
	router := newTestRouter()
	if rec := doJSON(t, router, http.MethodPost, "/api/applications", createBody); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	duplicate := strings.Replace(createBody, "APP1001", "APP1002", 1)
	rec := doJSON(t, router, http.MethodPost, "/api/applications", duplicate)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate contact, got %d", rec.Code)
	}
}

func TestCreateMissingFieldsReturns400(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodPost, "/api/applications", `{"refNo": "APP1001", "email": "a@x.com", "phone": "1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing documents, got %d", rec.Code)
	}
}

func TestGetUnknownApplicationReturns404(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodGet, "/api/applications/APP9999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListReturnsNewestFirst(t *testing.T) {
	router := newTestRouter()
	if rec := doJSON(t, router, http.MethodPost, "/api/applications", createBody); rec.Code != http.StatusCreated {
		t.Fatalf("seed create failed: %d", rec.Code)
	}
	second := strings.NewReplacer("APP1001", "APP1002", "a@x.com", "b@x.com", "1111111111", "2222222222").Replace(createBody)
	if rec := doJSON(t, router, http.MethodPost, "/api/applications", second); rec.Code != http.StatusCreated {
		t.Fatalf("second create failed: %d", rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/applications", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var items []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 applications, got %d", len(items))
	}
	if items[0]["refNo"] != "APP1002" {
		t.Fatalf("expected newest first, got %v", items[0]["refNo"])
	}
}

func TestOfferLetterEndpoints(t *testing.T) {
	router := newTestRouter()
	if rec := doJSON(t, router, http.MethodPost, "/api/applications", createBody); rec.Code != http.StatusCreated {
		t.Fatalf("seed create failed: %d", rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/applications/APP1001/document/offerLetter", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before attachment, got %d", rec.Code)
	}

	payload := []byte("offer letter content")
	uri := datauri.Encode("application/pdf", payload)
	attach, _ := json.Marshal(map[string]any{"offerLetter": map[string]string{"name": "offer.pdf", "data": uri}})
	rec = doJSON(t, router, http.MethodPut, "/api/applications/APP1001/offer-letter", string(attach))
	if rec.Code != http.StatusOK {
		t.Fatalf("attach failed: %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/applications/APP1001", "")
	var fetched map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if fetched["status"] != "Approved" {
		t.Fatalf("expected status Approved after attachment, got %v", fetched["status"])
	}

	rec = doJSON(t, router, http.MethodGet, "/api/applications/APP1001/document/offerLetter", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after attachment, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("unexpected content type: %s", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, `filename="offer.pdf"`) {
		t.Fatalf("unexpected disposition: %s", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), payload) {
		t.Fatalf("letter bytes mismatch: %q", rec.Body.Bytes())
	}
}

func TestUpdateStatus(t *testing.T) {
	router := newTestRouter()
	if rec := doJSON(t, router, http.MethodPost, "/api/applications", createBody); rec.Code != http.StatusCreated {
		t.Fatalf("seed create failed: %d", rec.Code)
	}

	rec := doJSON(t, router, http.MethodPut, "/api/applications/APP1001/status", `{"status": "Anything"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/applications/APP1001", "")
	var fetched map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if fetched["status"] != "Anything" {
		t.Fatalf("expected status Anything, got %v", fetched["status"])
	}

	rec = doJSON(t, router, http.MethodPut, "/api/applications/APP9999/status", `{"status": "New"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown refNo, got %d", rec.Code)
	}
}

func TestDeleteApplications(t *testing.T) {
	router := newTestRouter()
	if rec := doJSON(t, router, http.MethodPost, "/api/applications", createBody); rec.Code != http.StatusCreated {
		t.Fatalf("seed create failed: %d", rec.Code)
	}

	rec := doJSON(t, router, http.MethodDelete, "/api/applications", `{"refNos": []}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty refNos, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/applications", `{"refNos": ["APP1001", "APP9999"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "1 application(s) deleted successfully" {
		t.Fatalf("unexpected message: %s", body.Message)
	}

	if rec := doJSON(t, router, http.MethodGet, "/api/applications/APP1001", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after deletion, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter()
	if rec := doJSON(t, router, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	rec := doJSON(t, router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "job_application_requests_total") {
		t.Fatalf("metrics exposition missing counters: %s", rec.Body.String())
	}
}
