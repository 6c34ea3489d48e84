package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aferrand/housetab/internal/auth"
	"github.com/aferrand/housetab/internal/config"
	"github.com/aferrand/housetab/internal/models"
	"github.com/aferrand/housetab/internal/storage/sqlite"
	"github.com/aferrand/housetab/internal/vision"
)

// stubAnalyzer returns a canned analysis per image without talking to any
// model.
type stubAnalyzer struct {
	analysis vision.Analysis
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ []byte, _ string, hint vision.BulkHint) (*vision.Analysis, error) {
	a := s.analysis
	return &a, nil
}

var testToday = time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)

type testAPI struct {
	server *httptest.Server
	token  string
}

func setupTestAPI(t *testing.T, analyzer vision.Analyzer) *testAPI {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tokens := auth.NewTokenManager("test-secret-0123456789abcdef", time.Hour)
	handler := New(store, tokens, analyzer, &config.Config{
		MaxImageBytes: 1 << 20,
		AnalyzeBurst:  2,
	})
	handler.now = func() time.Time { return testToday }

	root := chi.NewRouter()
	root.Mount("/api", handler.Routes())

	server := httptest.NewServer(root)
	t.Cleanup(server.Close)

	return &testAPI{server: server}
}

func (a *testAPI) request(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func (a *testAPI) createHousehold(t *testing.T) {
	t.Helper()
	status, resp := a.request(t, http.MethodPost, "/api/households", map[string]any{
		"name":            "Maple Street",
		"member_one_name": "Ana",
		"member_two_name": "Ben",
		"passcode":        "sesame",
	})
	if status != http.StatusCreated {
		t.Fatalf("create household status = %d, resp = %v", status, resp)
	}
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatal("create household returned no token")
	}
	a.token = token
}

func TestCreateHouseholdValidation(t *testing.T) {
	api := setupTestAPI(t, &stubAnalyzer{})

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{
			name:       "missing household name",
			body:       map[string]any{"member_one_name": "Ana", "member_two_name": "Ben", "passcode": "sesame"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "identical member names",
			body:       map[string]any{"name": "Maple", "member_one_name": "Ana", "member_two_name": "ana", "passcode": "sesame"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "short passcode",
			body:       map[string]any{"name": "Maple", "member_one_name": "Ana", "member_two_name": "Ben", "passcode": "ab"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "valid",
			body:       map[string]any{"name": "Maple", "member_one_name": "Ana", "member_two_name": "Ben", "passcode": "sesame"},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := api.request(t, http.MethodPost, "/api/households", tt.body)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d, resp = %v", status, tt.wantStatus, resp)
			}
		})
	}
}

func TestLoginFlow(t *testing.T) {
	api := setupTestAPI(t, &stubAnalyzer{})
	api.createHousehold(t)
	api.token = ""

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantMember string
	}{
		{
			name:       "member two by case-insensitive name",
			body:       map[string]any{"household_name": "maple street", "member_name": "BEN", "passcode": "sesame"},
			wantStatus: http.StatusOK,
			wantMember: "user_2",
		},
		{
			name:       "unknown household",
			body:       map[string]any{"household_name": "Oak Avenue", "member_name": "Ben", "passcode": "sesame"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "wrong passcode",
			body:       map[string]any{"household_name": "Maple Street", "member_name": "Ben", "passcode": "wrong"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown member name",
			body:       map[string]any{"household_name": "Maple Street", "member_name": "Carla", "passcode": "sesame"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := api.request(t, http.MethodPost, "/api/session/login", tt.body)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d, resp = %v", status, tt.wantStatus, resp)
			}
			if tt.wantMember != "" {
				if got, _ := resp["member_code"].(string); got != tt.wantMember {
					t.Errorf("member_code = %q, want %q", got, tt.wantMember)
				}
			}
		})
	}
}

func TestSessionRequired(t *testing.T) {
	api := setupTestAPI(t, &stubAnalyzer{})

	status, _ := api.request(t, http.MethodGet, "/api/dashboard", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", status)
	}

	api.token = "garbage"
	status, _ = api.request(t, http.MethodGet, "/api/dashboard", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("status with garbage token = %d, want 401", status)
	}
}

func TestManualExpenseDashboardAndSettle(t *testing.T) {
	api := setupTestAPI(t, &stubAnalyzer{})
	api.createHousehold(t)

	status, resp := api.request(t, http.MethodPost, "/api/receipts/manual", map[string]any{
		"vendor":       "Hardware Store",
		"expense_date": "2026-02-10",
		"currency":     "eur",
		"total":        100,
	})
	if status != http.StatusCreated {
		t.Fatalf("manual expense status = %d, resp = %v", status, resp)
	}
	if resp["currency"] != "EUR" {
		t.Errorf("currency = %v, want EUR", resp["currency"])
	}
	if resp["saved"] != true {
		t.Error("manual expense should be saved immediately")
	}
	if resp["subtotal"] != resp["total"] {
		t.Errorf("subtotal should default to total, got %v and %v", resp["subtotal"], resp["total"])
	}

	status, resp = api.request(t, http.MethodPost, "/api/receipts/manual", map[string]any{
		"total": "not a number",
	})
	if status != http.StatusBadRequest {
		t.Errorf("junk total status = %d, want 400, resp = %v", status, resp)
	}

	status, dashboard := api.request(t, http.MethodGet, "/api/dashboard", nil)
	if status != http.StatusOK {
		t.Fatalf("dashboard status = %d, resp = %v", status, dashboard)
	}

	settlement, _ := dashboard["settlement"].(map[string]any)
	if settlement["message"] != "Ben should pay Ana 50.00." {
		t.Errorf("settlement message = %v", settlement["message"])
	}
	if dashboard["currency"] != "EUR" {
		t.Errorf("dashboard currency = %v, want EUR", dashboard["currency"])
	}

	current, _ := dashboard["current_month"].(map[string]any)
	if current["label"] != "February 2026" {
		t.Errorf("current month label = %v", current["label"])
	}
	if current["receipt_count"] != float64(1) {
		t.Errorf("current month receipt_count = %v, want 1", current["receipt_count"])
	}

	notifications, _ := dashboard["notifications"].([]any)
	if len(notifications) != 2 {
		t.Fatalf("len(notifications) = %d, want 2", len(notifications))
	}
	first, _ := notifications[0].(map[string]any)
	if first["message"] != "Payment due: send 50.00 EUR to Ana." {
		t.Errorf("payer notification = %v", first["message"])
	}

	status, settled := api.request(t, http.MethodPost, "/api/settle", nil)
	if status != http.StatusOK {
		t.Fatalf("settle status = %d, resp = %v", status, settled)
	}
	if settled["settled_receipts"] != float64(1) {
		t.Errorf("settled_receipts = %v, want 1", settled["settled_receipts"])
	}

	// A second settle finds nothing open.
	status, _ = api.request(t, http.MethodPost, "/api/settle", nil)
	if status != http.StatusBadRequest {
		t.Errorf("second settle status = %d, want 400", status)
	}

	// The dashboard now shows the stored completion notifications.
	status, dashboard = api.request(t, http.MethodGet, "/api/dashboard", nil)
	if status != http.StatusOK {
		t.Fatalf("dashboard status after settle = %d", status)
	}
	notifications, _ = dashboard["notifications"].([]any)
	if len(notifications) != 2 {
		t.Fatalf("len(notifications) after settle = %d, want 2", len(notifications))
	}
	second, _ := notifications[1].(map[string]any)
	if second["message"] != "Settlement completed: You paid 50.00 EUR to Ana." {
		t.Errorf("stored notification = %v", second["message"])
	}
}

func TestAnalyzeAndAssignItems(t *testing.T) {
	analyzer := &stubAnalyzer{analysis: vision.Analysis{
		Vendor:      "Aldi",
		ReceiptDate: "2026-02-10",
		Currency:    "usd",
		Category:    models.CategorySupermarket,
		Total:       42.5,
		Items: []models.LooseItem{
			{Name: "Milk", TotalPrice: 3.5},
			{Name: "Cat Food", TotalPrice: 12.0},
		},
		RawText: "ALDI...",
	}}
	api := setupTestAPI(t, analyzer)
	api.createHousehold(t)

	status, resp := api.analyzeUpload(t, 1)
	if status != http.StatusCreated {
		t.Fatalf("analyze status = %d, resp = %v", status, resp)
	}

	receipts, _ := resp["receipts"].([]any)
	if len(receipts) != 1 {
		t.Fatalf("len(receipts) = %d, want 1", len(receipts))
	}
	draft, _ := receipts[0].(map[string]any)
	if draft["saved"] != false {
		t.Error("analyzed receipt should start as an unsaved draft")
	}
	if draft["vendor"] != "Aldi" {
		t.Errorf("vendor = %v, want Aldi", draft["vendor"])
	}
	if draft["expense_date"] != "2026-02-10" {
		t.Errorf("expense_date = %v, want 2026-02-10", draft["expense_date"])
	}
	receiptID, _ := draft["id"].(string)

	// Out-of-range index is rejected wholesale.
	status, resp = api.request(t, http.MethodPatch, "/api/receipts/"+receiptID+"/items", map[string]any{
		"items": []map[string]any{{"index": 5, "assigned_to": "user_1"}},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("out-of-range index status = %d, resp = %v", status, resp)
	}

	status, resp = api.request(t, http.MethodPatch, "/api/receipts/"+receiptID+"/items", map[string]any{
		"items": []map[string]any{
			{"index": 1, "assigned_to": "user_2"},
			{"index": 0, "assigned_to": "nonsense"},
		},
	})
	if status != http.StatusOK {
		t.Fatalf("assign items status = %d, resp = %v", status, resp)
	}
	if resp["saved"] != true {
		t.Error("assigning items should finalize the receipt")
	}
	items, _ := resp["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	milk, _ := items[0].(map[string]any)
	if milk["assigned_to"] != "shared" {
		t.Errorf("nonsense assignment should normalize to shared, got %v", milk["assigned_to"])
	}
	catFood, _ := items[1].(map[string]any)
	if catFood["assigned_to"] != "user_2" {
		t.Errorf("assigned_to = %v, want user_2", catFood["assigned_to"])
	}

	// Multi-image uploads create one draft per image.
	status, resp = api.analyzeUpload(t, 3)
	if status != http.StatusCreated {
		t.Fatalf("bulk analyze status = %d, resp = %v", status, resp)
	}
	receipts, _ = resp["receipts"].([]any)
	if len(receipts) != 3 {
		t.Errorf("len(receipts) = %d, want 3", len(receipts))
	}
}

// analyzeUpload posts n fake images to the analyze endpoint.
func (a *testAPI) analyzeUpload(t *testing.T, n int) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for i := 0; i < n; i++ {
		part, err := writer.CreateFormFile("images", fmt.Sprintf("receipt-%d.jpg", i))
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte("fake image bytes")); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, a.server.URL+"/api/receipts/analyze", &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestExpensesOverview(t *testing.T) {
	api := setupTestAPI(t, &stubAnalyzer{})
	api.createHousehold(t)

	// One expense this month, one in January.
	for _, expense := range []map[string]any{
		{"vendor": "Grocer", "expense_date": "2026-02-05", "total": 60},
		{"vendor": "Cinema", "expense_date": "2026-01-20", "total": 24},
	} {
		if status, resp := api.request(t, http.MethodPost, "/api/receipts/manual", expense); status != http.StatusCreated {
			t.Fatalf("manual expense status = %d, resp = %v", status, resp)
		}
	}

	status, resp := api.request(t, http.MethodGet, "/api/expenses", nil)
	if status != http.StatusOK {
		t.Fatalf("expenses status = %d, resp = %v", status, resp)
	}

	trend, _ := resp["trend"].([]any)
	if len(trend) != 6 {
		t.Fatalf("len(trend) = %d, want 6", len(trend))
	}
	oldest, _ := trend[0].(map[string]any)
	if oldest["label"] != "September 2025" {
		t.Errorf("oldest trend label = %v, want September 2025", oldest["label"])
	}
	latest, _ := trend[5].(map[string]any)
	if latest["label"] != "February 2026" {
		t.Errorf("latest trend label = %v, want February 2026", latest["label"])
	}
	if latest["receipt_count"] != float64(1) {
		t.Errorf("current month receipt_count = %v, want 1", latest["receipt_count"])
	}

	previous, _ := resp["previous_month"].(map[string]any)
	if previous["combined"] != "24" {
		t.Errorf("previous month combined = %v, want 24", previous["combined"])
	}
}

func TestSessionMeAndLogout(t *testing.T) {
	api := setupTestAPI(t, &stubAnalyzer{})
	api.createHousehold(t)

	status, resp := api.request(t, http.MethodGet, "/api/session/me", nil)
	if status != http.StatusOK {
		t.Fatalf("me status = %d, resp = %v", status, resp)
	}
	if resp["member_code"] != "user_1" {
		t.Errorf("member_code = %v, want user_1", resp["member_code"])
	}
	household, _ := resp["household"].(map[string]any)
	if household["name"] != "Maple Street" {
		t.Errorf("household name = %v", household["name"])
	}

	status, _ = api.request(t, http.MethodPost, "/api/session/logout", nil)
	if status != http.StatusOK {
		t.Errorf("logout status = %d, want 200", status)
	}
}
