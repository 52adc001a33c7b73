package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"ea-dashboard/database"
	"ea-dashboard/models"
	"ea-dashboard/services"

	"github.com/gin-gonic/gin"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "clean object",
			input: `{"accountId":"A1"}`,
			want:  `{"accountId":"A1"}`,
			ok:    true,
		},
		{
			name:  "garbage around object",
			input: `garbage{"accountId":"A1"}trailing`,
			want:  `{"accountId":"A1"}`,
			ok:    true,
		},
		{
			name:  "nul bytes stripped",
			input: "\x00{\"accountId\":\"A1\"}\x00",
			want:  `{"accountId":"A1"}`,
			ok:    true,
		},
		{
			name:  "nested braces",
			input: `x{"a":{"b":1}}y`,
			want:  `{"a":{"b":1}}`,
			ok:    true,
		},
		{
			name:  "braces inside strings",
			input: `{"name":"weird } value"}`,
			want:  `{"name":"weird } value"}`,
			ok:    true,
		},
		{
			name:  "escaped quote inside string",
			input: `{"name":"a\"}b"}`,
			want:  `{"name":"a\"}b"}`,
			ok:    true,
		},
		{
			name:  "no object",
			input: `just text`,
			ok:    false,
		},
		{
			name:  "unbalanced",
			input: `{"accountId":"A1"`,
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject([]byte(tt.input))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *database.DocumentStore, *services.CommandService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := database.NewDocumentStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	publisher := services.NewPublisher(nil)
	aggregator := services.NewAggregator("No Active EA")
	commands := services.NewCommandService(store, publisher)

	router := gin.New()
	api := router.Group("/api")
	NewAccountController(store, aggregator, commands, publisher).RegisterRoutes(api)
	NewCommandController(commands).RegisterRoutes(api)

	return router, store, commands
}

func TestHandleUpdate_SavesSnapshotAndReportsNoCommand(t *testing.T) {
	router, store, _ := newTestRouter(t)

	body := `garbage{"accountId":"A1","accountName":"Main","status":"active","balance":"1000.50"}trailing`
	req := httptest.NewRequest(http.MethodPost, "/api/update", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" || resp["command"] != "none" {
		t.Errorf("unexpected response: %v", resp)
	}

	accounts, err := store.GetAccountSnapshots()
	if err != nil {
		t.Fatalf("get accounts: %v", err)
	}
	snap := accounts["A1"]
	if snap == nil {
		t.Fatal("snapshot not stored")
	}
	if snap.Balance.Float64() != 1000.50 {
		t.Errorf("Balance = %v, want 1000.50", snap.Balance.Float64())
	}
}

func TestHandleUpdate_DeliversPendingCommandOnce(t *testing.T) {
	router, _, commands := newTestRouter(t)

	if err := commands.IssueToggle("A1", "off"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	update := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/update",
			bytes.NewReader([]byte(`{"accountId":"A1","status":"active"}`)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := update()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var cmd models.Command
	if err := json.Unmarshal(w.Body.Bytes(), &cmd); err != nil {
		t.Fatalf("decode command: %v", err)
	}
	if cmd.Command != models.CommandToggleRobot || cmd.Status != "off" {
		t.Fatalf("unexpected command: %+v", cmd)
	}

	// The slot was consumed; the next poll gets none
	w = update()
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["command"] != "none" {
		t.Errorf("expected no command on second poll, got %v", resp)
	}
}

func TestHandleUpdate_RejectsMissingAccountID(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/update",
		strings.NewReader(`{"accountName":"Main"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleUpdate_RejectsGarbageOnly(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/update",
		strings.NewReader("no json here"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleRobotToggle_QueuesCommand(t *testing.T) {
	router, store, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/robot-toggle",
		strings.NewReader(`{"accountId":"A1","newStatus":"on"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	cmd, err := store.ConsumeCommand("A1")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if cmd == nil || cmd.Command != models.CommandToggleRobot || cmd.Status != "on" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}

func TestHandleCancelOrder_AcceptsNumericTicket(t *testing.T) {
	router, store, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/cancel-order",
		strings.NewReader(`{"accountId":"A1","ticket":123456}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	cmd, err := store.ConsumeCommand("A1")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if cmd == nil || cmd.Command != models.CommandCancelOrder || cmd.Ticket != "123456" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
}
