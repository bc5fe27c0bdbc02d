package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tanpawarit/outreach-agent/agent/agents/dispatcher"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	promptx "github.com/tanpawarit/outreach-agent/agent/prompt"
	"github.com/tanpawarit/outreach-agent/agent/sequence"
	toolx "github.com/tanpawarit/outreach-agent/agent/tool"
	"github.com/tanpawarit/outreach-agent/internal/service"
	"github.com/tanpawarit/outreach-agent/internal/store/inmemory"
)

// fakeOracle answers calls in order.
type fakeOracle struct {
	mu      sync.Mutex
	replies []string
}

func (f *fakeOracle) Complete(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return "", errors.New("unexpected oracle call")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

const twoSteps = `{"step1":{"channel":"Email","subject_line":"Hi","timing":"Day 1","message_content":"a"},"step2":{"channel":"LinkedIn","timing":"Day 3","message_content":"b"}}`

func newTestServer(t *testing.T, replies ...string) http.Handler {
	t.Helper()

	oracle := &fakeOracle{replies: replies}
	store := inmemory.New()
	prompts := promptx.LoadPromptSet()

	gen, err := sequence.NewGenerator(oracle, prompts)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	registry, err := toolx.NewRegistry(toolx.Dependencies{Oracle: oracle, Generator: gen, Sequences: store, Prompts: prompts})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	d, err := dispatcher.New(oracle, registry, store, prompts)
	if err != nil {
		t.Fatalf("dispatcher.New() error = %v", err)
	}
	manager, err := service.NewOutreachManager(service.Dependencies{
		Users:         store,
		Campaigns:     store,
		Sequences:     store,
		Conversations: store,
		Database:      store,
		Generator:     gen,
		Dispatcher:    d,
	})
	if err != nil {
		t.Fatalf("NewOutreachManager() error = %v", err)
	}

	r := chi.NewRouter()
	New(manager).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("%s %s: decode body %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestGetCampaignNotFound(t *testing.T) {
	t.Parallel()

	h := newTestServer(t)
	rec, body := do(t, h, http.MethodGet, "/campaigns/999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body["error"] != "Campaign not found" {
		t.Fatalf("body = %v", body)
	}
}

func TestCreateCampaignAndGenerate(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, twoSteps)

	rec, body := do(t, h, http.MethodPost, "/campaigns", `{"user_id":1,"name":"Q3","target_role":"Backend Engineer","industry":"Fintech"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d body=%v", rec.Code, body)
	}
	if body["message"] != "Campaign created successfully" || body["campaign_id"] != float64(1) {
		t.Fatalf("create body = %v", body)
	}

	rec, body = do(t, h, http.MethodPost, "/campaigns/1/sequence", `{"company_values":"Ownership"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d body=%v", rec.Code, body)
	}
	if body["sequence_id"] != float64(1) {
		t.Fatalf("generate body = %v", body)
	}
	seq, ok := body["sequence"].(map[string]any)
	if !ok || len(seq) != 2 {
		t.Fatalf("sequence = %v", body["sequence"])
	}

	rec, body = do(t, h, http.MethodGet, "/campaigns/1/sequences", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if list, _ := body["sequences"].([]any); len(list) != 1 {
		t.Fatalf("sequences = %v", body["sequences"])
	}

	rec, body = do(t, h, http.MethodGet, "/campaigns?user_id=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list campaigns status = %d", rec.Code)
	}
	if list, _ := body["campaigns"].([]any); len(list) != 1 {
		t.Fatalf("campaigns = %v", body["campaigns"])
	}
}

func TestEditSequenceEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, twoSteps, `{"step1":{"channel":"Email","timing":"Day 1","message_content":"casual"}}`)
	do(t, h, http.MethodPost, "/campaigns", `{"user_id":1,"name":"Q3"}`)
	do(t, h, http.MethodPost, "/campaigns/1/sequence", `{}`)

	rec, body := do(t, h, http.MethodPost, "/sequences/1/edit", `{"edit_instructions":"more casual"}`)
	if rec.Code != http.StatusOK || body["sequence_id"] != float64(2) {
		t.Fatalf("edit status = %d body = %v", rec.Code, body)
	}

	rec, body = do(t, h, http.MethodGet, "/campaigns/1/sequences", "")
	list, _ := body["sequences"].([]any)
	if rec.Code != http.StatusOK || len(list) != 2 {
		t.Fatalf("sequences = %v", body)
	}
	if v := list[1].(map[string]any)["version"]; v != float64(2) {
		t.Fatalf("second version = %v", v)
	}

	rec, body = do(t, h, http.MethodPost, "/sequences/1/edit", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing instructions status = %d body = %v", rec.Code, body)
	}

	rec, body = do(t, h, http.MethodPost, "/sequences/99/edit", `{"edit_instructions":"x"}`)
	if rec.Code != http.StatusNotFound || body["error"] != "Sequence not found" {
		t.Fatalf("unknown sequence status = %d body = %v", rec.Code, body)
	}
}

func TestChatGreeting(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, "Final Answer: Hello! How can I help with your hiring today?")

	rec, body := do(t, h, http.MethodPost, "/chat", `{"user_id":7,"message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %v", rec.Code, body)
	}
	resp, ok := body["response"].(map[string]any)
	if !ok {
		t.Fatalf("body = %v", body)
	}
	if resp["action_tool"] != contractx.ToolGeneralConversation {
		t.Fatalf("action_tool = %v", resp["action_tool"])
	}
	if body["conversation_id"] != float64(1) {
		t.Fatalf("conversation_id = %v", body["conversation_id"])
	}

	rec, body = do(t, h, http.MethodGet, "/conversations/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("conversation status = %d", rec.Code)
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 || body["user_id"] != float64(7) {
		t.Fatalf("conversation = %v", body)
	}
}

func TestChatValidation(t *testing.T) {
	t.Parallel()

	h := newTestServer(t)
	for _, payload := range []string{`{"message":"hi"}`, `{"user_id":1}`, `{"user_id":`} {
		rec, body := do(t, h, http.MethodPost, "/chat", payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %s: status = %d body = %v", payload, rec.Code, body)
		}
		if _, ok := body["error"].(string); !ok {
			t.Fatalf("payload %s: missing error message", payload)
		}
	}
}

func TestMissingRequiredFields(t *testing.T) {
	t.Parallel()

	h := newTestServer(t)
	rec, body := do(t, h, http.MethodPost, "/campaigns", `{"name":"no user"}`)
	if rec.Code != http.StatusBadRequest || body["error"] != "Missing required fields" {
		t.Fatalf("create status = %d body = %v", rec.Code, body)
	}

	rec, body = do(t, h, http.MethodGet, "/campaigns", "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(body["error"].(string), "user_id") {
		t.Fatalf("list status = %d body = %v", rec.Code, body)
	}

	rec, _ = do(t, h, http.MethodGet, "/conversations/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h := newTestServer(t)
	rec, body := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || body["status"] != "running" || body["database"] != "connected" {
		t.Fatalf("health status = %d body = %v", rec.Code, body)
	}
}
