package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hylla/lobsim/internal/adapters/server/common"
)

// stubPlanner provides deterministic planner responses for MCP tool tests.
type stubPlanner struct {
	catalog      common.CatalogView
	plan         common.PlanView
	progress     common.ProgressView
	constraint   common.ConstraintView
	err          error
	lastPlan     common.PlanRequest
	lastProgress common.ProgressRequest
	lastEvaluate common.EvaluateRequest
}

// Catalog returns the configured catalog.
func (s *stubPlanner) Catalog(context.Context) (common.CatalogView, error) {
	if s.err != nil {
		return common.CatalogView{}, s.err
	}
	return s.catalog, nil
}

// Plan records the request and returns the configured plan.
func (s *stubPlanner) Plan(_ context.Context, req common.PlanRequest) (common.PlanView, error) {
	s.lastPlan = req
	if s.err != nil {
		return common.PlanView{}, s.err
	}
	return s.plan, nil
}

// Progress records the request and returns the configured table.
func (s *stubPlanner) Progress(_ context.Context, req common.ProgressRequest) (common.ProgressView, error) {
	s.lastProgress = req
	if s.err != nil {
		return common.ProgressView{}, s.err
	}
	return s.progress, nil
}

// Evaluate records the request and returns the configured result.
func (s *stubPlanner) Evaluate(_ context.Context, req common.EvaluateRequest) (common.ConstraintView, error) {
	s.lastEvaluate = req
	if s.err != nil {
		return common.ConstraintView{}, s.err
	}
	return s.constraint, nil
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()

	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "lobsim-test",
				"version": "1.0.0",
			},
		},
	}
}

// callToolResultText decodes the first textual content block from a CallToolResult.
func callToolResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatalf("result = nil, want non-nil")
	}
	if len(result.Content) == 0 {
		t.Fatalf("result content is empty")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] has unexpected type %T", result.Content[0])
	}
	return text.Text
}

// startServer serves one MCP handler over the stub planner and initializes the session.
func startServer(t *testing.T, planner *stubPlanner) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, planner)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubPlanner{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestHandlerRegistersComputeTools verifies MCP tool discovery lists every compute tool.
func TestHandlerRegistersComputeTools(t *testing.T) {
	server := startServer(t, &stubPlanner{})
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})

	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := toolMap["name"].(string)
		toolNames = append(toolNames, name)
	}
	for _, required := range []string{"lobsim.catalog", "lobsim.plan", "lobsim.evaluate", "lobsim.progress"} {
		if !slices.Contains(toolNames, required) {
			t.Fatalf("tool list missing %s: %#v", required, toolNames)
		}
	}
}

// TestHandlerPlanToolCall verifies plan arguments bind onto the planner request.
func TestHandlerPlanToolCall(t *testing.T) {
	planner := &stubPlanner{plan: common.PlanView{End: 112, Cost: common.CostView{Total: 692601}}}
	server := startServer(t, planner)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "lobsim.plan", map[string]any{
		"buffer":    7,
		"equipment": map[string]any{"exc": 2},
		"fleet":     map[string]any{"pipe": map[string]any{"heavy": 2}},
	}))
	structured := toolResultStructured(t, callResp.Result)
	if got, _ := structured["end"].(float64); got != 112 {
		t.Fatalf("end = %v, want 112", structured["end"])
	}
	if planner.lastPlan.Buffer == nil || *planner.lastPlan.Buffer != 7 {
		t.Fatalf("buffer = %v, want 7", planner.lastPlan.Buffer)
	}
	if planner.lastPlan.Equipment["exc"] != 2 || planner.lastPlan.Fleet["pipe"]["heavy"] != 2 {
		t.Fatalf("unexpected plan request %+v", planner.lastPlan)
	}
}

// TestHandlerCatalogEvaluateProgressToolCalls verifies the remaining tools round-trip structured results.
func TestHandlerCatalogEvaluateProgressToolCalls(t *testing.T) {
	planner := &stubPlanner{
		catalog:    common.CatalogView{Project: common.ProjectView{Name: "Sewer Pipeline"}},
		constraint: common.ConstraintView{TargetDays: 55, Pass: false, CostOK: true},
		progress:   common.ProgressView{Horizon: 122},
	}
	server := startServer(t, planner)

	_, catalogResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "lobsim.catalog", map[string]any{}))
	project, _ := toolResultStructured(t, catalogResp.Result)["project"].(map[string]any)
	if got, _ := project["name"].(string); got != "Sewer Pipeline" {
		t.Fatalf("project.name = %q, want Sewer Pipeline", got)
	}

	_, evalResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "lobsim.evaluate", map[string]any{
		"end":   112,
		"total": 692601,
	}))
	if pass, _ := toolResultStructured(t, evalResp.Result)["pass"].(bool); pass {
		t.Fatalf("pass = true, want false")
	}
	if planner.lastEvaluate.End != 112 || planner.lastEvaluate.Total != 692601 {
		t.Fatalf("unexpected evaluate request %+v", planner.lastEvaluate)
	}

	_, progressResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(5, "lobsim.progress", map[string]any{
		"plans": []any{map[string]any{}, map[string]any{"buffer": 10}},
	}))
	if got, _ := toolResultStructured(t, progressResp.Result)["horizon"].(float64); got != 122 {
		t.Fatalf("horizon = %v, want 122", got)
	}
	if len(planner.lastProgress.Plans) != 2 || *planner.lastProgress.Plans[1].Buffer != 10 {
		t.Fatalf("unexpected progress request %+v", planner.lastProgress)
	}
}

// TestHandlerToolCallErrorPaths verifies bind failures and mapped planner errors.
func TestHandlerToolCallErrorPaths(t *testing.T) {
	planner := &stubPlanner{err: errors.Join(common.ErrInvalidRequest, errors.New("unknown activity"))}
	server := startServer(t, planner)

	_, bindResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "lobsim.plan", map[string]any{
		"buffer": "wide",
	}))
	if isError, _ := bindResp.Result["isError"].(bool); !isError {
		t.Fatalf("isError = %v, want true", bindResp.Result["isError"])
	}
	if got := toolResultText(t, bindResp.Result); !strings.HasPrefix(got, "invalid_request:") {
		t.Fatalf("error text = %q, want prefix invalid_request:", got)
	}

	_, mappedResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "lobsim.plan", map[string]any{
		"equipment": map[string]any{"paving": 0},
	}))
	if isError, _ := mappedResp.Result["isError"].(bool); !isError {
		t.Fatalf("isError = %v, want true", mappedResp.Result["isError"])
	}
	if got := toolResultText(t, mappedResp.Result); !strings.Contains(got, "unknown activity") {
		t.Fatalf("error text = %q, want unknown activity", got)
	}
}

// TestNewHandlerRequiresPlanner verifies planner dependency enforcement.
func TestNewHandlerRequiresPlanner(t *testing.T) {
	handler, err := NewHandler(Config{}, nil)
	if err == nil {
		t.Fatalf("NewHandler() error = nil, want non-nil")
	}
	if handler != nil {
		t.Fatalf("handler = %#v, want nil", handler)
	}
}

// TestNormalizeConfig verifies deterministic config defaults and path normalization.
func TestNormalizeConfig(t *testing.T) {
	cases := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "defaults",
			in:   Config{},
			want: Config{ServerName: "lobsim", ServerVersion: "dev", EndpointPath: "/mcp"},
		},
		{
			name: "trimmed values and slash prefix",
			in:   Config{ServerName: " lobsim-server ", ServerVersion: " v1.2.3 ", EndpointPath: "custom/path"},
			want: Config{ServerName: "lobsim-server", ServerVersion: "v1.2.3", EndpointPath: "/custom/path"},
		},
		{
			name: "endpoint trim of repeated slashes",
			in:   Config{ServerName: "lobsim", ServerVersion: "dev", EndpointPath: "///mcp///"},
			want: Config{ServerName: "lobsim", ServerVersion: "dev", EndpointPath: "/mcp"},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeConfig(tt.in); got != tt.want {
				t.Fatalf("normalizeConfig() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

// TestHandlerServeHTTPUnavailable verifies nil handlers fail closed.
func TestHandlerServeHTTPUnavailable(t *testing.T) {
	cases := []struct {
		name    string
		handler *Handler
	}{
		{name: "nil receiver", handler: nil},
		{name: "missing inner http handler", handler: &Handler{}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(`{}`))
			rec := httptest.NewRecorder()

			tt.handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
			}
			if !strings.Contains(rec.Body.String(), "mcp handler unavailable") {
				t.Fatalf("body = %q, want mcp handler unavailable", rec.Body.String())
			}
		})
	}
}

// TestToolResultFromErrorMapping verifies deterministic error-to-tool-result mapping.
func TestToolResultFromErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantPrefix string
	}{
		{name: "nil error", err: nil, wantPrefix: "unknown error"},
		{name: "invalid request", err: errors.Join(common.ErrInvalidRequest, errors.New("bad")), wantPrefix: "invalid_request:"},
		{name: "not found", err: errors.Join(common.ErrNotFound, errors.New("missing")), wantPrefix: "not_found:"},
		{name: "planner unavailable", err: common.ErrPlannerUnavailable, wantPrefix: "service_unavailable:"},
		{name: "internal", err: errors.New("boom"), wantPrefix: "internal_error:"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			result := toolResultFromError(tt.err)
			if !result.IsError {
				t.Fatalf("IsError = false, want true")
			}
			if got := callToolResultText(t, result); !strings.HasPrefix(got, tt.wantPrefix) {
				t.Fatalf("text = %q, want prefix %q", got, tt.wantPrefix)
			}
		})
	}
}
