// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hylla/lobsim/internal/adapters/server/common"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the compute tools.
func NewHandler(cfg Config, planner common.Planner) (*Handler, error) {
	if planner == nil {
		return nil, fmt.Errorf("planner service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerCatalogTool(mcpSrv, planner)
	registerPlanTool(mcpSrv, planner)
	registerEvaluateTool(mcpSrv, planner)
	registerProgressTool(mcpSrv, planner)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "lobsim"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// planToolOptions returns the argument schema shared by plan-shaped tools.
func planToolOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("buffer", mcp.Description("Buffer days between consecutive activities (defaults to the project buffer)")),
		mcp.WithNumber("first_start", mcp.Description("Start day of the first activity (defaults to the day after mobilization)")),
		mcp.WithObject("equipment", mcp.Description("Equipment index per activity id, for example {\"exc\": 2}")),
		mcp.WithObject("fleet", mcp.Description("Unit counts per activity id and equipment key, for example {\"pipe\": {\"heavy\": 2}}")),
	}
}

// registerCatalogTool registers the `lobsim.catalog` tool.
func registerCatalogTool(srv *mcpserver.MCPServer, planner common.Planner) {
	srv.AddTool(
		mcp.NewTool(
			"lobsim.catalog",
			mcp.WithDescription("Return project parameters, owner targets, crews and equipment options."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			catalog, err := planner.Catalog(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(catalog)
			if err != nil {
				return nil, fmt.Errorf("encode catalog result: %w", err)
			}
			return result, nil
		},
	)
}

// registerPlanTool registers the `lobsim.plan` tool.
func registerPlanTool(srv *mcpserver.MCPServer, planner common.Planner) {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Compute a line-of-balance schedule with its budget, spacing advisories and owner-target check."),
	}, planToolOptions()...)
	srv.AddTool(
		mcp.NewTool("lobsim.plan", opts...),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args common.PlanRequest
			if err := req.BindArguments(&args); err != nil {
				return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
			}
			plan, err := planner.Plan(ctx, args)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(plan)
			if err != nil {
				return nil, fmt.Errorf("encode plan result: %w", err)
			}
			return result, nil
		},
	)
}

// registerEvaluateTool registers the `lobsim.evaluate` tool.
func registerEvaluateTool(srv *mcpserver.MCPServer, planner common.Planner) {
	srv.AddTool(
		mcp.NewTool(
			"lobsim.evaluate",
			mcp.WithDescription("Check a project end day and total cost against owner targets."),
			mcp.WithNumber("end", mcp.Required(), mcp.Description("Project end day")),
			mcp.WithNumber("total", mcp.Required(), mcp.Description("Total project cost")),
			mcp.WithNumber("target_days", mcp.Description("Maximum end day (defaults to the configured target)")),
			mcp.WithNumber("target_cost", mcp.Description("Maximum total cost (defaults to the configured target)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args common.EvaluateRequest
			if err := req.BindArguments(&args); err != nil {
				return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
			}
			constraint, err := planner.Evaluate(ctx, args)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(constraint)
			if err != nil {
				return nil, fmt.Errorf("encode evaluate result: %w", err)
			}
			return result, nil
		},
	)
}

// registerProgressTool registers the `lobsim.progress` tool.
func registerProgressTool(srv *mcpserver.MCPServer, planner common.Planner) {
	srv.AddTool(
		mcp.NewTool(
			"lobsim.progress",
			mcp.WithDescription("Sample cumulative progress curves for one or more plans on a shared day axis."),
			mcp.WithArray("plans", mcp.Description("Plan requests with the lobsim.plan arguments (defaults to the reference plan)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args common.ProgressRequest
			if err := req.BindArguments(&args); err != nil {
				return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
			}
			progress, err := planner.Progress(ctx, args)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(progress)
			if err != nil {
				return nil, fmt.Errorf("encode progress result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrPlannerUnavailable):
		return mcp.NewToolResultError("service_unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
