// Package mcp exposes the pipeline as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/dataset"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/vector"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, company string, onUpdate func([]model.AgentStatus)) model.PipelineState
}

// RunLister lists stored runs.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error)
}

// Searcher answers similarity queries.
type Searcher interface {
	Similar(ctx context.Context, query string, k int, exclude string) ([]vector.Match, error)
}

// Server wraps the MCP SDK server.
type Server struct {
	MCPServer *sdkmcp.Server

	runner Runner
	runs   RunLister
	search Searcher
}

// Option configures optional tools.
type Option func(*Server)

// WithRuns registers the list_runs tool.
func WithRuns(r RunLister) Option {
	return func(s *Server) { s.runs = r }
}

// WithSearch registers the similar_companies tool.
func WithSearch(q Searcher) Option {
	return func(s *Server) { s.search = q }
}

// NewServer creates a server named outreach with its tools registered.
func NewServer(runner Runner, version string, opts ...Option) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: "outreach", Version: version}, nil),
		runner:    runner,
	}
	for _, o := range opts {
		o(s)
	}
	s.registerTools()
	return s
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "research_company",
		Description: "Research a company, score its buying intent and draft personalized outreach. Returns the full pipeline state.",
	}, s.handleResearchCompany)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_demo_companies",
		Description: "List the demo companies that resolve instantly from the built-in dataset.",
	}, s.handleListDemoCompanies)

	if s.runs != nil {
		sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
			Name:        "list_runs",
			Description: "List recent pipeline runs, newest first.",
		}, s.handleListRuns)
	}
	if s.search != nil {
		sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
			Name:        "similar_companies",
			Description: "Find previously researched companies similar to a description or company name.",
		}, s.handleSimilar)
	}
}

type researchInput struct {
	Company string `json:"company" jsonschema:"company name to research"`
}

type listDemoInput struct{}

type listDemoOutput struct {
	Companies []dataset.DemoCompany `json:"companies"`
}

type listRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum runs to return (default 20)"`
}

type similarInput struct {
	Query string `json:"query" jsonschema:"company name or free-text description"`
	K     int    `json:"k,omitempty" jsonschema:"number of matches (default 5)"`
}

type similarOutput struct {
	Matches []vector.Match `json:"matches"`
}

// Pipeline state carries timestamps, so it is returned as JSON text rather
// than through an inferred output schema.
func (s *Server) handleResearchCompany(ctx context.Context, _ *sdkmcp.CallToolRequest, input researchInput) (*sdkmcp.CallToolResult, any, error) {
	name := strings.TrimSpace(input.Company)
	if name == "" {
		return nil, nil, eris.New("company is required")
	}
	zap.L().Info("mcp: research_company", zap.String("company", name))
	st := s.runner.Run(ctx, name, nil)
	if st.Status == model.PipelineError {
		return nil, nil, eris.New(st.Error)
	}
	return jsonResult(st)
}

func (s *Server) handleListDemoCompanies(_ context.Context, _ *sdkmcp.CallToolRequest, _ listDemoInput) (*sdkmcp.CallToolResult, listDemoOutput, error) {
	return nil, listDemoOutput{Companies: dataset.Companies()}, nil
}

func (s *Server) handleListRuns(ctx context.Context, _ *sdkmcp.CallToolRequest, input listRunsInput) (*sdkmcp.CallToolResult, any, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, nil, eris.Wrap(err, "mcp: list runs")
	}
	if runs == nil {
		runs = []model.RunSummary{}
	}
	return jsonResult(map[string]any{"runs": runs})
}

func (s *Server) handleSimilar(ctx context.Context, _ *sdkmcp.CallToolRequest, input similarInput) (*sdkmcp.CallToolResult, similarOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, similarOutput{}, eris.New("query is required")
	}
	matches, err := s.search.Similar(ctx, query, input.K, query)
	if err != nil {
		return nil, similarOutput{}, eris.Wrap(err, "mcp: similar")
	}
	if matches == nil {
		matches = []vector.Match{}
	}
	return nil, similarOutput{Matches: matches}, nil
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, nil, eris.Wrap(err, "mcp: marshal result")
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(b)}},
	}, nil, nil
}
