// Package mcp exposes the planning core to agent clients: job polling,
// saved programs, the exercise catalog, and the pure estimation tools.
package mcp

import (
	"log/slog"

	"github.com/claude/liftplan/internal/jobs"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(db *storage.DB, mgr *jobs.Manager, tm models.TimeModel, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("liftplan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Workout program planning server. Poll generation jobs, fetch saved programs, browse the exercise catalog, and run the deterministic session-duration and recovery-spacing checks."),
	)

	h := &handlers{db: db, jobs: mgr, tm: tm, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetJob, Handler: h.getJob},
		server.ServerTool{Tool: toolGetProgram, Handler: h.getProgram},
		server.ServerTool{Tool: toolListPrograms, Handler: h.listPrograms},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolEstimateSession, Handler: h.estimateSession},
		server.ServerTool{Tool: toolCheckSpacing, Handler: h.checkSpacing},
	)

	s.AddResources(
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	db   *storage.DB
	jobs *jobs.Manager
	tm   models.TimeModel
	log  *slog.Logger
}

var resExerciseCatalog = mcp.NewResource(
	"liftplan://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("Every exercise the planner may prescribe, with category, equipment, muscles and difficulty"),
	mcp.WithMIMEType("application/json"),
)
