// ABOUTME: MCP server subcommand
// ABOUTME: Exposes the pipeline to agents over stdio
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/outreach/handlers"
	"github.com/harperreed/outreach/tracker"
)

func newMCPCommand(app *App, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.Tracker(cmd.Context())
			if err != nil {
				return err
			}
			app.Logger.Info("starting MCP server")

			server := NewMCPServer(tr, app.Config.Pipeline.PageSize, version)
			if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
				app.Logger.Error("MCP server stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

// NewMCPServer registers every pipeline tool, resource and prompt.
func NewMCPServer(tr *tracker.Tracker, pageSize int, version string) *mcp.Server {
	pipelineHandlers := handlers.NewPipelineHandlers(tr)
	queryHandlers := handlers.NewQueryHandlers(tr, pageSize)
	vizHandlers := handlers.NewVizHandlers(tr)
	resourceHandlers := handlers.NewResourceHandlers(tr)
	promptHandlers := handlers.NewPromptHandlers(tr)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "outreach",
		Version: version,
	}, nil)

	// Mutations
	mcp.AddTool(server, &mcp.Tool{
		Name:        "record_outreach",
		Description: "Record that a connection request was sent; the contact enters the pending set",
	}, pipelineHandlers.RecordOutreach)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_connected",
		Description: "Add a contact by hand as already connected, with a follow-up in 14 days",
	}, pipelineHandlers.MarkConnected)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reconcile_connections",
		Description: "Reconcile connections observed on the connections page; matching pending contacts become connected",
	}, pipelineHandlers.ReconcileConnections)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "advance_stage",
		Description: "Move a contact to another pipeline stage",
	}, pipelineHandlers.AdvanceStage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_contact",
		Description: "Delete a contact from whichever set holds it",
	}, pipelineHandlers.DeleteContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sweep_pending",
		Description: "Drop pending requests older than the retention period",
	}, pipelineHandlers.SweepPending)

	// Reads
	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_pipeline",
		Description: "List contacts by tab with search, sort and paging",
	}, queryHandlers.QueryPipeline)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_stats",
		Description: "Counts of total, pending, reach-out-required, declined and per-stage contacts",
	}, queryHandlers.PipelineStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "upcoming_followups",
		Description: "Connected contacts with a follow-up due within the window, soonest first",
	}, queryHandlers.UpcomingFollowUps)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "export_pipeline",
		Description: "Export both sets as a JSON document",
	}, queryHandlers.ExportPipeline)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_graph",
		Description: "GraphViz DOT of the stage graph labelled with per-stage counts",
	}, vizHandlers.PipelineGraph)

	// Resources
	server.AddResource(&mcp.Resource{
		URI:         "outreach://stages",
		Name:        "Pipeline stages",
		Description: "Stage graph with labels, colors and forward moves",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         "outreach://pipeline",
		Name:        "Pipeline stats",
		Description: "Current pipeline counts",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "outreach://contacts/{profile}",
		Name:        "Contact",
		Description: "A single contact by URL-escaped profile URL",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	// Prompts
	server.AddPrompt(&mcp.Prompt{
		Name:        "follow-up-suggestions",
		Description: "Draft follow-up notes for contacts due a reach-out",
	}, promptHandlers.GetPrompt)

	return server
}
