package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gridpoint/mcp-pdf-tables/internal/config"
	"github.com/gridpoint/mcp-pdf-tables/internal/tables"
)

// Server represents the MCP server instance
type Server struct {
	config       *config.Config
	tableService *tables.Service
	mcpServer    *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, tableService *tables.Service) (*Server, error) {
	if tableService == nil {
		return nil, fmt.Errorf("tableService cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:       cfg,
		tableService: tableService,
		mcpServer:    mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	tablesExtractTool := mcp.NewTool(
		"tables_extract",
		mcp.WithDescription("Extract tables from a PDF file, replacing any previous extraction session"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file (relative paths are resolved against the server's PDF directory)"),
		),
		mcp.WithString("pages",
			mcp.Description("Page selection like '1,3,5-7' (1-indexed); all pages when empty"),
		),
		mcp.WithString("header_policy",
			mcp.Description("'first_row' treats the first row as headers (default), 'generic' synthesizes Column_N names"),
		),
		mcp.WithString("engine",
			mcp.Description("Extraction engine to use; falls back to the default engine when unknown or unavailable"),
		),
	)
	s.mcpServer.AddTool(tablesExtractTool, s.handleTablesExtract)

	tablesListTool := mcp.NewTool(
		"tables_list",
		mcp.WithDescription("List the tables extracted in the current session"),
	)
	s.mcpServer.AddTool(tablesListTool, s.handleTablesList)

	tableGetTool := mcp.NewTool(
		"table_get",
		mcp.WithDescription("Show one extracted table with any edits applied"),
		mcp.WithNumber("table_id",
			mcp.Required(),
			mcp.Description("Table id from tables_extract or tables_list"),
		),
		mcp.WithBoolean("original",
			mcp.Description("Show the original extraction instead of the edited version"),
		),
	)
	s.mcpServer.AddTool(tableGetTool, s.handleTableGet)

	tableSetCellTool := mcp.NewTool(
		"table_set_cell",
		mcp.WithDescription("Set one cell of a table; the original extraction is kept for revert"),
		mcp.WithNumber("table_id",
			mcp.Required(),
			mcp.Description("Table id"),
		),
		mcp.WithNumber("row",
			mcp.Required(),
			mcp.Description("0-indexed data row"),
		),
		mcp.WithNumber("column",
			mcp.Required(),
			mcp.Description("0-indexed column"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("New cell value"),
		),
	)
	s.mcpServer.AddTool(tableSetCellTool, s.handleTableSetCell)

	tableRenameColumnTool := mcp.NewTool(
		"table_rename_column",
		mcp.WithDescription("Rename a column of a table"),
		mcp.WithNumber("table_id",
			mcp.Required(),
			mcp.Description("Table id"),
		),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Current column name"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("New column name"),
		),
	)
	s.mcpServer.AddTool(tableRenameColumnTool, s.handleTableRenameColumn)

	tableAddRowTool := mcp.NewTool(
		"table_add_row",
		mcp.WithDescription("Append a row to a table"),
		mcp.WithNumber("table_id",
			mcp.Required(),
			mcp.Description("Table id"),
		),
		mcp.WithString("cells",
			mcp.Description(`Row cells as a JSON array of strings, e.g. ["Alice","30"]; short rows are padded with empty cells`),
		),
	)
	s.mcpServer.AddTool(tableAddRowTool, s.handleTableAddRow)

	tableDeleteRowTool := mcp.NewTool(
		"table_delete_row",
		mcp.WithDescription("Delete a data row from a table"),
		mcp.WithNumber("table_id",
			mcp.Required(),
			mcp.Description("Table id"),
		),
		mcp.WithNumber("row",
			mcp.Required(),
			mcp.Description("0-indexed data row to delete"),
		),
	)
	s.mcpServer.AddTool(tableDeleteRowTool, s.handleTableDeleteRow)

	tableRevertTool := mcp.NewTool(
		"table_revert",
		mcp.WithDescription("Discard all edits to a table, restoring the original extraction"),
		mcp.WithNumber("table_id",
			mcp.Required(),
			mcp.Description("Table id"),
		),
	)
	s.mcpServer.AddTool(tableRevertTool, s.handleTableRevert)

	tablesMergePreviewTool := mcp.NewTool(
		"tables_merge_preview",
		mcp.WithDescription("Merge tables under a column mapping and keep the result as the session's merge preview"),
		mcp.WithString("table_ids",
			mcp.Required(),
			mcp.Description("JSON array of table ids to merge, e.g. [0,1]"),
		),
		mcp.WithString("mapping",
			mcp.Required(),
			mcp.Description(`Column mapping as JSON: target column name to {table id: source column name}, `+
				`e.g. {"Name":{"0":"Name","1":"FullName"}}`),
		),
	)
	s.mcpServer.AddTool(tablesMergePreviewTool, s.handleTablesMergePreview)

	tablesExportTool := mcp.NewTool(
		"tables_export",
		mcp.WithDescription("Serialize the session's tables to xlsx or csv and return the bytes base64-encoded"),
		mcp.WithString("format",
			mcp.Required(),
			mcp.Description("'xlsx' or 'csv'"),
		),
		mcp.WithString("source",
			mcp.Description("'current' (edited, default), 'original', or 'merged'"),
		),
		mcp.WithBoolean("merge",
			mcp.Description("Stack all tables into one sheet or CSV block"),
		),
	)
	s.mcpServer.AddTool(tablesExportTool, s.handleTablesExport)

	tablesServerInfoTool := mcp.NewTool(
		"tables_server_info",
		mcp.WithDescription("Get server information, available engines, and usage guidance"),
	)
	s.mcpServer.AddTool(tablesServerInfoTool, s.handleTablesServerInfo)
}

// Handler functions
func (s *Server) handleTablesExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.config.PDFDirectory, path)
	}

	args := request.GetArguments()

	req := tables.ExtractRequest{
		Path:   path,
		Engine: s.config.Engine,
	}
	if pages, ok := args["pages"].(string); ok {
		req.Pages = pages
	}
	if policy, ok := args["header_policy"].(string); ok && policy != "" {
		switch tables.HeaderPolicy(policy) {
		case tables.HeaderFirstRow, tables.HeaderGeneric:
			req.HeaderPolicy = tables.HeaderPolicy(policy)
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown header policy: %q", policy)), nil
		}
	}
	if engineName, ok := args["engine"].(string); ok && engineName != "" {
		req.Engine = engineName
	}

	result, err := s.tableService.RunExtraction(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatExtractResult(result)), nil
}

func (s *Server) handleTablesList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.tableService.Document() == nil {
		return mcp.NewToolResultError(tables.ErrNoDocument.Error()), nil
	}

	store := s.tableService.Store()
	all := store.Tables()
	if len(all) == 0 {
		return mcp.NewToolResultText("No tables in the current session."), nil
	}

	text := fmt.Sprintf("%d table(s) extracted from %s:\n", len(all), s.tableService.Document().Name)
	for _, t := range all {
		grid, _ := store.Current(t.ID)
		text += fmt.Sprintf("\nTable %d (page %d): %d column(s) x %d row(s), engine %s",
			t.ID, t.Page, len(grid.Columns), len(grid.Rows), t.Method)
		if store.IsEdited(t.ID) {
			text += " [edited]"
		}
		text += "\n  Columns: " + strings.Join(grid.Columns, ", ") + "\n"
	}

	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleTableGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireIntArg(request, "table_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	store := s.tableService.Store()
	t, ok := store.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("table not found: %d", id)), nil
	}

	grid := t.Grid
	label := "original"
	if original, _ := request.GetArguments()["original"].(bool); !original {
		grid, _ = store.Current(id)
		label = "current"
		if store.IsEdited(id) {
			label = "current (edited)"
		}
	}

	text := fmt.Sprintf("Table %d (page %d, engine %s, %s):\n\n", t.ID, t.Page, t.Method, label)
	text += renderGrid(grid)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleTableSetCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireIntArg(request, "table_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row, err := requireIntArg(request, "row")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	col, err := requireIntArg(request, "column")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.tableService.Store().SetCell(id, row, col, value); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Set cell (%d, %d) of table %d to %q", row, col, id, value)), nil
}

func (s *Server) handleTableRenameColumn(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	id, err := requireIntArg(request, "table_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from, err := request.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := request.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.tableService.Store().RenameColumn(id, from, to); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Renamed column %q to %q in table %d", from, to, id)), nil
}

func (s *Server) handleTableAddRow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireIntArg(request, "table_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var cells []string
	if raw, ok := request.GetArguments()["cells"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid cells: %v", err)), nil
		}
	}

	if err := s.tableService.Store().AppendRow(id, cells); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	grid, _ := s.tableService.Store().Current(id)
	return mcp.NewToolResultText(fmt.Sprintf("Appended row to table %d; it now has %d row(s)", id, len(grid.Rows))), nil
}

func (s *Server) handleTableDeleteRow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireIntArg(request, "table_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row, err := requireIntArg(request, "row")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.tableService.Store().DeleteRow(id, row); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted row %d from table %d", row, id)), nil
}

func (s *Server) handleTableRevert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireIntArg(request, "table_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.tableService.Store().Revert(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reverted table %d to its original extraction", id)), nil
}

func (s *Server) handleTablesMergePreview(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	idsRaw, err := request.RequireString("table_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var ids []int
	if err := json.Unmarshal([]byte(idsRaw), &ids); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid table_ids: %v", err)), nil
	}

	mappingRaw, err := request.RequireString("mapping")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mapping, err := parseColumnMapping(mappingRaw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	merged, err := s.tableService.PreviewMerge(ids, mapping)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Merged %d table(s) into %d column(s) x %d row(s):\n\n",
		len(merged.TableIDs), len(merged.Grid.Columns), len(merged.Grid.Rows))
	text += renderGrid(merged.Grid)
	text += "\nUse tables_export with source=merged to download the merged table."
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleTablesExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := request.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()

	req := tables.ExportRequest{Format: format}
	if source, ok := args["source"].(string); ok {
		req.Source = tables.ExportSource(source)
	}
	if merge, ok := args["merge"].(bool); ok {
		req.Merge = merge
	}

	result, err := s.tableService.ExportTables(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Export ready: %s\n", result.SuggestedFilename)
	text += fmt.Sprintf("MIME type: %s\n", result.MIMEType)
	text += fmt.Sprintf("Size: %d bytes\n", len(result.Data))
	text += "Base64 data:\n"
	text += base64.StdEncoding.EncodeToString(result.Data)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleTablesServerInfo(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	return mcp.NewToolResultText(s.formatServerInfo()), nil
}

// Formatting methods
func (s *Server) formatExtractResult(result *tables.ExtractResult) string {
	text := fmt.Sprintf("Extracted %d table(s) from %s\n", len(result.Tables), result.Document)
	text += fmt.Sprintf("Total pages: %d\n", result.TotalPages)
	text += fmt.Sprintf("Extraction method: %s\n", result.Method)
	if result.Notice != "" {
		text += fmt.Sprintf("Notice: %s\n", result.Notice)
	}

	for _, t := range result.Tables {
		text += fmt.Sprintf("\nTable %d (page %d): %d column(s) x %d row(s)\n",
			t.ID, t.Page, len(t.Grid.Columns), len(t.Grid.Rows))
		text += "  Columns: " + strings.Join(t.Grid.Columns, ", ") + "\n"
	}

	if len(result.Tables) == 0 {
		text += "\nNo tables found. Try a different engine or page selection.\n"
	}

	return text
}

func (s *Server) formatServerInfo() string {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("PDF directory: %s\n", s.config.PDFDirectory)
	text += fmt.Sprintf("Max file size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Default engine: %s\n", s.config.Engine)
	text += fmt.Sprintf("Available engines: %s\n", strings.Join(s.tableService.Engines(), ", "))

	if doc := s.tableService.Document(); doc != nil {
		text += fmt.Sprintf("\nCurrent session: %s (%d pages, %d table(s))\n",
			doc.Name, doc.PageCount, len(s.tableService.Store().Tables()))
	} else {
		text += "\nCurrent session: no document loaded\n"
	}

	text += "\nAvailable tools:\n"
	text += "  tables_extract        Extract tables from a PDF file\n"
	text += "  tables_list           List extracted tables\n"
	text += "  table_get             Show one table\n"
	text += "  table_set_cell        Edit one cell\n"
	text += "  table_rename_column   Rename a column\n"
	text += "  table_add_row         Append a row\n"
	text += "  table_delete_row      Delete a row\n"
	text += "  table_revert          Discard a table's edits\n"
	text += "  tables_merge_preview  Merge tables under a column mapping\n"
	text += "  tables_export         Export tables as xlsx or csv (base64)\n"
	text += "  tables_server_info    This information\n"

	text += "\nTypical workflow: tables_extract, inspect with tables_list and table_get,\n"
	text += "fix up cells with the table_* editing tools, then tables_export.\n"

	return text
}

// renderGrid renders a grid as aligned plain text.
func renderGrid(g tables.Grid) string {
	widths := make([]int, len(g.Columns))
	for i, c := range g.Columns {
		widths[i] = len(c)
	}
	for _, row := range g.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(cell)
			if pad := widths[i] - len(cell); pad > 0 {
				b.WriteString(strings.Repeat(" ", pad))
			}
		}
		b.WriteString("\n")
	}

	writeRow(g.Columns)
	for i, w := range widths {
		if i > 0 {
			b.WriteString("-+-")
		}
		b.WriteString(strings.Repeat("-", w))
	}
	b.WriteString("\n")
	for _, row := range g.Rows {
		writeRow(row)
	}

	return b.String()
}

// parseColumnMapping parses the merge mapping JSON. Table ids arrive as
// JSON object keys, so they are strings on the wire.
func parseColumnMapping(raw string) (tables.ColumnMapping, error) {
	var wire map[string]map[string]string
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("invalid mapping: %w", err)
	}

	mapping := make(tables.ColumnMapping, len(wire))
	for target, sources := range wire {
		mapping[target] = make(map[int]string, len(sources))
		for idStr, column := range sources {
			id, err := strconv.Atoi(idStr)
			if err != nil {
				return nil, fmt.Errorf("invalid table id %q in mapping", idStr)
			}
			mapping[target][id] = column
		}
	}

	return mapping, nil
}

// requireIntArg reads a required integer argument. JSON numbers arrive as
// float64 through the MCP transport.
func requireIntArg(request mcp.CallToolRequest, name string) (int, error) {
	v, ok := request.GetArguments()[name]
	if !ok {
		return 0, fmt.Errorf("required argument %q not found", name)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("argument %q must be a number", name)
	}
	return int(f), nil
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting PDF tables MCP server in stdio mode")
		log.Printf("PDF directory: %s", s.config.PDFDirectory)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	// For now, we'll just use stdio mode since the mark3labs library
	// handles the transport differently
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
