package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/signgate/signgate/internal/eformsign"
)

// registerTools registers all signgate MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	srv.AddTool(
		mcp.NewTool("signgate_list_templates",
			mcp.WithDescription(
				"List the form templates available in the eformsign company account. "+
					"Returns template ids and names. Use the ids with other tools.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("page",
				mcp.Description("Page number, starting at 1"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Items per page (default 20)"),
			),
		),
		s.handleListTemplates,
	)

	srv.AddTool(
		mcp.NewTool("signgate_list_documents",
			mcp.WithDescription(
				"List documents in the eformsign company account, optionally filtered "+
					"by template name or template id.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("name",
				mcp.Description("Filter by exact template name"),
			),
			mcp.WithString("template_id",
				mcp.Description("Filter by template id (takes precedence over name)"),
			),
			mcp.WithNumber("page",
				mcp.Description("Page number, starting at 1"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Items per page (default 20)"),
			),
		),
		s.handleListDocuments,
	)

	srv.AddTool(
		mcp.NewTool("signgate_get_document",
			mcp.WithDescription(
				"Fetch one document by id, including its fields, signing histories, "+
					"and surrounding workflow status.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("document_id",
				mcp.Required(),
				mcp.Description("The document id to fetch"),
			),
		),
		s.handleGetDocument,
	)

	srv.AddTool(
		mcp.NewTool("signgate_list_company_members",
			mcp.WithDescription(
				"List the members registered in the eformsign company account.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("page",
				mcp.Description("Page number, starting at 1"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Items per page (default 20)"),
			),
		),
		s.handleListCompanyMembers,
	)

	srv.AddTool(
		mcp.NewTool("signgate_list_groups",
			mcp.WithDescription(
				"List the groups in the eformsign company account, including each "+
					"group's members and fields.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("page",
				mcp.Description("Page number, starting at 1"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Items per page (default 20)"),
			),
		),
		s.handleListGroups,
	)
}

func pageFromRequest(request mcp.CallToolRequest) eformsign.Page {
	return eformsign.Page{
		Number: request.GetInt("page", 1),
		Limit:  request.GetInt("limit", 20),
	}
}

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way are
// visible to the client so it can self-correct; they do NOT terminate the
// MCP session.
func toolError(format string, args ...any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

func (s *MCPServer) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := s.client.Templates(ctx, s.admin, pageFromRequest(request))
	if err != nil {
		return toolError("list templates: %v", err)
	}
	return successJSON(out)
}

func (s *MCPServer) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := eformsign.DocumentFilter{
		Name:       request.GetString("name", ""),
		TemplateID: request.GetString("template_id", ""),
	}
	out, err := s.client.Documents(ctx, s.admin, filter, pageFromRequest(request))
	if err != nil {
		return toolError("list documents: %v", err)
	}
	return successJSON(out)
}

func (s *MCPServer) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentID, err := request.RequireString("document_id")
	if err != nil {
		return toolError("missing required parameter %q", "document_id")
	}
	out, err := s.client.Document(ctx, s.admin, documentID)
	if err != nil {
		return toolError("get document: %v", err)
	}
	return successJSON(out)
}

func (s *MCPServer) handleListCompanyMembers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := s.client.CompanyMembers(ctx, s.admin, pageFromRequest(request))
	if err != nil {
		return toolError("list company members: %v", err)
	}
	return successJSON(out)
}

func (s *MCPServer) handleListGroups(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := s.client.Groups(ctx, s.admin, pageFromRequest(request))
	if err != nil {
		return toolError("list groups: %v", err)
	}
	return successJSON(out)
}
