package api

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/platewise/menulens/pkg/kit"
)

// RegisterMCPTools registers the menulens MCP tools on the server. The tools
// dispatch to the same endpoints as the HTTP routes.
func RegisterMCPTools(srv *server.MCPServer, d Deps) {
	eps := newEndpoints(d)
	registerResolveMenu(srv, eps)
	registerMatchTerm(srv, eps)
	registerListCatalogs(srv, eps)
}

func registerResolveMenu(srv *server.MCPServer, eps endpoints) {
	tool := mcp.NewTool("resolve_menu",
		mcp.WithDescription("Resolve the OCR text of one photographed restaurant menu into identified food entities with confidence scores, duplicates collapsed."),
		mcp.WithString("ocr_text", mcp.Required(), mcp.Description("Raw OCR text, one menu line per row; prices after a dash or colon are split off automatically")),
	)

	kit.RegisterMCPTool(srv, tool, eps.resolveScan, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		ocrText, _ := args["ocr_text"].(string)
		return &kit.MCPDecodeResult{Request: &resolveScanReq{OCRText: ocrText}}, nil
	})
}

func registerMatchTerm(srv *server.MCPServer, eps endpoints) {
	tool := mcp.NewTool("match_term",
		mcp.WithDescription("Match a single menu-item name against the food knowledge base and return the best entity with ranked alternates, or the reason no match was confident enough."),
		mcp.WithString("term", mcp.Required(), mcp.Description("The menu-item text to match")),
		mcp.WithString("lang", mcp.Description("Optional language hint (e.g. ko, th, en)")),
	)

	kit.RegisterMCPTool(srv, tool, eps.matchTerm, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		term, _ := args["term"].(string)
		lang, _ := args["lang"].(string)
		return &kit.MCPDecodeResult{Request: &matchTermReq{Term: term, Lang: lang}}, nil
	})
}

func registerListCatalogs(srv *server.MCPServer, eps endpoints) {
	tool := mcp.NewTool("list_catalogs",
		mcp.WithDescription("List all loaded food catalogs with metadata (language, region, entity count, source, license)."),
	)

	kit.RegisterMCPTool(srv, tool, eps.listCatalogs, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}
