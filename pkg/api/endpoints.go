package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/platewise/menulens/pkg/foodkb"
	"github.com/platewise/menulens/pkg/kit"
	"github.com/platewise/menulens/pkg/match"
	"github.com/platewise/menulens/pkg/pipeline"
	"github.com/platewise/menulens/pkg/scanstore"
)

// maxScanTokens bounds one resolve request; a photographed menu never has
// anywhere near this many lines.
const maxScanTokens = 500

var errNotFound = errors.New("not found")

// Deps are the collaborators shared by both HTTP and MCP transports.
type Deps struct {
	Registry *foodkb.Registry
	Resolver *pipeline.Resolver
	Store    *scanstore.Store // nil disables persistence
	Logger   *slog.Logger
}

// Shared request/response types used by both transports.

type resolveScanReq struct {
	Tokens  []match.RawToken
	OCRText string
}

type matchTermReq struct {
	Term string
	Lang string
}

type getScanReq struct{ ID string }
type deleteScanReq struct{ ID string }
type listScansReq struct{ Limit, Offset int }

type scansResponse struct {
	Scans []scanstore.ScanSummary `json:"scans"`
}

type catalogsResponse struct {
	Catalogs []foodkb.CatalogInfo `json:"catalogs"`
}

type deletedResponse struct {
	Deleted string `json:"deleted"`
}

// endpoints are the core actions, wrapped with logging middleware.
type endpoints struct {
	resolveScan  kit.Endpoint
	matchTerm    kit.Endpoint
	getScan      kit.Endpoint
	listScans    kit.Endpoint
	deleteScan   kit.Endpoint
	listCatalogs kit.Endpoint
}

func newEndpoints(d Deps) endpoints {
	wrap := func(action string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Logging(d.Logger, action))(ep)
	}
	return endpoints{
		resolveScan:  wrap("resolve_scan", resolveScanEndpoint(d)),
		matchTerm:    wrap("match_term", matchTermEndpoint(d)),
		getScan:      wrap("get_scan", getScanEndpoint(d)),
		listScans:    wrap("list_scans", listScansEndpoint(d)),
		deleteScan:   wrap("delete_scan", deleteScanEndpoint(d)),
		listCatalogs: wrap("list_catalogs", listCatalogsEndpoint(d)),
	}
}

func resolveScanEndpoint(d Deps) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*resolveScanReq)

		tokens := req.Tokens
		if len(tokens) == 0 && req.OCRText != "" {
			tokens = pipeline.ParseScanText(req.OCRText)
		}
		if len(tokens) == 0 {
			return nil, fmt.Errorf("nothing to resolve: supply tokens or ocr_text")
		}
		if len(tokens) > maxScanTokens {
			return nil, fmt.Errorf("too many tokens (max %d, got %d)", maxScanTokens, len(tokens))
		}
		fillPositions(tokens)

		scan, err := d.Resolver.ResolveMenu(ctx, d.Registry.Index(), tokens)
		if err != nil {
			return nil, err
		}
		if d.Store != nil {
			if err := d.Store.SaveScan(scan); err != nil {
				return nil, fmt.Errorf("persist scan: %w", err)
			}
		}
		return scan, nil
	}
}

// fillPositions assigns scan-order positions when the caller sent tokens
// without any.
func fillPositions(tokens []match.RawToken) {
	for _, t := range tokens {
		if t.Position != 0 {
			return
		}
	}
	for i := range tokens {
		tokens[i].Position = i
	}
}

func matchTermEndpoint(d Deps) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*matchTermReq)
		if req.Term == "" {
			return nil, fmt.Errorf("missing term")
		}
		lang := req.Lang
		if lang == "" {
			lang = kit.GetLang(ctx)
		}
		tok := match.RawToken{Text: req.Term, Confidence: 1}
		return d.Resolver.Matcher().MatchHint(tok, d.Registry.Index(), lang), nil
	}
}

func getScanEndpoint(d Deps) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*getScanReq)
		if d.Store == nil {
			return nil, fmt.Errorf("scan storage disabled")
		}
		rec, err := d.Store.GetScan(req.ID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, errNotFound
		}
		return rec, nil
	}
}

func listScansEndpoint(d Deps) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*listScansReq)
		if d.Store == nil {
			return nil, fmt.Errorf("scan storage disabled")
		}
		scans, err := d.Store.ListScans(req.Limit, req.Offset)
		if err != nil {
			return nil, err
		}
		if scans == nil {
			scans = []scanstore.ScanSummary{}
		}
		return scansResponse{Scans: scans}, nil
	}
}

func deleteScanEndpoint(d Deps) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*deleteScanReq)
		if d.Store == nil {
			return nil, fmt.Errorf("scan storage disabled")
		}
		ok, err := d.Store.DeleteScan(req.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errNotFound
		}
		return deletedResponse{Deleted: req.ID}, nil
	}
}

func listCatalogsEndpoint(d Deps) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return catalogsResponse{Catalogs: d.Registry.Catalogs()}, nil
	}
}
