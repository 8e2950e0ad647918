package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/platewise/menulens/pkg/kit"
	"github.com/platewise/menulens/pkg/match"
)

// statusClientClosedRequest mirrors nginx's non-standard 499 for requests
// whose client went away mid-resolution.
const statusClientClosedRequest = 499

// NewRouter returns an http.Handler with all menulens API routes.
func NewRouter(d Deps) http.Handler {
	h := &handler{eps: newEndpoints(d), deps: d}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/scans", h.handleResolveScan)
	mux.HandleFunc("GET /v1/scans", h.handleListScans)
	mux.HandleFunc("GET /v1/scans/{id}", h.handleGetScan)
	mux.HandleFunc("DELETE /v1/scans/{id}", h.handleDeleteScan)
	mux.HandleFunc("GET /v1/match/{term}", h.handleMatchTerm)
	mux.HandleFunc("GET /v1/catalogs", h.handleListCatalogs)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(requestScope(mux))
}

type handler struct {
	eps  endpoints
	deps Deps
}

// --- resolve a menu scan ---

type httpResolveRequest struct {
	OCRText string           `json:"ocr_text,omitempty"`
	Tokens  []match.RawToken `json:"tokens,omitempty"`
}

func (h *handler) handleResolveScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 256*1024) // 256 KiB max
	var req httpResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.eps.resolveScan(r.Context(), &resolveScanReq{
		Tokens:  req.Tokens,
		OCRText: req.OCRText,
	})
	if err != nil {
		writeEndpointError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// --- stored scans ---

func (h *handler) handleListScans(w http.ResponseWriter, r *http.Request) {
	req := &listScansReq{Limit: queryInt(r, "limit"), Offset: queryInt(r, "offset")}
	resp, err := h.eps.listScans(r.Context(), req)
	if err != nil {
		writeEndpointError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleGetScan(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.getScan(r.Context(), &getScanReq{ID: r.PathValue("id")})
	if err != nil {
		writeEndpointError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.deleteScan(r.Context(), &deleteScanReq{ID: r.PathValue("id")})
	if err != nil {
		writeEndpointError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- match a single term ---

func (h *handler) handleMatchTerm(w http.ResponseWriter, r *http.Request) {
	term := r.PathValue("term")
	if term == "" {
		writeError(w, http.StatusBadRequest, "missing term")
		return
	}
	resp, err := h.eps.matchTerm(r.Context(), &matchTermReq{
		Term: term,
		Lang: r.URL.Query().Get("lang"),
	})
	if err != nil {
		writeEndpointError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- catalogs ---

func (h *handler) handleListCatalogs(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.listCatalogs(r.Context(), nil)
	if err != nil {
		writeEndpointError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status   string `json:"status"`
	Catalogs int    `json:"catalogs"`
	Entities int    `json:"entities"`
	Variants int    `json:"variants"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	idx := h.deps.Registry.Index()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Catalogs: h.deps.Registry.CatalogCount(),
		Entities: idx.EntityCount(),
		Variants: idx.VariantCount(),
	})
}

// --- helpers ---

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeEndpointError maps endpoint errors onto HTTP status codes. Not-found
// and cancellation are expected branches, everything else keeps the given
// fallback status.
func writeEndpointError(w http.ResponseWriter, err error, fallback int) {
	switch {
	case errors.Is(err, errNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, context.Canceled):
		writeError(w, statusClientClosedRequest, "request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "resolution timed out")
	default:
		writeError(w, fallback, err.Error())
	}
}

// requestScope tags every request with an ID, the transport, and the
// caller's language preference.
func requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithRequestID(r.Context(), uuid.NewString())
		ctx = kit.WithTransport(ctx, "http")
		if lang := acceptLanguage(r); lang != "" {
			ctx = kit.WithLang(ctx, lang)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// acceptLanguage extracts the first language tag of the Accept-Language
// header ("ko-KR,ko;q=0.9" -> "ko").
func acceptLanguage(r *http.Request) string {
	raw := r.Header.Get("Accept-Language")
	if raw == "" {
		return ""
	}
	first := strings.TrimSpace(strings.SplitN(raw, ",", 2)[0])
	first = strings.SplitN(first, ";", 2)[0]
	if i := strings.IndexByte(first, '-'); i > 0 {
		first = first[:i]
	}
	return strings.ToLower(strings.TrimSpace(first))
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
