// Package api exposes the authorization layer over HTTP for engine
// plugins that delegate their checks remotely.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trinogate/internal/accesscontrol"
	"trinogate/internal/domain"
)

// Handler serves the decision endpoints.
type Handler struct {
	ac     *accesscontrol.SystemAccessControl
	logger *slog.Logger
}

func NewHandler(ac *accesscontrol.SystemAccessControl, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{ac: ac, logger: logger}
}

// Routes mounts the decision endpoints on a fresh router. Callers wrap
// it with authentication and request ID middleware.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/authorize", h.Authorize)
	r.Post("/filter/catalogs", h.FilterCatalogs)
	r.Post("/filter/schemas", h.FilterSchemas)
	r.Post("/filter/tables", h.FilterTables)
	r.Post("/row-filters", h.RowFilters)
	r.Post("/column-mask", h.ColumnMask)
	return r
}

// --- payloads ---

type identityPayload struct {
	User    string   `json:"user"`
	Groups  []string `json:"groups,omitempty"`
	QueryID string   `json:"queryId,omitempty"`
}

func (p identityPayload) toDomain() domain.Identity {
	return domain.Identity{User: p.User, Groups: p.Groups}
}

// withIdentity builds the request's security context and stores the
// identity in the request context so shared helpers can report who the
// request was for.
func withIdentity(r *http.Request, p identityPayload) (*http.Request, domain.SecurityContext) {
	sc := domain.SecurityContext{Identity: p.toDomain(), QueryID: p.QueryID}
	return r.WithContext(domain.WithIdentity(r.Context(), sc.Identity)), sc
}

type targetPayload struct {
	Catalog   string   `json:"catalog,omitempty"`
	Schema    string   `json:"schema,omitempty"`
	Table     string   `json:"table,omitempty"`
	Columns   []string `json:"columns,omitempty"`
	Property  string   `json:"property,omitempty"`
	User      string   `json:"user,omitempty"`
	Function  string   `json:"function,omitempty"`
	Procedure string   `json:"procedure,omitempty"`
}

type authorizeRequest struct {
	Operation string          `json:"operation"`
	Identity  identityPayload `json:"identity"`
	Target    targetPayload   `json:"target"`
}

type tablePayload struct {
	Catalog string `json:"catalog"`
	Schema  string `json:"schema"`
	Table   string `json:"table"`
}

func (p tablePayload) toDomain() domain.CatalogSchemaTableName {
	return domain.CatalogSchemaTableName{Catalog: p.Catalog, Schema: p.Schema, Table: p.Table}
}

type viewExpressionPayload struct {
	Identity   string `json:"identity"`
	Catalog    string `json:"catalog"`
	Schema     string `json:"schema"`
	Expression string `json:"expression"`
}

func toViewExpressionPayload(e domain.ViewExpression) viewExpressionPayload {
	return viewExpressionPayload{
		Identity:   e.Identity,
		Catalog:    e.Catalog,
		Schema:     e.Schema,
		Expression: e.Expression,
	}
}

// --- endpoints ---

// Authorize runs one operation check. Allowed checks answer 200;
// denials answer 403 with the denial message.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	op, ok := accesscontrol.ParseOperation(req.Operation)
	if !ok {
		h.writeError(w, r, domain.ErrValidation("unknown operation %q", req.Operation))
		return
	}
	if req.Identity.User == "" {
		h.writeError(w, r, domain.ErrValidation("identity.user is required"))
		return
	}
	r, sc := withIdentity(r, req.Identity)
	t := accesscontrol.Target{
		Catalog:   req.Target.Catalog,
		Schema:    req.Target.Schema,
		Table:     req.Target.Table,
		Columns:   req.Target.Columns,
		Property:  req.Target.Property,
		User:      req.Target.User,
		Function:  req.Target.Function,
		Procedure: req.Target.Procedure,
	}
	if err := h.ac.Authorize(r.Context(), sc.Identity, op, t); err != nil {
		var denied *domain.AccessDeniedError
		if errors.As(err, &denied) {
			h.logger.Debug("operation denied",
				"operation", req.Operation, "user", sc.Identity.User, "query_id", sc.QueryID)
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"allowed": false,
				"code":    http.StatusForbidden,
				"message": denied.Message,
			})
			return
		}
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"allowed": true})
}

type filterCatalogsRequest struct {
	Identity identityPayload `json:"identity"`
	Catalogs []string        `json:"catalogs"`
}

func (h *Handler) FilterCatalogs(w http.ResponseWriter, r *http.Request) {
	var req filterCatalogsRequest
	if !h.decode(w, r, &req) {
		return
	}
	r, sc := withIdentity(r, req.Identity)
	visible, err := h.ac.FilterCatalogs(r.Context(), sc.Identity, req.Catalogs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"catalogs": visible})
}

type filterSchemasRequest struct {
	Identity identityPayload `json:"identity"`
	Catalog  string          `json:"catalog"`
	Schemas  []string        `json:"schemas"`
}

func (h *Handler) FilterSchemas(w http.ResponseWriter, r *http.Request) {
	var req filterSchemasRequest
	if !h.decode(w, r, &req) {
		return
	}
	r, sc := withIdentity(r, req.Identity)
	visible, err := h.ac.FilterSchemas(r.Context(), sc.Identity, req.Catalog, req.Schemas)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schemas": visible})
}

type filterTablesRequest struct {
	Identity identityPayload `json:"identity"`
	Catalog  string          `json:"catalog"`
	Tables   []struct {
		Schema string `json:"schema"`
		Table  string `json:"table"`
	} `json:"tables"`
}

func (h *Handler) FilterTables(w http.ResponseWriter, r *http.Request) {
	var req filterTablesRequest
	if !h.decode(w, r, &req) {
		return
	}
	tables := make([]domain.SchemaTableName, len(req.Tables))
	for i, t := range req.Tables {
		tables[i] = domain.SchemaTableName{Schema: t.Schema, Table: t.Table}
	}
	r, sc := withIdentity(r, req.Identity)
	visible, err := h.ac.FilterTables(r.Context(), sc.Identity, req.Catalog, tables)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]map[string]string, len(visible))
	for i, t := range visible {
		out[i] = map[string]string{"schema": t.Schema, "table": t.Table}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tables": out})
}

type rowFiltersRequest struct {
	Identity identityPayload `json:"identity"`
	Table    tablePayload    `json:"table"`
}

func (h *Handler) RowFilters(w http.ResponseWriter, r *http.Request) {
	var req rowFiltersRequest
	if !h.decode(w, r, &req) {
		return
	}
	r, sc := withIdentity(r, req.Identity)
	filters, err := h.ac.GetRowFilters(r.Context(), sc.Identity, req.Table.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]viewExpressionPayload, len(filters))
	for i, f := range filters {
		out[i] = toViewExpressionPayload(f)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"filters": out})
}

type columnMaskRequest struct {
	Identity   identityPayload `json:"identity"`
	Table      tablePayload    `json:"table"`
	Column     string          `json:"column"`
	ColumnType string          `json:"columnType"`
}

func (h *Handler) ColumnMask(w http.ResponseWriter, r *http.Request) {
	var req columnMaskRequest
	if !h.decode(w, r, &req) {
		return
	}
	r, sc := withIdentity(r, req.Identity)
	mask, err := h.ac.GetColumnMask(r.Context(), sc.Identity, req.Table.toDomain(), req.Column, req.ColumnType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if mask == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"mask": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"mask": toViewExpressionPayload(*mask)})
}

// --- helpers ---

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := httpStatusFromDomainError(err)
	if code == http.StatusInternalServerError {
		attrs := []any{"error", err}
		if id, ok := domain.IdentityFromContext(r.Context()); ok {
			attrs = append(attrs, "user", id.User)
		}
		h.logger.Error("request failed", attrs...)
	}
	writeJSON(w, code, map[string]interface{}{
		"code":    code,
		"message": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
