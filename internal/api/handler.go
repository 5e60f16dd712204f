package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmehra2102/TodoVault/internal/app"
	"github.com/dmehra2102/TodoVault/internal/domain"
	"github.com/dmehra2102/TodoVault/pkg/auth"
	"go.uber.org/zap"
)

// Handler maps HTTP requests to the todo service. Transport concerns
// only: decoding, status mapping, the wire encoding of enums.
type Handler struct {
	svc      *app.TodoService
	verifier *auth.Verifier
	logger   *zap.Logger
}

func NewHandler(svc *app.TodoService, verifier *auth.Verifier, logger *zap.Logger) *Handler {
	return &Handler{
		svc:      svc,
		verifier: verifier,
		logger:   logger,
	}
}

// Register wires all routes onto the mux. Mutating routes require
// authentication.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("GET /api/v1/todos", h.List)
	mux.HandleFunc("GET /api/v1/todos/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/todos/export", h.Export)
	mux.HandleFunc("GET /api/v1/todos/{id}", h.Get)

	mux.HandleFunc("POST /api/v1/todos", h.requireAuth(h.Create))
	mux.HandleFunc("PUT /api/v1/todos/{id}", h.requireAuth(h.Replace))
	mux.HandleFunc("PATCH /api/v1/todos/{id}", h.requireAuth(h.PartialUpdate))
	mux.HandleFunc("PATCH /api/v1/todos/{id}/status", h.requireAuth(h.UpdateStatus))
	mux.HandleFunc("POST /api/v1/todos/{id}/restore", h.requireAuth(h.Restore))
	mux.HandleFunc("DELETE /api/v1/todos/{id}", h.requireAuth(h.Delete))
}

func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.verifier.Authenticate(r); err != nil {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized", "invalid or missing credentials")
			return
		}
		next(w, r)
	}
}

type todoResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Priority    int        `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	IsDeleted   bool       `json:"is_deleted"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toResponse(t *domain.Todo) todoResponse {
	return todoResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Priority:    t.Priority.Int(),
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		IsDeleted:   t.IsDeleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type todoRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Priority    *int       `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
}

// toCreateInput maps the wire form to domain input. An omitted priority
// defaults to LOW, an omitted status to NEW.
func (req *todoRequest) toCreateInput() (*domain.CreateInput, error) {
	priority := domain.PriorityLow
	if req.Priority != nil {
		p, err := domain.ParsePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	return &domain.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Priority:    priority,
		Status:      domain.Status(req.Status),
		DueDate:     req.DueDate,
	}, nil
}

type patchRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Priority    *int       `json:"priority"`
	Status      *string    `json:"status"`
	DueDate     *time.Time `json:"due_date"`
}

func (req *patchRequest) toPatch() (*domain.Patch, error) {
	patch := &domain.Patch{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Priority != nil {
		p, err := domain.ParsePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		patch.Priority = &p
	}
	if req.Status != nil {
		s, err := domain.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &s
	}
	return patch, nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req todoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BadRequest", "malformed json body")
		return
	}

	in, err := req.toCreateInput()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	todo, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(todo))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	includeDeleted := parseBool(r.URL.Query().Get("include_deleted"))

	todo, err := h.svc.Get(r.Context(), id, includeDeleted)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(todo))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	todos, total, err := h.svc.List(r.Context(), q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	items := make([]todoResponse, len(todos))
	for i, t := range todos {
		items[i] = toResponse(t)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"total":  total,
		"offset": q.Offset,
		"limit":  q.Limit,
	})
}

func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req todoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BadRequest", "malformed json body")
		return
	}

	in, err := req.toCreateInput()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	todo, err := h.svc.Replace(r.Context(), id, in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(todo))
}

func (h *Handler) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req patchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BadRequest", "malformed json body")
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	todo, err := h.svc.PartialUpdate(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(todo))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BadRequest", "malformed json body")
		return
	}

	todo, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(todo))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.svc.SoftDelete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	todo, err := h.svc.Restore(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(todo))
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	includeDeleted := parseBool(r.URL.Query().Get("include_deleted"))

	stats, err := h.svc.Stats(r.Context(), includeDeleted)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{
		"total":  stats.Total,
		"high":   stats.High,
		"medium": stats.Medium,
		"low":    stats.Low,
	})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := app.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	includeDeleted := parseBool(r.URL.Query().Get("include_deleted"))

	payload, contentType, err := h.svc.Export(r.Context(), format, includeDeleted)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if format == app.ExportCSV {
		w.Header().Set("Content-Disposition", `attachment; filename="todos.csv"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func parseListQuery(r *http.Request) (*domain.ListQuery, error) {
	values := r.URL.Query()

	q := &domain.ListQuery{
		IncludeDeleted: parseBool(values.Get("include_deleted")),
		Search:         strings.TrimSpace(values.Get("q")),
		Overdue:        parseBool(values.Get("overdue")),
		SortBy:         values.Get("sort_by"),
		SortOrder:      domain.SortOrder(values.Get("order")),
	}

	if s := values.Get("priority"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, &domain.ValidationError{Field: "priority", Message: "must be an integer"}
		}
		p, err := domain.ParsePriority(v)
		if err != nil {
			return nil, err
		}
		q.Priority = &p
	}

	if s := values.Get("status"); s != "" {
		st, err := domain.ParseStatus(s)
		if err != nil {
			return nil, err
		}
		q.Status = &st
	}

	var err error
	if q.Offset, err = parseNonNegative(values.Get("offset"), "offset"); err != nil {
		return nil, err
	}
	if q.Limit, err = parseNonNegative(values.Get("limit"), "limit"); err != nil {
		return nil, err
	}

	return q, nil
}

func parseNonNegative(s, field string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, &domain.ValidationError{Field: field, Message: "must be a non-negative integer"}
	}
	return v, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, &domain.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return id, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders the error envelope: ok, error kind, detail, path.
func writeError(w http.ResponseWriter, r *http.Request, code int, kind, detail string) {
	writeJSON(w, code, map[string]any{
		"ok":     false,
		"error":  kind,
		"detail": detail,
		"path":   r.URL.Path,
	})
}

// respondError maps domain errors to transport status codes:
// ValidationError to 422, ErrNotFound to 404, everything else to 500.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, r, http.StatusUnprocessableEntity, "ValidationError", ve.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "NotFound", "todo not found")
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "InternalError", "internal server error")
	}
}
