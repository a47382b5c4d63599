package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	authMiddleware "github.com/hospitalcms/backend/libs/auth/middleware"
	"github.com/hospitalcms/backend/libs/handlers"
	"github.com/hospitalcms/backend/services/editor-service/internal/models"
	"go.uber.org/zap"
)

// maxMultipartMemory is the part of an upload kept in memory; the rest spills to temporary files
const maxMultipartMemory = 32 << 20

// EditorService is the interface that wraps methods for section editing sessions
type EditorService interface {
	// Method OpenSession fetches a section and opens an editing session on it.
	//
	// "sectionID" parameter is the id of the section in the content API.
	// "req" parameter names the layout of the section.
	//
	// If the layout is unknown or the section cannot be fetched, the error will be returned together with "nil" value.
	OpenSession(ctx context.Context, sectionID int, req *models.OpenSessionRequest) (*models.SessionResponse, error)
	// Method GetSession returns the working copy of a session.
	GetSession(ctx context.Context, id string) (*models.SessionResponse, error)
	// Method SetField changes one field of the working copy.
	//
	// "req" parameter holds the field path and its new value.
	SetField(ctx context.Context, id string, req *models.SetFieldRequest) (*models.SessionResponse, error)
	// Method AddItem appends a new item to a collection.
	AddItem(ctx context.Context, id, collection string) (*models.ItemResponse, error)
	// Method RemoveItem drops an item from a collection.
	RemoveItem(ctx context.Context, id, collection, key string) error
	// Method MoveItem reorders a collection.
	MoveItem(ctx context.Context, id, collection string, req *models.MoveItemRequest) (*models.SessionResponse, error)
	// Method Upload uploads a file into a media field.
	//
	// "field" parameter is the media field path, e.g. "certificates.block-12".
	// "filename" parameter is the original file name.
	//
	// If the upload fails, the previous media is kept and the error is returned.
	Upload(ctx context.Context, id, field, filename string, r io.Reader) (*models.ItemResponse, error)
	// Method Changes previews the update a save would submit.
	Changes(ctx context.Context, id string) (*models.ChangesResponse, error)
	// Method Save submits the session changes.
	//
	// "operatorID" parameter is recorded in the save history.
	//
	// A rejected save returns the response together with the error.
	Save(ctx context.Context, id string, operatorID int) (*models.SaveResponse, error)
	// Method CloseSession drops a session.
	CloseSession(ctx context.Context, id string) error
	// Method History returns the latest save attempts of a section.
	History(ctx context.Context, sectionID, limit int) ([]models.SaveRecord, error)
}

// EditorHandler handles section editing requests
type EditorHandler struct {
	handlers.BaseHandler
	editorService EditorService
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(editorService EditorService, logger *zap.Logger) *EditorHandler {
	return &EditorHandler{
		BaseHandler:   handlers.BaseHandler{Logger: logger},
		editorService: editorService,
	}
}

// RegisterRoutes registers all editor handler routes
func (h *EditorHandler) RegisterRoutes(r chi.Router) {
	r.Route("/sections/{sectionID}", func(r chi.Router) {
		r.Post("/sessions", h.OpenSession)
		r.Get("/history", h.History)
	})
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.CloseSession)
		r.Patch("/fields", h.SetField)
		r.Post("/collections/{collection}/items", h.AddItem)
		r.Delete("/collections/{collection}/items/{key}", h.RemoveItem)
		r.Post("/collections/{collection}/move", h.MoveItem)
		r.Post("/uploads", h.Upload)
		r.Get("/changes", h.Changes)
		r.Post("/save", h.Save)
	})
}

// RegisterInternalRoutes registers the routes other services call with the API key
func (h *EditorHandler) RegisterInternalRoutes(r chi.Router) {
	r.Get("/sections/{sectionID}/history", h.History)
}

// OpenSession handles POST /sections/{sectionID}/sessions
// @Summary Open editing session
// @Description Fetch a section, derive its editable snapshot and capture it as the baseline
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sectionID path int true "Section ID"
// @Param request body models.OpenSessionRequest true "Layout of the section"
// @Success 201 {object} models.SessionResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Section not found"
// @Failure 502 {object} map[string]string "Content API error"
// @Router /sections/{sectionID}/sessions [post]
func (h *EditorHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	sectionID, err := strconv.Atoi(chi.URLParam(r, "sectionID"))
	if err != nil || sectionID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid section id")
		return
	}

	var req models.OpenSessionRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Layout == "" {
		h.RespondError(w, http.StatusBadRequest, "layout is required")
		return
	}

	resp, err := h.editorService.OpenSession(r.Context(), sectionID, &req)
	if err != nil {
		h.respondServiceError(w, err, "failed to open session")
		return
	}

	h.RespondJSON(w, http.StatusCreated, resp)
}

// GetSession handles GET /sessions/{id}
// @Summary Get editing session
// @Description Return the working copy of a session and whether it has unsaved changes
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionResponse
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{id} [get]
func (h *EditorHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	resp, err := h.editorService.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err, "failed to get session")
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// SetField handles PATCH /sessions/{id}/fields
// @Summary Change a field
// @Description Change one field of the working copy. Paths look like "header.title" or "certificates.block-12.alt_text".
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param request body models.SetFieldRequest true "Field path and value"
// @Success 200 {object} models.SessionResponse
// @Failure 400 {object} map[string]string "Invalid field or value"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{id}/fields [patch]
func (h *EditorHandler) SetField(w http.ResponseWriter, r *http.Request) {
	var req models.SetFieldRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Path == "" {
		h.RespondError(w, http.StatusBadRequest, "path is required")
		return
	}

	resp, err := h.editorService.SetField(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.respondServiceError(w, err, "failed to set field")
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// AddItem handles POST /sessions/{id}/collections/{collection}/items
// @Summary Add collection item
// @Description Append a new item with placeholder values to a collection
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param collection path string true "Collection name"
// @Success 201 {object} models.ItemResponse
// @Failure 400 {object} map[string]string "Unknown collection"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{id}/collections/{collection}/items [post]
func (h *EditorHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	resp, err := h.editorService.AddItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "collection"))
	if err != nil {
		h.respondServiceError(w, err, "failed to add item")
		return
	}

	h.RespondJSON(w, http.StatusCreated, resp)
}

// RemoveItem handles DELETE /sessions/{id}/collections/{collection}/items/{key}
// @Summary Remove collection item
// @Description Remove an item; saved blocks are deleted on the next save
// @Tags sessions
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param collection path string true "Collection name"
// @Param key path string true "Item key"
// @Success 204 "Item removed"
// @Failure 400 {object} map[string]string "Unknown collection or item"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{id}/collections/{collection}/items/{key} [delete]
func (h *EditorHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	err := h.editorService.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "collection"), chi.URLParam(r, "key"))
	if err != nil {
		h.respondServiceError(w, err, "failed to remove item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MoveItem handles POST /sessions/{id}/collections/{collection}/move
// @Summary Reorder collection
// @Description Move the item at position "from" to position "to" (0-based)
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param collection path string true "Collection name"
// @Param request body models.MoveItemRequest true "Positions"
// @Success 200 {object} models.SessionResponse
// @Failure 400 {object} map[string]string "Invalid position"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{id}/collections/{collection}/move [post]
func (h *EditorHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	var req models.MoveItemRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.editorService.MoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "collection"), &req)
	if err != nil {
		h.respondServiceError(w, err, "failed to move item")
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// Upload handles POST /sessions/{id}/uploads
// @Summary Upload media
// @Description Upload a file to the content API and store its id in a media field
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param field formData string true "Media field path"
// @Param file formData file true "File to upload"
// @Success 200 {object} models.ItemResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 502 {object} map[string]string "Upload failed"
// @Router /sessions/{id}/uploads [post]
func (h *EditorHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.Logger.Warn("failed to parse multipart form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
		return
	}

	field := r.FormValue("field")
	if field == "" {
		h.RespondError(w, http.StatusBadRequest, "field is required")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	resp, err := h.editorService.Upload(r.Context(), chi.URLParam(r, "id"), field, fileHeader.Filename, file)
	if err != nil {
		h.respondServiceError(w, err, "failed to upload file")
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// Changes handles GET /sessions/{id}/changes
// @Summary Preview changes
// @Description Return the update a save would submit together with readable change labels
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} models.ChangesResponse
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{id}/changes [get]
func (h *EditorHandler) Changes(w http.ResponseWriter, r *http.Request) {
	resp, err := h.editorService.Changes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err, "failed to build changes")
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// Save handles POST /sessions/{id}/save
// @Summary Save section
// @Description Submit the changes of the session. On success the session baseline moves to the saved state.
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} models.SaveResponse
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 409 {object} models.SaveResponse "Section changed on the server"
// @Failure 502 {object} models.SaveResponse "Content API rejected the save"
// @Router /sessions/{id}/save [post]
func (h *EditorHandler) Save(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	operatorID, _ := authMiddleware.GetOperatorID(r.Context())

	resp, err := h.editorService.Save(r.Context(), id, operatorID)
	if err != nil {
		if resp == nil {
			h.respondServiceError(w, err, "failed to save section")
			return
		}
		status, message := statusOf(err)
		if status == http.StatusConflict {
			resp.Message = message
		}
		h.Logger.Warn("section save rejected", zap.String("session_id", id), zap.Error(err))
		h.RespondJSON(w, status, resp)
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// CloseSession handles DELETE /sessions/{id}
// @Summary Close editing session
// @Description Drop a session and its unsaved changes
// @Tags sessions
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204 "Session closed"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{id} [delete]
func (h *EditorHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.editorService.CloseSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err, "failed to close session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /sections/{sectionID}/history
// @Summary Save history
// @Description List the latest save attempts of a section, newest first
// @Tags sections
// @Produce json
// @Security BearerAuth
// @Param sectionID path int true "Section ID"
// @Param limit query int false "Maximum number of records (default 20, max 100)"
// @Success 200 {array} models.SaveRecord
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /sections/{sectionID}/history [get]
func (h *EditorHandler) History(w http.ResponseWriter, r *http.Request) {
	sectionID, err := strconv.Atoi(chi.URLParam(r, "sectionID"))
	if err != nil || sectionID <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid section id")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			h.RespondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	records, err := h.editorService.History(r.Context(), sectionID, limit)
	if err != nil {
		h.respondServiceError(w, err, "failed to get save history")
		return
	}

	h.RespondJSON(w, http.StatusOK, records)
}

func (h *EditorHandler) respondServiceError(w http.ResponseWriter, err error, logMessage string) {
	status, message := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(logMessage, zap.Error(err))
	} else {
		h.Logger.Info(logMessage, zap.Error(err))
	}
	h.RespondError(w, status, message)
}
