package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/models"
	"go.uber.org/zap"
)

// multipartMemory is the part of a multipart body kept in memory, the rest goes to temporary files
const multipartMemory = 32 << 20

// GalleryService is the interface that wraps methods for gallery business logic.
type GalleryService interface {
	// Method List returns all items ordered by position, then creation time.
	List(ctx context.Context) ([]models.GalleryItem, error)
	// Method Upload stores the files and appends one item per file after the last position.
	//
	// If any file is rejected or cannot be stored, nothing is created.
	Upload(ctx context.Context, files []models.UploadFile) ([]models.GalleryItem, error)
	// Method Update renames an item and/or replaces its file.
	//
	// "upd" parameter may carry a version; a stale version returns an ErrConflict error.
	Update(ctx context.Context, id string, upd models.GalleryUpdate) (*models.UpdateResult, error)
	// Method Delete removes an item and its file.
	Delete(ctx context.Context, id string) (*models.DeleteResult, error)
	// Method DeleteMany removes the items with the given ids and reports the unknown ones.
	DeleteMany(ctx context.Context, ids []string) (*models.DeleteResult, error)
	// Method Reorder applies the position updates in one batch and returns the new order.
	Reorder(ctx context.Context, updates []models.PositionUpdate) ([]models.GalleryItem, error)
	// Method Swap exchanges the positions of two items and reports whether anything changed.
	Swap(ctx context.Context, a, b string) ([]models.GalleryItem, bool, error)
	// Method SelectForSwap records one step of the two-step swap made by the caller.
	SelectForSwap(ctx context.Context, actorID, id string) (*models.SwapSelectResponse, error)
}

// GalleryHandler handles gallery-related HTTP requests
type GalleryHandler struct {
	BaseHandler
	galleryService GalleryService
}

// NewGalleryHandler creates a new gallery handler
func NewGalleryHandler(galleryService GalleryService, logger *zap.Logger) *GalleryHandler {
	return &GalleryHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		galleryService: galleryService,
	}
}

// RegisterRoutes registers all gallery handler routes.
// Listing is public, every mutation runs behind adminMiddlewares.
func (h *GalleryHandler) RegisterRoutes(r chi.Router, adminMiddlewares ...func(http.Handler) http.Handler) {
	r.Route("/gallery", func(r chi.Router) {
		r.Get("/", h.List)

		r.Group(func(r chi.Router) {
			r.Use(adminMiddlewares...)

			r.Post("/upload", h.Upload)
			r.Patch("/reorder", h.Reorder)
			r.Post("/swap", h.Swap)
			r.Post("/swap/select", h.SelectForSwap)
			r.Delete("/", h.DeleteMany)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List handles GET /gallery
// @Summary List gallery items
// @Description Returns all images and videos ordered by position, then upload time.
// @Tags gallery
// @Produce json
// @Success 200 {object} models.GalleryListResponse
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /gallery [get]
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.galleryService.List(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, "list gallery", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.GalleryListResponse{Success: true, Items: items})
}

// Upload handles POST /gallery/upload
// @Summary Upload images and videos
// @Description Each file becomes a gallery item appended after the current last position, in submission order.
// @Tags gallery
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param files formData file true "Images or videos, repeatable"
// @Success 201 {object} models.GalleryListResponse
// @Failure 400 {object} map[string]string "No files or unsupported file type"
// @Failure 403 {object} map[string]string "Admin access only"
// @Failure 413 {object} map[string]string "Request body too large"
// @Failure 503 {object} map[string]string "Database or file storage unavailable"
// @Router /gallery/upload [post]
func (h *GalleryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["files[]"]
	}

	files := make([]models.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.Logger.Error("failed to open uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
			h.RespondError(w, http.StatusBadRequest, "failed to process uploaded file")
			return
		}
		defer f.Close()
		files = append(files, uploadFile(fh, f))
	}

	items, err := h.galleryService.Upload(r.Context(), files)
	if err != nil {
		h.RespondServiceError(w, r, "upload gallery files", err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, models.GalleryListResponse{
		Success: true,
		Message: "Files uploaded successfully",
		Items:   items,
	})
}

// Update handles PUT /gallery/{id}
// @Summary Rename an item or replace its file
// @Description At least one of title or file is required. When version is given the update only applies if it matches.
// @Tags gallery
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Gallery item ID"
// @Param title formData string false "New display name"
// @Param file formData file false "Replacement image or video"
// @Param version formData int false "Expected version"
// @Success 200 {object} models.GalleryItemResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Item not found"
// @Failure 409 {object} map[string]string "Version mismatch"
// @Router /gallery/{id} [put]
func (h *GalleryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if isMultipartRequest(r) {
		if !h.parseMultipart(w, r) {
			return
		}
		defer r.MultipartForm.RemoveAll()
	} else if err := r.ParseForm(); err != nil {
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
		return
	}

	var upd models.GalleryUpdate
	if _, ok := r.Form["title"]; ok {
		title := r.FormValue("title")
		upd.DisplayName = &title
	}
	if v := strings.TrimSpace(r.FormValue("version")); v != "" {
		version, err := strconv.Atoi(v)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "version must be an integer")
			return
		}
		upd.Version = &version
	}
	if r.MultipartForm != nil {
		if headers := r.MultipartForm.File["file"]; len(headers) > 0 {
			f, err := headers[0].Open()
			if err != nil {
				h.Logger.Error("failed to open uploaded file", zap.String("filename", headers[0].Filename), zap.Error(err))
				h.RespondError(w, http.StatusBadRequest, "failed to process uploaded file")
				return
			}
			defer f.Close()
			file := uploadFile(headers[0], f)
			upd.File = &file
		}
	}

	result, err := h.galleryService.Update(r.Context(), id, upd)
	if err != nil {
		h.RespondServiceError(w, r, "update gallery item", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.GalleryItemResponse{
		Success:       true,
		Message:       "Gallery item updated",
		Item:          result.Item,
		OrphanedFiles: result.OrphanedFiles,
	})
}

// Delete handles DELETE /gallery/{id}
// @Summary Delete an item
// @Description The record is removed first. Files that cannot be deleted are reported in orphanedFiles.
// @Tags gallery
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Gallery item ID"
// @Success 200 {object} models.DeleteGalleryResponse
// @Failure 404 {object} map[string]string "Item not found"
// @Router /gallery/{id} [delete]
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	result, err := h.galleryService.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, r, "delete gallery item", err)
		return
	}

	h.respondDeleted(w, result)
}

// DeleteMany handles DELETE /gallery
// @Summary Delete several items
// @Description Unknown ids are reported in notFound. Fails with 404 only when none of the ids exist.
// @Tags gallery
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.DeleteGalleryRequest true "Ids to delete"
// @Success 200 {object} models.DeleteGalleryResponse
// @Failure 400 {object} map[string]string "No ids provided"
// @Failure 404 {object} map[string]string "Items not found"
// @Router /gallery [delete]
func (h *GalleryHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteGalleryRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, "decode delete request", err)
		return
	}

	result, err := h.galleryService.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		h.RespondServiceError(w, r, "delete gallery items", err)
		return
	}

	h.respondDeleted(w, result)
}

func (h *GalleryHandler) respondDeleted(w http.ResponseWriter, result *models.DeleteResult) {
	message := fmt.Sprintf("%d item(s) deleted", result.DeletedCount)
	if len(result.OrphanedFiles) > 0 {
		message += fmt.Sprintf(", %d file(s) could not be removed", len(result.OrphanedFiles))
	}
	h.RespondJSON(w, http.StatusOK, models.DeleteGalleryResponse{
		Success:      true,
		Message:      message,
		DeleteResult: *result,
	})
}

// Reorder handles PATCH /gallery/reorder
// @Summary Reorder items
// @Description Applies every (id, position) pair in one transaction. Positions may be numbers or numeric strings.
// @Tags gallery
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.ReorderRequest true "New positions"
// @Success 200 {object} models.GalleryListResponse
// @Failure 400 {object} map[string]string "Invalid items"
// @Failure 404 {object} map[string]string "Item not found"
// @Failure 409 {object} map[string]string "Version mismatch"
// @Router /gallery/reorder [patch]
func (h *GalleryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req models.ReorderRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, "decode reorder request", err)
		return
	}

	updates, err := req.PositionUpdates()
	if err != nil {
		h.RespondServiceError(w, r, "reorder gallery", err)
		return
	}

	items, err := h.galleryService.Reorder(r.Context(), updates)
	if err != nil {
		h.RespondServiceError(w, r, "reorder gallery", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.GalleryListResponse{
		Success: true,
		Message: "Gallery reordered successfully",
		Items:   items,
	})
}

// Swap handles POST /gallery/swap
// @Summary Swap two items
// @Description Exchanges the positions of the two items. Swapping an item with itself or with an unknown id changes nothing.
// @Tags gallery
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.SwapRequest true "Items to swap"
// @Success 200 {object} models.SwapResponse
// @Failure 400 {object} map[string]string "Missing ids"
// @Failure 409 {object} map[string]string "Concurrent change"
// @Router /gallery/swap [post]
func (h *GalleryHandler) Swap(w http.ResponseWriter, r *http.Request) {
	var req models.SwapRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, "decode swap request", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.RespondServiceError(w, r, "swap gallery items", err)
		return
	}

	items, swapped, err := h.galleryService.Swap(r.Context(), req.FirstID, req.SecondID)
	if err != nil {
		h.RespondServiceError(w, r, "swap gallery items", err)
		return
	}

	message := "Items swapped"
	if !swapped {
		message = "Nothing to swap"
	}
	h.RespondJSON(w, http.StatusOK, models.SwapResponse{Success: true, Message: message, Swapped: swapped, Items: items})
}

// SelectForSwap handles POST /gallery/swap/select
// @Summary Select an item for a two-step swap
// @Description The first selection is kept as anchor, the second one swaps with it. Selecting the anchor again clears it.
// @Tags gallery
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.SwapSelectRequest true "Selected item"
// @Success 200 {object} models.SwapSelectResponse
// @Failure 400 {object} map[string]string "Missing id"
// @Failure 404 {object} map[string]string "Item not found"
// @Router /gallery/swap/select [post]
func (h *GalleryHandler) SelectForSwap(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actorID(w, r)
	if !ok {
		return
	}

	var req models.SwapSelectRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, "decode swap selection", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.RespondServiceError(w, r, "select for swap", err)
		return
	}

	resp, err := h.galleryService.SelectForSwap(r.Context(), actorID, req.ID)
	if err != nil {
		h.RespondServiceError(w, r, "select for swap", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}

// parseMultipart parses a multipart body and writes the error response when it fails
func (h *GalleryHandler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		h.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, http.ErrNotMultipart):
		h.RespondServiceError(w, r, "parse upload", apperrors.Validation("expected multipart/form-data"))
	default:
		h.Logger.Debug("failed to parse multipart form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to parse request")
	}
	return false
}

func isMultipartRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func uploadFile(fh *multipart.FileHeader, f multipart.File) models.UploadFile {
	return models.UploadFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Reader:      f,
	}
}
