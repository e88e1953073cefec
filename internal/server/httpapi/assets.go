package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/cryptox"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/services"
)

// AssetProvider is the slice of AssetService the handlers need.
type AssetProvider interface {
	Create(ctx context.Context, userID string, up *services.AssetUpload) (*models.Asset, error)
	Get(ctx context.Context, id string, userID string) (*models.Asset, error)
	OpenContent(ctx context.Context, a *models.Asset) (io.ReadCloser, int64, error)
	ListByEntry(ctx context.Context, entryID string, userID string) ([]*models.Asset, error)
	Delete(ctx context.Context, id string, userID string) error
}

// AssetHandler serves the /api/assets surface.
type AssetHandler struct {
	assets    AssetProvider
	maxUpload int64
	logger    logging.Logger
}

func NewAssetHandler(assets AssetProvider, maxUpload int64, logger logging.Logger) *AssetHandler {
	return &AssetHandler{assets: assets, maxUpload: maxUpload, logger: logger}
}

// assetMetadata is the JSON projection of an asset returned to clients.
// Encryption is present only when the asset was uploaded encrypted.
type assetMetadata struct {
	ID          string                  `json:"id"`
	EntryID     string                  `json:"entryId"`
	Filename    string                  `json:"filename"`
	MimeType    string                  `json:"mimeType"`
	Size        int64                   `json:"size"`
	IsEncrypted bool                    `json:"isEncrypted"`
	CreatedAt   int64                   `json:"createdAt"`
	Encryption  *cryptox.EncryptionMeta `json:"encryption,omitempty"`
}

func toMetadata(a *models.Asset) assetMetadata {
	m := assetMetadata{
		ID:          a.ID,
		EntryID:     a.EntryID,
		Filename:    a.Filename,
		MimeType:    a.MimeType,
		Size:        a.Size,
		IsEncrypted: a.IsEncrypted,
		CreatedAt:   a.CreatedAt,
	}
	if a.IsEncrypted {
		m.Encryption = &cryptox.EncryptionMeta{
			WrappedDEK:     a.WrappedDEK,
			DEKNonce:       a.DEKNonce,
			DEKAuthTag:     a.DEKAuthTag,
			ContentNonce:   a.ContentNonce,
			ContentAuthTag: a.ContentAuthTag,
		}
	}
	return m
}

// Upload handles POST /api/assets/upload: buffers the multipart body under
// the size ceiling, parses parts by hand, validates the encryption metadata
// set and creates the asset.
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)

	boundary, err := boundaryFromContentType(r.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, errMissingBoundary) {
			writeError(w, http.StatusBadRequest, "Multipart boundary not found", "MISSING_BOUNDARY")
			return
		}
		writeError(w, http.StatusBadRequest, "Expected multipart/form-data", "INVALID_CONTENT_TYPE")
		return
	}

	body, err := readBodyLimit(r.Body, h.maxUpload)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			// the rest of the body is not drained; signal the client to
			// drop the connection instead of streaming the remainder
			w.Header().Set("Connection", "close")
			writeError(w, http.StatusRequestEntityTooLarge, "File exceeds maximum allowed size", "FILE_TOO_LARGE")
			return
		}
		h.logger.Error(ctx, "reading upload body", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read upload", "UPLOAD_FAILED")
		return
	}

	up := &services.AssetUpload{}
	haveFile := false
	var filename, mimeType string
	for _, p := range splitParts(body, boundary) {
		if p.isData {
			if p.name != "file" {
				continue
			}
			haveFile = true
			up.Data = p.data
			up.Filename = p.filename
			up.MimeType = p.contentType
			continue
		}
		switch p.name {
		case "entryId":
			up.EntryID = p.value
		case "filename":
			filename = p.value
		case "mimeType":
			mimeType = p.value
		case "wrappedDek":
			up.Encryption.WrappedDEK = p.value
		case "dekNonce":
			up.Encryption.DEKNonce = p.value
		case "dekAuthTag":
			up.Encryption.DEKAuthTag = p.value
		case "contentNonce":
			up.Encryption.ContentNonce = p.value
		case "contentAuthTag":
			up.Encryption.ContentAuthTag = p.value
		}
	}

	if !haveFile {
		writeError(w, http.StatusBadRequest, "No file provided", "MISSING_FILE")
		return
	}
	// explicit form fields win over the file part's disposition attributes
	if filename != "" {
		up.Filename = filename
	}
	if mimeType != "" {
		up.MimeType = mimeType
	}
	if up.EntryID == "" {
		up.EntryID = common.UnknownEntryID
	}
	if up.Filename == "" {
		up.Filename = "audio.webm"
	}
	if up.MimeType == "" {
		up.MimeType = "audio/webm"
	}
	a, err := h.assets.Create(ctx, userID, up)
	if err != nil {
		if errors.Is(err, common.ErrorPartialEncryptionFields) {
			writeError(w, http.StatusBadRequest,
				"Encryption metadata must include all fields or none", "PARTIAL_ENCRYPTION_FIELDS")
			return
		}
		h.logger.Error(ctx, "creating asset", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store file", "UPLOAD_FAILED")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          a.ID,
		"url":         "/api/assets/" + a.ID,
		"isEncrypted": a.IsEncrypted,
	})
}

// Download handles GET /api/assets/{id}: streams the stored bytes verbatim.
// For encrypted assets the envelope values travel back as X- headers so the
// client can decrypt locally.
func (h *AssetHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)
	id := chi.URLParam(r, "id")

	a, err := h.assets.Get(ctx, id, userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Asset not found", "NOT_FOUND")
		return
	}

	rc, size, err := h.assets.OpenContent(ctx, a)
	if err != nil {
		if errors.Is(err, common.ErrorFileMissing) {
			writeError(w, http.StatusNotFound, "Stored file is missing", "FILE_NOT_FOUND")
			return
		}
		h.logger.Error(ctx, "opening asset content", "asset_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read file", "DOWNLOAD_FAILED")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", a.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	if a.IsEncrypted {
		w.Header().Set("X-Encrypted", "true")
		w.Header().Set("X-Wrapped-DEK", a.WrappedDEK)
		w.Header().Set("X-DEK-Nonce", a.DEKNonce)
		w.Header().Set("X-DEK-Auth-Tag", a.DEKAuthTag)
		w.Header().Set("X-Content-Nonce", a.ContentNonce)
		w.Header().Set("X-Content-Auth-Tag", a.ContentAuthTag)
	}
	io.Copy(w, rc)
}

// Metadata handles GET /api/assets/{id}/metadata.
func (h *AssetHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)
	id := chi.URLParam(r, "id")

	a, err := h.assets.Get(ctx, id, userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Asset not found", "NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, toMetadata(a))
}

// Delete handles DELETE /api/assets/{id}.
func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)
	id := chi.URLParam(r, "id")

	if err := h.assets.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusNotFound, "Asset not found", "NOT_FOUND")
			return
		}
		h.logger.Error(ctx, "deleting asset", "asset_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete file", "DELETE_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ListByEntry handles GET /api/assets/entry/{entryId}.
func (h *AssetHandler) ListByEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)
	entryID := chi.URLParam(r, "entryId")

	assets, err := h.assets.ListByEntry(ctx, entryID, userID)
	if err != nil {
		h.logger.Error(ctx, "listing assets", "entry_id", entryID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list files", "LIST_FAILED")
		return
	}

	items := make([]assetMetadata, 0, len(assets))
	for _, a := range assets {
		m := toMetadata(a)
		// lists are lightweight; the envelope travels only on the
		// per-asset metadata and download responses
		m.Encryption = nil
		items = append(items, m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": items})
}
