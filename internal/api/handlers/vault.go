package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Hemanth1845/FullStackProject/internal/api/middleware"
	"github.com/Hemanth1845/FullStackProject/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VaultHandler exposes the secure file vault as a JSON API under /api/files.
// The caller identity always comes from the auth middleware; the PIN travels
// in the request body and never in the URL.
type VaultHandler struct {
	vaultService *services.VaultService
	tracker      *middleware.IPAttemptTracker
	logger       *zap.Logger
	maxUpload    int64
	pinMinLength int
	pinMaxLength int
}

func NewVaultHandler(vaultService *services.VaultService, tracker *middleware.IPAttemptTracker, logger *zap.Logger, maxUpload int64, pinMinLength, pinMaxLength int) *VaultHandler {
	return &VaultHandler{
		vaultService: vaultService,
		tracker:      tracker,
		logger:       logger.With(zap.String("handler", "vault")),
		maxUpload:    maxUpload,
		pinMinLength: pinMinLength,
		pinMaxLength: pinMaxLength,
	}
}

func (h *VaultHandler) callerID(c *gin.Context) uint {
	return c.GetUint("userID")
}

func (h *VaultHandler) validPin(pin string) bool {
	return len(pin) >= h.pinMinLength && len(pin) <= h.pinMaxLength
}

// UploadFile accepts a multipart form with a "file" part and a "pin" field.
func (h *VaultHandler) UploadFile(c *gin.Context) {
	pin := c.PostForm("pin")
	if !h.validPin(pin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("pin must be %d to %d characters", h.pinMinLength, h.pinMaxLength)})
		return
	}

	fileHdr, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if fileHdr.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := fileHdr.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil || int64(len(content)) > h.maxUpload {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	contentType := fileHdr.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	summary, err := h.vaultService.Upload(c.Request.Context(), h.callerID(c), fileHdr.Filename, contentType, content, pin)
	if err != nil {
		h.writeVaultError(c, err, false)
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// ListFiles returns the caller's files: public metadata only.
func (h *VaultHandler) ListFiles(c *gin.Context) {
	files, err := h.vaultService.List(c.Request.Context(), h.callerID(c))
	if err != nil {
		h.writeVaultError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, files)
}

type pinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// DownloadFile returns the decrypted file content. Wrong PIN and unknown id
// produce an identical response so a caller probing ids learns nothing.
func (h *VaultHandler) DownloadFile(c *gin.Context) {
	fileID, ok := h.fileID(c)
	if !ok {
		return
	}

	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pin required"})
		return
	}

	payload, err := h.vaultService.Download(c.Request.Context(), fileID, h.callerID(c), req.Pin)
	if err != nil {
		h.writeVaultError(c, err, true)
		return
	}
	defer payload.Close()

	c.Header("Content-Disposition", `attachment; filename="`+payload.FileName+`"`)
	c.Data(http.StatusOK, payload.FileType, payload.Data)
}

// DeleteFile removes a file after PIN verification.
func (h *VaultHandler) DeleteFile(c *gin.Context) {
	fileID, ok := h.fileID(c)
	if !ok {
		return
	}

	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pin required"})
		return
	}

	if err := h.vaultService.Delete(c.Request.Context(), fileID, h.callerID(c), req.Pin); err != nil {
		h.writeVaultError(c, err, false)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}

type resetPinRequest struct {
	OldPin string `json:"oldPin" binding:"required"`
	NewPin string `json:"newPin" binding:"required"`
}

// ResetPin re-encrypts every file the caller owns under a new PIN.
func (h *VaultHandler) ResetPin(c *gin.Context) {
	var req resetPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "oldPin and newPin required"})
		return
	}
	if !h.validPin(req.NewPin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("pin must be %d to %d characters", h.pinMinLength, h.pinMaxLength)})
		return
	}

	err := h.vaultService.ResetPin(c.Request.Context(), h.callerID(c), req.OldPin, req.NewPin)

	var partial *services.PartialRotationError
	if errors.As(err, &partial) {
		// The caller must learn exactly which files rotated so a retry can
		// resume with the right PIN per file.
		failed := make([]uint, 0, len(partial.Failed))
		for id := range partial.Failed {
			failed = append(failed, id)
		}
		h.logger.Error("PIN reset incomplete",
			zap.Uint("user_id", h.callerID(c)),
			zap.Uints("rotated", partial.Rotated),
			zap.Uints("failed", failed))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "pin reset incomplete",
			"rotated": partial.Rotated,
			"failed":  failed,
		})
		return
	}
	if err != nil {
		h.writeVaultError(c, err, false)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "pin reset successful"})
}

func (h *VaultHandler) fileID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return 0, false
	}
	return uint(id), true
}

// writeVaultError maps the vault error taxonomy onto HTTP responses without
// leaking locators or key material. With mergeNotFound set (the download
// path), a wrong PIN and a missing file are indistinguishable.
func (h *VaultHandler) writeVaultError(c *gin.Context, err error, mergeNotFound bool) {
	switch {
	case errors.Is(err, services.ErrFileNotFound):
		if mergeNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "file not found or access denied"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case errors.Is(err, services.ErrIncorrectPin):
		h.tracker.RecordFailure(c.ClientIP())
		if mergeNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "file not found or access denied"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect pin"})
	default:
		requestID := c.GetString("request_id")
		h.logger.Error("Vault operation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
