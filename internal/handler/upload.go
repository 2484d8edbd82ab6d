package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"school-directory/internal/imagestore"
	"school-directory/internal/models"
	"school-directory/internal/observability"
)

// maxUploadBytes caps one multipart request body.
const maxUploadBytes = imagestore.MaxImageSize + 1<<20

// UploadImage stores a photo ahead of a JSON submission and returns its
// descriptor. Re-uploading identical bytes returns the existing object.
func (h *Handler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no file uploaded"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "failed to read uploaded file"})
		return
	}

	contentType := uploadContentType(header.Header.Get("Content-Type"), data)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	img, err := h.images.Store(ctx, data, contentType)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": verr.Message})
			return
		}
		h.log.Errorw("image upload failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to upload file"})
		return
	}

	message := "file uploaded successfully"
	if img.IsDuplicate {
		message = "image already exists, using existing copy"
		observability.ImageDedupHitsTotal.Inc()
	} else {
		observability.ImageUploadsTotal.Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     message,
		"url":         img.URL,
		"public_id":   img.PublicID,
		"width":       img.Width,
		"height":      img.Height,
		"isDuplicate": img.IsDuplicate,
	})
}

// uploadContentType trusts the declared type when present, otherwise sniffs
// the payload.
func uploadContentType(declared string, data []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return http.DetectContentType(data)
}
