package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"school-directory/internal/models"
	"school-directory/internal/observability"
	"school-directory/internal/service"
)

const listCacheKey = "schools:list"

type listResponse struct {
	Success bool            `json:"success"`
	Data    []models.School `json:"data"`
}

// ListSchools returns all records, newest first. Responses are served from
// the cache when possible; the cache is only ever an optimization.
func (h *Handler) ListSchools(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, listCacheKey); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			return
		}
	}

	schools, err := h.schools.List(ctx)
	if err != nil {
		h.log.Errorw("failed to list schools", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to fetch schools"})
		return
	}
	if schools == nil {
		schools = []models.School{}
	}

	resp := listResponse{Success: true, Data: schools}
	if h.cache != nil {
		if body, err := json.Marshal(resp); err == nil {
			if err := h.cache.Set(ctx, listCacheKey, string(body), h.cacheTTL); err != nil {
				h.log.Warnw("failed to cache school list", "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

type createSchoolRequest struct {
	models.SchoolInput
	Image string `json:"image"`
}

// CreateSchool runs the full submission pipeline. A JSON body carries an
// optional image URL from an earlier /upload call; a multipart body may carry
// the image file itself, in which case the upload happens inside the
// pipeline.
func (h *Handler) CreateSchool(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	sub, ok := h.bindSubmission(c)
	if !ok {
		return
	}

	res, err := h.submit.Submit(ctx, sub)
	if err != nil {
		h.writeSubmitError(c, err)
		return
	}

	h.invalidateListCache(ctx)
	observability.SubmissionsTotal.WithLabelValues(observability.OutcomeAccepted).Inc()

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "school added successfully",
		"data":    gin.H{"id": res.ID},
	})
}

func (h *Handler) bindSubmission(c *gin.Context) (service.Submission, bool) {
	var sub service.Submission

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		// Leave headroom over the image limit so the store can reject
		// oversized files with its own message.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*maxUploadBytes)

		sub.SchoolInput = models.SchoolInput{
			Name:    c.PostForm("name"),
			Address: c.PostForm("address"),
			City:    c.PostForm("city"),
			State:   c.PostForm("state"),
			Contact: c.PostForm("contact"),
			Email:   c.PostForm("email"),
		}

		file, header, err := c.Request.FormFile("image")
		if err == nil {
			defer file.Close()
			data, readErr := io.ReadAll(file)
			if readErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "failed to read uploaded file"})
				return service.Submission{}, false
			}
			sub.ImageData = data
			sub.ImageContentType = uploadContentType(header.Header.Get("Content-Type"), data)
		}
		return sub, true
	}

	var req createSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return service.Submission{}, false
	}
	sub.SchoolInput = req.SchoolInput
	sub.ImageURL = req.Image
	return sub, true
}

func (h *Handler) writeSubmitError(c *gin.Context, err error) {
	var verr *models.ValidationError
	var derr *models.DuplicateError
	var uerr *models.UploadError

	switch {
	case errors.As(err, &verr):
		observability.SubmissionsTotal.WithLabelValues(observability.OutcomeInvalid).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": verr.Message})
	case errors.As(err, &derr):
		observability.SubmissionsTotal.WithLabelValues(observability.OutcomeDuplicate).Inc()
		c.JSON(http.StatusConflict, gin.H{
			"success":     false,
			"isDuplicate": true,
			"field":       derr.Field,
			"message":     derr.Error(),
		})
	case errors.As(err, &uerr):
		observability.SubmissionsTotal.WithLabelValues(observability.OutcomeUploadFailed).Inc()
		h.log.Errorw("image upload failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to upload image, please try again"})
	default:
		observability.SubmissionsTotal.WithLabelValues(observability.OutcomeSystemError).Inc()
		h.log.Errorw("submission failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to add school"})
	}
}

func (h *Handler) invalidateListCache(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(ctx, listCacheKey); err != nil {
		h.log.Warnw("failed to invalidate school list cache", "error", err)
	}
}

type checkDuplicateRequest struct {
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// CheckDuplicate is the advisory fast path the form calls before spending an
// image upload. Its answer reflects state at query time only.
func (h *Handler) CheckDuplicate(c *gin.Context) {
	var req checkDuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Contact == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "email and contact are required for duplicate check"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	check, err := h.submit.CheckDuplicate(ctx, req.Email, req.Contact)
	if err != nil {
		h.log.Errorw("duplicate check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to check for duplicates"})
		return
	}

	if check.IsDuplicate {
		c.JSON(http.StatusConflict, gin.H{
			"success":     false,
			"isDuplicate": true,
			"field":       check.Field,
			"message":     (&models.DuplicateError{Field: check.Field}).Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"isDuplicate": false,
		"message":     "no duplicates found",
	})
}
