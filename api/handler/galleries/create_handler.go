package galleries

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/folio/api/common"
	"github.com/anoixa/folio/api/middleware"
	"github.com/anoixa/folio/database/models"
	"github.com/anoixa/folio/internal/apperr"
	"github.com/anoixa/folio/internal/gallery"
)

type createGalleryRequest struct {
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	gallery.Selection
}

// CreateGallery 创建相册，可同时提交 images/imageOrder
func (h *Handler) CreateGallery(c *gin.Context) {
	var req createGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondErrorCode(c, http.StatusBadRequest, apperr.CodeValidation, "Invalid request body")
		return
	}

	d, err := h.service.Create(c.Request.Context(), gallery.CreateInput{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.GalleryStatus(req.Status),
		AuthorID:    middleware.UserID(c),
		Selection:   req.Selection,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondCreated(c, toGalleryDTO(d))
}
