package galleries

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/folio/api/common"
	"github.com/anoixa/folio/database/models"
	"github.com/anoixa/folio/internal/apperr"
	"github.com/anoixa/folio/internal/gallery"
)

type updateGalleryRequest struct {
	Title       *string        `json:"title"`
	Description nullableString `json:"description"`
	Slug        *string        `json:"slug"`
	Status      *string        `json:"status"`
	gallery.Selection
}

// UpdateGallery PUT 与 PATCH 共用：只修改提交的字段
func (h *Handler) UpdateGallery(c *gin.Context) {
	var req updateGalleryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondErrorCode(c, http.StatusBadRequest, apperr.CodeValidation, "Invalid request body")
		return
	}

	in := gallery.UpdateInput{
		Title:       req.Title,
		Description: req.Description.ptr(),
		Slug:        req.Slug,
		Selection:   req.Selection,
	}
	if req.Status != nil {
		st := models.GalleryStatus(*req.Status)
		in.Status = &st
	}

	d, err := h.service.Update(c.Request.Context(), c.Param("slugOrId"), in)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, toGalleryDTO(d))
}
