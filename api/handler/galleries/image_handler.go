package galleries

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/folio/api/common"
	"github.com/anoixa/folio/internal/apperr"
)

type addImageRequest struct {
	ImageID         string  `json:"image_id"`
	CaptionOverride *string `json:"caption_override"`
}

// AddImage 追加图片到相册末尾，返回新位置
func (h *Handler) AddImage(c *gin.Context) {
	var req addImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondErrorCode(c, http.StatusBadRequest, apperr.CodeImageIDRequired, "image_id is required")
		return
	}

	pos, err := h.service.AddImage(c.Request.Context(), c.Param("slugOrId"), req.ImageID, req.CaptionOverride)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondCreated(c, gin.H{"position": pos})
}

// RemoveImage 从相册移除图片，其余图片重新编号
func (h *Handler) RemoveImage(c *gin.Context) {
	if err := h.service.RemoveImage(c.Request.Context(), c.Param("slugOrId"), c.Param("imageId")); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Image removed from gallery", nil)
}
