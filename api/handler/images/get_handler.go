package images

import (
	"github.com/gin-gonic/gin"

	"github.com/anoixa/folio/api/common"
)

// GetImage 获取单张图片
func (h *Handler) GetImage(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, toImageDTO(view))
}
