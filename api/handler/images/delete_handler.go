package images

import (
	"github.com/gin-gonic/gin"

	"github.com/anoixa/folio/api/common"
)

// DeleteImage 删除图片，同时从所有相册移除
func (h *Handler) DeleteImage(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Image deleted", map[string]string{"id": id})
}
