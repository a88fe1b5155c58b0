package galleries

import (
	"github.com/gin-gonic/gin"

	"github.com/anoixa/folio/api/common"
)

// DeleteGallery 删除相册及其成员关系
func (h *Handler) DeleteGallery(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("slugOrId")); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "Gallery deleted", nil)
}
