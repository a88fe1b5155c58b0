package galleries

import (
	"github.com/gin-gonic/gin"

	"github.com/anoixa/folio/api/common"
	"github.com/anoixa/folio/internal/gallery"
)

// ListGalleries 相册列表，?status=published,draft 过滤；每项只带封面
func (h *Handler) ListGalleries(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), gallery.ParseStatuses(c.Query("status")))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	dtos := make([]*GalleryDTO, len(list))
	for i, d := range list {
		dtos[i] = toGalleryDTO(d)
	}
	common.RespondSuccess(c, dtos)
}

// GetGallery 按 slug 或 id 获取相册及全部图片
func (h *Handler) GetGallery(c *gin.Context) {
	d, err := h.service.Get(c.Request.Context(), c.Param("slugOrId"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, toGalleryDTO(d))
}
