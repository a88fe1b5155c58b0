package images

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/folio/api/common"
)

const maxPageSize = 100

type ImageListResponse struct {
	Images   []*ImageDTO `json:"images"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// ListImages 获取图片列表，未指定 page 时返回全部
func (h *Handler) ListImages(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	if page < 0 {
		page = 0
	}
	if page > 0 && pageSize <= 0 {
		pageSize = 20
	}
	// 限制最大分页数量
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	views, total, err := h.service.List(c.Request.Context(), page, pageSize)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	dtos := make([]*ImageDTO, len(views))
	for i, v := range views {
		dtos[i] = toImageDTO(v)
	}
	common.RespondSuccess(c, ImageListResponse{
		Images:   dtos,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}
