package images

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/folio/api/common"
	"github.com/anoixa/folio/api/middleware"
	"github.com/anoixa/folio/internal/image"
)

// UploadImage 处理单图片上传，文件字段为 image 或 file
func (h *Handler) UploadImage(c *gin.Context) {
	fileHeader, err := formFile(c)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			common.RespondErrorCode(c, http.StatusRequestEntityTooLarge, "file_too_large", "Uploaded file is too large")
			return
		}
		common.RespondErrorCode(c, http.StatusBadRequest, "file_required", "A file is required under the 'image' or 'file' key")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.pipeline.Upload(c.Request.Context(), image.UploadInput{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Body:        file,
		Title:       optionalForm(c, "title"),
		Caption:     optionalForm(c, "caption"),
		AltText:     optionalForm(c, "alt_text"),
		SourceURL:   optionalForm(c, "source_url"),
		UploadedBy:  middleware.UserID(c),
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondCreated(c, toUploadResponse(result.Image, result.Path, result.Thumbnails))
}

func formFile(c *gin.Context) (*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	for _, key := range []string{"image", "file"} {
		if files := form.File[key]; len(files) > 0 {
			return files[0], nil
		}
	}
	return nil, http.ErrMissingFile
}

// optionalForm 未提交或为空时返回 nil
func optionalForm(c *gin.Context, key string) *string {
	v, ok := c.GetPostForm(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
