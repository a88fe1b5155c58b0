package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/folio/internal/apperr"
)

func TestRespondAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", apperr.NotFound(apperr.CodeGalleryNotFound, "gallery not found"), http.StatusNotFound, "gallery_not_found", "gallery not found"},
		{"conflict", apperr.Conflict(apperr.CodeSlugTaken, "slug already in use"), http.StatusConflict, "slug_taken", "slug already in use"},
		{"invalid", apperr.Invalid(apperr.CodeNoUpdates, "no updates supplied"), http.StatusBadRequest, "no_updates", "no updates supplied"},
		{"io hides cause", apperr.IO(apperr.CodeStorageWriteFailed, errors.New("disk at /var/x full")), http.StatusInternalServerError, "storage_write_failed", "Internal Server Error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error", "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			RespondAppError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantMsg, resp.Msg)
		})
	}
}
