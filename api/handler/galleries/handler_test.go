package galleries

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/folio/api/middleware"
	"github.com/anoixa/folio/database"
	"github.com/anoixa/folio/database/models"
	"github.com/anoixa/folio/internal/gallery"
	"github.com/anoixa/folio/internal/variant"
	"github.com/anoixa/folio/storage"
)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "galleries.db"))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.Create(&models.Image{ID: id, FilePath: "original/" + id + ".jpg", MimeType: "image/jpeg"}).Error)
	}

	svc := gallery.NewService(db, gallery.NewEngine(db, nil), storage.NewMemoryStorage(), variant.NewLayout("", "", nil))
	h := NewHandler(svc)

	router := gin.New()
	api := router.Group("/api/galleries")
	api.GET("", h.ListGalleries)
	api.GET("/:slugOrId", h.GetGallery)
	authed := api.Group("", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, "42")
		c.Next()
	})
	authed.POST("", h.CreateGallery)
	authed.PUT("/:slugOrId", h.UpdateGallery)
	authed.PATCH("/:slugOrId", h.UpdateGallery)
	authed.DELETE("/:slugOrId", h.DeleteGallery)
	authed.POST("/:slugOrId/images", h.AddImage)
	authed.DELETE("/:slugOrId/images/:imageId", h.RemoveImage)
	return router
}

func request(t *testing.T, router *gin.Engine, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decodeGallery(t *testing.T, env envelope) GalleryDTO {
	t.Helper()
	var g GalleryDTO
	require.NoError(t, json.Unmarshal(env.Data, &g))
	return g
}

func imageIDs(g GalleryDTO) []string {
	out := make([]string, len(g.Images))
	for i, img := range g.Images {
		out[i] = img.ID
	}
	return out
}

func TestCreateGallery(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"valid", `{"slug":"road-trip","title":"Road trip","images":["b","a","zzz"]}`, http.StatusCreated, ""},
		{"comma list", `{"slug":"comma","title":"Comma list","images":"c, a"}`, http.StatusCreated, ""},
		{"duplicate slug", `{"slug":"ROAD-TRIP","title":"Again"}`, http.StatusConflict, "slug_taken"},
		{"bad slug", `{"slug":"Bad Slug","title":"Valid"}`, http.StatusBadRequest, "validation_error"},
		{"missing title", `{"slug":"valid"}`, http.StatusBadRequest, "validation_error"},
		{"malformed", `{"slug":`, http.StatusBadRequest, "validation_error"},
		{"bad images type", `{"slug":"valid","title":"Valid","images":{"a":1}}`, http.StatusBadRequest, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := request(t, router, http.MethodPost, "/api/galleries", tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, env.Code)
		})
	}

	status, env := request(t, router, http.MethodGet, "/api/galleries/road-trip", "")
	require.Equal(t, http.StatusOK, status)
	g := decodeGallery(t, env)
	assert.Equal(t, []string{"b", "a"}, imageIDs(g))
	assert.Equal(t, "draft", g.Status)
	require.NotNil(t, g.AuthorID)
	assert.Equal(t, "42", *g.AuthorID)
	assert.Equal(t, int64(2), g.ImageCount)
	assert.Equal(t, 1, g.Images[0].Position)
	assert.Equal(t, "b.jpg", g.Images[0].Filename)
	assert.NotNil(t, g.Images[0].URLs)
}

func TestUpdateGallery_Sync(t *testing.T) {
	router := setupTestRouter(t)
	status, _ := request(t, router, http.MethodPost, "/api/galleries", `{"slug":"trip","title":"Trip","images":["a","b","c"]}`)
	require.Equal(t, http.StatusCreated, status)

	tests := []struct {
		name   string
		method string
		body   string
		want   []string
	}{
		{"reorder", http.MethodPatch, `{"imageOrder":["c","b","a"]}`, []string{"c", "b", "a"}},
		{"order then rest", http.MethodPut, `{"images":["a","b","c"],"imageOrder":["b"]}`, []string{"b", "a", "c"}},
		{"comma string", http.MethodPatch, `{"images":"a,c"}`, []string{"a", "c"}},
		{"null is no change", http.MethodPatch, `{"title":"Renamed","images":null}`, []string{"a", "c"}},
		{"clear", http.MethodPut, `{"images":[]}`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := request(t, router, tt.method, "/api/galleries/trip", tt.body)
			require.Equal(t, http.StatusOK, status)
			g := decodeGallery(t, env)
			assert.Equal(t, tt.want, imageIDs(g))
			for i, img := range g.Images {
				assert.Equal(t, i+1, img.Position)
			}
		})
	}
}

func TestUpdateGallery_Fields(t *testing.T) {
	router := setupTestRouter(t)
	_, _ = request(t, router, http.MethodPost, "/api/galleries", `{"slug":"trip","title":"Trip","description":"first"}`)

	status, env := request(t, router, http.MethodPatch, "/api/galleries/trip", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "no_updates", env.Code)

	status, env = request(t, router, http.MethodPatch, "/api/galleries/trip", `{"status":"published","description":null}`)
	require.Equal(t, http.StatusOK, status)
	g := decodeGallery(t, env)
	assert.Equal(t, "published", g.Status)
	assert.NotNil(t, g.PublishedAt)
	assert.Nil(t, g.Description)

	status, env = request(t, router, http.MethodPatch, "/api/galleries/missing", `{"title":"Whatever"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "gallery_not_found", env.Code)
}

func TestGalleryImages(t *testing.T) {
	router := setupTestRouter(t)
	_, _ = request(t, router, http.MethodPost, "/api/galleries", `{"slug":"trip","title":"Trip"}`)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"append first", "/api/galleries/trip/images", `{"image_id":"a","caption_override":"<b>hi</b>"}`, http.StatusCreated, ""},
		{"append second", "/api/galleries/trip/images", `{"image_id":"b"}`, http.StatusCreated, ""},
		{"duplicate", "/api/galleries/trip/images", `{"image_id":"a"}`, http.StatusConflict, "image_already_in_gallery"},
		{"unknown image", "/api/galleries/trip/images", `{"image_id":"zzz"}`, http.StatusNotFound, "image_not_found"},
		{"unknown gallery", "/api/galleries/nope/images", `{"image_id":"a"}`, http.StatusNotFound, "gallery_not_found"},
		{"missing id", "/api/galleries/trip/images", `{}`, http.StatusBadRequest, "image_id_required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := request(t, router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, env.Code)
		})
	}

	status, env := request(t, router, http.MethodDelete, "/api/galleries/trip/images/a", "")
	require.Equal(t, http.StatusOK, status, env.Code)

	status, env = request(t, router, http.MethodDelete, "/api/galleries/trip/images/a", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "image_not_in_gallery", env.Code)

	_, env = request(t, router, http.MethodGet, "/api/galleries/trip", "")
	g := decodeGallery(t, env)
	require.Len(t, g.Images, 1)
	assert.Equal(t, "b", g.Images[0].ID)
	assert.Equal(t, 1, g.Images[0].Position)
}

func TestListAndDeleteGallery(t *testing.T) {
	router := setupTestRouter(t)
	_, _ = request(t, router, http.MethodPost, "/api/galleries", `{"slug":"one","title":"One","status":"published","images":["c","a"]}`)
	_, _ = request(t, router, http.MethodPost, "/api/galleries", `{"slug":"two","title":"Two"}`)

	status, env := request(t, router, http.MethodGet, "/api/galleries?status=published", "")
	require.Equal(t, http.StatusOK, status)
	var list []GalleryDTO
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "one", list[0].Slug)
	assert.Equal(t, int64(2), list[0].ImageCount)
	assert.Equal(t, []string{"c"}, imageIDs(list[0]))

	status, _ = request(t, router, http.MethodDelete, "/api/galleries/one", "")
	assert.Equal(t, http.StatusOK, status)
	status, env = request(t, router, http.MethodDelete, "/api/galleries/one", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "gallery_not_found", env.Code)

	_, env = request(t, router, http.MethodGet, "/api/galleries", "")
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
}
