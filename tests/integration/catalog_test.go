package integration

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	catalogapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/catalog"
	mediaapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/shared"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/auth"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/cache"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/config"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/imaging"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/persistence"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/storage"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/interfaces/http/handler"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/interfaces/http/middleware"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/interfaces/http/router"
	"github.com/LautaroPairuna/micaela-martinez-sub001/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newCatalogServer wires the full HTTP stack on a freshly seeded postgres catalog
// and returns a client authenticated as an administrator.
func newCatalogServer(t *testing.T) *testutil.Client {
	t.Helper()
	tdb := NewTestDB(t)
	require.NoError(t, persistence.Seed(context.Background(), tdb.DB))

	log := zap.NewNop()
	registry := resource.NewCatalogRegistry()
	records := persistence.NewGormRecordRepository(tdb.DB)
	store := storage.NewMemoryStorage()

	ingestion := mediaapp.NewIngestionService(store, imaging.NewProcessor(imaging.Options{}), nil, nil,
		media.NewNameGenerator(), media.DefaultLimits(), log)
	delivery := mediaapp.NewDeliveryService(registry, records, store, ingestion, nil, time.Second, log)
	resources := catalogapp.NewResourceService(registry, records, ingestion, log)
	counts := catalogapp.NewCountAggregator(registry, persistence.NewGormCountRepository(tdb.DB, log),
		cache.NewInMemoryCountCache(time.Minute), catalogapp.CountAggregatorConfig{}, log)

	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())

	jwtAuth := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		Validator:  auth.NewJWTService(config.JWTConfig{Secret: testutil.TokenSecret}),
		QueryParam: "token",
		Logger:     log,
	})
	router.NewRouter(engine).Register(router.CatalogGroups(router.CatalogHandlers{
		Resources: handler.NewResourceHandler(resources),
		Counts:    handler.NewCountHandler(counts, resources),
		Media:     handler.NewMediaHandler(delivery),
	}, []gin.HandlerFunc{jwtAuth, middleware.RequireRole(log, "ADMIN")}, []gin.HandlerFunc{jwtAuth})...).Setup()

	return &testutil.Client{Engine: engine, Token: testutil.SignToken(t, "1", "ADMIN", time.Hour)}
}

func TestCatalog_LabialSearch(t *testing.T) {
	s := newCatalogServer(t)

	q := url.Values{}
	q.Set("q", "labial")
	q.Set("qFields", "titulo,descripcionMD")
	q.Set("filters", `{"marcaId":7,"destacado":true}`)
	w := s.Get("/api/v1/resources/Producto?"+q.Encode(), nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := testutil.DecodeEnvelope(t, w)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)

	rows := testutil.DecodeData[[]map[string]any](t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, "Labial Mate Rojo", rows[0]["titulo"])
}

func TestCatalog_TotalIndependentOfPaging(t *testing.T) {
	s := newCatalogServer(t)

	seen := map[float64]bool{}
	var total int64
	for page := 1; page <= 3; page++ {
		w := s.Get(fmt.Sprintf("/api/v1/resources/Producto?page=%d&pageSize=2&sortBy=id&sortDir=asc", page), nil)
		require.Equal(t, http.StatusOK, w.Code)

		env := testutil.DecodeEnvelope(t, w)
		if page == 1 {
			total = env.Meta.Total
		}
		assert.Equal(t, total, env.Meta.Total)
		for _, row := range testutil.DecodeData[[]map[string]any](t, w) {
			seen[row["id"].(float64)] = true
		}
	}
	assert.Equal(t, int64(4), total)
	assert.Len(t, seen, 4)
}

func TestCatalog_Counts(t *testing.T) {
	s := newCatalogServer(t)
	labial := persistence.SeedProductoLabial

	w := s.Get(fmt.Sprintf("/api/v1/resources/Producto/counts?ids=%d,2&children=ProductoImagen,Favorito", labial), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := testutil.DecodeData[catalogapp.CountResult](t, w)
	assert.Equal(t, resource.CountMatrix{
		labial: {"ProductoImagen": 2, "Favorito": 1},
		2:      {"ProductoImagen": 0, "Favorito": 0},
	}, result.Counts)
	assert.Empty(t, result.Errors)

	body := fmt.Sprintf(`[
		{"parentResource":"Producto","parentId":%d,"childResource":"ProductoImagen"},
		{"parentResource":"Producto","parentId":%d,"childResource":"Favorito","foreignKey":"productoId"},
		{"parentResource":"Marca","parentId":7,"childResource":"Producto"}
	]`, labial, labial)
	w = s.JSON(http.MethodPost, "/api/v1/counts/batch", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result = testutil.DecodeData[catalogapp.CountResult](t, w)
	assert.Equal(t, int64(2), result.Counts[labial]["ProductoImagen"])
	assert.Equal(t, int64(1), result.Counts[labial]["Favorito"])
	assert.Equal(t, int64(3), result.Counts[7]["Producto"])
}

func TestCatalog_CreateAndBulkDelete(t *testing.T) {
	s := newCatalogServer(t)

	w := s.JSON(http.MethodPost, "/api/v1/resources/Marca", `{"nombre":"Revlon","slug":"revlon","activa":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := testutil.DecodeData[map[string]any](t, w)
	id := int64(created["id"].(float64))
	assert.Greater(t, id, persistence.SeedMarcaMaybelline)

	w = s.JSON(http.MethodPost, "/api/v1/resources/Marca/bulk-delete", fmt.Sprintf(`{"ids":[%d,9999]}`, id))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := testutil.DecodeData[shared.BatchReport](t, w)
	assert.Equal(t, []int64{id}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, int64(9999), report.Failed[0].ID)

	w = s.Get(fmt.Sprintf("/api/v1/resources/Marca/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalog_AccessControl(t *testing.T) {
	s := newCatalogServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resources", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, s.Do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/resources", nil)
	req.Header.Set("Authorization", "Bearer "+testutil.SignToken(t, "2", "cliente", time.Hour))
	assert.Equal(t, http.StatusForbidden, s.Do(req).Code)

	assert.Equal(t, http.StatusOK, s.Get("/api/v1/resources", nil).Code)
}

func TestCatalog_UploadAndDeliver(t *testing.T) {
	s := newCatalogServer(t)

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		img.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("imagen", "brillo.png")
	require.NoError(t, err)
	_, err = part.Write(pngData.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/resources/Producto/2", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := s.Do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	row := testutil.DecodeData[map[string]any](t, w)
	stored, _ := row["imagen"].(string)
	require.NotEmpty(t, stored)
	assert.Regexp(t, `^labial-brillo-rosa-\d{17}\.jpg$`, stored)

	// media accepts the token as a query parameter
	anon := s.Anonymous()
	mediaURL := "/api/v1/media/resources/Producto?file=" + url.QueryEscape(stored) + "&token=" + s.Token

	w = anon.Get(mediaURL, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = anon.Get(mediaURL, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.Bytes())

	w = anon.Get(mediaURL+"&thumb=1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = anon.Get("/api/v1/media/resources/Producto?file=ghost-20240301120000000.jpg&token="+s.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", testutil.ErrorCode(t, w))

	w = anon.Get("/api/v1/media/resources/Producto?file="+url.QueryEscape(stored), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
