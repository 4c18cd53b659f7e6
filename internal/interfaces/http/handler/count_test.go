package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/catalog"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCountUseCases struct {
	mock.Mock
}

func (m *MockCountUseCases) CountAll(ctx context.Context, parent string, parentIDs []int64, children []string, opts catalog.CountOptions) (*catalog.CountResult, error) {
	args := m.Called(ctx, parent, parentIDs, children, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.CountResult), args.Error(1)
}

func (m *MockCountUseCases) CountPairs(ctx context.Context, pairs []catalog.PairRequest) (*catalog.CountResult, error) {
	args := m.Called(ctx, pairs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.CountResult), args.Error(1)
}

type stubRelations map[string]*catalog.ResourceMeta

func (s stubRelations) Meta(name string) (*catalog.ResourceMeta, error) {
	if m, ok := s[name]; ok {
		return m, nil
	}
	return nil, shared.ErrNotFound.WithDetails("resource %q", name)
}

var productoMeta = stubRelations{
	"Producto": {
		Name: "Producto",
		Relations: []resource.Relation{
			{Child: "ProductoImagen", ForeignKey: "productoId"},
			{Child: "Favorito", ForeignKey: "productoId"},
		},
	},
}

func newCountRouter(uc CountUseCases) *gin.Engine {
	h := NewCountHandler(uc, productoMeta)
	r := gin.New()
	r.GET("/resources/:resource/counts", h.Counts)
	r.POST("/counts/batch", h.Batch)
	return r
}

func TestCountHandler_Counts(t *testing.T) {
	uc := new(MockCountUseCases)
	uc.On("CountAll", mock.Anything, "Producto", []int64{1, 2}, []string{"ProductoImagen"}, catalog.CountOptions{DirectOnly: true}).
		Return(&catalog.CountResult{Counts: resource.CountMatrix{
			1: {"ProductoImagen": 2},
			2: {"ProductoImagen": 0},
		}}, nil)

	w := serve(newCountRouter(uc), httptest.NewRequest(http.MethodGet, "/resources/Producto/counts?ids=1,2&children=ProductoImagen&directOnly=true", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"1":{"ProductoImagen":2}`)
	assert.Contains(t, w.Body.String(), `"2":{"ProductoImagen":0}`)
	uc.AssertExpectations(t)
}

func TestCountHandler_CountsDefaultsToEveryRelation(t *testing.T) {
	uc := new(MockCountUseCases)
	uc.On("CountAll", mock.Anything, "Producto", []int64{1}, []string{"ProductoImagen", "Favorito"}, catalog.CountOptions{Refresh: true}).
		Return(&catalog.CountResult{Counts: resource.CountMatrix{1: {"ProductoImagen": 2, "Favorito": 1}}}, nil)

	w := serve(newCountRouter(uc), httptest.NewRequest(http.MethodGet, "/resources/Producto/counts?ids=1&refresh=1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	uc.AssertExpectations(t)
}

func TestCountHandler_CountsRejectsBadInput(t *testing.T) {
	uc := new(MockCountUseCases)
	r := newCountRouter(uc)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"missing ids", "/resources/Producto/counts", http.StatusBadRequest},
		{"non numeric id", "/resources/Producto/counts?ids=1,x", http.StatusBadRequest},
		{"negative id", "/resources/Producto/counts?ids=-4", http.StatusBadRequest},
		{"unknown parent", "/resources/Nope/counts?ids=1", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
	uc.AssertNotCalled(t, "CountAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCountHandler_Batch(t *testing.T) {
	uc := new(MockCountUseCases)
	uc.On("CountPairs", mock.Anything, []catalog.PairRequest{
		{ParentResource: "Producto", ParentID: 1, ChildResource: "ProductoImagen"},
		{ParentResource: "Producto", ParentID: 1, ChildResource: "Favorito", ForeignKey: "productoId", DirectOnly: true},
	}).Return(&catalog.CountResult{
		Counts: resource.CountMatrix{1: {"ProductoImagen": 2, "Favorito": 0}},
		Errors: []resource.PairError{{ParentID: 1, Child: "Favorito", Message: "boom"}},
	}, nil)

	body := `[
		{"parentResource":"Producto","parentId":1,"childResource":"ProductoImagen"},
		{"parentResource":"Producto","parentId":1,"childResource":"Favorito","foreignKey":"productoId","directChildrenOnly":true}
	]`
	w := serve(newCountRouter(uc), jsonRequest(http.MethodPost, "/counts/batch", body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"errors":[{"parentId":1,"childResource":"Favorito","message":"boom"}]`)
	uc.AssertExpectations(t)
}

func TestCountHandler_BatchValidation(t *testing.T) {
	uc := new(MockCountUseCases)
	r := newCountRouter(uc)

	item := `{"parentResource":"Producto","parentId":1,"childResource":"Favorito"}`
	tooMany := "[" + strings.TrimSuffix(strings.Repeat(item+",", 2001), ",") + "]"

	tests := []struct {
		name string
		body string
	}{
		{"empty", `[]`},
		{"not an array", `{"parentResource":"Producto"}`},
		{"missing child", `[{"parentResource":"Producto","parentId":1}]`},
		{"zero parent id", `[{"parentResource":"Producto","parentId":0,"childResource":"Favorito"}]`},
		{"too many", tooMany},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, jsonRequest(http.MethodPost, "/counts/batch", tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code, fmt.Sprintf("body %.60s", tt.body))
		})
	}
	uc.AssertNotCalled(t, "CountPairs", mock.Anything, mock.Anything)
}
