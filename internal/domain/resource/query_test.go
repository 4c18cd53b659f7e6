package resource

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func producto(t *testing.T) *Descriptor {
	t.Helper()
	d, err := NewCatalogRegistry().Resolve("Producto")
	require.NoError(t, err)
	return d
}

func TestQuerySpecNormalize(t *testing.T) {
	d := producto(t)

	t.Run("clamps paging", func(t *testing.T) {
		q, _ := QuerySpec{Page: -3, PageSize: 5000}.Normalize(d)
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, MaxPageSize, q.PageSize)

		q, _ = QuerySpec{}.Normalize(d)
		assert.Equal(t, DefaultPageSize, q.PageSize)
		assert.Equal(t, 0, q.Offset())

		q, _ = QuerySpec{Page: 3, PageSize: 10}.Normalize(d)
		assert.Equal(t, 20, q.Offset())

		q, _ = QuerySpec{Page: 46116860184273880, PageSize: MaxPageSize}.Normalize(d)
		assert.Equal(t, MaxPage, q.Page)
		assert.Positive(t, q.Offset())
		assert.LessOrEqual(t, q.Offset(), math.MaxInt32)
	})

	t.Run("unknown sort falls back to id", func(t *testing.T) {
		q, _ := QuerySpec{SortBy: "nope; DROP TABLE productos", SortDir: "sideways"}.Normalize(d)
		assert.Equal(t, "id", q.SortBy)
		assert.Equal(t, SortDesc, q.SortDir)

		q, _ = QuerySpec{SortBy: "precio", SortDir: "ASC"}.Normalize(d)
		assert.Equal(t, "precio", q.SortBy)
		assert.Equal(t, SortAsc, q.SortDir)
	})

	t.Run("drops empty and unknown filters", func(t *testing.T) {
		q, dropped := QuerySpec{Filters: FilterSet{
			"marcaId":   "7",
			"titulo":    "",
			"slug":      nil,
			"stock":     []any{},
			"publicado": "undefined",
			"bogus":     1,
		}}.Normalize(d)
		assert.Equal(t, FilterSet{"marcaId": int64(7)}, q.Filters)
		assert.Equal(t, []string{"bogus"}, dropped)
	})

	t.Run("coerces filter values by column", func(t *testing.T) {
		q, _ := QuerySpec{Filters: FilterSet{
			"marcaId":   float64(7),
			"destacado": "true",
			"slug":      "00123",
			"stock":     []any{"1", float64(2), ""},
		}}.Normalize(d)
		assert.Equal(t, int64(7), q.Filters["marcaId"])
		assert.Equal(t, true, q.Filters["destacado"])
		assert.Equal(t, "00123", q.Filters["slug"])
		assert.Equal(t, []any{int64(1), int64(2)}, q.Filters["stock"])
	})

	t.Run("search defaults to the descriptor search columns", func(t *testing.T) {
		q, _ := QuerySpec{Search: " labial "}.Normalize(d)
		assert.Equal(t, "labial", q.Search)
		assert.Equal(t, []string{"titulo", "descripcionMD"}, q.SearchFields)

		q, _ = QuerySpec{Search: "x", SearchFields: []string{"titulo", "precio", "nope"}}.Normalize(d)
		assert.Equal(t, []string{"titulo"}, q.SearchFields)

		q, _ = QuerySpec{SearchFields: []string{"titulo"}}.Normalize(d)
		assert.Empty(t, q.SearchFields)
	})
}

func TestCoerceValue(t *testing.T) {
	assert.Equal(t, int64(42), CoerceValue("42"))
	assert.Equal(t, 4.5, CoerceValue("4.5"))
	assert.Equal(t, true, CoerceValue("true"))
	assert.Equal(t, false, CoerceValue("false"))
	assert.Equal(t, "TRUE", CoerceValue("TRUE"))
	assert.Equal(t, "labial", CoerceValue("labial"))
	assert.Equal(t, []any{int64(1), "a"}, CoerceValue([]string{"1", "a"}))
	assert.Equal(t, 3.0, CoerceValue(3.0))
}

func TestColumnCoerceWrite(t *testing.T) {
	t.Run("decimal", func(t *testing.T) {
		v, err := Column{Name: "precio", Kind: KindDecimal}.CoerceWrite("1999.90")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("1999.9").Equal(v.(decimal.Decimal)))

		_, err = Column{Name: "precio", Kind: KindDecimal}.CoerceWrite("caro")
		assert.Error(t, err)
	})

	t.Run("int", func(t *testing.T) {
		v, err := Column{Name: "stock", Kind: KindInt}.CoerceWrite(float64(3))
		require.NoError(t, err)
		assert.Equal(t, int64(3), v)

		_, err = Column{Name: "stock", Kind: KindInt}.CoerceWrite(3.5)
		assert.Error(t, err)

		v, err = Column{Name: "stock", Kind: KindInt}.CoerceWrite("")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("bool and time", func(t *testing.T) {
		v, err := Column{Name: "destacado", Kind: KindBool}.CoerceWrite("1")
		require.NoError(t, err)
		assert.Equal(t, true, v)

		v, err = Column{Name: "createdAt", Kind: KindTime}.CoerceWrite("2024-01-02T03:04:05Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), v)
	})

	t.Run("string", func(t *testing.T) {
		v, err := Column{Name: "titulo", Kind: KindString}.CoerceWrite(12.0)
		require.NoError(t, err)
		assert.Equal(t, "12", v)
	})
}
