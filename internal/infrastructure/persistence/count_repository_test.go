package persistence

import (
	"context"
	"testing"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func childQuery(t *testing.T, parent, child string, directOnly bool) resource.ChildQuery {
	t.Helper()
	reg := resource.NewCatalogRegistry()
	d, err := reg.Resolve(child)
	require.NoError(t, err)
	return resource.ChildQuery{Resource: d, ForeignKey: reg.ForeignKeyFor(parent, child), DirectOnly: directOnly}
}

func TestGormCountRepository_BatchCount_ProductScenario(t *testing.T) {
	db := newSeededDatabase(t)
	repo := NewGormCountRepository(db.DB, nil)

	counts, pairErrs, err := repo.BatchCount(context.Background(), []int64{SeedProductoLabial}, []resource.ChildQuery{
		childQuery(t, "Producto", "ProductoImagen", false),
		childQuery(t, "Producto", "Favorito", false),
	})
	require.NoError(t, err)
	assert.Empty(t, pairErrs)
	assert.Equal(t, map[int64]map[string]int64{
		SeedProductoLabial: {"ProductoImagen": 2, "Favorito": 1},
	}, counts)
}

func TestGormCountRepository_BatchCount_MissingPairsAreAbsent(t *testing.T) {
	db := newSeededDatabase(t)
	repo := NewGormCountRepository(db.DB, nil)

	counts, _, err := repo.BatchCount(context.Background(), []int64{2, 3}, []resource.ChildQuery{
		childQuery(t, "Producto", "ProductoImagen", false),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[3]["ProductoImagen"])
	_, ok := counts[2]["ProductoImagen"]
	assert.False(t, ok)
}

func TestGormCountRepository_DirectChildrenOnly(t *testing.T) {
	db := newSeededDatabase(t)
	repo := NewGormCountRepository(db.DB, nil)
	ctx := context.Background()

	t.Run("course counts every module without the flag", func(t *testing.T) {
		counts, _, err := repo.BatchCount(ctx, []int64{SeedCursoMaquillaje}, []resource.ChildQuery{
			childQuery(t, "Curso", "Modulo", false),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), counts[SeedCursoMaquillaje]["Modulo"])
	})

	t.Run("course counts only top-level modules with the flag", func(t *testing.T) {
		counts, _, err := repo.BatchCount(ctx, []int64{SeedCursoMaquillaje}, []resource.ChildQuery{
			childQuery(t, "Curso", "Modulo", true),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[SeedCursoMaquillaje]["Modulo"])
	})

	t.Run("self reference is already one hop", func(t *testing.T) {
		n, err := repo.CountOne(ctx, childQuery(t, "Modulo", "Modulo", true), 2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestGormCountRepository_BatchCount_PartialFailure(t *testing.T) {
	db := newSeededDatabase(t)
	repo := NewGormCountRepository(db.DB, nil)
	ghost := resource.ChildQuery{Resource: &resource.Descriptor{Name: "Ghost", Table: "ghosts"}, ForeignKey: "productoId"}

	counts, pairErrs, err := repo.BatchCount(context.Background(), []int64{1, 3}, []resource.ChildQuery{
		childQuery(t, "Producto", "Favorito", false),
		ghost,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[1]["Favorito"])
	require.Len(t, pairErrs, 2)
	for _, pe := range pairErrs {
		assert.Equal(t, "Ghost", pe.Child)
		assert.NotEmpty(t, pe.Message)
	}
}

func TestGormCountRepository_BatchCount_TotalFailure(t *testing.T) {
	db := newSeededDatabase(t)
	repo := NewGormCountRepository(db.DB, nil)
	ghost := resource.ChildQuery{Resource: &resource.Descriptor{Name: "Ghost", Table: "ghosts"}, ForeignKey: "productoId"}

	_, _, err := repo.BatchCount(context.Background(), []int64{1}, []resource.ChildQuery{ghost})
	assert.Error(t, err)
}

func TestGormCountRepository_CountOne(t *testing.T) {
	db := newSeededDatabase(t)
	repo := NewGormCountRepository(db.DB, nil)

	n, err := repo.CountOne(context.Background(), childQuery(t, "Producto", "ProductoImagen", false), SeedProductoLabial)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
