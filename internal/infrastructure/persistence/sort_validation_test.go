package persistence

import (
	"testing"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogDescriptor(t *testing.T, name string) *resource.Descriptor {
	t.Helper()
	d, err := resource.NewCatalogRegistry().Resolve(name)
	require.NoError(t, err)
	return d
}

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns desc", "", "desc"},
		{"ASC uppercase returns asc", "ASC", "asc"},
		{"asc lowercase returns asc", "asc", "asc"},
		{"desc returns desc", "desc", "desc"},
		{"invalid value returns desc", "INVALID", "desc"},
		{"sql injection attempt returns desc", "ASC; DROP TABLE users;--", "desc"},
		{"whitespace around asc returns asc", "  asc  ", "asc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	producto := catalogDescriptor(t, "Producto")
	usuario := catalogDescriptor(t, "Usuario")

	tests := []struct {
		name     string
		d        *resource.Descriptor
		input    string
		expected string
	}{
		{"empty string returns id", producto, "", "id"},
		{"valid column", producto, "titulo", "titulo"},
		{"whitespace around valid column", producto, "  precio ", "precio"},
		{"unknown column returns id", producto, "nope", "id"},
		{"sql injection attempt returns id", producto, "id; DROP TABLE productos;--", "id"},
		{"case sensitive", producto, "TITULO", "id"},
		{"hidden column returns id", usuario, "passwordHash", "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.d, tt.input))
		})
	}
}

func TestOrderColumns(t *testing.T) {
	producto := catalogDescriptor(t, "Producto")

	t.Run("adds id tiebreaker", func(t *testing.T) {
		cols := OrderColumns(producto, "precio", "asc")
		require.Len(t, cols, 2)
		assert.Equal(t, "precio", cols[0].Column.Name)
		assert.False(t, cols[0].Desc)
		assert.Equal(t, "id", cols[1].Column.Name)
		assert.False(t, cols[1].Desc)
	})

	t.Run("sorting by id has no tiebreaker", func(t *testing.T) {
		cols := OrderColumns(producto, "", "")
		require.Len(t, cols, 1)
		assert.Equal(t, "id", cols[0].Column.Name)
		assert.True(t, cols[0].Desc)
	})
}
