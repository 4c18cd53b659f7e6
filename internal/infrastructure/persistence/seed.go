package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Well-known ids of the demo catalog
const (
	SeedMarcaLoreal     int64 = 7
	SeedMarcaMaybelline int64 = 8
	SeedProductoLabial  int64 = 1
	SeedCursoMaquillaje int64 = 1
)

func ptr(v int64) *int64 { return &v }

// Seed loads the demo catalog. Ids are explicit so that links are stable across runs.
func Seed(ctx context.Context, db *gorm.DB) error {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := models.Timestamps{CreatedAt: now}
	price := decimal.RequireFromString

	usuarios := []models.Usuario{
		{BaseModel: models.BaseModel{ID: 1}, Email: "admin@example.com", Nombre: "Admin", Rol: "admin", Timestamps: ts},
		{BaseModel: models.BaseModel{ID: 2}, Email: "cliente@example.com", Nombre: "Cliente", Rol: "cliente", Timestamps: ts},
	}
	marcas := []models.Marca{
		{BaseModel: models.BaseModel{ID: SeedMarcaLoreal}, Nombre: "L'Oréal", Slug: "loreal", Activa: true, Timestamps: ts},
		{BaseModel: models.BaseModel{ID: SeedMarcaMaybelline}, Nombre: "Maybelline", Slug: "maybelline", Activa: true, Timestamps: ts},
	}
	categorias := []models.Categoria{
		{BaseModel: models.BaseModel{ID: 1}, Nombre: "Maquillaje", Slug: "maquillaje", Activa: true, Timestamps: ts},
		{BaseModel: models.BaseModel{ID: 2}, Nombre: "Labios", Slug: "labios", ParentID: ptr(1), Activa: true, Timestamps: ts},
		{BaseModel: models.BaseModel{ID: 3}, Nombre: "Rostro", Slug: "rostro", ParentID: ptr(1), Activa: true, Timestamps: ts},
	}
	productos := []models.Producto{
		{
			BaseModel: models.BaseModel{ID: SeedProductoLabial}, Titulo: "Labial Mate Rojo", Slug: "labial-mate-rojo",
			DescripcionMD: "Labial de larga duración con acabado mate.", Precio: price("12990.00"), Stock: 25,
			MarcaID: ptr(SeedMarcaLoreal), CategoriaID: ptr(2), Destacado: true, Publicado: true,
			Imagen: "labial-mate-rojo-20240301120000000.jpg", Timestamps: ts, UpdatedAt: now,
		},
		{
			BaseModel: models.BaseModel{ID: 2}, Titulo: "Labial Brillo Rosa", Slug: "labial-brillo-rosa",
			DescripcionMD: "Brillo labial humectante.", Precio: price("9990.00"), Stock: 40,
			MarcaID: ptr(SeedMarcaLoreal), CategoriaID: ptr(2), Destacado: false, Publicado: true,
			Timestamps: ts, UpdatedAt: now,
		},
		{
			BaseModel: models.BaseModel{ID: 3}, Titulo: "Base Líquida Natural", Slug: "base-liquida-natural",
			DescripcionMD: "Cobertura media, ideal para usar bajo el labial.", Precio: price("18990.00"), Stock: 12,
			MarcaID: ptr(SeedMarcaMaybelline), CategoriaID: ptr(3), Destacado: true, Publicado: true,
			Timestamps: ts, UpdatedAt: now,
		},
		{
			BaseModel: models.BaseModel{ID: 4}, Titulo: "Máscara de Pestañas", Slug: "mascara-de-pestanas",
			DescripcionMD: "Volumen extremo.", Precio: price("14990.00"), Stock: 0,
			MarcaID: ptr(SeedMarcaLoreal), CategoriaID: ptr(3), Destacado: true, Publicado: false,
			Timestamps: ts, UpdatedAt: now,
		},
	}
	imagenes := []models.ProductoImagen{
		{BaseModel: models.BaseModel{ID: 1}, ProductoID: SeedProductoLabial, Archivo: "labial-mate-rojo-1-20240301120000001.jpg", Alt: "Frente", Orden: 1},
		{BaseModel: models.BaseModel{ID: 2}, ProductoID: SeedProductoLabial, Archivo: "labial-mate-rojo-2-20240301120000002.jpg", Alt: "Swatch", Orden: 2},
		{BaseModel: models.BaseModel{ID: 3}, ProductoID: 3, Archivo: "base-liquida-natural-20240301120000003.jpg", Alt: "Frasco", Orden: 1},
	}
	favoritos := []models.Favorito{
		{BaseModel: models.BaseModel{ID: 1}, UsuarioID: 2, ProductoID: SeedProductoLabial, Timestamps: ts},
		{BaseModel: models.BaseModel{ID: 2}, UsuarioID: 2, ProductoID: 3, Timestamps: ts},
	}
	resenas := []models.Resena{
		{BaseModel: models.BaseModel{ID: 1}, ProductoID: 3, UsuarioID: 2, Puntaje: 5, Comentario: "Excelente", Aprobada: true, Timestamps: ts},
	}
	cursos := []models.Curso{
		{
			BaseModel: models.BaseModel{ID: SeedCursoMaquillaje}, Titulo: "Maquillaje Profesional", Slug: "maquillaje-profesional",
			Resumen: "Curso completo de maquillaje.", Precio: price("49990.00"), Destacado: true, Publicado: true, Timestamps: ts,
		},
	}
	modulos := []models.Modulo{
		{BaseModel: models.BaseModel{ID: 1}, CursoID: SeedCursoMaquillaje, Titulo: "Fundamentos", Orden: 1},
		{BaseModel: models.BaseModel{ID: 2}, CursoID: SeedCursoMaquillaje, Titulo: "Técnicas avanzadas", Orden: 2},
		{BaseModel: models.BaseModel{ID: 3}, CursoID: SeedCursoMaquillaje, ParentID: ptr(2), Titulo: "Contorno", Orden: 1},
	}
	lecciones := []models.Leccion{
		{BaseModel: models.BaseModel{ID: 1}, ModuloID: 1, Titulo: "Bienvenida", Tipo: "VIDEO", RutaSrc: "bienvenida-20240301120000004.mp4", DuracionS: 180, Orden: 1},
		{BaseModel: models.BaseModel{ID: 2}, ModuloID: 1, Titulo: "Guía de pieles", Tipo: "DOCUMENTO", RutaSrc: "guia-de-pieles-20240301120000005.pdf", Orden: 2},
		{BaseModel: models.BaseModel{ID: 3}, ModuloID: 3, Titulo: "Contorno en tres pasos", Tipo: "TEXTO", Descripcion: "Paso a paso.", Orden: 1},
	}
	ordenes := []models.Orden{
		{BaseModel: models.BaseModel{ID: 1}, UsuarioID: 2, Estado: "PAGADA", Total: price("31980.00"), Timestamps: ts},
	}
	items := []models.ItemOrden{
		{BaseModel: models.BaseModel{ID: 1}, OrdenID: 1, ProductoID: 3, Cantidad: 1, PrecioUnitario: price("18990.00")},
		{BaseModel: models.BaseModel{ID: 2}, OrdenID: 1, ProductoID: 2, Cantidad: 1, PrecioUnitario: price("12990.00")},
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, batch := range []any{
			&usuarios, &marcas, &categorias, &productos, &imagenes, &favoritos, &resenas,
			&cursos, &modulos, &lecciones, &ordenes, &items,
		} {
			if err := tx.Create(batch).Error; err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}
		if tx.Dialector.Name() == DriverPostgres {
			return resetSequences(tx)
		}
		return nil
	})
}

// resetSequences moves postgres serial sequences past the explicitly seeded ids
func resetSequences(tx *gorm.DB) error {
	for _, m := range models.All() {
		table := m.(interface{ TableName() string }).TableName()
		err := tx.Exec(
			"SELECT setval(pg_get_serial_sequence(?, 'id'), COALESCE((SELECT MAX(id) FROM "+table+"), 1))",
			table,
		).Error
		if err != nil {
			return fmt.Errorf("reset sequence %s: %w", table, err)
		}
	}
	return nil
}
