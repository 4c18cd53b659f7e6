package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Marca is the persistence model of a brand
type Marca struct {
	BaseModel
	Nombre string `gorm:"column:nombre;type:varchar(120);not null"`
	Slug   string `gorm:"column:slug;type:varchar(140);not null;uniqueIndex"`
	Imagen string `gorm:"column:imagen;type:varchar(255)"`
	Activa bool   `gorm:"column:activa;not null;default:true"`
	Timestamps
}

// TableName returns the table name for GORM
func (Marca) TableName() string { return "marcas" }

// Categoria is the persistence model of a hierarchical category
type Categoria struct {
	BaseModel
	Nombre   string `gorm:"column:nombre;type:varchar(120);not null"`
	Slug     string `gorm:"column:slug;type:varchar(140);not null;uniqueIndex"`
	ParentID *int64 `gorm:"column:parentId;index"`
	Imagen   string `gorm:"column:imagen;type:varchar(255)"`
	Activa   bool   `gorm:"column:activa;not null;default:true"`
	Timestamps
}

// TableName returns the table name for GORM
func (Categoria) TableName() string { return "categorias" }

// Producto is the persistence model of a product
type Producto struct {
	BaseModel
	Titulo        string          `gorm:"column:titulo;type:varchar(200);not null"`
	Slug          string          `gorm:"column:slug;type:varchar(220);not null;uniqueIndex"`
	DescripcionMD string          `gorm:"column:descripcionMD;type:text"`
	Precio        decimal.Decimal `gorm:"column:precio;type:decimal(12,2);not null"`
	Stock         int64           `gorm:"column:stock;not null;default:0"`
	MarcaID       *int64          `gorm:"column:marcaId;index"`
	CategoriaID   *int64          `gorm:"column:categoriaId;index"`
	Destacado     bool            `gorm:"column:destacado;not null;default:false"`
	Publicado     bool            `gorm:"column:publicado;not null;default:false"`
	Imagen        string          `gorm:"column:imagen;type:varchar(255)"`
	Timestamps
	UpdatedAt time.Time `gorm:"column:updatedAt;not null;autoUpdateTime"`
}

// TableName returns the table name for GORM
func (Producto) TableName() string { return "productos" }

// ProductoImagen is a gallery image of a product
type ProductoImagen struct {
	BaseModel
	ProductoID int64  `gorm:"column:productoId;not null;index"`
	Archivo    string `gorm:"column:archivo;type:varchar(255);not null"`
	Alt        string `gorm:"column:alt;type:varchar(200)"`
	Orden      int64  `gorm:"column:orden;not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductoImagen) TableName() string { return "producto_imagenes" }

// Favorito marks a product as a user's favorite
type Favorito struct {
	BaseModel
	UsuarioID  int64 `gorm:"column:usuarioId;not null;index"`
	ProductoID int64 `gorm:"column:productoId;not null;index"`
	Timestamps
}

// TableName returns the table name for GORM
func (Favorito) TableName() string { return "favoritos" }

// Resena is a product review
type Resena struct {
	BaseModel
	ProductoID int64  `gorm:"column:productoId;not null;index"`
	UsuarioID  int64  `gorm:"column:usuarioId;not null;index"`
	Puntaje    int64  `gorm:"column:puntaje;not null"`
	Comentario string `gorm:"column:comentario;type:text"`
	Aprobada   bool   `gorm:"column:aprobada;not null;default:false"`
	Timestamps
}

// TableName returns the table name for GORM
func (Resena) TableName() string { return "resenas" }

// Curso is the persistence model of a course
type Curso struct {
	BaseModel
	Titulo    string          `gorm:"column:titulo;type:varchar(200);not null"`
	Slug      string          `gorm:"column:slug;type:varchar(220);not null;uniqueIndex"`
	Resumen   string          `gorm:"column:resumen;type:text"`
	Precio    decimal.Decimal `gorm:"column:precio;type:decimal(12,2);not null"`
	Destacado bool            `gorm:"column:destacado;not null;default:false"`
	Publicado bool            `gorm:"column:publicado;not null;default:false"`
	Portada   string          `gorm:"column:portada;type:varchar(255)"`
	Timestamps
}

// TableName returns the table name for GORM
func (Curso) TableName() string { return "cursos" }

// Modulo is a course module; modules may nest through ParentID
type Modulo struct {
	BaseModel
	CursoID  int64  `gorm:"column:cursoId;not null;index"`
	ParentID *int64 `gorm:"column:parentId;index"`
	Titulo   string `gorm:"column:titulo;type:varchar(200);not null"`
	Orden    int64  `gorm:"column:orden;not null;default:0"`
}

// TableName returns the table name for GORM
func (Modulo) TableName() string { return "modulos" }

// Leccion is a lesson; RutaSrc holds the stored name of its media
type Leccion struct {
	BaseModel
	ModuloID    int64  `gorm:"column:moduloId;not null;index"`
	Titulo      string `gorm:"column:titulo;type:varchar(200);not null"`
	Tipo        string `gorm:"column:tipo;type:varchar(20);not null"`
	RutaSrc     string `gorm:"column:rutaSrc;type:varchar(255)"`
	Descripcion string `gorm:"column:descripcion;type:text"`
	DuracionS   int64  `gorm:"column:duracionS;not null;default:0"`
	Orden       int64  `gorm:"column:orden;not null;default:0"`
}

// TableName returns the table name for GORM
func (Leccion) TableName() string { return "lecciones" }

// Orden is a customer order
type Orden struct {
	BaseModel
	UsuarioID int64           `gorm:"column:usuarioId;not null;index"`
	Estado    string          `gorm:"column:estado;type:varchar(30);not null"`
	Total     decimal.Decimal `gorm:"column:total;type:decimal(12,2);not null"`
	Timestamps
}

// TableName returns the table name for GORM
func (Orden) TableName() string { return "ordenes" }

// ItemOrden is an order line
type ItemOrden struct {
	BaseModel
	OrdenID        int64           `gorm:"column:ordenId;not null;index"`
	ProductoID     int64           `gorm:"column:productoId;not null;index"`
	Cantidad       int64           `gorm:"column:cantidad;not null"`
	PrecioUnitario decimal.Decimal `gorm:"column:precioUnitario;type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (ItemOrden) TableName() string { return "items_orden" }

// Usuario is a storefront user; credentials are managed by the auth service
type Usuario struct {
	BaseModel
	Email        string `gorm:"column:email;type:varchar(200);not null;uniqueIndex"`
	Nombre       string `gorm:"column:nombre;type:varchar(200)"`
	Rol          string `gorm:"column:rol;type:varchar(20);not null;default:'cliente'"`
	PasswordHash string `gorm:"column:passwordHash;type:varchar(255)"`
	Timestamps
}

// TableName returns the table name for GORM
func (Usuario) TableName() string { return "usuarios" }
