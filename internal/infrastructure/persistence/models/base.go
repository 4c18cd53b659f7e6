package models

import "time"

// BaseModel provides the integer primary key shared by every catalog table
type BaseModel struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
}

// Timestamps provides the creation timestamp column
type Timestamps struct {
	CreatedAt time.Time `gorm:"column:createdAt;not null;autoCreateTime"`
}

// All returns every catalog model in dependency order, parents first
func All() []any {
	return []any{
		&Usuario{}, &Marca{}, &Categoria{}, &Producto{}, &ProductoImagen{}, &Favorito{}, &Resena{},
		&Curso{}, &Modulo{}, &Leccion{}, &Orden{}, &ItemOrden{},
	}
}
