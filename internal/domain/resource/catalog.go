package resource

import "github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/media"

// Lesson kinds stored in Leccion.tipo
const (
	LeccionVideo     = "VIDEO"
	LeccionAudio     = "AUDIO"
	LeccionDocumento = "DOCUMENTO"
	LeccionTexto     = "TEXTO"
)

func col(name string, kind ColumnKind) Column {
	return Column{Name: name, Kind: kind}
}

var imageOnly = media.NewFieldPolicy(media.TypeImage)

// CatalogDescriptors returns the descriptors of the store catalog
func CatalogDescriptors() []Descriptor {
	return []Descriptor{
		{
			Name:  "Marca",
			Table: "marcas",
			Columns: []Column{
				col("id", KindInt), col("nombre", KindString), col("slug", KindString),
				col("imagen", KindString), col("activa", KindBool), col("createdAt", KindTime),
			},
			DefaultColumns: []string{"id", "nombre", "imagen", "activa"},
			SearchColumns:  []string{"nombre", "slug"},
			Relations:      []Relation{{Child: "Producto", ForeignKey: "marcaId"}},
			FileFields:     []FileField{{Column: "imagen", Policy: imageOnly}},
			ImageFolder:    "marca",
		},
		{
			Name:  "Categoria",
			Table: "categorias",
			Columns: []Column{
				col("id", KindInt), col("nombre", KindString), col("slug", KindString),
				col("parentId", KindInt), col("imagen", KindString), col("activa", KindBool),
				col("createdAt", KindTime),
			},
			DefaultColumns: []string{"id", "nombre", "parentId", "activa"},
			SearchColumns:  []string{"nombre", "slug"},
			Relations: []Relation{
				{Child: "Producto", ForeignKey: "categoriaId"},
				{Child: "Categoria", ForeignKey: "parentId"},
			},
			FileFields:    []FileField{{Column: "imagen", Policy: imageOnly}},
			ImageFolder:   "categoria",
			SelfRefColumn: "parentId",
		},
		{
			Name:  "Producto",
			Table: "productos",
			Columns: []Column{
				col("id", KindInt), col("titulo", KindString), col("slug", KindString),
				col("descripcionMD", KindText), col("precio", KindDecimal), col("stock", KindInt),
				col("marcaId", KindInt), col("categoriaId", KindInt), col("destacado", KindBool),
				col("publicado", KindBool), col("imagen", KindString), col("createdAt", KindTime),
				col("updatedAt", KindTime),
			},
			DefaultColumns: []string{"id", "titulo", "precio", "stock", "destacado", "publicado", "imagen"},
			SearchColumns:  []string{"titulo", "descripcionMD"},
			Relations: []Relation{
				{Child: "ProductoImagen", ForeignKey: "productoId"},
				{Child: "Favorito", ForeignKey: "productoId"},
				{Child: "Resena", ForeignKey: "productoId"},
				{Child: "ItemOrden", ForeignKey: "productoId"},
			},
			FileFields:  []FileField{{Column: "imagen", Policy: imageOnly}},
			ImageFolder: "producto",
		},
		{
			Name:  "ProductoImagen",
			Table: "producto_imagenes",
			Columns: []Column{
				col("id", KindInt), col("productoId", KindInt), col("archivo", KindString),
				col("alt", KindString), col("orden", KindInt),
			},
			DefaultColumns: []string{"id", "productoId", "archivo", "orden"},
			SearchColumns:  []string{"alt"},
			FileFields:     []FileField{{Column: "archivo", Policy: imageOnly}},
			ImageFolder:    "producto",
		},
		{
			Name:  "Favorito",
			Table: "favoritos",
			Columns: []Column{
				col("id", KindInt), col("usuarioId", KindInt), col("productoId", KindInt),
				col("createdAt", KindTime),
			},
			DefaultColumns: []string{"id", "usuarioId", "productoId", "createdAt"},
		},
		{
			Name:  "Resena",
			Table: "resenas",
			Columns: []Column{
				col("id", KindInt), col("productoId", KindInt), col("usuarioId", KindInt),
				col("puntaje", KindInt), col("comentario", KindText), col("aprobada", KindBool),
				col("createdAt", KindTime),
			},
			DefaultColumns: []string{"id", "productoId", "puntaje", "aprobada"},
			SearchColumns:  []string{"comentario"},
		},
		{
			Name:  "Curso",
			Table: "cursos",
			Columns: []Column{
				col("id", KindInt), col("titulo", KindString), col("slug", KindString),
				col("resumen", KindText), col("precio", KindDecimal), col("destacado", KindBool),
				col("publicado", KindBool), col("portada", KindString), col("createdAt", KindTime),
			},
			DefaultColumns: []string{"id", "titulo", "precio", "publicado", "portada"},
			SearchColumns:  []string{"titulo", "resumen"},
			Relations:      []Relation{{Child: "Modulo", ForeignKey: "cursoId"}},
			FileFields:     []FileField{{Column: "portada", Policy: imageOnly}},
			ImageFolder:    "curso",
		},
		{
			Name:  "Modulo",
			Table: "modulos",
			Columns: []Column{
				col("id", KindInt), col("cursoId", KindInt), col("parentId", KindInt),
				col("titulo", KindString), col("orden", KindInt),
			},
			DefaultColumns: []string{"id", "cursoId", "titulo", "orden"},
			SearchColumns:  []string{"titulo"},
			Relations: []Relation{
				{Child: "Leccion", ForeignKey: "moduloId"},
				{Child: "Modulo", ForeignKey: "parentId"},
			},
			SelfRefColumn: "parentId",
		},
		{
			Name:  "Leccion",
			Table: "lecciones",
			Columns: []Column{
				col("id", KindInt), col("moduloId", KindInt), col("titulo", KindString),
				col("tipo", KindString), col("rutaSrc", KindString), col("descripcion", KindText),
				col("duracionS", KindInt), col("orden", KindInt),
			},
			DefaultColumns: []string{"id", "moduloId", "titulo", "tipo", "orden"},
			SearchColumns:  []string{"titulo", "descripcion"},
			FileFields: []FileField{{
				Column:        "rutaSrc",
				Policy:        media.NewFieldPolicy(media.TypeVideo, media.TypeImage),
				Discriminator: "tipo",
				ByDiscriminator: map[string]media.FieldPolicy{
					LeccionVideo:     media.NewFieldPolicy(media.TypeVideo, media.TypeImage),
					LeccionAudio:     media.NewFieldPolicy(media.TypeAudio),
					LeccionDocumento: media.NewFieldPolicy(media.TypeDocument),
					LeccionTexto:     media.NewFieldPolicy(media.TypeDocument, media.TypeImage),
				},
			}},
			ImageFolder: "leccion",
		},
		{
			Name:  "Orden",
			Table: "ordenes",
			Columns: []Column{
				col("id", KindInt), col("usuarioId", KindInt), col("estado", KindString),
				col("total", KindDecimal), col("createdAt", KindTime),
			},
			DefaultColumns: []string{"id", "usuarioId", "estado", "total", "createdAt"},
			SearchColumns:  []string{"estado"},
			Relations:      []Relation{{Child: "ItemOrden", ForeignKey: "ordenId"}},
		},
		{
			Name:  "ItemOrden",
			Table: "items_orden",
			Columns: []Column{
				col("id", KindInt), col("ordenId", KindInt), col("productoId", KindInt),
				col("cantidad", KindInt), col("precioUnitario", KindDecimal),
			},
			DefaultColumns: []string{"id", "ordenId", "productoId", "cantidad", "precioUnitario"},
		},
		{
			Name:  "Usuario",
			Table: "usuarios",
			Columns: []Column{
				col("id", KindInt), col("email", KindString), col("nombre", KindString),
				col("rol", KindString), col("passwordHash", KindString), col("createdAt", KindTime),
			},
			DefaultColumns: []string{"id", "email", "nombre", "rol"},
			HiddenColumns:  map[string]bool{"passwordHash": true},
			SearchColumns:  []string{"email", "nombre"},
			Relations: []Relation{
				{Child: "Orden", ForeignKey: "usuarioId"},
				{Child: "Favorito", ForeignKey: "usuarioId"},
				{Child: "Resena", ForeignKey: "usuarioId"},
			},
		},
	}
}

// NewCatalogRegistry builds the registry of the store catalog
func NewCatalogRegistry() *Registry {
	return MustNewRegistry(CatalogDescriptors()...)
}
