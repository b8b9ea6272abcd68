// Package highlight annotates HTML content subtrees with marker spans around
// occurrences of a term set, and reverts those annotations.
package highlight

// Category distinguishes marker generations that must be removable
// independently of each other.
type Category string

const (
	CategoryAlert  Category = "alerta"
	CategorySearch Category = "busqueda"
)

// ContainerAttr is set on the inline span that replaces an annotated text node.
// Its value is the category that created it.
const ContainerAttr = "data-resaltado"

// Class returns the CSS class carried by markers of this category.
func (c Category) Class() string {
	return "resaltado-" + string(c)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryAlert || c == CategorySearch
}
