package alerts

// Category is a predefined keyword group offered when creating alerts.
type Category struct {
	Name        string `yaml:"name" json:"nombre"`
	Description string `yaml:"description" json:"descripcion,omitempty"`
	Keywords    string `yaml:"keywords" json:"palabras_clave"`
	Color       string `yaml:"color" json:"color,omitempty"`
}

// KeywordList returns the category keywords as a term list.
func (c Category) KeywordList() []string {
	return ParseKeywords(c.Keywords)
}

// Lookup returns the category with the given name.
func Lookup(categories []Category, name string) (Category, bool) {
	for _, c := range categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}
