package models

// Category is the logical layer a source file was classified into.
type Category string

const (
	CategoryController Category = "Controller"
	CategoryService    Category = "Service"
	CategoryRepository Category = "Repository"
	CategoryEntity     Category = "Entity"
	CategoryUnknown    Category = "Unknown"
)

// Categories lists every category in classification precedence order.
var Categories = []Category{
	CategoryController,
	CategoryService,
	CategoryRepository,
	CategoryEntity,
	CategoryUnknown,
}

// Structural reports whether the category is one of the layers shown in graphs.
func (c Category) Structural() bool {
	switch c {
	case CategoryController, CategoryService, CategoryRepository:
		return true
	default:
		return false
	}
}

// Comparable reports whether files of this category may be paired at all.
func (c Category) Comparable() bool {
	return c.Valid() && c != CategoryUnknown
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
