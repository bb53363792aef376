// Package store provides an interface for product storage operations.
package store

// ProductStore is an interface for product storage operations.
// Implementations keep products in insertion order and never share their internal state with callers.
type ProductStore interface {
	// FindAll returns a copy of all products in insertion order.
	// Returns an empty slice if no products exist.
	FindAll() []Product

	// FindByID retrieves a single product by its unique identifier.
	// The boolean is false if no product exists with the given ID.
	FindByID(id string) (Product, bool)

	// Create appends a product to the collection.
	// Returns ErrDuplicateID if a product with the same ID already exists.
	Create(p Product) error

	// Update replaces the product with the given ID, keeping that ID.
	// Returns false and changes nothing if no product exists with the given ID.
	Update(id string, p Product) bool

	// Remove deletes the product with the given ID.
	// Returns false if no product exists with the given ID.
	Remove(id string) bool

	// Len returns the number of stored products.
	Len() int
}

// Product represents a product entity in the store.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Category    string
	InStock     bool
	// Extra holds caller supplied fields outside the known schema.
	Extra map[string]any
}

// Clone returns a deep copy of p, so that neither copy can observe mutations of the other.
func (p Product) Clone() Product {
	p.Extra = cloneMap(p.Extra)
	return p
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
