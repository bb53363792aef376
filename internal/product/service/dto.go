package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/abgdnv/productapi/internal/product/store"
)

// Known JSON members of a product. Any other member is kept in Extra.
const (
	fieldID          = "id"
	fieldName        = "name"
	fieldDescription = "description"
	fieldPrice       = "price"
	fieldCategory    = "category"
	fieldInStock     = "inStock"
)

// ProductDto represents the data transfer object for a product.
// Extra members are rendered next to the known fields, which always take precedence.
type ProductDto struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Category    string
	InStock     bool
	Extra       map[string]any
}

// productFields is the fixed part of the product JSON document.
type productFields struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	InStock     bool    `json:"inStock"`
}

func (d ProductDto) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(productFields{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		InStock:     d.InStock,
	})
	if err != nil {
		return nil, err
	}
	extra := make(map[string]any, len(d.Extra))
	for k, v := range d.Extra {
		if !isKnownField(k) {
			extra[k] = v
		}
	}
	if len(extra) == 0 {
		return known, nil
	}
	rest, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	// splice {"id":...} and {"color":...} into one object
	var buf bytes.Buffer
	buf.Grow(len(known) + len(rest))
	buf.Write(known[:len(known)-1])
	buf.WriteByte(',')
	buf.Write(rest[1:])
	return buf.Bytes(), nil
}

func (d *ProductDto) UnmarshalJSON(data []byte) error {
	var fields productFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := extraFields(data)
	if err != nil {
		return err
	}
	*d = ProductDto{
		ID:          fields.ID,
		Name:        fields.Name,
		Description: fields.Description,
		Price:       fields.Price,
		Category:    fields.Category,
		InStock:     fields.InStock,
		Extra:       extra,
	}
	return nil
}

// ProductInput is the payload of a product update. Nil fields are left unchanged.
// Members outside the known schema are collected in Extra; a client supplied id is ignored.
type ProductInput struct {
	Name        *string        `validate:"omitempty,max=200"`
	Description *string        `validate:"omitempty,max=2000"`
	Price       *float64       `validate:"omitempty,gte=0"`
	Category    *string        `validate:"omitempty,max=100"`
	InStock     *bool
	Extra       map[string]any
}

// ProductCreateInput is the payload of a product creation. It has the same shape as
// ProductInput but requires a name.
type ProductCreateInput struct {
	Name        *string        `validate:"required,max=200"`
	Description *string        `validate:"omitempty,max=2000"`
	Price       *float64       `validate:"omitempty,gte=0"`
	Category    *string        `validate:"omitempty,max=100"`
	InStock     *bool
	Extra       map[string]any
}

func (in *ProductInput) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	*in = ProductInput{}
	for key, raw := range members {
		var err error
		switch key {
		case fieldID:
		case fieldName:
			err = json.Unmarshal(raw, &in.Name)
		case fieldDescription:
			err = json.Unmarshal(raw, &in.Description)
		case fieldPrice:
			err = json.Unmarshal(raw, &in.Price)
		case fieldCategory:
			err = json.Unmarshal(raw, &in.Category)
		case fieldInStock:
			err = json.Unmarshal(raw, &in.InStock)
		default:
			var v any
			if err = json.Unmarshal(raw, &v); err == nil {
				if in.Extra == nil {
					in.Extra = make(map[string]any)
				}
				in.Extra[key] = v
			}
		}
		if err != nil {
			return fmt.Errorf("invalid %q: %w", key, err)
		}
	}
	return nil
}

func (in *ProductCreateInput) UnmarshalJSON(data []byte) error {
	var base ProductInput
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	*in = ProductCreateInput(base)
	return nil
}

// StatsDto counts products per category. Categories are discovered from the data.
type StatsDto struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}

// toDto converts a store.Product to a ProductDto.
func toDto(p store.Product) ProductDto {
	return ProductDto{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		InStock:     p.InStock,
		Extra:       p.Extra,
	}
}

// merge applies the present fields of in onto p. Extra members are merged key by key.
func merge(p store.Product, in ProductInput) store.Product {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
	if len(in.Extra) > 0 {
		extra := make(map[string]any, len(p.Extra)+len(in.Extra))
		for k, v := range p.Extra {
			extra[k] = v
		}
		for k, v := range in.Extra {
			extra[k] = v
		}
		p.Extra = extra
	}
	return p
}

func isKnownField(key string) bool {
	switch key {
	case fieldID, fieldName, fieldDescription, fieldPrice, fieldCategory, fieldInStock:
		return true
	}
	return false
}

func extraFields(data []byte) (map[string]any, error) {
	var members map[string]any
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	var extra map[string]any
	for k, v := range members {
		if isKnownField(k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra, nil
}
