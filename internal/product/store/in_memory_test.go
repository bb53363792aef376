package store

import (
	"fmt"
	"sync"
	"testing"

	perrors "github.com/abgdnv/productapi/internal/product/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ProductStoreSuite is a test suite for the in-memory ProductStore implementation.
type ProductStoreSuite struct {
	suite.Suite
	store ProductStore
}

// SetupTest gives every test a fresh store holding the seed products.
func (s *ProductStoreSuite) SetupTest() {
	s.store = NewInMemoryStore(SeedProducts()...)
}

func TestProductStoreSuite(t *testing.T) {
	suite.Run(t, new(ProductStoreSuite))
}

func (s *ProductStoreSuite) TestFindAll_InsertionOrder() {
	// when
	products := s.store.FindAll()

	// then
	s.Require().Len(products, 3)
	s.Equal([]string{"1", "2", "3"}, ids(products))
}

func (s *ProductStoreSuite) TestFindAll_ReturnsSnapshot() {
	// given
	s.Require().NoError(s.store.Create(Product{ID: "x", Name: "Tablet", Extra: map[string]any{"color": "red"}}))
	products := s.store.FindAll()

	// when
	products[0].Name = "Changed"
	products[3].Extra["color"] = "blue"

	// then
	first, _ := s.store.FindByID("1")
	s.Equal("Laptop", first.Name)
	tablet, _ := s.store.FindByID("x")
	s.Equal("red", tablet.Extra["color"])
	s.Equal(4, s.store.Len())
}

func (s *ProductStoreSuite) TestFindByID() {
	testCases := []struct {
		name      string
		id        string
		wantFound bool
		wantName  string
	}{
		{name: "Existing", id: "2", wantFound: true, wantName: "Smartphone"},
		{name: "Missing", id: "999", wantFound: false},
		{name: "Empty id", id: "", wantFound: false},
		{name: "No prefix match", id: "1 ", wantFound: false},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			// when
			p, found := s.store.FindByID(tc.id)

			// then
			s.Equal(tc.wantFound, found)
			s.Equal(tc.wantName, p.Name)
		})
	}
}

func (s *ProductStoreSuite) TestCreate_ThenFindByID() {
	// given
	p := Product{ID: "abc", Name: "Tablet", Price: 300, Category: "electronics", InStock: true,
		Extra: map[string]any{"tags": []any{"new"}}}

	// when
	err := s.store.Create(p)

	// then
	s.Require().NoError(err)
	got, found := s.store.FindByID("abc")
	s.True(found)
	s.Equal(p, got)
	s.Equal(4, s.store.Len())
	s.Equal("abc", s.store.FindAll()[3].ID)
}

func (s *ProductStoreSuite) TestCreate_DuplicateID() {
	// when
	err := s.store.Create(Product{ID: "1", Name: "Clone"})

	// then
	s.ErrorIs(err, perrors.ErrDuplicateID)
	s.Equal(3, s.store.Len())
	p, _ := s.store.FindByID("1")
	s.Equal("Laptop", p.Name)
}

func (s *ProductStoreSuite) TestCreate_CallerMutationDoesNotLeak() {
	// given
	extra := map[string]any{"color": "red"}

	// when
	s.Require().NoError(s.store.Create(Product{ID: "x", Extra: extra}))
	extra["color"] = "blue"

	// then
	p, _ := s.store.FindByID("x")
	s.Equal("red", p.Extra["color"])
}

func (s *ProductStoreSuite) TestUpdate() {
	s.Run("Existing keeps id and position", func() {
		// when
		ok := s.store.Update("2", Product{ID: "other", Name: "Phone", Price: 700})

		// then
		s.True(ok)
		p, found := s.store.FindByID("2")
		s.True(found)
		s.Equal("Phone", p.Name)
		s.Equal(700.0, p.Price)
		_, found = s.store.FindByID("other")
		s.False(found)
		s.Equal([]string{"1", "2", "3"}, ids(s.store.FindAll()))
	})

	s.Run("Missing changes nothing", func() {
		before := s.store.FindAll()

		ok := s.store.Update("999", Product{Name: "Ghost"})

		s.False(ok)
		s.Equal(before, s.store.FindAll())
	})
}

func (s *ProductStoreSuite) TestRemove() {
	s.Run("Existing", func() {
		// when
		ok := s.store.Remove("2")

		// then
		s.True(ok)
		s.Equal(2, s.store.Len())
		s.Equal([]string{"1", "3"}, ids(s.store.FindAll()))
		_, found := s.store.FindByID("2")
		s.False(found)
	})

	s.Run("Missing is a no-op", func() {
		ok := s.store.Remove("2")

		s.False(ok)
		s.Equal(2, s.store.Len())
	})
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	// given
	s := NewInMemoryStore()
	var wg sync.WaitGroup

	// when
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("p-%d", i)
			assert.NoError(t, s.Create(Product{ID: id}))
			s.FindAll()
			s.Update(id, Product{Name: "updated"})
		}()
	}
	wg.Wait()

	// then
	require.Equal(t, 50, s.Len())
	for _, p := range s.FindAll() {
		assert.Equal(t, "updated", p.Name)
	}
}

func TestNewInMemoryStore_Empty(t *testing.T) {
	s := NewInMemoryStore()

	assert.Equal(t, 0, s.Len())
	assert.NotNil(t, s.FindAll())
	assert.Empty(t, s.FindAll())
}

func TestProduct_Clone(t *testing.T) {
	// given
	p := Product{ID: "1", Extra: map[string]any{"dims": map[string]any{"w": 1.0}, "tags": []any{"a"}}}

	// when
	c := p.Clone()
	c.Extra["dims"].(map[string]any)["w"] = 2.0
	c.Extra["tags"].([]any)[0] = "b"

	// then
	assert.Equal(t, 1.0, p.Extra["dims"].(map[string]any)["w"])
	assert.Equal(t, "a", p.Extra["tags"].([]any)[0])
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
