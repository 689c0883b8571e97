package dto_test

import (
	"fmt"
	"math"
	"net/url"
	"testing"

	"katalog/internal/dto"
	"katalog/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v(price string, stock uint, active bool) models.Variant {
	return models.Variant{Price: decimal.RequireFromString(price), Stock: stock, IsActive: active}
}

func TestPriceRange(t *testing.T) {
	assert.Nil(t, dto.PriceRange(nil))
	assert.Nil(t, dto.PriceRange([]models.Variant{v("5.00", 1, false)}))

	single := dto.PriceRange([]models.Variant{v("99.99", 1, true)})
	require.NotNil(t, single)
	assert.Equal(t, "$99.99", *single)

	same := dto.PriceRange([]models.Variant{v("10", 1, true), v("10.00", 0, true)})
	require.NotNil(t, same)
	assert.Equal(t, "$10.00", *same)

	spread := dto.PriceRange([]models.Variant{v("20", 1, true), v("10.5", 1, true), v("1", 1, false)})
	require.NotNil(t, spread)
	assert.Equal(t, "$10.50 - $20.00", *spread)
}

func TestInStock(t *testing.T) {
	assert.False(t, dto.InStock(nil))
	assert.False(t, dto.InStock([]models.Variant{v("1", 0, true), v("1", 5, false)}))
	assert.True(t, dto.InStock([]models.Variant{v("1", 0, true), v("1", 1, true)}))
}

func TestPrimaryImage(t *testing.T) {
	assert.Nil(t, dto.PrimaryImage(nil))

	media := []models.Media{
		{URL: "https://cdn.example.com/manual.pdf", MediaType: "document"},
		{URL: "https://cdn.example.com/front.jpg", MediaType: models.MediaTypeImage},
		{URL: "https://cdn.example.com/back.jpg", MediaType: models.MediaTypeImage},
	}
	got := dto.PrimaryImage(media)
	require.NotNil(t, got)
	assert.Equal(t, "https://cdn.example.com/front.jpg", *got)
}

func TestNewProductListItem(t *testing.T) {
	p := models.Product{
		ID:         "p1",
		Name:       "Speaker",
		Slug:       "speaker",
		CategoryID: "c1",
		Category:   models.Category{ID: "c1", Name: "Audio"},
		IsActive:   true,
		Variants:   []models.Variant{v("99.99", 3, true)},
	}
	item := dto.NewProductListItem(p)
	assert.Equal(t, "c1", item.Category)
	assert.Equal(t, "Audio", item.CategoryName)
	assert.True(t, item.InStock)
	require.NotNil(t, item.PriceRange)
	assert.Equal(t, "$99.99", *item.PriceRange)
	assert.Nil(t, item.PrimaryImage)
	assert.NotNil(t, item.Attributes)
}

func ptr(s string) *string { return &s }

func TestCategoryTree_Descendants(t *testing.T) {
	all := []models.Category{
		{ID: "root", Name: "Root"},
		{ID: "a", Name: "A", ParentID: ptr("root")},
		{ID: "b", Name: "B", ParentID: ptr("root")},
		{ID: "a1", Name: "A1", ParentID: ptr("a")},
		{ID: "other", Name: "Other"},
	}
	tree := dto.NewCategoryTree(all)
	node := tree.Node(all[0])

	var ids []string
	var walk func(n dto.CategoryNode)
	walk = func(n dto.CategoryNode) {
		for _, c := range n.Children {
			ids = append(ids, c.ID)
			walk(c)
		}
	}
	walk(node)
	assert.ElementsMatch(t, []string{"a", "b", "a1"}, ids)

	leaf := tree.Node(all[3])
	assert.NotNil(t, leaf.Children)
	assert.Empty(t, leaf.Children)
}

func TestCategoryTree_DepthIsCapped(t *testing.T) {
	all := []models.Category{{ID: "c0"}}
	for i := 1; i <= dto.MaxCategoryDepth+5; i++ {
		all = append(all, models.Category{ID: fmt.Sprintf("c%d", i), ParentID: ptr(fmt.Sprintf("c%d", i-1))})
	}
	node := dto.NewCategoryTree(all).Node(all[0])

	depth := 0
	for len(node.Children) > 0 {
		node = node.Children[0]
		depth++
	}
	assert.Equal(t, dto.MaxCategoryDepth, depth)
}

func TestCategoryTree_DeepTaxonomyIsComplete(t *testing.T) {
	const levels = 20
	all := []models.Category{{ID: "c0"}}
	for i := 1; i <= levels; i++ {
		all = append(all, models.Category{ID: fmt.Sprintf("c%d", i), ParentID: ptr(fmt.Sprintf("c%d", i-1))})
	}
	node := dto.NewCategoryTree(all).Node(all[0])

	depth := 0
	for len(node.Children) > 0 {
		node = node.Children[0]
		depth++
	}
	assert.Equal(t, levels, depth)
	assert.Equal(t, "c20", node.ID)
}

func TestCategoryTree_CycleDoesNotRepeat(t *testing.T) {
	all := []models.Category{
		{ID: "x", ParentID: ptr("y")},
		{ID: "y", ParentID: ptr("x")},
	}
	node := dto.NewCategoryTree(all).Node(all[0])
	require.Len(t, node.Children, 1)
	assert.Equal(t, "y", node.Children[0].ID)
	assert.Empty(t, node.Children[0].Children)
}

func TestPageRequest(t *testing.T) {
	req := dto.PageRequest{Page: 1}
	req.Normalize()
	assert.Equal(t, dto.DefaultPageSize, req.PageSize)

	req = dto.PageRequest{Page: 2, PageSize: 1000}
	req.Normalize()
	assert.Equal(t, dto.MaxPageSize, req.PageSize)
	assert.Equal(t, 100, req.Offset())

	assert.True(t, dto.PageRequest{Page: 1, PageSize: 20}.Valid(0))
	assert.True(t, dto.PageRequest{Page: 2, PageSize: 20}.Valid(21))
	assert.False(t, dto.PageRequest{Page: 2, PageSize: 20}.Valid(20))
	assert.False(t, dto.PageRequest{Page: 0, PageSize: 20}.Valid(50))
	assert.False(t, dto.PageRequest{Page: 2, PageSize: 20}.Valid(0))
}

func TestPageRequest_HugePageDoesNotWrap(t *testing.T) {
	req := dto.PageRequest{Page: 922337203685477581, PageSize: 20}
	assert.Equal(t, math.MaxInt, req.Offset())
	assert.False(t, req.Valid(1))
	assert.False(t, dto.PageRequest{Page: math.MaxInt, PageSize: dto.MaxPageSize}.Valid(math.MaxInt64))
}

func TestNewPage_Links(t *testing.T) {
	base, err := url.Parse("http://example.com/api/products/?search=lamp&page=2")
	require.NoError(t, err)

	page := dto.NewPage([]int{1, 2}, 5, dto.PageRequest{Page: 2, PageSize: 2}, base)
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://example.com/api/products/?page=3&search=lamp", *page.Next)
	assert.Equal(t, "http://example.com/api/products/?search=lamp", *page.Previous)

	last := dto.NewPage([]int{5}, 5, dto.PageRequest{Page: 3, PageSize: 2}, base)
	assert.Nil(t, last.Next)

	empty := dto.NewPage[int](nil, 0, dto.PageRequest{Page: 1, PageSize: 20}, base)
	assert.NotNil(t, empty.Results)
	assert.Nil(t, empty.Next)
	assert.Nil(t, empty.Previous)
}

func TestProductRequest_ModelDefaults(t *testing.T) {
	inactive := false
	req := dto.ProductRequest{
		Name:     "Lamp",
		Category: "office",
		Variants: []dto.VariantRequest{
			{SKU: "L-1", Price: decimal.RequireFromString("12.345")},
			{SKU: "L-2", Price: decimal.RequireFromString("1"), IsActive: &inactive},
		},
	}
	p := req.Model()
	assert.True(t, p.IsActive)
	require.Len(t, p.Variants, 2)
	assert.True(t, p.Variants[0].IsActive)
	assert.Equal(t, "12.35", p.Variants[0].Price.StringFixed(2))
	assert.False(t, p.Variants[1].IsActive)
}
