package seed_test

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"katalog/internal/database"
	"katalog/internal/logger"
	"katalog/internal/models"
	"katalog/internal/seed"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeder_Run(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	s := seed.New(db, rand.New(rand.NewSource(42)), logger.Nop())
	ctx := context.Background()

	res, err := s.Run(ctx, seed.Options{Count: 40})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Categories)
	assert.Equal(t, 40, res.Products)

	var products []models.Product
	require.NoError(t, db.Preload("Variants").Preload("Media").Find(&products).Error)
	require.Len(t, products, 40)

	slugs := map[string]bool{}
	for _, p := range products {
		assert.False(t, slugs[p.Slug], "duplicate slug %s", p.Slug)
		slugs[p.Slug] = true

		assert.GreaterOrEqual(t, len(p.Variants), 1)
		assert.LessOrEqual(t, len(p.Variants), 3)
		for _, v := range p.Variants {
			assert.True(t, strings.HasPrefix(v.SKU, strings.ToUpper(p.Slug)+"-0"), v.SKU)
			assert.True(t, v.Price.GreaterThanOrEqual(decimal.NewFromInt(10)), v.Price.String())
			assert.True(t, v.Price.LessThanOrEqual(decimal.NewFromInt(500)), v.Price.String())
			assert.LessOrEqual(t, v.Stock, uint(100))
		}

		assert.GreaterOrEqual(t, len(p.Media), 1)
		assert.LessOrEqual(t, len(p.Media), 3)
		for _, m := range p.Media {
			assert.Equal(t, models.MediaTypeImage, m.MediaType)
		}
	}

	// A second run reuses the categories.
	res, err = s.Run(ctx, seed.Options{Count: 5})
	require.NoError(t, err)
	assert.Zero(t, res.Categories)

	var categories, total int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	require.NoError(t, db.Model(&models.Product{}).Count(&total).Error)
	assert.Equal(t, int64(6), categories)
	assert.Equal(t, int64(45), total)
}

func TestSeeder_Clear(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	s := seed.New(db, rand.New(rand.NewSource(7)), logger.Nop())
	ctx := context.Background()

	_, err = s.Run(ctx, seed.Options{Count: 10})
	require.NoError(t, err)

	res, err := s.Run(ctx, seed.Options{Count: 3, Clear: true})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Categories)

	var products, variants int64
	require.NoError(t, db.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, db.Model(&models.Variant{}).Count(&variants).Error)
	assert.Equal(t, int64(3), products)
	assert.Equal(t, int64(res.Variants), variants)
}

func TestSeeder_NegativeCount(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	_, err = seed.New(db, rand.New(rand.NewSource(1)), logger.Nop()).Run(context.Background(), seed.Options{Count: -1})
	assert.Error(t, err)
}
