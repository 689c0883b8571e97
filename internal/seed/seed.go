// Package seed fills the catalog with generated sample data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"katalog/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Options control a seeding run.
type Options struct {
	// Count is the number of products to create.
	Count int
	// Clear removes every product and category first.
	Clear bool
}

// Result summarises what a run created.
type Result struct {
	Categories int
	Products   int
	Variants   int
	Media      int
}

type categorySeed struct {
	name        string
	description string
}

var categorySeeds = []categorySeed{
	{"Electronics", "Electronic devices and gadgets"},
	{"Clothing", "Fashion and apparel"},
	{"Home & Garden", "Home improvement and gardening"},
	{"Sports", "Sports and outdoor equipment"},
	{"Books", "Books and educational materials"},
	{"Toys", "Toys and games for all ages"},
}

type productTemplate struct {
	names        []string
	descriptions []string
	attributes   []models.Attributes
}

var productTemplates = []productTemplate{
	{
		names: []string{
			"Wireless %s Headphones", "Smart %s Watch", "Portable %s Speaker",
			"Gaming %s Mouse", "Bluetooth %s Earbuds",
		},
		descriptions: []string{
			"High-quality wireless headphones with noise cancellation and long battery life.",
			"Smart wearable device with fitness tracking and notifications.",
			"Portable speaker with excellent sound quality and waterproof design.",
			"Precision gaming mouse with customizable RGB lighting.",
			"True wireless earbuds with active noise cancellation.",
		},
		attributes: []models.Attributes{
			{"brand": "TechBrand", "warranty": "2 years", "connectivity": "Bluetooth 5.0"},
			{"brand": "SmartWear", "warranty": "1 year", "connectivity": "Bluetooth 5.2"},
			{"brand": "AudioPro", "warranty": "1 year", "connectivity": "Bluetooth 4.2"},
			{"brand": "GameGear", "warranty": "2 years", "connectivity": "USB"},
			{"brand": "SoundMax", "warranty": "1 year", "connectivity": "Bluetooth 5.0"},
		},
	},
	{
		names: []string{
			"%s Cotton T-Shirt", "Denim %s Jeans", "Wool %s Sweater",
			"Leather %s Jacket", "Silk %s Scarf",
		},
		descriptions: []string{
			"Comfortable cotton t-shirt perfect for everyday wear.",
			"Classic denim jeans with modern fit and style.",
			"Warm wool sweater for cold weather comfort.",
			"Genuine leather jacket with timeless design.",
			"Luxurious silk scarf with elegant patterns.",
		},
		attributes: []models.Attributes{
			{"material": "100% Cotton", "care": "Machine wash", "origin": "Made in USA"},
			{"material": "98% Cotton, 2% Elastane", "care": "Machine wash", "origin": "Made in USA"},
			{"material": "100% Wool", "care": "Hand wash", "origin": "Made in Italy"},
			{"material": "100% Leather", "care": "Professional clean", "origin": "Made in Italy"},
			{"material": "100% Silk", "care": "Dry clean", "origin": "Made in France"},
		},
	},
	{
		names: []string{
			"Garden %s Plant Pot", "LED %s Light Strip", "Wooden %s Table",
			"Ceramic %s Vase", "Metal %s Lamp",
		},
		descriptions: []string{
			"Decorative plant pot perfect for indoor and outdoor plants.",
			"Energy-efficient LED light strip with remote control.",
			"Handcrafted wooden table with natural finish.",
			"Beautiful ceramic vase for flowers and decoration.",
			"Modern metal lamp with adjustable brightness.",
		},
		attributes: []models.Attributes{
			{"material": "Ceramic", "size": "Medium", "style": "Modern"},
			{"material": "Plastic", "power": "12W", "style": "Contemporary"},
			{"material": "Oak Wood", "size": "Large", "style": "Rustic"},
			{"material": "Ceramic", "size": "Small", "style": "Classic"},
			{"material": "Aluminum", "power": "8W", "style": "Minimalist"},
		},
	},
}

var (
	colors       = []string{"Black", "White", "Red", "Blue", "Green", "Yellow", "Purple", "Orange"}
	variantSizes = []string{"S", "M", "L", "XL", "XXL"}
	imageURLs    = []string{
		"https://picsum.photos/400/400?random=1",
		"https://picsum.photos/400/400?random=2",
		"https://picsum.photos/400/400?random=3",
		"https://picsum.photos/400/400?random=4",
		"https://picsum.photos/400/400?random=5",
	}
)

// Seeder generates sample categories and products.
type Seeder struct {
	db  *gorm.DB
	rnd *rand.Rand
	log zerolog.Logger
}

// New creates a Seeder drawing from rnd.
func New(db *gorm.DB, rnd *rand.Rand, log zerolog.Logger) *Seeder {
	return &Seeder{db: db, rnd: rnd, log: log.With().Str("component", "seed").Logger()}
}

// Run creates the fixed categories (reusing existing ones) and opts.Count
// products in a single transaction.
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Count < 0 {
		return Result{}, errors.New("count must not be negative")
	}

	var res Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Clear {
			s.log.Info().Msg("clearing existing products")
			// Variants and media go with their products through the cascade.
			if err := tx.Where("1 = 1").Delete(&models.Product{}).Error; err != nil {
				return fmt.Errorf("failed to clear products: %w", err)
			}
			if err := tx.Where("1 = 1").Delete(&models.Category{}).Error; err != nil {
				return fmt.Errorf("failed to clear categories: %w", err)
			}
		}

		categories, created, err := s.categories(tx)
		if err != nil {
			return err
		}
		res.Categories = created

		for i := 0; i < opts.Count; i++ {
			product, err := s.product(tx, categories)
			if err != nil {
				return err
			}
			if err := tx.Omit("Category").Create(product).Error; err != nil {
				return fmt.Errorf("failed to create product %q: %w", product.Slug, err)
			}
			res.Products++
			res.Variants += len(product.Variants)
			res.Media += len(product.Media)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.log.Info().
		Int("categories", res.Categories).
		Int("products", res.Products).
		Int("variants", res.Variants).
		Int("media", res.Media).
		Msg("seeding finished")
	return res, nil
}

func (s *Seeder) categories(tx *gorm.DB) ([]models.Category, int, error) {
	categories := make([]models.Category, 0, len(categorySeeds))
	created := 0
	for _, cs := range categorySeeds {
		category := models.Category{Name: cs.name, Description: cs.description}
		res := tx.Where(models.Category{Name: cs.name}).
			Attrs(models.Category{Description: cs.description}).
			FirstOrCreate(&category)
		if res.Error != nil {
			return nil, 0, fmt.Errorf("failed to create category %q: %w", cs.name, res.Error)
		}
		if res.RowsAffected > 0 {
			created++
			s.log.Debug().Str("category", category.Name).Msg("category created")
		}
		categories = append(categories, category)
	}
	return categories, created, nil
}

func (s *Seeder) product(tx *gorm.DB, categories []models.Category) (*models.Product, error) {
	tmpl := productTemplates[s.rnd.Intn(len(productTemplates))]
	name := fmt.Sprintf(pick(s.rnd, tmpl.names), pick(s.rnd, colors))

	slug, err := uniqueSlug(tx, models.Slugify(name))
	if err != nil {
		return nil, err
	}
	category := pick(s.rnd, categories)

	product := &models.Product{
		Name:        name,
		Slug:        slug,
		Description: pick(s.rnd, tmpl.descriptions),
		CategoryID:  category.ID,
		Attributes:  pick(s.rnd, tmpl.attributes),
		IsActive:    s.rnd.Intn(4) != 0,
	}

	variants := 1 + s.rnd.Intn(3)
	for i := 1; i <= variants; i++ {
		variantName := ""
		if variants > 1 {
			variantName = fmt.Sprintf("Variant %d", i)
		}
		product.Variants = append(product.Variants, models.Variant{
			SKU:  fmt.Sprintf("%s-%02d", strings.ToUpper(slug), i),
			Name: variantName,
			Attributes: models.Attributes{
				"size":   pick(s.rnd, variantSizes),
				"weight": fmt.Sprintf("%.1f kg", 0.1+s.rnd.Float64()*4.9),
			},
			Price:    decimal.NewFromFloat(10 + s.rnd.Float64()*490).Round(2),
			Stock:    uint(s.rnd.Intn(101)),
			IsActive: s.rnd.Intn(4) != 0,
		})
	}

	media := 1 + s.rnd.Intn(3)
	for i := 0; i < media; i++ {
		product.Media = append(product.Media, models.Media{
			URL:       pick(s.rnd, imageURLs),
			AltText:   fmt.Sprintf("%s - Image %d", name, i+1),
			MediaType: models.MediaTypeImage,
			SortOrder: uint(i),
		})
	}
	return product, nil
}

// uniqueSlug appends -1, -2, ... to base until no product uses it.
func uniqueSlug(tx *gorm.DB, base string) (string, error) {
	slug := base
	for n := 1; ; n++ {
		var count int64
		if err := tx.Model(&models.Product{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", slug, err)
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}

func pick[T any](rnd *rand.Rand, items []T) T {
	return items[rnd.Intn(len(items))]
}
