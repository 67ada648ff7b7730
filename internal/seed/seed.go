// Package seed loads users and catalog data from a YAML file into an empty
// development database.
package seed

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/models"
)

// File is the seed document layout
type File struct {
	Users        []User        `yaml:"users"`
	ProductTypes []ProductType `yaml:"productTypes"`
}

// User is a seeded account; the password is hashed on load
type User struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Admin    bool   `yaml:"admin"`
}

// ProductType is a seeded product type with its products
type ProductType struct {
	Name     string    `yaml:"name"`
	Products []Product `yaml:"products"`
}

// Product is a seeded product
type Product struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Price       float64           `yaml:"price"`
	Stock       int               `yaml:"stock"`
	ImageURL    string            `yaml:"imageUrl"`
	Attributes  map[string]string `yaml:"attributes"`
}

// Parse decodes a seed document
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("seed user #%d: email and password are required", i+1)
		}
	}
	for i, pt := range f.ProductTypes {
		if pt.Name == "" {
			return nil, fmt.Errorf("seed product type #%d: name is required", i+1)
		}
	}

	return &f, nil
}

// LoadFile reads and applies a seed file. Seeding is skipped when any user
// already exists so restarts never duplicate data.
func LoadFile(db *gorm.DB, path string, logger zerolog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		logger.Info().Int64("users", count).Msg("Database already populated, skipping seed")
		return nil
	}

	return Apply(db, f, logger)
}

// Apply inserts the seed document in a single transaction
func Apply(db *gorm.DB, f *File, logger zerolog.Logger) error {
	var products int
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, u := range f.Users {
			hash, err := auth.HashPassword(u.Password)
			if err != nil {
				return err
			}
			user := &models.User{
				Email:        u.Email,
				PasswordHash: hash,
				Name:         u.Name,
				IsAdmin:      u.Admin,
			}
			if err := tx.Create(user).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", u.Email, err)
			}
		}

		for _, pt := range f.ProductTypes {
			productType := &models.ProductType{Name: pt.Name}
			if err := tx.Create(productType).Error; err != nil {
				return fmt.Errorf("failed to create product type %s: %w", pt.Name, err)
			}

			for _, p := range pt.Products {
				product := &models.Product{
					Name:          p.Name,
					Description:   p.Description,
					Price:         p.Price,
					Stock:         p.Stock,
					ImageURL:      p.ImageURL,
					ProductTypeID: productType.ID,
				}
				if err := tx.Create(product).Error; err != nil {
					return fmt.Errorf("failed to create product %s: %w", p.Name, err)
				}

				for name, value := range p.Attributes {
					attr := &models.ProductAttribute{ProductID: product.ID, Name: name, Value: value}
					if err := tx.Create(attr).Error; err != nil {
						return fmt.Errorf("failed to create attribute %s: %w", name, err)
					}
				}
				products++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info().
		Int("users", len(f.Users)).
		Int("product_types", len(f.ProductTypes)).
		Int("products", products).
		Msg("Seed data loaded")
	return nil
}
