package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User represents a storefront account
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name"`
	IsAdmin      bool      `json:"isAdmin" gorm:"not null;default:false"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// RefreshToken is an opaque, single-use token exchanged for a new token pair
type RefreshToken struct {
	BaseModel
	Token     string     `json:"-" gorm:"uniqueIndex;not null"`
	UserID    string     `json:"userId" gorm:"index;not null"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revokedAt"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Usable reports whether the refresh token can still be exchanged
func (r *RefreshToken) Usable(now time.Time) bool {
	return r.RevokedAt == nil && r.ExpiresAt.After(now)
}

// RevokedToken denylists an access token by jti until it would have expired
type RevokedToken struct {
	BaseModel
	JTI       string    `json:"jti" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"index;not null"`
}

// ProductType groups products in the catalog
type ProductType struct {
	BaseModel
	Name string `json:"name" gorm:"unique;not null"`

	// Relationships
	Products []Product `json:"-" gorm:"foreignKey:ProductTypeID"`
}

// Product represents a catalog entry
type Product struct {
	BaseModel
	Name          string    `json:"name" gorm:"not null"`
	Description   string    `json:"description" gorm:"type:text"`
	Price         float64   `json:"price" gorm:"not null;default:0"`
	Stock         int       `json:"stock" gorm:"not null;default:0"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	ProductTypeID string    `json:"productTypeId" gorm:"index;not null"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	// Relationships
	ProductType ProductType        `json:"-" gorm:"foreignKey:ProductTypeID;constraint:OnDelete:RESTRICT"`
	Attributes  []ProductAttribute `json:"-" gorm:"foreignKey:ProductID"`
}

// ProductAttribute is a name/value pair attached to a product
type ProductAttribute struct {
	BaseModel
	ProductID string `json:"-" gorm:"index;not null"`
	Name      string `json:"name" gorm:"not null"`
	Value     string `json:"value"`

	Product Product `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&User{}, &RefreshToken{}, &RevokedToken{},
		&ProductType{}, &Product{}, &ProductAttribute{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
