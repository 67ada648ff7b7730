package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopfront-dev/shopfront/internal/models"
)

// AttributeInput is a name/value pair in a product request
type AttributeInput struct {
	Name  string `json:"name" validate:"required,max=100,attrname"`
	Value string `json:"value" validate:"max=1000"`
}

// ProductRequest represents a create or update request. On update, a nil
// Attributes list keeps the stored attributes.
type ProductRequest struct {
	Name          string           `json:"name" validate:"required,max=200"`
	Description   string           `json:"description" validate:"max=4000"`
	Price         float64          `json:"price" validate:"gte=0"`
	Stock         int              `json:"stock" validate:"gte=0"`
	ImageURL      string           `json:"imageUrl" validate:"omitempty,url"`
	ProductTypeID string           `json:"productTypeId" validate:"required"`
	Attributes    []AttributeInput `json:"attributes" validate:"dive"`
}

// ProductGroup is one entry of the by-type listing
type ProductGroup struct {
	ProductType ProductTypeDetail `json:"productType"`
	Products    []models.Product  `json:"products"`
}

// ProductTypeDetail represents a product type in responses
type ProductTypeDetail struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) bindProductRequest(c *gin.Context) (*ProductRequest, bool) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	// Verify the product type exists
	var productType models.ProductType
	if err := models.FindByID(s.db, req.ProductTypeID, &productType); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown product type"})
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find product type")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}

	return &req, true
}

func (s *Server) findProduct(c *gin.Context) (*models.Product, bool) {
	id := c.Param("id")

	var product models.Product
	if err := models.FindByID(s.db, id, &product); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return nil, false
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("Failed to find product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &product, true
}

func replaceAttributes(tx *gorm.DB, productID string, attrs []AttributeInput) error {
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductAttribute{}).Error; err != nil {
		return err
	}
	for _, a := range attrs {
		attr := &models.ProductAttribute{ProductID: productID, Name: a.Name, Value: a.Value}
		if err := tx.Omit(clause.Associations).Create(attr).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) listProductsByType(c *gin.Context) {
	var types []models.ProductType
	err := s.db.
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Order("name ASC").
		Find(&types).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	groups := make([]ProductGroup, 0, len(types))
	for _, t := range types {
		products := t.Products
		if products == nil {
			products = []models.Product{}
		}
		groups = append(groups, ProductGroup{
			ProductType: ProductTypeDetail{ID: t.ID, Name: t.Name},
			Products:    products,
		})
	}

	c.JSON(http.StatusOK, groups)
}

func (s *Server) getProduct(c *gin.Context) {
	product, ok := s.findProduct(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) getProductAttributes(c *gin.Context) {
	product, ok := s.findProduct(c)
	if !ok {
		return
	}

	attrs := []models.ProductAttribute{}
	if err := s.db.Where("product_id = ?", product.ID).Order("name ASC").Find(&attrs).Error; err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID).Msg("Failed to list attributes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, attrs)
}

func (s *Server) createProduct(c *gin.Context) {
	req, ok := s.bindProductRequest(c)
	if !ok {
		return
	}

	product := &models.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Stock:         req.Stock,
		ImageURL:      req.ImageURL,
		ProductTypeID: req.ProductTypeID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(product).Error; err != nil {
			return err
		}
		return replaceAttributes(tx, product.ID, req.Attributes)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("product_id", product.ID).
		Str("created_by", sessionData.UserID).
		Msg("Product created")

	c.JSON(http.StatusCreated, product)
}

func (s *Server) updateProduct(c *gin.Context) {
	product, ok := s.findProduct(c)
	if !ok {
		return
	}

	req, ok := s.bindProductRequest(c)
	if !ok {
		return
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Stock = req.Stock
	product.ImageURL = req.ImageURL
	product.ProductTypeID = req.ProductTypeID

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(product).Error; err != nil {
			return err
		}
		if req.Attributes == nil {
			return nil
		}
		return replaceAttributes(tx, product.ID, req.Attributes)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID).Msg("Failed to update product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("product_id", product.ID).
		Str("updated_by", sessionData.UserID).
		Msg("Product updated")

	c.JSON(http.StatusOK, product)
}

func (s *Server) deleteProduct(c *gin.Context) {
	product, ok := s.findProduct(c)
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductAttribute{}).Error; err != nil {
			return err
		}
		return tx.Delete(product).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID).Msg("Failed to delete product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("product_id", product.ID).
		Str("deleted_by", sessionData.UserID).
		Msg("Product deleted")

	c.Status(http.StatusNoContent)
}

func (s *Server) listProductTypes(c *gin.Context) {
	var types []models.ProductType
	if err := s.db.Order("name ASC").Find(&types).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list product types")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	details := make([]ProductTypeDetail, len(types))
	for i, t := range types {
		details[i] = ProductTypeDetail{ID: t.ID, Name: t.Name}
	}

	c.JSON(http.StatusOK, details)
}
