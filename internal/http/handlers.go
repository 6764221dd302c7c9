package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"
)

type productQuery struct {
	Category string   `form:"category" json:"category"`
	MinPrice *float64 `form:"minPrice" json:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice *float64 `form:"maxPrice" json:"maxPrice" binding:"omitempty,gte=0"`
	Search   string   `form:"search" json:"search"`
	Featured bool     `form:"featured" json:"featured"`
	Trending bool     `form:"trending" json:"trending"`
	Sort     string   `form:"sort" json:"sort"`
	Page     *int     `form:"page" json:"page" binding:"omitempty,min=1"`
	Limit    *int     `form:"limit" json:"limit" binding:"omitempty,min=1"`
}

type createProductReq struct {
	ID            string   `json:"id"`
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description" binding:"required"`
	Price         *float64 `json:"price" binding:"required,gte=0"`
	OriginalPrice *float64 `json:"originalPrice" binding:"omitempty,gte=0"`
	Category      string   `json:"category" binding:"required"`
	Image         string   `json:"image" binding:"required"`
	InStock       *bool    `json:"inStock"`
	Stock         int      `json:"stock" binding:"gte=0"`
	Rating        float64  `json:"rating" binding:"gte=0,lte=5"`
	Reviews       int      `json:"reviews" binding:"gte=0"`
	Featured      bool     `json:"featured"`
	Trending      bool     `json:"trending"`
}

func (r createProductReq) product() domain.Product {
	inStock := r.Stock > 0
	if r.InStock != nil {
		inStock = *r.InStock
	}
	return domain.Product{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		Price:         *r.Price,
		OriginalPrice: r.OriginalPrice,
		Category:      r.Category,
		Image:         r.Image,
		InStock:       inStock,
		Stock:         r.Stock,
		Rating:        r.Rating,
		Reviews:       r.Reviews,
		Featured:      r.Featured,
		Trending:      r.Trending,
	}
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// bindQuery is bindJSON for query strings
func (s *Server) bindQuery(c *gin.Context, req any) bool {
	err := c.ShouldBindQuery(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]service.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, service.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
		}
		s.fail(c, &service.ValidationError{Fields: fields}, "")
		return false
	}
	abortWith(c, http.StatusBadRequest, "invalid query parameters")
	return false
}

// listProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param category query string false "Category substring"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param search query string false "Name or description substring"
// @Param featured query bool false "Only featured"
// @Param trending query bool false "Only trending"
// @Param sort query string false "name, price-low, price-high, rating, newest"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorBody
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	var q productQuery
	if !s.bindQuery(c, &q) {
		return
	}
	f := service.ProductFilter{
		Category: q.Category,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Search:   q.Search,
		Featured: q.Featured,
		Trending: q.Trending,
		Sort:     repository.ProductSort(q.Sort),
	}
	if q.Page != nil {
		f.Page = *q.Page
	}
	if q.Limit != nil {
		f.Limit = *q.Limit
	}
	page, err := s.products.Find(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err, "product")
		return
	}
	respond(c, http.StatusOK, gin.H{
		"results":    len(page.Products),
		"pagination": pagination{Page: page.Page, Limit: page.Limit, Total: page.Total, Pages: page.Pages},
		"products":   page.Products,
	})
}

// getProduct godoc
// @Summary Get product by id
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errorBody
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	p, err := s.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err, "product")
		return
	}
	respond(c, http.StatusOK, gin.H{"product": p})
}

// createProduct godoc
// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createProductReq true "Product"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req createProductReq
	if !s.bindJSON(c, &req) {
		return
	}
	p, err := s.products.Create(c.Request.Context(), req.product())
	if err != nil {
		s.fail(c, err, "product")
		return
	}
	respond(c, http.StatusCreated, gin.H{"message": "Product created successfully", "product": p})
}

// updateProduct godoc
// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body service.ProductPatch true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorBody
// @Failure 404 {object} errorBody
// @Router /products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	var patch service.ProductPatch
	if !s.bindJSON(c, &patch) {
		return
	}
	p, err := s.products.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err, "product")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Product updated successfully", "product": p})
}

// deleteProduct godoc
// @Summary Delete product
// @Tags products
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errorBody
// @Router /products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err, "product")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// listCategories godoc
// @Summary Distinct product categories
// @Tags products
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /products/categories/list [get]
func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.products.Categories(c.Request.Context())
	if err != nil {
		s.fail(c, err, "category")
		return
	}
	respond(c, http.StatusOK, gin.H{"categories": cats})
}
