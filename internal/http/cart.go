package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type cartProductReq struct {
	ID       string   `json:"id" binding:"required"`
	Name     string   `json:"name" binding:"required"`
	Price    *float64 `json:"price" binding:"required,gte=0"`
	Image    string   `json:"image"`
	Category string   `json:"category"`
}

type addToCartReq struct {
	Product  cartProductReq `json:"product"`
	Quantity *int           `json:"quantity" binding:"omitempty,min=1"`
}

type updateCartReq struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required,min=0"`
}

type syncCartReq struct {
	Items []domain.CartItem `json:"items" binding:"required"`
}

func (s *Server) cartResponse(c *gin.Context, op, message string, cart *domain.Cart) {
	s.metrics.CartOperation(op)
	body := gin.H{"cart": cart}
	if message != "" {
		body["message"] = message
	}
	respond(c, http.StatusOK, body)
}

// getCart godoc
// @Summary Get the caller's cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errorBody
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	cart, err := s.carts.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err, "cart")
		return
	}
	respond(c, http.StatusOK, gin.H{"cart": cart})
}

// addToCart godoc
// @Summary Add a product to the cart
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body addToCartReq true "Product and quantity"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorBody
// @Router /cart/add [post]
func (s *Server) addToCart(c *gin.Context) {
	var req addToCartReq
	if !s.bindJSON(c, &req) {
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	p := domain.ProductSnapshot{
		ID:       req.Product.ID,
		Name:     req.Product.Name,
		Price:    *req.Product.Price,
		Image:    req.Product.Image,
		Category: req.Product.Category,
	}
	cart, err := s.carts.AddItem(c.Request.Context(), currentUserID(c), p, qty)
	if err != nil {
		s.fail(c, err, "cart")
		return
	}
	s.cartResponse(c, "add", "Item added to cart", cart)
}

// updateCartItem godoc
// @Summary Set the quantity of a cart line
// @Description A quantity of 0 removes the line.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body updateCartReq true "Product and quantity"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorBody
// @Failure 404 {object} errorBody
// @Router /cart/update [put]
func (s *Server) updateCartItem(c *gin.Context) {
	var req updateCartReq
	if !s.bindJSON(c, &req) {
		return
	}
	cart, err := s.carts.UpdateQuantity(c.Request.Context(), currentUserID(c), req.ProductID, *req.Quantity)
	if err != nil {
		s.fail(c, err, "cart")
		return
	}
	s.cartResponse(c, "update", "Cart updated", cart)
}

// removeFromCart godoc
// @Summary Remove a line from the cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errorBody
// @Router /cart/remove/{productId} [delete]
func (s *Server) removeFromCart(c *gin.Context) {
	cart, err := s.carts.RemoveItem(c.Request.Context(), currentUserID(c), c.Param("productId"))
	if err != nil {
		s.fail(c, err, "cart")
		return
	}
	s.cartResponse(c, "remove", "Item removed from cart", cart)
}

// clearCart godoc
// @Summary Empty the cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errorBody
// @Router /cart/clear [delete]
func (s *Server) clearCart(c *gin.Context) {
	cart, err := s.carts.Clear(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err, "cart")
		return
	}
	s.cartResponse(c, "clear", "Cart cleared", cart)
}

// syncCart godoc
// @Summary Replace the cart with a client-side copy
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body syncCartReq true "Items"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorBody
// @Router /cart/sync [post]
func (s *Server) syncCart(c *gin.Context) {
	var req syncCartReq
	if !s.bindJSON(c, &req) {
		return
	}
	cart, err := s.carts.Sync(c.Request.Context(), currentUserID(c), req.Items)
	if err != nil {
		s.fail(c, err, "cart")
		return
	}
	s.cartResponse(c, "sync", "Cart synced", cart)
}
