package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service"
)

type orderItemReq struct {
	ProductID   string   `json:"productId" binding:"required"`
	ProductName string   `json:"productName" binding:"required"`
	Quantity    int      `json:"quantity" binding:"required,min=1"`
	Price       *float64 `json:"price" binding:"required,gte=0"`
	Image       string   `json:"image"`
	Category    string   `json:"category"`
}

type shippingAddressReq struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode" binding:"required"`
	Phone   string `json:"phone"`
}

// createOrderReq without items checks out the caller's cart
type createOrderReq struct {
	Items           []orderItemReq     `json:"items" binding:"omitempty,dive"`
	ShippingAddress shippingAddressReq `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod" binding:"required"`
}

func (r createOrderReq) checkout() service.Checkout {
	a := r.ShippingAddress
	return service.Checkout{
		ShippingAddress: domain.ShippingAddress{
			Name: a.Name, Address: a.Address, City: a.City, State: a.State, ZipCode: a.ZipCode, Phone: a.Phone,
		},
		PaymentMethod: r.PaymentMethod,
	}
}

func (r createOrderReq) items() []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, domain.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       *it.Price,
			Image:       it.Image,
			Category:    it.Category,
		})
	}
	return out
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// createOrder godoc
// @Summary Place an order
// @Description Places an order from the given items, or from the caller's cart when items is omitted.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createOrderReq true "Order"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} errorBody
// @Failure 401 {object} errorBody
// @Router /orders [post]
func (s *Server) createOrder(c *gin.Context) {
	var req createOrderReq
	if !s.bindJSON(c, &req) {
		return
	}
	var (
		o   *domain.Order
		err error
	)
	if req.Items == nil {
		o, err = s.orders.Checkout(c.Request.Context(), currentUserID(c), req.checkout())
	} else {
		o, err = s.orders.Create(c.Request.Context(), currentUserID(c), req.items(), req.checkout())
	}
	if err != nil {
		s.fail(c, err, "order")
		return
	}
	s.metrics.OrderPlaced(o.Total)
	respond(c, http.StatusCreated, gin.H{"message": "Order placed successfully", "order": o})
}

// listMyOrders godoc
// @Summary List the caller's orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /orders [get]
func (s *Server) listMyOrders(c *gin.Context) {
	list, err := s.orders.ListByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err, "order")
		return
	}
	respond(c, http.StatusOK, gin.H{"results": len(list), "orders": list})
}

// getOrder godoc
// @Summary Get an order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errorBody
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	var (
		o   *domain.Order
		err error
	)
	if isAdmin(c) {
		o, err = s.orders.GetByID(c.Request.Context(), c.Param("id"))
	} else {
		o, err = s.orders.GetForUser(c.Request.Context(), currentUserID(c), c.Param("id"))
	}
	if err != nil {
		s.fail(c, err, "order")
		return
	}
	respond(c, http.StatusOK, gin.H{"order": o})
}

// cancelOrder godoc
// @Summary Cancel one of the caller's orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /orders/{id}/cancel [post]
func (s *Server) cancelOrder(c *gin.Context) {
	o, changed, err := s.orders.Cancel(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, "order")
		return
	}
	if changed {
		s.metrics.OrderStatusChanged(string(o.Status))
	}
	respond(c, http.StatusOK, gin.H{"message": "Order cancelled", "order": o})
}
