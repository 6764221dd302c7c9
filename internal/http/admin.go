package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type setRoleReq struct {
	Role string `json:"role" binding:"required"`
}

type analyticsQuery struct {
	Months *int `form:"months" json:"months"`
	Top    *int `form:"top" json:"top"`
}

// listAllOrders godoc
// @Summary List every order
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} errorBody
// @Router /admin/orders [get]
func (s *Server) listAllOrders(c *gin.Context) {
	list, err := s.orders.List(c.Request.Context())
	if err != nil {
		s.fail(c, err, "order")
		return
	}
	respond(c, http.StatusOK, gin.H{"results": len(list), "orders": list})
}

// updateOrderStatus godoc
// @Summary Move an order through its lifecycle
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param input body updateStatusReq true "New status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorBody
// @Failure 404 {object} errorBody
// @Failure 409 {object} errorBody
// @Router /admin/orders/{id}/status [put]
func (s *Server) updateOrderStatus(c *gin.Context) {
	var req updateStatusReq
	if !s.bindJSON(c, &req) {
		return
	}
	o, changed, err := s.orders.UpdateStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		s.fail(c, err, "order")
		return
	}
	if changed {
		s.metrics.OrderStatusChanged(string(o.Status))
	}
	respond(c, http.StatusOK, gin.H{"message": "Order status updated", "order": o})
}

// listUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /admin/users [get]
func (s *Server) listUsers(c *gin.Context) {
	list, err := s.users.List(c.Request.Context())
	if err != nil {
		s.fail(c, err, "user")
		return
	}
	respond(c, http.StatusOK, gin.H{"results": len(list), "users": list})
}

// setUserRole godoc
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param input body setRoleReq true "Role"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorBody
// @Failure 404 {object} errorBody
// @Router /admin/users/{id}/role [put]
func (s *Server) setUserRole(c *gin.Context) {
	var req setRoleReq
	if !s.bindJSON(c, &req) {
		return
	}
	u, err := s.users.SetRole(c.Request.Context(), c.Param("id"), domain.Role(req.Role))
	if err != nil {
		s.fail(c, err, "user")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "Role updated", "user": u})
}

// deleteUser godoc
// @Summary Delete a user
// @Tags admin
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errorBody
// @Router /admin/users/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err, "user")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// getAnalytics godoc
// @Summary Sales dashboard
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param months query int false "Months of revenue history" default(6)
// @Param top query int false "Number of top categories and products" default(5)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorBody
// @Router /admin/analytics [get]
func (s *Server) getAnalytics(c *gin.Context) {
	var q analyticsQuery
	if !s.bindQuery(c, &q) {
		return
	}
	months, top := 6, 5
	if q.Months != nil {
		months = *q.Months
	}
	if q.Top != nil {
		top = *q.Top
	}
	report, err := s.analytics.Report(c.Request.Context(), months, top)
	if err != nil {
		s.fail(c, err, "analytics")
		return
	}
	respond(c, http.StatusOK, gin.H{"analytics": report})
}
