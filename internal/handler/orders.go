package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/security"
	"github.com/yourorg/storefront/internal/security/auth"
	"github.com/yourorg/storefront/internal/security/middleware"
	"github.com/yourorg/storefront/internal/service"
)

// CheckoutRequest places an order against one retailer's inventory.
type CheckoutRequest struct {
	RetailerID string                `json:"retailerId"`
	Lines      []service.LineRequest `json:"lines"`
}

// UpdateStatusRequest advances an order one step.
type UpdateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
	Note   string             `json:"note"`
}

// CancelRequest carries an optional cancellation note.
type CancelRequest struct {
	Note string `json:"note"`
}

// OrderHandler serves the order endpoints.
type OrderHandler struct {
	orderService *service.OrderService
	authz        *security.AuthorizationService
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderService *service.OrderService, authz *security.AuthorizationService, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{orderService: orderService, authz: authz, logger: logger}
}

// Checkout handles POST /api/orders.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, h.logger, domain.ErrInvalidToken)
		return
	}
	if !h.authz.Require(claims.Role, security.PermPlaceOrder, claims.UserID) {
		respondError(w, h.logger, domain.ErrForbidden)
		return
	}

	var req CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	order, err := h.orderService.Checkout(r.Context(), claims.UserID, req.RetailerID, req.Lines)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusCreated, "order placed", order)
}

// Get handles GET /api/orders/{id}. Only the buyer, the seller, or an admin
// may view an order.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, h.logger, domain.ErrInvalidToken)
		return
	}

	order, err := h.orderService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if !h.canView(claims, order) {
		respondError(w, h.logger, domain.ErrForbidden)
		return
	}

	respond(w, http.StatusOK, "ok", order)
}

// List handles GET /api/orders, returning the caller's own orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, h.logger, domain.ErrInvalidToken)
		return
	}

	orders, err := h.orderService.ListByCustomer(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "ok", orders)
}

// UpdateStatus handles POST /api/orders/{id}/status. Sellers drive the
// fulfillment progression.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, h.logger, domain.ErrInvalidToken)
		return
	}
	if !h.authz.Require(claims.Role, security.PermUpdateOrder, claims.UserID) {
		respondError(w, h.logger, domain.ErrForbidden)
		return
	}

	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), r.PathValue("id"), req.Status, req.Note)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "status updated", order)
}

// Cancel handles POST /api/orders/{id}/cancel. Customers cancel their own
// orders; sellers and admins may cancel any order they can view.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, h.logger, domain.ErrInvalidToken)
		return
	}

	var req CancelRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, h.logger, err)
			return
		}
	}

	order, err := h.orderService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if !h.canView(claims, order) {
		respondError(w, h.logger, domain.ErrForbidden)
		return
	}
	if order.CustomerID == claims.UserID && !h.authz.HasPermission(claims.Role, security.PermCancelOwnOrder) {
		respondError(w, h.logger, domain.ErrForbidden)
		return
	}

	cancelled, err := h.orderService.Cancel(r.Context(), order.ID, req.Note)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "order cancelled", cancelled)
}

// Pay handles POST /api/orders/{id}/pay, recording a successful payment.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, h.logger, domain.ErrInvalidToken)
		return
	}

	order, err := h.orderService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if order.CustomerID != claims.UserID && !h.authz.HasPermission(claims.Role, security.PermManageUsers) {
		respondError(w, h.logger, domain.ErrForbidden)
		return
	}

	paid, err := h.orderService.MarkPaid(r.Context(), order.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "payment recorded", paid)
}

// canView restricts order visibility to its two parties and admins.
func (h *OrderHandler) canView(claims *auth.Claims, order *domain.Order) bool {
	if order.CustomerID == claims.UserID || order.RetailerID == claims.UserID {
		return true
	}
	return h.authz.HasPermission(claims.Role, security.PermManageUsers)
}
