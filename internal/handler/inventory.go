package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/security"
	"github.com/yourorg/storefront/internal/security/middleware"
	"github.com/yourorg/storefront/internal/service"
)

// CreateRecordRequest lists a product for the calling seller.
type CreateRecordRequest struct {
	ProductID    string  `json:"productId"`
	InitialStock int     `json:"initialStock"`
	ReorderLevel int     `json:"reorderLevel"`
	SellingPrice float64 `json:"sellingPrice"`
}

// AdjustStockRequest applies a restock or correction delta.
type AdjustStockRequest struct {
	Delta int `json:"delta"`
}

// AddDiscountRequest attaches a discount to a record.
type AddDiscountRequest struct {
	Type        domain.DiscountType `json:"type"`
	Value       float64             `json:"value"`
	MinPurchase float64             `json:"minPurchase"`
	MaxDiscount float64             `json:"maxDiscount"`
	ValidFrom   time.Time           `json:"validFrom"`
	ValidUntil  time.Time           `json:"validUntil"`
}

// InventoryHandler serves the seller inventory endpoints.
type InventoryHandler struct {
	inventoryService *service.InventoryService
	authz            *security.AuthorizationService
	logger           *slog.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(inventoryService *service.InventoryService, authz *security.AuthorizationService, logger *slog.Logger) *InventoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InventoryHandler{inventoryService: inventoryService, authz: authz, logger: logger}
}

// requireSeller checks the manage-inventory permission and returns the
// caller's user ID, or "" after writing the error response.
func (h *InventoryHandler) requireSeller(w http.ResponseWriter, r *http.Request) string {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, h.logger, domain.ErrInvalidToken)
		return ""
	}
	if !h.authz.Require(claims.Role, security.PermManageInventory, claims.UserID) {
		respondError(w, h.logger, domain.ErrForbidden)
		return ""
	}
	return claims.UserID
}

// Create handles POST /api/inventory.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := h.requireSeller(w, r)
	if ownerID == "" {
		return
	}

	var req CreateRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	rec, err := h.inventoryService.CreateRecord(r.Context(), service.CreateRecordInput{
		ProductID:    req.ProductID,
		OwnerID:      ownerID,
		InitialStock: req.InitialStock,
		ReorderLevel: req.ReorderLevel,
		SellingPrice: req.SellingPrice,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusCreated, "record created", rec)
}

// List handles GET /api/inventory, returning the caller's records.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := h.requireSeller(w, r)
	if ownerID == "" {
		return
	}

	recs, err := h.inventoryService.ListByOwner(r.Context(), ownerID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "ok", recs)
}

// LowStock handles GET /api/inventory/low-stock.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	ownerID := h.requireSeller(w, r)
	if ownerID == "" {
		return
	}

	recs, err := h.inventoryService.ListLowStock(r.Context(), ownerID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "ok", recs)
}

// Get handles GET /api/inventory/{id}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.inventoryService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "ok", rec)
}

// AdjustStock handles POST /api/inventory/{id}/stock.
func (h *InventoryHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	ownerID := h.requireSeller(w, r)
	if ownerID == "" {
		return
	}

	var req AdjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	id := r.PathValue("id")
	if err := h.checkOwnership(r, id, ownerID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.inventoryService.AdjustStock(r.Context(), id, req.Delta); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "stock adjusted", nil)
}

// AddDiscount handles POST /api/inventory/{id}/discounts.
func (h *InventoryHandler) AddDiscount(w http.ResponseWriter, r *http.Request) {
	ownerID := h.requireSeller(w, r)
	if ownerID == "" {
		return
	}

	var req AddDiscountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	id := r.PathValue("id")
	if err := h.checkOwnership(r, id, ownerID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	d, err := h.inventoryService.AddDiscount(r.Context(), id, domain.Discount{
		Type:        req.Type,
		Value:       req.Value,
		MinPurchase: req.MinPurchase,
		MaxDiscount: req.MaxDiscount,
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
		IsActive:    true,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, "discount added", d)
}

// RemoveDiscount handles DELETE /api/inventory/{id}/discounts/{discountId}.
func (h *InventoryHandler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	ownerID := h.requireSeller(w, r)
	if ownerID == "" {
		return
	}

	id := r.PathValue("id")
	if err := h.checkOwnership(r, id, ownerID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.inventoryService.RemoveDiscount(r.Context(), id, r.PathValue("discountId")); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "discount removed", nil)
}

// Quote handles GET /api/inventory/quote?productId=..&ownerId=..&qty=N and is
// open to any authenticated caller.
func (h *InventoryHandler) Quote(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("productId")
	ownerID := r.URL.Query().Get("ownerId")
	qty, err := strconv.Atoi(r.URL.Query().Get("qty"))
	if err != nil || productID == "" || ownerID == "" {
		respondError(w, h.logger, domain.ErrValidation)
		return
	}

	price, err := h.inventoryService.Quote(r.Context(), productID, ownerID, qty)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "ok", map[string]float64{"price": price})
}

// checkOwnership rejects mutations of another seller's record. Admins skip the
// check via PermManageUsers.
func (h *InventoryHandler) checkOwnership(r *http.Request, recordID, ownerID string) error {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims != nil && h.authz.HasPermission(claims.Role, security.PermManageUsers) {
		return nil
	}
	rec, err := h.inventoryService.Get(r.Context(), recordID)
	if err != nil {
		return err
	}
	if rec.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	return nil
}
