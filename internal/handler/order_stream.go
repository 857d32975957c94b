package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourorg/storefront/internal/domain"
	"github.com/yourorg/storefront/internal/featureflags"
	"github.com/yourorg/storefront/internal/security"
	"github.com/yourorg/storefront/internal/security/middleware"
	"github.com/yourorg/storefront/internal/service"
)

// OrderStreamHandler pushes order status changes over a websocket. Browsers
// cannot set an Authorization header on the upgrade request, so the access
// token travels in the query string instead.
type OrderStreamHandler struct {
	orderService   *service.OrderService
	verifier       middleware.AccessVerifier
	authz          *security.AuthorizationService
	logger         *slog.Logger
	allowedOrigins []string
	pollInterval   time.Duration
}

// NewOrderStreamHandler creates a new order stream handler.
func NewOrderStreamHandler(
	orderService *service.OrderService,
	verifier middleware.AccessVerifier,
	authz *security.AuthorizationService,
	logger *slog.Logger,
	allowedOrigins []string,
) *OrderStreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderStreamHandler{
		orderService:   orderService,
		verifier:       verifier,
		authz:          authz,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		pollInterval:   2 * time.Second,
	}
}

// statusUpdate is one websocket frame.
type statusUpdate struct {
	OrderID       string               `json:"orderId"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	History       []domain.StatusEntry `json:"history"`
}

func (h *OrderStreamHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/orders/{id}?token=...
func (h *OrderStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !featureflags.Enabled(featureflags.OrderStream) {
		http.Error(w, "order stream disabled", http.StatusNotFound)
		return
	}

	orderID := r.PathValue("id")
	if orderID == "" {
		http.Error(w, "missing order id", http.StatusBadRequest)
		return
	}

	claims, err := h.verifier.VerifyAccess(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	order, err := h.orderService.Get(r.Context(), orderID)
	if err != nil {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if order.CustomerID != claims.UserID && order.RetailerID != claims.UserID &&
		!h.authz.HasPermission(claims.Role, security.PermManageUsers) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	h.stream(r, ws, order)
}

// stream sends the current state immediately, then pushes a frame whenever the
// status or payment status changes, until the order is terminal or the client
// leaves.
func (h *OrderStreamHandler) stream(r *http.Request, ws *websocket.Conn, order *domain.Order) {
	ctx := r.Context()

	if err := ws.WriteJSON(h.frame(order)); err != nil {
		return
	}

	lastStatus := order.Status
	lastPayment := order.PaymentStatus

	poll := time.NewTicker(h.pollInterval)
	defer poll.Stop()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			_ = ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		case <-poll.C:
			current, err := h.orderService.Get(ctx, order.ID)
			if err != nil {
				h.logger.Error("failed to reload order for stream",
					slog.String("order_id", order.ID),
					slog.String("error", err.Error()),
				)
				return
			}
			if current.Status == lastStatus && current.PaymentStatus == lastPayment {
				continue
			}
			lastStatus = current.Status
			lastPayment = current.PaymentStatus

			if err := ws.WriteJSON(h.frame(current)); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Debug("websocket closed", slog.String("order_id", order.ID))
				}
				return
			}
			if current.Status.Terminal() {
				return
			}
		}
	}
}

func (h *OrderStreamHandler) frame(order *domain.Order) statusUpdate {
	return statusUpdate{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		History:       order.History,
	}
}
