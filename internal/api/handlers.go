package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/farmbe-store/internal/api/middleware"
	"github.com/example/farmbe-store/internal/command"
	"github.com/example/farmbe-store/internal/domain"
	"github.com/example/farmbe-store/internal/domain/order"
	"github.com/example/farmbe-store/internal/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	logger       *zap.Logger
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		logger:       logger,
	}
}

// Inventory Handlers

func (h *Handlers) ListInventory(w http.ResponseWriter, r *http.Request) {
	products := h.queryHandler.ListProducts(r.Context(), r.URL.Query().Get("category"))
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.Categories(r.Context()))
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	p, ok := h.queryHandler.GetProduct(r.Context(), id)
	if !ok {
		respondJSONError(w, "product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateProduct
	if !h.decode(w, r, &cmd) {
		return
	}

	inventory, err := h.cmdHandler.CreateProduct(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, inventory)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var cmd command.UpdateProduct
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.ProductID = id

	if err := h.cmdHandler.UpdateProduct(r.Context(), cmd); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondProduct(w, r, id)
}

func (h *Handlers) SetStock(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var cmd command.SetStock
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.ProductID = id

	if err := h.cmdHandler.SetStock(r.Context(), cmd); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondProduct(w, r, id)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.cmdHandler.DeleteProduct(r.Context(), command.DeleteProduct{ProductID: id}); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Order Handlers

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	filter := query.OrderFilter{Customer: r.URL.Query().Get("customer")}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		filter.Status = status
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListOrders(r.Context(), filter))
}

func (h *Handlers) LatestOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.queryHandler.LatestOrder(r.Context(), r.URL.Query().Get("customer"))
	if !ok {
		respondJSONError(w, "no orders yet", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.queryHandler.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		respondJSONError(w, "order not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// PlaceOrder checks out a cart. The caller's session name is the customer
// unless the body names one.
func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.PlaceOrder
	if !h.decode(w, r, &cmd) {
		return
	}
	if strings.TrimSpace(cmd.Customer) == "" {
		if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
			cmd.Customer = claims.Name
		}
	}

	o, err := h.cmdHandler.PlaceOrder(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateOrderStatus
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.OrderID = chi.URLParam(r, "id")

	if err := h.cmdHandler.UpdateOrderStatus(r.Context(), cmd); err != nil {
		h.respondError(w, r, err)
		return
	}

	o, ok := h.queryHandler.GetOrder(r.Context(), cmd.OrderID)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Dashboard

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	d, err := h.queryHandler.Dashboard(r.Context(), claims.Role, claims.Name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeBody(r, dst); err != nil {
		respondJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// respondProduct re-reads a product after a write. Lenient stores accept
// writes to unknown ids, which leaves nothing to return.
func (h *Handlers) respondProduct(w http.ResponseWriter, r *http.Request, id int) {
	p, ok := h.queryHandler.GetProduct(r.Context(), id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func productIDParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, domain.InvalidInputf("product id %q must be a positive integer", raw)
	}
	return id, nil
}
