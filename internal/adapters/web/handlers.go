package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fulfillment-console/internal/app"
	"fulfillment-console/internal/core"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Handler holds the ApplicationService the routes delegate to.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(maxBodyBytes))

	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		// View state and the three aggregated views.
		r.Post("/api/view/stage", h.setStage)
		r.Post("/api/view/filter", h.setFilter)
		r.Post("/api/view/reload", h.reload)
		r.Get("/api/items", h.listItems)
		r.Get("/api/items/codes", h.listCodeGroups)
		r.Get("/api/orders/grouped", h.listOrderGroups)

		// Reference data.
		r.Get("/api/suppliers", h.listSuppliers)
		r.Get("/api/stock/{code}", h.stockDetail)

		// Batch-target selections.
		r.Get("/api/selections/{category}", h.getSelection)
		r.Post("/api/selections/{category}/toggle", h.toggleSelection)
		r.Post("/api/selections/{category}/toggle-all", h.toggleAllSelection)

		// Batch and single-item mutations.
		r.Post("/api/orders/{orderID}/freight", h.distributeFreight)
		r.Post("/api/orders/{orderID}/tracking", h.assignTracking)
		r.Post("/api/orders/{orderID}/status", h.changeStatus)
		r.Post("/api/orders/{orderID}/combined", h.applyCombined)
		r.Post("/api/orders/{orderID}/bulk-status", h.bulkStatus)
		r.Patch("/api/orders/{orderID}/items/{position}", h.updateItem)
		r.Post("/api/orders/{orderID}/items/{position}/partial-purchase", h.partialPurchase)
		r.Post("/api/orders/{orderID}/items/{position}/partial-shipment", h.partialShipment)

		// Order-level operations.
		r.Post("/api/orders/{orderID}/sales-invoices", h.attachSalesInvoice)
		r.Delete("/api/orders/{orderID}/sales-invoices/{filename}", h.detachSalesInvoice)
		r.Patch("/api/orders/{orderID}/address", h.updateAddress)
		r.With(h.RequireAdmin).Post("/api/orders/{orderID}/dispatch-flag", h.toggleDispatchFlag)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, "invalid request body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// urlInt parses an integer URL parameter, writing a 400 on failure.
func urlInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// queryInt parses an integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(r.URL.Query().Get(name))
}

// queryPage reads the page query parameter, defaulting to 1.
func queryPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func urlStatus(w http.ResponseWriter, r *http.Request, raw string) (core.ItemStatus, bool) {
	status, err := core.ParseStatus(raw)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return "", false
	}
	return status, true
}
