package web

import (
	"net/http"

	"fulfillment-console/internal/app"
	"fulfillment-console/internal/backend"
	"fulfillment-console/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (h *Handler) distributeFreight(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlInt(w, r, "orderID")
	if !ok {
		return
	}
	var req struct {
		Total decimal.Decimal `json:"total"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.svc.DistributeFreight(r.Context(), orderID, req.Total)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) assignTracking(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlInt(w, r, "orderID")
	if !ok {
		return
	}
	var req struct {
		TrackingCode string          `json:"tracking_code"`
		FreightTotal decimal.Decimal `json:"freight_total"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.AssignTracking(r.Context(), orderID, req.TrackingCode, req.FreightTotal); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "applied"})
}

// changeStatus applies one target status to the order's status selection.
// The unrestricted override path is enabled by the operator's admin role;
// everyone else is held to the forward pipeline.
func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlInt(w, r, "orderID")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	target, ok := urlStatus(w, r, req.Status)
	if !ok {
		return
	}
	admin := authFromContext(r.Context()).IsAdmin()
	if err := h.svc.ChangeStatus(r.Context(), orderID, target, admin); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"status": target})
}

func (h *Handler) applyCombined(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlInt(w, r, "orderID")
	if !ok {
		return
	}
	var req core.CombinedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	admin := authFromContext(r.Context()).IsAdmin()
	if err := h.svc.ApplyCombined(r.Context(), orderID, req, admin); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "applied"})
}

func (h *Handler) bulkStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlInt(w, r, "orderID")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	target, ok := urlStatus(w, r, req.Status)
	if !ok {
		return
	}
	result, err := h.svc.BulkStatus(r.Context(), orderID, target)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func itemRefFromURL(w http.ResponseWriter, r *http.Request) (core.ItemRef, bool) {
	orderID, ok := urlInt(w, r, "orderID")
	if !ok {
		return core.ItemRef{}, false
	}
	position, ok := urlInt(w, r, "position")
	if !ok {
		return core.ItemRef{}, false
	}
	return core.ItemRef{OrderID: orderID, Position: position}, true
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	ref, ok := itemRefFromURL(w, r)
	if !ok {
		return
	}
	var patch backend.ItemPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if patch.Status != nil {
		if _, err := core.ParseStatus(string(*patch.Status)); err != nil {
			writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
	}
	if err := h.svc.UpdateItem(r.Context(), ref, patch); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "updated"})
}

func (h *Handler) partialPurchase(w http.ResponseWriter, r *http.Request) {
	ref, ok := itemRefFromURL(w, r)
	if !ok {
		return
	}
	var req core.PartialPurchaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.PartialPurchase(r.Context(), ref, req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "applied"})
}

func (h *Handler) partialShipment(w http.ResponseWriter, r *http.Request) {
	ref, ok := itemRefFromURL(w, r)
	if !ok {
		return
	}
	var req core.PartialShipmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.PartialShipment(r.Context(), ref, req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "applied"})
}

func (h *Handler) attachSalesInvoice(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlInt(w, r, "orderID")
	if !ok {
		return
	}
	var req app.AttachInvoiceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.OrderID = orderID
	if err := h.svc.AttachSalesInvoice(r.Context(), req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "attached"})
}

func (h *Handler) detachSalesInvoice(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlInt(w, r, "orderID")
	if !ok {
		return
	}
	filename := chi.URLParam(r, "filename")
	if err := h.svc.DetachSalesInvoice(r.Context(), orderID, filename); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "detached"})
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlInt(w, r, "orderID")
	if !ok {
		return
	}
	var req struct {
		DeliveryAddress string `json:"delivery_address"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.UpdateAddress(r.Context(), orderID, req.DeliveryAddress); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "updated"})
}

func (h *Handler) toggleDispatchFlag(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlInt(w, r, "orderID")
	if !ok {
		return
	}
	if err := h.svc.ToggleReadyForDispatch(r.Context(), orderID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "toggled"})
}
