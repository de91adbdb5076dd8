package web

import (
	"net/http"

	"fulfillment-console/internal/core"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) setStage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stage string `json:"stage"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	stage, ok := urlStatus(w, r, req.Stage)
	if !ok {
		return
	}
	if err := h.svc.SetStage(r.Context(), stage); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"stage": stage})
}

func (h *Handler) setFilter(w http.ResponseWriter, r *http.Request) {
	var f core.FilterState
	if !decodeBody(w, r, &f) {
		return
	}
	h.svc.SetFilter(f)
	writeJSON(w, f)
}

func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reload(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "reloaded"})
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ListItems(queryPage(r)))
}

func (h *Handler) listCodeGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ListCodeGroups(queryPage(r)))
}

func (h *Handler) listOrderGroups(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListOrderGroups(queryPage(r))
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.svc.ListSuppliers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, suppliers)
}

func (h *Handler) stockDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetStockDetail(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, detail)
}

func (h *Handler) getSelection(w http.ResponseWriter, r *http.Request) {
	orderID, err := queryInt(r, "order_id")
	if err != nil {
		writeError(w, r, "invalid order_id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	category := core.SelectionCategory(chi.URLParam(r, "category"))
	positions, serr := h.svc.Selection(category, orderID)
	if serr != nil {
		writeServiceError(w, r, serr)
		return
	}
	writeJSON(w, map[string]any{"order_id": orderID, "positions": positions})
}

func (h *Handler) toggleSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID  int `json:"order_id"`
		Position int `json:"position"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	category := core.SelectionCategory(chi.URLParam(r, "category"))
	if err := h.svc.ToggleSelection(category, req.OrderID, req.Position); err != nil {
		writeServiceError(w, r, err)
		return
	}
	positions, _ := h.svc.Selection(category, req.OrderID)
	writeJSON(w, map[string]any{"order_id": req.OrderID, "positions": positions})
}

func (h *Handler) toggleAllSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID int `json:"order_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	category := core.SelectionCategory(chi.URLParam(r, "category"))
	if err := h.svc.ToggleAllSelection(category, req.OrderID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	positions, _ := h.svc.Selection(category, req.OrderID)
	writeJSON(w, map[string]any{"order_id": req.OrderID, "positions": positions})
}
