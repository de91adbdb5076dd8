package app

// AttachInvoiceRequest attaches a sales invoice to an order. Positions may
// be given explicitly; when empty, the order's invoice selection is used as
// the covered-positions list.
type AttachInvoiceRequest struct {
	OrderID       int    `json:"order_id"`
	Filename      string `json:"filename"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Positions     []int  `json:"positions,omitempty"`
}
