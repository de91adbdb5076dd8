package core

// ProjectCatalog flattens a collection of order snapshots into the flat
// catalog the filter pipeline and both aggregators consume.
//
// Two fetch-and-filter paths coexist on purpose. For early stages (pending,
// quoted) the backend returns full unfiltered orders, so the projection
// matches item status itself. For every later stage the backend has already
// pre-filtered the items and the projection keeps everything it is given —
// re-filtering there would hide items whose status moved between fetch and
// projection and would duplicate work the backend already did.
func ProjectCatalog(orders []PurchaseOrder, stage ItemStatus) []CatalogItem {
	matchLocally := EarlyStage(stage)

	var flat []CatalogItem
	for _, order := range orders {
		for pos, item := range order.Items {
			if matchLocally && item.Status != stage {
				continue
			}
			flat = append(flat, CatalogItem{
				LineItem:         item,
				OrderID:          order.ID,
				Position:         pos,
				OrderNumber:      order.OrderNumber,
				RequesterTaxID:   order.RequesterTaxID,
				DeliveryAddress:  order.DeliveryAddress,
				DeliveryDate:     order.DeliveryDate,
				ReadyForDispatch: order.ReadyForDispatch,
				SalesInvoices:    order.SalesInvoices,
			})
		}
	}
	return flat
}
