package core

// Paginate slices one page out of an ordered collection and returns it with
// the total page count. Pages are 1-based; a page beyond the end yields an
// empty slice. A non-positive size returns the whole collection as a single
// page. The same function serves the flat, code-grouped, and order-grouped
// views; resetting to page 1 on filter or grouping changes is the caller's
// job.
func Paginate[T any](items []T, page, size int) ([]T, int) {
	if size <= 0 {
		return items, 1
	}
	totalPages := (len(items) + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return nil, totalPages
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], totalPages
}
