package repository

// Page is a limit/offset window for listing operations.
type Page struct {
	Limit  int
	Offset int
}

// PageResult carries one page of items and the total count matching the query,
// so clients can paginate without an extra round trip.
type PageResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Window applies the page to an already filtered slice held in memory.
func Window[T any](all []T, p Page) PageResult[T] {
	res := PageResult[T]{Items: make([]T, 0), Total: len(all)}
	if p.Offset >= len(all) {
		return res
	}
	end := len(all)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	res.Items = append(res.Items, all[p.Offset:end]...)
	return res
}
