package shared

// ListFilters represents standard list filters for master data.
type ListFilters struct {
	Page   int
	Limit  int
	Search string

	CategoryID *int64
	SupplierID *int64
}

// Offset converts page/limit into a SQL offset.
func (f ListFilters) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.PageSize()
}

// PageSize returns the effective page size.
func (f ListFilters) PageSize() int {
	if f.Limit < 1 {
		return 10
	}
	return f.Limit
}
