package usecase

// Page is one page request of a listing.
type Page struct {
	Number int
	Size   int
}

// Paginator splits a total item count into consecutive pages of at most
// maxPageSize items. The last page may be smaller.
type Paginator struct {
	next        int
	maxPageSize int
	remaining   int
}

// NewPaginator creates a Paginator whose first page is numbered firstPage.
func NewPaginator(firstPage, maxPageSize, total int) *Paginator {
	return &Paginator{
		next:        firstPage,
		maxPageSize: maxPageSize,
		remaining:   max(total, 0),
	}
}

// Next returns the next page, or false once all items are covered.
func (p *Paginator) Next() (Page, bool) {
	if p.remaining == 0 || p.maxPageSize <= 0 {
		return Page{}, false
	}
	page := Page{Number: p.next, Size: min(p.remaining, p.maxPageSize)}
	p.next++
	p.remaining -= page.Size
	return page, true
}

// PlanPages returns every page needed to list total items.
func PlanPages(firstPage, maxPageSize, total int) []Page {
	var pages []Page
	p := NewPaginator(firstPage, maxPageSize, total)
	for page, ok := p.Next(); ok; page, ok = p.Next() {
		pages = append(pages, page)
	}
	return pages
}
