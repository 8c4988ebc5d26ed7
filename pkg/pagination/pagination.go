// Package pagination does the page arithmetic for the paged index pages.
package pagination

// Page describes one page of a listing.
type Page struct {
	Number int
	Size   int
	Total  int
}

// MaxNumber is the highest page number honored; larger requests land on it
// and come back empty instead of overflowing the offset.
const MaxNumber = 1_000_000

// MaxSize bounds the page size for the same reason.
const MaxSize = 1_000

// New clamps number to [1, MaxNumber] and size to [1, MaxSize].
func New(number, size, total int) Page {
	return Page{
		Number: min(max(number, 1), MaxNumber),
		Size:   min(max(size, 1), MaxSize),
		Total:  max(total, 0),
	}
}

// Offset is the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit is the number of rows to fetch for this page.
func (p Page) Limit() int {
	return p.Size
}

// Count is the number of pages, at least 1 so an empty listing still renders.
func (p Page) Count() int {
	if p.Total == 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

func (p Page) HasPrev() bool {
	return p.Number > 1
}

func (p Page) HasNext() bool {
	return p.Number < p.Count()
}

func (p Page) Prev() int {
	return p.Number - 1
}

func (p Page) Next() int {
	return p.Number + 1
}

// Numbers lists every page number, for rendering page links.
func (p Page) Numbers() []int {
	n := make([]int, p.Count())
	for i := range n {
		n[i] = i + 1
	}
	return n
}
