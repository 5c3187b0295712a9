package pager

import "fmt"

// Page is a cached page owned by the pager. Views returned by Slice
// are only valid until the pager is closed.
type Page struct {
	number int
	data   []byte
}

func newPage(number int, size int) *Page {
	return &Page{
		number: number,
		data:   make([]byte, size),
	}
}

// Number is the zero based page number
func (p *Page) Number() int {
	return p.number
}

// Size is the size of the page in bytes
func (p *Page) Size() int {
	return len(p.data)
}

// Slice returns a view of n bytes of the page starting at offset
func (p *Page) Slice(offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > len(p.data) {
		return nil, fmt.Errorf("page [%d]: range [%d, %d) out of bounds", p.number, offset, offset+n)
	}
	return p.data[offset : offset+n : offset+n], nil
}
