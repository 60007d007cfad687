package db

import (
	"gorm.io/gorm"
)

// Page is one page of an ordered result set.
type Page[T any] struct {
	Items   []T
	Page    int
	PerPage int
	Total   int64
	Pages   int
}

func (p *Page[T]) HasPrev() bool { return p.Page > 1 }
func (p *Page[T]) HasNext() bool { return p.Page < p.Pages }
func (p *Page[T]) PrevNum() int  { return p.Page - 1 }
func (p *Page[T]) NextNum() int  { return p.Page + 1 }

// IterPages returns the page numbers to show in a pagination widget: the
// first leftEdge pages, the pages around the current one and the last
// rightEdge pages. A 0 marks a run of skipped pages.
func (p *Page[T]) IterPages(leftEdge, leftCurrent, rightCurrent, rightEdge int) []int {
	var out []int
	pagesEnd := p.Pages + 1
	if pagesEnd == 1 {
		return out
	}

	leftEnd := min(1+leftEdge, pagesEnd)
	for n := 1; n < leftEnd; n++ {
		out = append(out, n)
	}
	if leftEnd == pagesEnd {
		return out
	}

	midStart := max(leftEnd, p.Page-leftCurrent)
	midEnd := min(p.Page+rightCurrent+1, pagesEnd)
	if midStart-leftEnd > 0 {
		out = append(out, 0)
	}
	for n := midStart; n < midEnd; n++ {
		out = append(out, n)
	}
	if midEnd == pagesEnd {
		return out
	}

	rightStart := max(midEnd, pagesEnd-rightEdge)
	if rightStart-midEnd > 0 {
		out = append(out, 0)
	}
	for n := rightStart; n < pagesEnd; n++ {
		out = append(out, n)
	}
	return out
}

func newPage[T any](page, perPage int, total int64) *Page[T] {
	pages := 0
	if total > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return &Page[T]{Page: page, PerPage: perPage, Total: total, Pages: pages}
}

// paginate counts the rows matched by q, then loads the requested page with
// scopes (ordering, preloads) applied. Page 1 of an empty set is valid; any
// other page outside 1..Pages is ErrPageOutOfRange.
func paginate[T any](q *gorm.DB, page, perPage int, scopes ...func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	if page < 1 || perPage < 1 {
		return nil, ErrPageOutOfRange
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Model(new(T)).Count(&total).Error; err != nil {
		return nil, err
	}
	p := newPage[T](page, perPage, total)
	if page > p.Pages && page != 1 {
		return nil, ErrPageOutOfRange
	}

	items := make([]T, 0, perPage)
	err := q.Scopes(scopes...).
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	p.Items = items
	return p, nil
}
