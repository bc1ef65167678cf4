package views

import "telebbs/internal/app/repository"

type listState int

const (
	stateSelecting listState = iota
	stateSearching
	stateCreating
)

// pager tracks the cursor and page number of a listing screen. A full page is
// taken as a sign that another page might exist.
type pager struct {
	page   int
	cursor int
}

// up moves the cursor up, turning to the next page from the top row of a
// full page. It reports whether the page changed.
func (p *pager) up(rows int) bool {
	if p.cursor > 0 {
		p.cursor--
		return false
	}
	return p.next(rows)
}

// down moves the cursor down, turning back a page from the last row.
func (p *pager) down(rows int) bool {
	if p.cursor < rows-1 {
		p.cursor++
		return false
	}
	if p.page > 0 {
		p.page--
		p.cursor = 0
		return true
	}
	return false
}

func (p *pager) next(rows int) bool {
	if rows == repository.PageSize {
		p.page++
		p.cursor = 0
		return true
	}
	return false
}

func (p *pager) clamp(rows int) {
	if p.cursor >= rows {
		p.cursor = max(rows-1, 0)
	}
}

func (p *pager) reset() {
	p.page = 0
	p.cursor = 0
}
