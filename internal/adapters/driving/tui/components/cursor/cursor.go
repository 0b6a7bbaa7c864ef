// Package cursor tracks the selected row of a list that may be taller
// than the space it is drawn in.
package cursor

// Cursor is a selection index plus the first visible row.
// The zero value is an empty list with a one-row window.
type Cursor struct {
	index  int
	offset int
	length int
	window int
}

// SetLen resizes the list and pulls the selection back inside it.
func (c *Cursor) SetLen(n int) {
	c.length = max(n, 0)
	c.index = min(c.index, max(c.length-1, 0))
	c.follow()
}

// SetWindow sets how many rows fit on screen.
func (c *Cursor) SetWindow(rows int) {
	c.window = max(rows, 1)
	c.follow()
}

// Up moves the selection one row up and reports whether it moved.
func (c *Cursor) Up() bool {
	if c.index == 0 {
		return false
	}
	c.index--
	c.follow()
	return true
}

// Down moves the selection one row down and reports whether it moved.
func (c *Cursor) Down() bool {
	if c.index >= c.length-1 {
		return false
	}
	c.index++
	c.follow()
	return true
}

// Reset selects the first row of an empty list.
func (c *Cursor) Reset() {
	c.index, c.offset, c.length = 0, 0, 0
}

// Index is the selected row. Valid reports whether it points into the list.
func (c *Cursor) Index() int  { return c.index }
func (c *Cursor) Valid() bool { return c.index < c.length }

func (c *Cursor) Offset() int { return c.offset }

// Visible returns the half-open row range to draw.
func (c *Cursor) Visible() (start, end int) {
	return c.offset, min(c.offset+c.rows(), c.length)
}

// Scrolls reports whether the list is longer than the window.
func (c *Cursor) Scrolls() bool { return c.length > c.rows() }

func (c *Cursor) rows() int { return max(c.window, 1) }

// follow scrolls the window so the selection stays on screen.
func (c *Cursor) follow() {
	switch {
	case c.index < c.offset:
		c.offset = c.index
	case c.index >= c.offset+c.rows():
		c.offset = c.index - c.rows() + 1
	}
	c.offset = max(min(c.offset, c.length-c.rows()), 0)
}
