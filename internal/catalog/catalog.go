package catalog

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/kiesman99/omafpack/pkg/omaf"
)

var (
	// ErrNotFound is returned for tile lookups outside the catalog
	ErrNotFound = errors.New("tile not found")
	// ErrInvalidGrid is returned when stream tile geometry is inconsistent
	ErrInvalidGrid = errors.New("invalid tile grid")
)

// Catalog is the immutable tile grid of the source picture
type Catalog struct {
	streamID  uint8
	width     int
	height    int
	cols      int
	rows      int
	tiles     []omaf.TileDef
	grid      []int // row-major (col,row) -> tile index
	colWidth  []int
	rowHeight []int
	colX      []int
	rowY      []int
}

// New builds the catalog from the first video stream listed in videoIdx.
// Tile geometry is copied; the streams are not retained.
func New(streams map[uint8]omaf.Stream, videoIdx []uint8) (*Catalog, error) {
	if len(streams) == 0 {
		return nil, fmt.Errorf("%w: no media streams", ErrInvalidGrid)
	}
	if len(videoIdx) == 0 {
		return nil, fmt.Errorf("%w: no video stream index", ErrInvalidGrid)
	}

	var src omaf.Stream
	for _, id := range videoIdx {
		s, ok := streams[id]
		if !ok {
			return nil, fmt.Errorf("%w: stream %d listed but not set up", ErrInvalidGrid, id)
		}
		if s.Kind() == omaf.KindVideo {
			src = s
			break
		}
	}
	if src == nil {
		return nil, fmt.Errorf("%w: no video stream among %v", ErrInvalidGrid, videoIdx)
	}

	return FromStream(src)
}

// FromStream builds the catalog from a single tiled video stream
func FromStream(s omaf.Stream) (*Catalog, error) {
	width, height := s.Resolution()
	cols, rows := s.TileGrid()
	rects := s.Tiles()

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: resolution %dx%d", ErrInvalidGrid, width, height)
	}
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: tile grid %dx%d", ErrInvalidGrid, cols, rows)
	}
	if len(rects) != cols*rows {
		return nil, fmt.Errorf("%w: %d tiles for a %dx%d grid", ErrInvalidGrid, len(rects), cols, rows)
	}

	frame := image.Rect(0, 0, width, height)
	xs := map[int]struct{}{}
	ys := map[int]struct{}{}
	area := 0
	for i, r := range rects {
		ir := r.Image()
		if r.Width <= 0 || r.Height <= 0 || !ir.In(frame) {
			return nil, fmt.Errorf("%w: tile %d %+v outside %dx%d picture", ErrInvalidGrid, i, r, width, height)
		}
		xs[r.X] = struct{}{}
		ys[r.Y] = struct{}{}
		area += r.Width * r.Height
	}
	if len(xs) != cols || len(ys) != rows {
		return nil, fmt.Errorf("%w: tiles form %dx%d distinct offsets, expected %dx%d", ErrInvalidGrid, len(xs), len(ys), cols, rows)
	}
	if area != width*height {
		return nil, fmt.Errorf("%w: tiles cover %d of %d pixels", ErrInvalidGrid, area, width*height)
	}

	c := &Catalog{
		streamID:  s.ID(),
		width:     width,
		height:    height,
		cols:      cols,
		rows:      rows,
		tiles:     make([]omaf.TileDef, len(rects)),
		grid:      make([]int, cols*rows),
		colWidth:  make([]int, cols),
		rowHeight: make([]int, rows),
		colX:      sortedKeys(xs),
		rowY:      sortedKeys(ys),
	}
	for i := range c.grid {
		c.grid[i] = -1
	}

	colOf := indexOf(c.colX)
	rowOf := indexOf(c.rowY)
	for i, r := range rects {
		col, row := colOf[r.X], rowOf[r.Y]
		if c.grid[row*cols+col] >= 0 {
			return nil, fmt.Errorf("%w: tiles %d and %d share grid cell (%d,%d)", ErrInvalidGrid, c.grid[row*cols+col], i, col, row)
		}

		// Every tile in a column shares the column width, same for rows.
		if c.colWidth[col] == 0 {
			c.colWidth[col] = r.Width
		} else if c.colWidth[col] != r.Width {
			return nil, fmt.Errorf("%w: column %d has mixed widths %d and %d", ErrInvalidGrid, col, c.colWidth[col], r.Width)
		}
		if c.rowHeight[row] == 0 {
			c.rowHeight[row] = r.Height
		} else if c.rowHeight[row] != r.Height {
			return nil, fmt.Errorf("%w: row %d has mixed heights %d and %d", ErrInvalidGrid, row, c.rowHeight[row], r.Height)
		}

		c.grid[row*cols+col] = i
		c.tiles[i] = omaf.TileDef{Index: i, Rect: r, Col: col, Row: row}
	}

	if err := abut("column", c.colX, c.colWidth, width); err != nil {
		return nil, err
	}
	if err := abut("row", c.rowY, c.rowHeight, height); err != nil {
		return nil, err
	}

	return c, nil
}

// abut checks that spans starting at offsets with the given sizes run
// edge to edge from 0 to total.
func abut(kind string, offsets, sizes []int, total int) error {
	end := 0
	for i, off := range offsets {
		if off != end {
			return fmt.Errorf("%w: %s %d starts at %d, previous ends at %d", ErrInvalidGrid, kind, i, off, end)
		}
		end = off + sizes[i]
	}
	if end != total {
		return fmt.Errorf("%w: %ss end at %d, picture is %d", ErrInvalidGrid, kind, end, total)
	}
	return nil
}

// Lookup returns the tile with the given index
func (c *Catalog) Lookup(index int) (omaf.TileDef, error) {
	if index < 0 || index >= len(c.tiles) {
		return omaf.TileDef{}, fmt.Errorf("%w: index %d, catalog holds %d tiles", ErrNotFound, index, len(c.tiles))
	}
	return c.tiles[index], nil
}

// At returns the index of the tile at grid column col and row row
func (c *Catalog) At(col, row int) (int, bool) {
	if col < 0 || col >= c.cols || row < 0 || row >= c.rows {
		return -1, false
	}
	idx := c.grid[row*c.cols+col]
	return idx, idx >= 0
}

// Tiles returns a copy of all tile definitions in index order
func (c *Catalog) Tiles() []omaf.TileDef {
	out := make([]omaf.TileDef, len(c.tiles))
	copy(out, c.tiles)
	return out
}

func (c *Catalog) StreamID() uint8 { return c.streamID }
func (c *Catalog) Len() int        { return len(c.tiles) }
func (c *Catalog) Cols() int       { return c.cols }
func (c *Catalog) Rows() int       { return c.rows }
func (c *Catalog) Width() int      { return c.width }
func (c *Catalog) Height() int     { return c.height }

// ColWidth returns the pixel width of a grid column
func (c *Catalog) ColWidth(col int) int { return c.colWidth[col] }

// RowHeight returns the pixel height of a grid row
func (c *Catalog) RowHeight(row int) int { return c.rowHeight[row] }

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func indexOf(vals []int) map[int]int {
	out := make(map[int]int, len(vals))
	for i, v := range vals {
		out[v] = i
	}
	return out
}
