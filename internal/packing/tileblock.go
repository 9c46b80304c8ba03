package packing

import (
	"fmt"
	"sort"

	"github.com/kiesman99/omafpack/internal/catalog"
	"github.com/kiesman99/omafpack/pkg/omaf"
)

// TileBlock packs the rectangular block of tiles covering a viewport into
// a picture of its own, keeping the tiles' relative order. Every region
// uses the identity transform.
type TileBlock struct {
	cat       *catalog.Catalog
	projector omaf.Projector
	expected  int
	outWidth  int
	outHeight int
	maxSize   int
}

// NewTileBlock creates the tile block strategy
func NewTileBlock(p Params) (*TileBlock, error) {
	if p.Catalog == nil {
		return nil, fmt.Errorf("no tile catalog")
	}

	tb := &TileBlock{
		cat:       p.Catalog,
		projector: p.Projector,
		expected:  p.ExpectedTiles,
		outWidth:  p.OutputWidth,
		outHeight: p.OutputHeight,
		maxSize:   p.MaxPackedSize,
	}
	if tb.projector == nil {
		tb.projector = omaf.EquirectProjector{}
	}
	if tb.maxSize <= 0 || tb.maxSize > omaf.MaxPackedPicSize {
		tb.maxSize = omaf.MaxPackedPicSize
	}
	return tb, nil
}

// Select returns the tiles whose rectangles overlap the viewport footprint
// by a non-zero area.
func (tb *TileBlock) Select(vp omaf.Viewport) (Selection, error) {
	sel := Selection{
		Footprint: tb.projector.Footprint(vp, tb.cat.Width(), tb.cat.Height()),
		Expected:  tb.expected,
	}

	picked := map[int]struct{}{}
	seenCol := map[int]bool{}
	rowSet := map[int]struct{}{}
	tiles := tb.cat.Tiles()

	for _, fp := range sel.Footprint {
		var cols []int
		for _, td := range tiles {
			if !td.Rect.Image().Overlaps(fp) {
				continue
			}
			picked[td.Index] = struct{}{}
			rowSet[td.Row] = struct{}{}
			if !seenCol[td.Col] {
				seenCol[td.Col] = true
				cols = append(cols, td.Col)
			}
		}
		sort.Ints(cols)
		sel.Cols = append(sel.Cols, cols...)
	}

	if len(picked) == 0 {
		return sel, ErrEmptySelection
	}

	for r := range rowSet {
		sel.Rows = append(sel.Rows, r)
	}
	sort.Ints(sel.Rows)

	if err := tb.checkRectangular(sel, picked); err != nil {
		return sel, err
	}

	for _, r := range sel.Rows {
		for _, c := range sel.Cols {
			idx, _ := tb.cat.At(c, r)
			sel.Tiles = append(sel.Tiles, idx)
		}
	}

	if sel.Expected > 0 && len(sel.Tiles) != sel.Expected {
		sel.HintMismatch = true
	}
	return sel, nil
}

// checkRectangular verifies the picked tiles form a contiguous block.
// Columns may wrap around the yaw seam.
func (tb *TileBlock) checkRectangular(sel Selection, picked map[int]struct{}) error {
	for i := 1; i < len(sel.Rows); i++ {
		if sel.Rows[i] != sel.Rows[i-1]+1 {
			return fmt.Errorf("%w: rows %v not contiguous", ErrIncoherentSelection, sel.Rows)
		}
	}

	n := tb.cat.Cols()
	for i := 1; i < len(sel.Cols); i++ {
		if sel.Cols[i] != (sel.Cols[i-1]+1)%n {
			return fmt.Errorf("%w: columns %v not contiguous", ErrIncoherentSelection, sel.Cols)
		}
	}

	if len(picked) != len(sel.Cols)*len(sel.Rows) {
		return fmt.Errorf("%w: %d tiles over %d columns and %d rows", ErrIncoherentSelection, len(picked), len(sel.Cols), len(sel.Rows))
	}
	for _, r := range sel.Rows {
		for _, c := range sel.Cols {
			idx, ok := tb.cat.At(c, r)
			if !ok {
				return fmt.Errorf("%w: no tile at (%d,%d)", ErrIncoherentSelection, c, r)
			}
			if _, ok := picked[idx]; !ok {
				return fmt.Errorf("%w: tile %d at (%d,%d) not covered", ErrIncoherentSelection, idx, c, r)
			}
		}
	}
	return nil
}

// Arrange places the selected block at the origin of the packed picture,
// left to right and top to bottom.
func (tb *TileBlock) Arrange(sel Selection) (*omaf.TileArrangement, error) {
	if len(sel.Tiles) == 0 || len(sel.Cols) == 0 || len(sel.Rows) == 0 {
		return nil, ErrEmptySelection
	}
	if len(sel.Tiles) > omaf.MaxRegions {
		return nil, fmt.Errorf("%w: %d regions, at most %d", ErrDimensionOverflow, len(sel.Tiles), omaf.MaxRegions)
	}

	arr := &omaf.TileArrangement{
		Cols:       len(sel.Cols),
		Rows:       len(sel.Rows),
		SourceCols: append([]int(nil), sel.Cols...),
		SourceRows: append([]int(nil), sel.Rows...),
		Cells:      make([]omaf.Cell, 0, len(sel.Cols)*len(sel.Rows)),
	}

	xs := make([]int, len(sel.Cols))
	for i, c := range sel.Cols {
		xs[i] = arr.PackedWidth
		arr.PackedWidth += tb.cat.ColWidth(c)
	}
	ys := make([]int, len(sel.Rows))
	for i, r := range sel.Rows {
		ys[i] = arr.PackedHeight
		arr.PackedHeight += tb.cat.RowHeight(r)
	}

	if arr.PackedWidth > tb.maxSize || arr.PackedHeight > tb.maxSize {
		return nil, fmt.Errorf("%w: %dx%d, at most %d per side", ErrDimensionOverflow, arr.PackedWidth, arr.PackedHeight, tb.maxSize)
	}

	selected := make(map[int]struct{}, len(sel.Tiles))
	for _, idx := range sel.Tiles {
		selected[idx] = struct{}{}
	}

	for ri, r := range sel.Rows {
		for ci, c := range sel.Cols {
			cell := omaf.Cell{
				TileIndex: -1,
				Packed: omaf.Rect{
					X:      xs[ci],
					Y:      ys[ri],
					Width:  tb.cat.ColWidth(c),
					Height: tb.cat.RowHeight(r),
				},
			}
			if idx, ok := tb.cat.At(c, r); ok {
				if _, in := selected[idx]; in {
					cell.TileIndex = idx
				}
			}
			arr.Cells = append(arr.Cells, cell)
		}
	}

	return arr, nil
}
