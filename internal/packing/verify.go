package packing

import (
	"fmt"
	"image"

	"github.com/kiesman99/omafpack/pkg/omaf"
)

// Verify checks that rwpk and md both describe arr. There must be one region
// per occupied cell, regions must tile the packed picture exactly and lie
// inside the projected picture, and merge columns must name the same tiles
// in the same order.
func Verify(arr *omaf.TileArrangement, rwpk *omaf.RegionWisePacking, md *omaf.TilesMergeDirectionInCol) error {
	if arr == nil || rwpk == nil || md == nil {
		return fmt.Errorf("%w: missing result", ErrInvariantViolation)
	}

	if int(rwpk.PackedPicWidth) != arr.PackedWidth || int(rwpk.PackedPicHeight) != arr.PackedHeight {
		return fmt.Errorf("%w: packed picture %dx%d, arrangement %dx%d", ErrInvariantViolation,
			rwpk.PackedPicWidth, rwpk.PackedPicHeight, arr.PackedWidth, arr.PackedHeight)
	}
	if len(rwpk.Regions) != arr.OccupiedCells() {
		return fmt.Errorf("%w: %d regions for %d occupied cells", ErrInvariantViolation, len(rwpk.Regions), arr.OccupiedCells())
	}

	if err := verifyTiling(rwpk); err != nil {
		return err
	}
	if err := verifyProjected(rwpk); err != nil {
		return err
	}

	// Regions are row-major over occupied cells.
	regionOf := make(map[int]omaf.RectangularRegion, len(rwpk.Regions))
	i := 0
	for _, cell := range arr.Cells {
		if !cell.Occupied() {
			continue
		}
		reg := rwpk.Regions[i]
		if reg.TileIndex != cell.TileIndex || reg.PackedRect() != cell.Packed {
			return fmt.Errorf("%w: region %d is tile %d at %+v, cell holds tile %d at %+v", ErrInvariantViolation,
				i, reg.TileIndex, reg.PackedRect(), cell.TileIndex, cell.Packed)
		}
		regionOf[reg.TileIndex] = reg
		i++
	}

	if len(md.Columns) != arr.Cols {
		return fmt.Errorf("%w: %d merge columns for %d packed columns", ErrInvariantViolation, len(md.Columns), arr.Cols)
	}
	seen := 0
	for c, col := range md.Columns {
		r := 0
		for _, mt := range col.Tiles {
			for r < arr.Rows && !arr.At(c, r).Occupied() {
				r++
			}
			if r == arr.Rows {
				return fmt.Errorf("%w: column %d lists more tiles than it holds", ErrInvariantViolation, c)
			}
			cell := arr.At(c, r)
			if mt.TileIndex != cell.TileIndex {
				return fmt.Errorf("%w: column %d row %d merges tile %d, arrangement holds %d", ErrInvariantViolation,
					c, r, mt.TileIndex, cell.TileIndex)
			}
			if _, ok := regionOf[mt.TileIndex]; !ok {
				return fmt.Errorf("%w: tile %d has no region", ErrInvariantViolation, mt.TileIndex)
			}
			seen++
			r++
		}
	}
	if seen != len(rwpk.Regions) {
		return fmt.Errorf("%w: merge direction names %d tiles, packing %d", ErrInvariantViolation, seen, len(rwpk.Regions))
	}

	return nil
}

func verifyTiling(rwpk *omaf.RegionWisePacking) error {
	frame := image.Rect(0, 0, int(rwpk.PackedPicWidth), int(rwpk.PackedPicHeight))
	area := 0
	rects := make([]image.Rectangle, len(rwpk.Regions))
	for i, reg := range rwpk.Regions {
		rects[i] = reg.PackedRect().Image()
		if rects[i].Empty() || !rects[i].In(frame) {
			return fmt.Errorf("%w: region %d %v outside packed picture %v", ErrInvariantViolation, i, rects[i], frame)
		}
		for j := 0; j < i; j++ {
			if rects[i].Overlaps(rects[j]) {
				return fmt.Errorf("%w: regions %d and %d overlap", ErrInvariantViolation, j, i)
			}
		}
		area += rects[i].Dx() * rects[i].Dy()
	}
	// Without overlap, covering the area means covering the picture.
	if area != frame.Dx()*frame.Dy() {
		return fmt.Errorf("%w: regions cover %d of %d packed pixels", ErrInvariantViolation, area, frame.Dx()*frame.Dy())
	}
	return nil
}

// verifyProjected checks every projected rectangle is non-empty and inside
// the projected picture. Sums are done in 64 bits so wrapped fields cannot pass.
func verifyProjected(rwpk *omaf.RegionWisePacking) error {
	if rwpk.ProjPicWidth == 0 || rwpk.ProjPicHeight == 0 {
		return fmt.Errorf("%w: empty projected picture %dx%d", ErrInvariantViolation, rwpk.ProjPicWidth, rwpk.ProjPicHeight)
	}
	for i, reg := range rwpk.Regions {
		if reg.ProjRegWidth == 0 || reg.ProjRegHeight == 0 ||
			uint64(reg.ProjRegLeft)+uint64(reg.ProjRegWidth) > uint64(rwpk.ProjPicWidth) ||
			uint64(reg.ProjRegTop)+uint64(reg.ProjRegHeight) > uint64(rwpk.ProjPicHeight) {
			return fmt.Errorf("%w: region %d projected %+v outside %dx%d", ErrInvariantViolation,
				i, reg.ProjRect(), rwpk.ProjPicWidth, rwpk.ProjPicHeight)
		}
	}
	return nil
}
