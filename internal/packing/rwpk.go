package packing

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/kiesman99/omafpack/pkg/omaf"
)

// RegionWisePacking describes every occupied cell of arr as a region, in
// row-major order. Projected rectangles are scaled when the viewport's
// output size differs from the arrangement's natural size.
func (tb *TileBlock) RegionWisePacking(arr *omaf.TileArrangement, vp omaf.Viewport) (*omaf.RegionWisePacking, error) {
	if arr == nil || arr.OccupiedCells() == 0 {
		return nil, ErrEmptySelection
	}

	outW, outH := vp.Width, vp.Height
	if outW <= 0 || outH <= 0 {
		outW, outH = tb.outWidth, tb.outHeight
	}
	s := newScale(outW, outH, arr.PackedWidth, arr.PackedHeight)

	projW, err := s.apply(tb.cat.Width())
	if err != nil {
		return nil, fmt.Errorf("%w: projected picture width: %v", ErrDimensionOverflow, err)
	}
	projH, err := s.apply(tb.cat.Height())
	if err != nil {
		return nil, fmt.Errorf("%w: projected picture height: %v", ErrDimensionOverflow, err)
	}

	rwpk := &omaf.RegionWisePacking{
		ProjPicWidth:    projW,
		ProjPicHeight:   projH,
		PackedPicWidth:  uint16(arr.PackedWidth),
		PackedPicHeight: uint16(arr.PackedHeight),
		Regions:         make([]omaf.RectangularRegion, 0, arr.OccupiedCells()),
	}

	for _, cell := range arr.Cells {
		if !cell.Occupied() {
			continue
		}
		td, err := tb.cat.Lookup(cell.TileIndex)
		if err != nil {
			return nil, err
		}
		if cell.Packed.X+cell.Packed.Width > omaf.MaxPackedPicSize || cell.Packed.Y+cell.Packed.Height > omaf.MaxPackedPicSize {
			return nil, fmt.Errorf("%w: cell of tile %d at %+v", ErrDimensionOverflow, td.Index, cell.Packed)
		}

		// Edges lie inside the source picture, so they fit once projW and projH do.
		left, _ := s.apply(td.Rect.X)
		right, _ := s.apply(td.Rect.X + td.Rect.Width)
		top, _ := s.apply(td.Rect.Y)
		bottom, _ := s.apply(td.Rect.Y + td.Rect.Height)
		if right == left || bottom == top {
			return nil, fmt.Errorf("%w: tile %d scales to an empty projected region", ErrDimensionOverflow, td.Index)
		}

		rwpk.Regions = append(rwpk.Regions, omaf.RectangularRegion{
			TileIndex:       td.Index,
			TransformType:   omaf.TransformNone,
			ProjRegLeft:     left,
			ProjRegTop:      top,
			ProjRegWidth:    right - left,
			ProjRegHeight:   bottom - top,
			PackedRegLeft:   uint16(cell.Packed.X),
			PackedRegTop:    uint16(cell.Packed.Y),
			PackedRegWidth:  uint16(cell.Packed.Width),
			PackedRegHeight: uint16(cell.Packed.Height),
		})
	}

	return rwpk, nil
}

// scale is the ratio num/den applied to pixel edges. Edges rather than
// sizes are scaled so scaled regions still abut.
type scale struct {
	num, den uint64
}

// newScale picks one factor for both axes: the smaller of the two output
// to natural ratios, so the scaled block keeps its aspect and fits the output.
func newScale(outW, outH, natW, natH int) scale {
	if outW <= 0 || outH <= 0 || natW <= 0 || natH <= 0 {
		return scale{1, 1}
	}
	// outW/natW <= outH/natH
	hi, lo := bits.Mul64(uint64(outW), uint64(natH))
	hi2, lo2 := bits.Mul64(uint64(outH), uint64(natW))
	if hi < hi2 || (hi == hi2 && lo <= lo2) {
		return scale{uint64(outW), uint64(natW)}
	}
	return scale{uint64(outH), uint64(natH)}
}

// apply scales a non-negative pixel edge, failing when the result does not
// fit the 32-bit projected fields.
func (s scale) apply(v int) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("negative edge %d", v)
	}
	hi, lo := bits.Mul64(uint64(v), s.num)
	if hi >= s.den {
		return 0, fmt.Errorf("%d scaled by %d/%d overflows", v, s.num, s.den)
	}
	q, _ := bits.Div64(hi, lo, s.den)
	if q > math.MaxUint32 {
		return 0, fmt.Errorf("%d scaled by %d/%d is %d, at most %d", v, s.num, s.den, q, uint64(math.MaxUint32))
	}
	return uint32(q), nil
}
