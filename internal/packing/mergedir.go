package packing

import (
	"github.com/kiesman99/omafpack/pkg/omaf"
)

// MergeDirection lists, per packed column, the tiles concatenated top to bottom
func (tb *TileBlock) MergeDirection(arr *omaf.TileArrangement) (*omaf.TilesMergeDirectionInCol, error) {
	if arr == nil || arr.OccupiedCells() == 0 {
		return nil, ErrEmptySelection
	}
	return MergeDirectionOf(arr), nil
}

// MergeDirectionOf derives the column-wise merge order of an arrangement
func MergeDirectionOf(arr *omaf.TileArrangement) *omaf.TilesMergeDirectionInCol {
	md := &omaf.TilesMergeDirectionInCol{Columns: make([]omaf.MergeColumn, arr.Cols)}
	for c := 0; c < arr.Cols; c++ {
		for r := 0; r < arr.Rows; r++ {
			cell := arr.At(c, r)
			if !cell.Occupied() {
				continue
			}
			md.Columns[c].Tiles = append(md.Columns[c].Tiles, omaf.MergedTile{
				TileIndex: cell.TileIndex,
				SourceCol: arr.SourceCols[c],
				SourceRow: arr.SourceRows[r],
			})
		}
	}
	return md
}
