package server

import (
	"github.com/kiesman99/omafpack/internal/api"
	"github.com/kiesman99/omafpack/internal/generator"
	"github.com/kiesman99/omafpack/pkg/omaf"
)

func toAPIRect(r omaf.Rect) api.Rect {
	return api.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func toAPIViewport(index int, vp omaf.Viewport) api.Viewport {
	out := api.Viewport{
		Index: index,
		Yaw:   vp.Yaw,
		Pitch: vp.Pitch,
		Hfov:  vp.HFOV,
		Vfov:  vp.VFOV,
	}
	if vp.Width > 0 && vp.Height > 0 {
		w, h := vp.Width, vp.Height
		out.Width, out.Height = &w, &h
	}
	return out
}

func toAPIArrangement(arr *omaf.TileArrangement) api.TileArrangement {
	cells := make([]api.ArrangementCell, len(arr.Cells))
	for i, c := range arr.Cells {
		cells[i] = api.ArrangementCell{Packed: toAPIRect(c.Packed)}
		// empty cells omit the tile index
		if c.Occupied() {
			idx := c.TileIndex
			cells[i].TileIndex = &idx
		}
	}
	return api.TileArrangement{
		Cols:         arr.Cols,
		Rows:         arr.Rows,
		SourceCols:   append([]int{}, arr.SourceCols...),
		SourceRows:   append([]int{}, arr.SourceRows...),
		Cells:        cells,
		PackedWidth:  arr.PackedWidth,
		PackedHeight: arr.PackedHeight,
	}
}

func toAPIRwpk(p *omaf.RegionWisePacking) api.RegionWisePacking {
	regions := make([]api.Region, len(p.Regions))
	for i, r := range p.Regions {
		regions[i] = api.Region{
			TileIndex:     r.TileIndex,
			TransformType: int(r.TransformType),
			GuardBand:     r.GuardBand,
			ProjRegion:    toAPIRect(r.ProjRect()),
			PackedRegion:  toAPIRect(r.PackedRect()),
		}
	}
	return api.RegionWisePacking{
		ConstituentPicMatching: p.ConstituentPicMatching,
		NumRegions:             int(p.NumRegions()),
		ProjPicWidth:           int(p.ProjPicWidth),
		ProjPicHeight:          int(p.ProjPicHeight),
		PackedPicWidth:         int(p.PackedPicWidth),
		PackedPicHeight:        int(p.PackedPicHeight),
		Regions:                regions,
	}
}

func toAPIMergeDirection(md *omaf.TilesMergeDirectionInCol) api.TilesMergeDirection {
	cols := make([]api.MergeColumn, len(md.Columns))
	for i, c := range md.Columns {
		tiles := make([]api.MergedTile, len(c.Tiles))
		for j, t := range c.Tiles {
			tiles[j] = api.MergedTile{TileIndex: t.TileIndex, SourceCol: t.SourceCol, SourceRow: t.SourceRow}
		}
		cols[i] = api.MergeColumn{Tiles: tiles}
	}
	return api.TilesMergeDirection{Columns: cols}
}

func toAPIPacking(res *generator.Result) api.ViewportPacking {
	return api.ViewportPacking{
		ViewportIndex:  res.ViewportIndex,
		HintMismatch:   res.Selection.HintMismatch,
		Arrangement:    toAPIArrangement(res.Arrangement),
		Rwpk:           toAPIRwpk(res.RWPK),
		MergeDirection: toAPIMergeDirection(res.MergeDirection),
	}
}
