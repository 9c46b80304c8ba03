package omaf

import "image"

// Format limits of the region-wise packing box
const (
	MaxPackedPicSize = 1<<16 - 1 // packed_picture_width/height are u(16)
	MaxRegions       = 1<<8 - 1  // num_regions is u(8)
)

// TransformType is the region transform applied between projected and packed picture
type TransformType uint8

// Transform types as enumerated by the region-wise packing format
const (
	TransformNone TransformType = iota
	TransformMirrorHorizontal
	TransformRotate180
	TransformRotate180Mirror
	TransformRotate90Mirror
	TransformRotate90
	TransformRotate270Mirror
	TransformRotate270
)

func (t TransformType) String() string {
	switch t {
	case TransformNone:
		return "none"
	case TransformMirrorHorizontal:
		return "mirror"
	case TransformRotate180:
		return "rotate180"
	case TransformRotate180Mirror:
		return "rotate180-mirror"
	case TransformRotate90Mirror:
		return "rotate90-mirror"
	case TransformRotate90:
		return "rotate90"
	case TransformRotate270Mirror:
		return "rotate270-mirror"
	case TransformRotate270:
		return "rotate270"
	}
	return "unknown"
}

// Rect is a pixel rectangle
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Image converts the rect to an image.Rectangle
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// RectFromImage converts an image.Rectangle to a Rect
func RectFromImage(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// TileDef describes one tile of the source tile grid
type TileDef struct {
	Index int  `json:"index"`
	Rect  Rect `json:"rect"`
	Col   int  `json:"col"`
	Row   int  `json:"row"`
}

// Viewport is a requested viewing window. Angles are in degrees.
type Viewport struct {
	Yaw    float64 `json:"yaw" mapstructure:"yaw"`
	Pitch  float64 `json:"pitch" mapstructure:"pitch"`
	HFOV   float64 `json:"hfov" mapstructure:"hfov"`
	VFOV   float64 `json:"vfov" mapstructure:"vfov"`
	Width  int     `json:"width" mapstructure:"width"`
	Height int     `json:"height" mapstructure:"height"`
}

// Cell is one slot of a TileArrangement
type Cell struct {
	TileIndex int  `json:"tile_index"` // -1 when empty
	Packed    Rect `json:"packed"`
}

// Occupied reports whether a source tile sits in the cell
func (c Cell) Occupied() bool {
	return c.TileIndex >= 0
}

// TileArrangement is the result of one packing decision
type TileArrangement struct {
	Cols         int    `json:"cols"`
	Rows         int    `json:"rows"`
	SourceCols   []int  `json:"source_cols"` // source grid column of each packed column
	SourceRows   []int  `json:"source_rows"` // source grid row of each packed row
	Cells        []Cell `json:"cells"`       // row-major, len == Cols*Rows
	PackedWidth  int    `json:"packed_width"`
	PackedHeight int    `json:"packed_height"`
}

// At returns the cell at packed column col and row row
func (a *TileArrangement) At(col, row int) Cell {
	return a.Cells[row*a.Cols+col]
}

// OccupiedCells counts cells holding a tile
func (a *TileArrangement) OccupiedCells() int {
	n := 0
	for _, c := range a.Cells {
		if c.Occupied() {
			n++
		}
	}
	return n
}

// RectangularRegion is one region mapping of the region-wise packing
type RectangularRegion struct {
	TileIndex       int           `json:"tile_index"`
	TransformType   TransformType `json:"transform_type"`
	GuardBand       bool          `json:"guard_band"`
	ProjRegLeft     uint32        `json:"proj_reg_left"`
	ProjRegTop      uint32        `json:"proj_reg_top"`
	ProjRegWidth    uint32        `json:"proj_reg_width"`
	ProjRegHeight   uint32        `json:"proj_reg_height"`
	PackedRegLeft   uint16        `json:"packed_reg_left"`
	PackedRegTop    uint16        `json:"packed_reg_top"`
	PackedRegWidth  uint16        `json:"packed_reg_width"`
	PackedRegHeight uint16        `json:"packed_reg_height"`
}

// ProjRect returns the projected rectangle of the region
func (r RectangularRegion) ProjRect() Rect {
	return Rect{X: int(r.ProjRegLeft), Y: int(r.ProjRegTop), Width: int(r.ProjRegWidth), Height: int(r.ProjRegHeight)}
}

// PackedRect returns the packed rectangle of the region
func (r RectangularRegion) PackedRect() Rect {
	return Rect{X: int(r.PackedRegLeft), Y: int(r.PackedRegTop), Width: int(r.PackedRegWidth), Height: int(r.PackedRegHeight)}
}

// RegionWisePacking maps projected picture regions to the packed picture.
// Regions are in row-major order of the arrangement they were built from.
type RegionWisePacking struct {
	ConstituentPicMatching bool                `json:"constituent_pic_matching"`
	ProjPicWidth           uint32              `json:"proj_pic_width"`
	ProjPicHeight          uint32              `json:"proj_pic_height"`
	PackedPicWidth         uint16              `json:"packed_pic_width"`
	PackedPicHeight        uint16              `json:"packed_pic_height"`
	Regions                []RectangularRegion `json:"regions"`
}

// NumRegions returns the num_regions field value
func (p *RegionWisePacking) NumRegions() uint8 {
	return uint8(len(p.Regions))
}

// MergedTile references a source tile placed in a packed column
type MergedTile struct {
	TileIndex int `json:"tile_index"`
	SourceCol int `json:"source_col"`
	SourceRow int `json:"source_row"`
}

// MergeColumn lists tiles of one packed column, top to bottom
type MergeColumn struct {
	Tiles []MergedTile `json:"tiles"`
}

// TilesMergeDirectionInCol describes per-column tile concatenation order
type TilesMergeDirectionInCol struct {
	Columns []MergeColumn `json:"columns"`
}

// TileIndices returns every referenced tile index in column-major order
func (d *TilesMergeDirectionInCol) TileIndices() []int {
	var out []int
	for _, col := range d.Columns {
		for _, t := range col.Tiles {
			out = append(out, t.TileIndex)
		}
	}
	return out
}
