package omaf

// MediaKind identifies the media carried by a stream
type MediaKind int

const (
	KindVideo MediaKind = iota
	KindAudio
)

// Stream describes one active media stream set up for packaging
type Stream interface {
	ID() uint8
	Kind() MediaKind
	// Resolution returns the encoded picture size
	Resolution() (width, height int)
	// TileGrid returns the number of tile columns and rows
	TileGrid() (cols, rows int)
	// Tiles returns tile rectangles, row-major
	Tiles() []Rect
}

// VideoStream is a plain tiled video stream descriptor
type VideoStream struct {
	StreamID  uint8
	Width     int
	Height    int
	TileCols  int
	TileRows  int
	TileRects []Rect
}

func (v *VideoStream) ID() uint8              { return v.StreamID }
func (v *VideoStream) Kind() MediaKind        { return KindVideo }
func (v *VideoStream) Resolution() (int, int) { return v.Width, v.Height }
func (v *VideoStream) TileGrid() (int, int)   { return v.TileCols, v.TileRows }
func (v *VideoStream) Tiles() []Rect          { return v.TileRects }

// UniformTiles splits a width x height picture into cols x rows tiles, row-major.
// Remainder pixels go to the last column and row.
func UniformTiles(width, height, cols, rows int) []Rect {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	tw, th := width/cols, height/rows
	out := make([]Rect, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			rect := Rect{X: c * tw, Y: r * th, Width: tw, Height: th}
			if c == cols-1 {
				rect.Width = width - rect.X
			}
			if r == rows-1 {
				rect.Height = height - rect.Y
			}
			out = append(out, rect)
		}
	}
	return out
}
