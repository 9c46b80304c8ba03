package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kiesman99/omafpack/internal/generator"
	"github.com/kiesman99/omafpack/pkg/omaf"
)

// Source describes a regularly tiled source picture
type Source struct {
	StreamID uint8 `mapstructure:"stream-id"`
	Width    int   `mapstructure:"width"`
	Height   int   `mapstructure:"height"`
	TileCols int   `mapstructure:"tile-cols"`
	TileRows int   `mapstructure:"tile-rows"`
}

// Validate checks the source can be split into its tile grid
func (s Source) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("source size must be positive: %dx%d", s.Width, s.Height)
	}
	if s.TileCols <= 0 || s.TileRows <= 0 {
		return fmt.Errorf("tile grid must be positive: %dx%d", s.TileCols, s.TileRows)
	}
	if s.TileCols > s.Width || s.TileRows > s.Height {
		return fmt.Errorf("tile grid %dx%d finer than %dx%d picture", s.TileCols, s.TileRows, s.Width, s.Height)
	}
	return nil
}

// Streams returns the stream set and video index for the source
func (s Source) Streams() (map[uint8]omaf.Stream, []uint8) {
	vs := &omaf.VideoStream{
		StreamID:  s.StreamID,
		Width:     s.Width,
		Height:    s.Height,
		TileCols:  s.TileCols,
		TileRows:  s.TileRows,
		TileRects: omaf.UniformTiles(s.Width, s.Height, s.TileCols, s.TileRows),
	}
	return map[uint8]omaf.Stream{s.StreamID: vs}, []uint8{s.StreamID}
}

// Config is everything needed to set up a generator
type Config struct {
	Source          Source
	Viewports       []omaf.Viewport
	Locator         generator.Locator
	TilesInViewport int
	OutputWidth     int
	OutputHeight    int
	MaxPackedSize   int
}

// Build validates cfg and returns an initialized generator
func (c *Config) Build(opts ...generator.Option) (*generator.Generator, error) {
	if err := c.Source.Validate(); err != nil {
		return nil, err
	}
	if len(c.Viewports) == 0 {
		return nil, fmt.Errorf("no viewports configured")
	}

	loc := c.Locator
	if loc.Path == "" {
		loc.Path = generator.DefaultLocator.Path
	}
	if loc.Name == "" {
		loc.Name = generator.DefaultLocator.Name
	}

	if c.MaxPackedSize > 0 {
		opts = append(opts, generator.WithMaxPackedSize(c.MaxPackedSize))
	}

	g := generator.New(generator.Viewports(c.Viewports), opts...)
	streams, videoIdx := c.Source.Streams()
	if err := g.Initialize(loc, streams, videoIdx, c.TilesInViewport, nil, c.OutputWidth, c.OutputHeight); err != nil {
		return nil, err
	}
	return g, nil
}

// ParseViewport parses "yaw,pitch,hfov,vfov" with an optional ",width,height"
func ParseViewport(spec string) (omaf.Viewport, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 && len(parts) != 6 {
		return omaf.Viewport{}, fmt.Errorf("viewport must be in format 'yaw,pitch,hfov,vfov[,width,height]'")
	}

	var angles [4]float64
	names := [4]string{"yaw", "pitch", "hfov", "vfov"}
	for i := range angles {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return omaf.Viewport{}, fmt.Errorf("invalid %s in viewport: %v", names[i], err)
		}
		angles[i] = v
	}

	vp := omaf.Viewport{Yaw: angles[0], Pitch: angles[1], HFOV: angles[2], VFOV: angles[3]}
	if vp.HFOV <= 0 || vp.HFOV > 360 || vp.VFOV <= 0 || vp.VFOV > 180 {
		return omaf.Viewport{}, fmt.Errorf("field of view out of range: %gx%g", vp.HFOV, vp.VFOV)
	}
	if vp.Pitch < -90 || vp.Pitch > 90 {
		return omaf.Viewport{}, fmt.Errorf("pitch out of range: %g", vp.Pitch)
	}

	if len(parts) == 6 {
		w, err := strconv.Atoi(strings.TrimSpace(parts[4]))
		if err != nil {
			return omaf.Viewport{}, fmt.Errorf("invalid width in viewport: %v", err)
		}
		h, err := strconv.Atoi(strings.TrimSpace(parts[5]))
		if err != nil {
			return omaf.Viewport{}, fmt.Errorf("invalid height in viewport: %v", err)
		}
		if w <= 0 || h <= 0 {
			return omaf.Viewport{}, fmt.Errorf("viewport size must be positive: %dx%d", w, h)
		}
		if int64(w) > math.MaxUint32 || int64(h) > math.MaxUint32 {
			return omaf.Viewport{}, fmt.Errorf("viewport size %dx%d exceeds %d", w, h, uint64(math.MaxUint32))
		}
		vp.Width, vp.Height = w, h
	}

	return vp, nil
}

// ParseViewports parses every spec in order
func ParseViewports(specs []string) ([]omaf.Viewport, error) {
	out := make([]omaf.Viewport, 0, len(specs))
	for i, s := range specs {
		vp, err := ParseViewport(s)
		if err != nil {
			return nil, fmt.Errorf("viewport %d: %w", i, err)
		}
		out = append(out, vp)
	}
	return out, nil
}
