package generator

import (
	"fmt"
	"math"
	"sync"

	"github.com/go-logr/logr"

	"github.com/kiesman99/omafpack/internal/catalog"
	"github.com/kiesman99/omafpack/internal/packing"
	"github.com/kiesman99/omafpack/internal/telemetry"
	"github.com/kiesman99/omafpack/pkg/omaf"
)

// ViewportSet resolves viewport indices to viewports
type ViewportSet interface {
	Viewport(index int) (omaf.Viewport, bool)
	Len() int
}

// Viewports is a fixed, index-addressed viewport set
type Viewports []omaf.Viewport

func (v Viewports) Viewport(index int) (omaf.Viewport, bool) {
	if index < 0 || index >= len(v) {
		return omaf.Viewport{}, false
	}
	return v[index], true
}

func (v Viewports) Len() int { return len(v) }

// Locator names the packing strategy to bind
type Locator struct {
	Path string
	Name string
}

// DefaultLocator is the builtin tile block strategy
var DefaultLocator = Locator{Path: packing.BuiltinLocator, Name: packing.TileBlockName}

// Configuration is fixed at Initialize
type Configuration struct {
	Locator         Locator
	Catalog         *catalog.Catalog
	TilesInViewport int
	TileHint        []omaf.TileDef
	OutputWidth     int
	OutputHeight    int
}

// Result is one packing decision and the metadata describing it.
// Results are shared between callers and must not be modified.
type Result struct {
	ViewportIndex  int
	Viewport       omaf.Viewport
	Selection      packing.Selection
	Arrangement    *omaf.TileArrangement
	RWPK           *omaf.RegionWisePacking
	MergeDirection *omaf.TilesMergeDirectionInCol
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the logger
func WithLogger(l logr.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// WithTelemetry sets the telemetry sink
func WithTelemetry(s telemetry.Sink) Option {
	return func(g *Generator) { g.sink = s }
}

// WithProjector replaces the equirectangular projector
func WithProjector(p omaf.Projector, projectionType string) Option {
	return func(g *Generator) {
		g.projector = p
		g.projectionType = projectionType
	}
}

// WithMaxPackedSize lowers the largest packed picture side
func WithMaxPackedSize(n int) Option {
	return func(g *Generator) { g.maxPacked = n }
}

// Generator produces region-wise packing and merge direction metadata for
// the viewports of a tiled omnidirectional stream.
type Generator struct {
	log            logr.Logger
	sink           telemetry.Sink
	projector      omaf.Projector
	projectionType string
	maxPacked      int
	viewports      ViewportSet

	mu        sync.RWMutex
	cfg       *Configuration
	strategy  packing.Strategy
	latest    map[int]*Result
	announced map[int]bool
}

// New creates a generator serving the given viewport set
func New(viewports ViewportSet, opts ...Option) *Generator {
	if viewports == nil {
		viewports = Viewports(nil)
	}
	g := &Generator{
		log:            logr.Discard(),
		sink:           telemetry.Nop{},
		projector:      omaf.EquirectProjector{},
		projectionType: "ERP",
		viewports:      viewports,
		latest:         make(map[int]*Result),
		announced:      make(map[int]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.WithName("rwpk")
	return g
}

// Initialize binds the packing strategy and builds the tile catalog from
// the first video stream in videoIdx. It can only succeed once.
func (g *Generator) Initialize(
	loc Locator,
	streams map[uint8]omaf.Stream,
	videoIdx []uint8,
	tilesInViewport int,
	tileHint []omaf.TileDef,
	outputWidth, outputHeight int,
) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.strategy != nil {
		return fmt.Errorf("%w: already initialized", packing.ErrInvalidConfiguration)
	}

	cat, err := catalog.New(streams, videoIdx)
	if err != nil {
		return fmt.Errorf("%w: %w", packing.ErrInvalidConfiguration, err)
	}

	if err := validate(cat, tilesInViewport, tileHint, outputWidth, outputHeight); err != nil {
		return err
	}

	strategy, err := packing.Resolve(loc.Path, loc.Name, packing.Params{
		Catalog:       cat,
		Projector:     g.projector,
		ExpectedTiles: tilesInViewport,
		OutputWidth:   outputWidth,
		OutputHeight:  outputHeight,
		MaxPackedSize: g.maxPacked,
	})
	if err != nil {
		return err
	}

	g.cfg = &Configuration{
		Locator:         loc,
		Catalog:         cat,
		TilesInViewport: tilesInViewport,
		TileHint:        append([]omaf.TileDef(nil), tileHint...),
		OutputWidth:     outputWidth,
		OutputHeight:    outputHeight,
	}
	g.strategy = strategy

	g.log.Info("initialized",
		"strategy", loc.Path+"/"+loc.Name,
		"stream", cat.StreamID(),
		"grid", fmt.Sprintf("%dx%d", cat.Cols(), cat.Rows()),
		"picture", fmt.Sprintf("%dx%d", cat.Width(), cat.Height()),
		"tilesInViewport", tilesInViewport,
		"viewports", g.viewports.Len())
	return nil
}

func validate(cat *catalog.Catalog, tilesInViewport int, tileHint []omaf.TileDef, outputWidth, outputHeight int) error {
	if tilesInViewport < 0 || tilesInViewport > cat.Len() {
		return fmt.Errorf("%w: %d tiles in viewport, catalog holds %d", packing.ErrInvalidConfiguration, tilesInViewport, cat.Len())
	}
	if len(tileHint) > cat.Len() {
		return fmt.Errorf("%w: %d hinted tiles, catalog holds %d", packing.ErrInvalidConfiguration, len(tileHint), cat.Len())
	}
	if len(tileHint) > 0 && len(tileHint) != tilesInViewport {
		return fmt.Errorf("%w: %d hinted tiles for %d tiles in viewport", packing.ErrInvalidConfiguration, len(tileHint), tilesInViewport)
	}
	for _, h := range tileHint {
		td, err := cat.Lookup(h.Index)
		if err != nil {
			return fmt.Errorf("%w: hinted tile: %w", packing.ErrInvalidConfiguration, err)
		}
		if td.Rect != h.Rect {
			return fmt.Errorf("%w: hinted tile %d at %+v, catalog has %+v", packing.ErrInvalidConfiguration, h.Index, h.Rect, td.Rect)
		}
	}
	if outputWidth < 0 || outputHeight < 0 || int64(outputWidth) > math.MaxUint32 || int64(outputHeight) > math.MaxUint32 {
		return fmt.Errorf("%w: output size %dx%d", packing.ErrInvalidConfiguration, outputWidth, outputHeight)
	}
	return nil
}

// Configuration returns the configuration fixed at Initialize
func (g *Generator) Configuration() (*Configuration, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.cfg == nil {
		return nil, packing.ErrNotInitialized
	}
	return g.cfg, nil
}

// Viewports returns the viewport set served by the generator
func (g *Generator) Viewports() ViewportSet {
	return g.viewports
}

// Generate selects, arranges and describes the tiles for one viewport.
// RWPK and merge direction are built from the same arrangement and
// verified against each other.
func (g *Generator) Generate(viewportIdx int) (*Result, error) {
	g.mu.RLock()
	strategy, cfg := g.strategy, g.cfg
	g.mu.RUnlock()

	if strategy == nil {
		return nil, packing.ErrNotInitialized
	}

	vp, ok := g.viewports.Viewport(viewportIdx)
	if !ok {
		return nil, &packing.Error{ViewportIndex: viewportIdx, Stage: packing.StageSelect, Err: packing.ErrUnknownViewport}
	}
	g.announce(viewportIdx, vp, cfg)

	fail := func(stage packing.Stage, err error) (*Result, error) {
		g.log.V(1).Info("packing failed", "viewport", viewportIdx, "stage", stage, "err", err.Error())
		return nil, &packing.Error{ViewportIndex: viewportIdx, Stage: stage, Err: err}
	}

	sel, err := strategy.Select(vp)
	if err != nil {
		return fail(packing.StageSelect, err)
	}
	if sel.HintMismatch {
		g.log.Info("tile count differs from hint, using geometric selection",
			"viewport", viewportIdx, "selected", len(sel.Tiles), "expected", sel.Expected)
	}

	arr, err := strategy.Arrange(sel)
	if err != nil {
		return fail(packing.StageArrange, err)
	}

	rwpk, err := strategy.RegionWisePacking(arr, vp)
	if err != nil {
		return fail(packing.StageRWPK, err)
	}

	md, err := strategy.MergeDirection(arr)
	if err != nil {
		return fail(packing.StageMergeDirection, err)
	}

	if err := packing.Verify(arr, rwpk, md); err != nil {
		g.log.Error(err, "strategy produced inconsistent metadata", "viewport", viewportIdx)
		return nil, &packing.Error{ViewportIndex: viewportIdx, Stage: packing.StageVerify, Err: err}
	}

	netW, netH := vp.Width, vp.Height
	if netW <= 0 || netH <= 0 {
		netW, netH = cfg.OutputWidth, cfg.OutputHeight
	}
	g.sink.SelectionRedundancy(telemetry.SelectionRedundancy{
		ViewportIndex: viewportIdx,
		NetWidth:      netW,
		NetHeight:     netH,
		TiledWidth:    arr.PackedWidth,
		TiledHeight:   arr.PackedHeight,
		TileRows:      arr.Rows,
		TileCols:      arr.Cols,
	})

	res := &Result{
		ViewportIndex:  viewportIdx,
		Viewport:       vp,
		Selection:      sel,
		Arrangement:    arr,
		RWPK:           rwpk,
		MergeDirection: md,
	}

	g.mu.Lock()
	g.latest[viewportIdx] = res
	g.mu.Unlock()

	g.log.V(1).Info("packed viewport", "viewport", viewportIdx,
		"tiles", len(rwpk.Regions), "packed", fmt.Sprintf("%dx%d", arr.PackedWidth, arr.PackedHeight))
	return res, nil
}

// announce emits the initial viewport event the first time a viewport is packed
func (g *Generator) announce(viewportIdx int, vp omaf.Viewport, cfg *Configuration) {
	g.mu.Lock()
	first := !g.announced[viewportIdx]
	g.announced[viewportIdx] = true
	g.mu.Unlock()

	if !first {
		return
	}

	w, h := vp.Width, vp.Height
	if w <= 0 || h <= 0 {
		w, h = cfg.OutputWidth, cfg.OutputHeight
	}
	g.sink.InitialViewport(telemetry.InitialViewport{
		ViewportIndex:  viewportIdx,
		Width:          w,
		Height:         h,
		Pitch:          vp.Pitch,
		Yaw:            vp.Yaw,
		HFOV:           vp.HFOV,
		VFOV:           vp.VFOV,
		ProjectionType: g.projectionType,
	})
}

// GenerateRwpk returns the region-wise packing for a viewport
func (g *Generator) GenerateRwpk(viewportIdx int) (*omaf.RegionWisePacking, error) {
	res, err := g.Generate(viewportIdx)
	if err != nil {
		return nil, err
	}
	return res.RWPK, nil
}

// GenerateMergeDirection returns the tiles merge direction for a viewport
func (g *Generator) GenerateMergeDirection(viewportIdx int) (*omaf.TilesMergeDirectionInCol, error) {
	res, err := g.Generate(viewportIdx)
	if err != nil {
		return nil, err
	}
	return res.MergeDirection, nil
}

// Latest returns the most recent result computed for a viewport
func (g *Generator) Latest(viewportIdx int) (*Result, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.strategy == nil {
		return nil, packing.ErrNotInitialized
	}
	res, ok := g.latest[viewportIdx]
	if !ok {
		return nil, fmt.Errorf("%w: %d", packing.ErrNoArrangement, viewportIdx)
	}
	return res, nil
}

// TilesPerRow returns the tile columns of the latest arrangement for a viewport
func (g *Generator) TilesPerRow(viewportIdx int) (int, error) {
	res, err := g.Latest(viewportIdx)
	if err != nil {
		return 0, err
	}
	return res.Arrangement.Cols, nil
}

// TileRows returns the tile rows of the latest arrangement for a viewport
func (g *Generator) TileRows(viewportIdx int) (int, error) {
	res, err := g.Latest(viewportIdx)
	if err != nil {
		return 0, err
	}
	return res.Arrangement.Rows, nil
}

// PackedWidth returns the packed picture width of the latest arrangement
func (g *Generator) PackedWidth(viewportIdx int) (int, error) {
	res, err := g.Latest(viewportIdx)
	if err != nil {
		return 0, err
	}
	return res.Arrangement.PackedWidth, nil
}

// PackedHeight returns the packed picture height of the latest arrangement
func (g *Generator) PackedHeight(viewportIdx int) (int, error) {
	res, err := g.Latest(viewportIdx)
	if err != nil {
		return 0, err
	}
	return res.Arrangement.PackedHeight, nil
}

// Arrangement returns the latest arrangement for a viewport
func (g *Generator) Arrangement(viewportIdx int) (*omaf.TileArrangement, error) {
	res, err := g.Latest(viewportIdx)
	if err != nil {
		return nil, err
	}
	return res.Arrangement, nil
}

// ReportEncodedFrame forwards encoder frame size accounting to telemetry
func (g *Generator) ReportEncodedFrame(e telemetry.EncodedFrameSize) {
	g.sink.EncodedFrameSize(e)
}

// ReportPackedSegment forwards segment size accounting to telemetry
func (g *Generator) ReportPackedSegment(e telemetry.PackedSegmentSize) {
	g.sink.PackedSegmentSize(e)
}

// ReportSegmentation forwards segmentation parameters to telemetry
func (g *Generator) ReportSegmentation(e telemetry.SegmentationInfo) {
	g.sink.SegmentationInfo(e)
}
