package generator

import (
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/kiesman99/omafpack/internal/packing"
	"github.com/kiesman99/omafpack/internal/telemetry"
	"github.com/kiesman99/omafpack/pkg/omaf"
)

func testStreams() (map[uint8]omaf.Stream, []uint8) {
	return map[uint8]omaf.Stream{
		0: &omaf.VideoStream{
			StreamID:  0,
			Width:     1920,
			Height:    540,
			TileCols:  4,
			TileRows:  2,
			TileRects: omaf.UniformTiles(1920, 540, 4, 2),
		},
	}, []uint8{0}
}

var testViewports = Viewports{
	{Yaw: 0, Pitch: 0, HFOV: 120, VFOV: 60, Width: 960, Height: 540},
	{Yaw: 180, Pitch: 0, HFOV: 40, VFOV: 20},
	{Yaw: -90, Pitch: 45, HFOV: 30, VFOV: 30},
	{Yaw: 0, Pitch: 0, HFOV: 0, VFOV: 0},
}

func newInitialized(t *testing.T, opts ...Option) *Generator {
	t.Helper()
	g := New(testViewports, opts...)
	streams, idx := testStreams()
	if err := g.Initialize(DefaultLocator, streams, idx, 4, nil, 960, 540); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return g
}

func TestGenerate_TwoByTwoScenario(t *testing.T) {
	g := newInitialized(t)

	rwpk, err := g.GenerateRwpk(0)
	if err != nil {
		t.Fatalf("GenerateRwpk failed: %v", err)
	}
	if rwpk.PackedPicWidth != 960 || rwpk.PackedPicHeight != 540 {
		t.Errorf("Expected packed 960x540, got %dx%d", rwpk.PackedPicWidth, rwpk.PackedPicHeight)
	}
	if rwpk.NumRegions() != 4 {
		t.Errorf("Expected 4 regions, got %d", rwpk.NumRegions())
	}

	md, err := g.GenerateMergeDirection(0)
	if err != nil {
		t.Fatalf("GenerateMergeDirection failed: %v", err)
	}
	if got := md.TileIndices(); !reflect.DeepEqual(got, []int{1, 5, 2, 6}) {
		t.Errorf("Expected merge order [1 5 2 6], got %v", got)
	}

	cols, _ := g.TilesPerRow(0)
	rows, _ := g.TileRows(0)
	w, _ := g.PackedWidth(0)
	h, _ := g.PackedHeight(0)
	if cols != 2 || rows != 2 || w != 960 || h != 540 {
		t.Errorf("Unexpected accessors: %d cols %d rows %dx%d", cols, rows, w, h)
	}
	arr, err := g.Arrangement(0)
	if err != nil || arr.OccupiedCells() != 4 {
		t.Errorf("Expected arrangement with 4 cells, got %v %v", arr, err)
	}
}

func TestGenerate_RwpkAndMergeDirectionReferenceSameTiles(t *testing.T) {
	g := newInitialized(t)

	for i := 0; i < 3; i++ {
		rwpk, err := g.GenerateRwpk(i)
		if err != nil {
			t.Fatalf("viewport %d: GenerateRwpk failed: %v", i, err)
		}
		md, err := g.GenerateMergeDirection(i)
		if err != nil {
			t.Fatalf("viewport %d: GenerateMergeDirection failed: %v", i, err)
		}

		var fromRwpk []int
		area := 0
		for _, reg := range rwpk.Regions {
			fromRwpk = append(fromRwpk, reg.TileIndex)
			area += int(reg.PackedRegWidth) * int(reg.PackedRegHeight)
		}
		fromMd := md.TileIndices()
		sort.Ints(fromRwpk)
		sort.Ints(fromMd)
		if !reflect.DeepEqual(fromRwpk, fromMd) {
			t.Errorf("viewport %d: RWPK tiles %v, merge direction tiles %v", i, fromRwpk, fromMd)
		}
		if area != int(rwpk.PackedPicWidth)*int(rwpk.PackedPicHeight) {
			t.Errorf("viewport %d: regions cover %d of %d pixels", i, area, int(rwpk.PackedPicWidth)*int(rwpk.PackedPicHeight))
		}
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	g := newInitialized(t)

	a, err := g.GenerateRwpk(1)
	if err != nil {
		t.Fatalf("GenerateRwpk failed: %v", err)
	}
	b, err := g.GenerateRwpk(1)
	if err != nil {
		t.Fatalf("GenerateRwpk failed: %v", err)
	}
	if a == b {
		t.Error("Expected a fresh result per call")
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Expected identical results, got %+v and %+v", a, b)
	}
}

func TestGenerate_Errors(t *testing.T) {
	g := newInitialized(t)

	testCases := []struct {
		name     string
		viewport int
		want     error
		stage    packing.Stage
	}{
		{"unknown viewport", 42, packing.ErrUnknownViewport, packing.StageSelect},
		{"negative viewport", -1, packing.ErrUnknownViewport, packing.StageSelect},
		{"empty footprint", 3, packing.ErrEmptySelection, packing.StageSelect},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.GenerateRwpk(tc.viewport)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, err)
			}
			var pe *packing.Error
			if !errors.As(err, &pe) {
				t.Fatalf("Expected *packing.Error, got %T", err)
			}
			if pe.ViewportIndex != tc.viewport || pe.Stage != tc.stage {
				t.Errorf("Expected viewport %d stage %s, got %d %s", tc.viewport, tc.stage, pe.ViewportIndex, pe.Stage)
			}
		})
	}
}

func TestAccessors_BeforeGenerate(t *testing.T) {
	g := New(testViewports)
	if _, err := g.TilesPerRow(0); !errors.Is(err, packing.ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
	if _, err := g.GenerateRwpk(0); !errors.Is(err, packing.ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}

	g = newInitialized(t)
	if _, err := g.PackedWidth(0); !errors.Is(err, packing.ErrNoArrangement) {
		t.Errorf("Expected ErrNoArrangement, got %v", err)
	}
	if _, err := g.Arrangement(1); !errors.Is(err, packing.ErrNoArrangement) {
		t.Errorf("Expected ErrNoArrangement, got %v", err)
	}
}

func TestInitialize_Errors(t *testing.T) {
	streams, idx := testStreams()
	good := omaf.TileDef{Index: 1, Rect: omaf.Rect{X: 480, Y: 0, Width: 480, Height: 270}, Col: 1}
	moved := good
	moved.Rect.X = 0

	testCases := []struct {
		name     string
		loc      Locator
		streams  map[uint8]omaf.Stream
		expected int
		hint     []omaf.TileDef
		outW     int
		want     error
	}{
		{"unknown strategy", Locator{Path: "plugins", Name: "nope"}, streams, 4, nil, 960, packing.ErrPluginLoadFailure},
		{"no streams", DefaultLocator, nil, 4, nil, 960, packing.ErrInvalidConfiguration},
		{"too many expected tiles", DefaultLocator, streams, 9, nil, 960, packing.ErrInvalidConfiguration},
		{"hint larger than catalog", DefaultLocator, streams, 4, make([]omaf.TileDef, 9), 960, packing.ErrInvalidConfiguration},
		{"hint count mismatch", DefaultLocator, streams, 4, []omaf.TileDef{good}, 960, packing.ErrInvalidConfiguration},
		{"hint geometry mismatch", DefaultLocator, streams, 1, []omaf.TileDef{moved}, 960, packing.ErrInvalidConfiguration},
		{"hint index out of range", DefaultLocator, streams, 1, []omaf.TileDef{{Index: 12}}, 960, packing.ErrInvalidConfiguration},
		{"negative output", DefaultLocator, streams, 4, nil, -1, packing.ErrInvalidConfiguration},
		{"output beyond 32 bits", DefaultLocator, streams, 4, nil, 1 << 40, packing.ErrInvalidConfiguration},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := New(testViewports)
			err := g.Initialize(tc.loc, tc.streams, idx, tc.expected, tc.hint, tc.outW, 540)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
			if _, err := g.Configuration(); !errors.Is(err, packing.ErrNotInitialized) {
				t.Errorf("Expected generator to stay uninitialized, got %v", err)
			}
		})
	}
}

func TestInitialize_HintAccepted(t *testing.T) {
	streams, idx := testStreams()
	hint := []omaf.TileDef{{Index: 1, Rect: omaf.Rect{X: 480, Y: 0, Width: 480, Height: 270}, Col: 1}}

	g := New(testViewports)
	if err := g.Initialize(DefaultLocator, streams, idx, 1, hint, 0, 0); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	cfg, err := g.Configuration()
	if err != nil {
		t.Fatalf("Configuration failed: %v", err)
	}
	if cfg.Catalog.Len() != 8 || len(cfg.TileHint) != 1 {
		t.Errorf("Unexpected configuration %+v", cfg)
	}

	if err := g.Initialize(DefaultLocator, streams, idx, 1, hint, 0, 0); !errors.Is(err, packing.ErrInvalidConfiguration) {
		t.Errorf("Expected second Initialize to fail, got %v", err)
	}
}

func TestGenerate_Concurrent(t *testing.T) {
	g := newInitialized(t)

	want := make([]*omaf.RegionWisePacking, 3)
	for i := range want {
		r, err := g.GenerateRwpk(i)
		if err != nil {
			t.Fatalf("GenerateRwpk(%d) failed: %v", i, err)
		}
		want[i] = r
	}

	var wg sync.WaitGroup
	errs := make(chan error, 3*20)
	for n := 0; n < 20; n++ {
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				r, err := g.GenerateRwpk(i)
				if err != nil {
					errs <- err
					return
				}
				if !reflect.DeepEqual(r, want[i]) {
					errs <- errors.New("result differs from sequential run")
				}
			}(i)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestTelemetry(t *testing.T) {
	rec := &telemetry.Recorder{}
	g := newInitialized(t, WithTelemetry(rec))

	for i := 0; i < 3; i++ {
		if _, err := g.Generate(0); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
	}
	if _, err := g.Generate(1); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	g.ReportEncodedFrame(telemetry.EncodedFrameSize{FrameIndex: 1, FrameSize: 100})
	g.ReportPackedSegment(telemetry.PackedSegmentSize{SegmentIndex: 1, SegmentSize: 1000})
	g.ReportSegmentation(telemetry.SegmentationInfo{DashMode: "static", TotalSegments: 10})

	ev := rec.Snapshot()
	if len(ev.Viewports) != 2 {
		t.Errorf("Expected one initial viewport event per viewport, got %d", len(ev.Viewports))
	}
	if ev.Viewports[0].ProjectionType != "ERP" || ev.Viewports[0].Width != 960 {
		t.Errorf("Unexpected initial viewport event %+v", ev.Viewports[0])
	}
	if ev.Viewports[1].Width != 960 || ev.Viewports[1].Height != 540 {
		t.Errorf("Expected configured output size for viewport without one, got %+v", ev.Viewports[1])
	}
	if len(ev.Redundancies) != 4 {
		t.Errorf("Expected 4 redundancy events, got %d", len(ev.Redundancies))
	}
	if r := ev.Redundancies[0]; r.TileCols != 2 || r.TileRows != 2 || r.Ratio() != 1 {
		t.Errorf("Unexpected redundancy event %+v", r)
	}
	if len(ev.Frames) != 1 || len(ev.Segments) != 1 || len(ev.Segmentation) != 1 {
		t.Errorf("Expected forwarded size events, got %+v", ev)
	}
}

// brokenStrategy drops the last merge column
type brokenStrategy struct {
	packing.Strategy
}

func (b brokenStrategy) MergeDirection(arr *omaf.TileArrangement) (*omaf.TilesMergeDirectionInCol, error) {
	md, err := b.Strategy.MergeDirection(arr)
	if err != nil {
		return nil, err
	}
	md.Columns = md.Columns[:len(md.Columns)-1]
	return md, nil
}

func TestGenerate_InvariantViolation(t *testing.T) {
	packing.Register("test", "broken", func(p packing.Params) (packing.Strategy, error) {
		tb, err := packing.NewTileBlock(p)
		if err != nil {
			return nil, err
		}
		return brokenStrategy{tb}, nil
	})

	g := New(testViewports)
	streams, idx := testStreams()
	if err := g.Initialize(Locator{Path: "test", Name: "broken"}, streams, idx, 4, nil, 0, 0); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	_, err := g.GenerateMergeDirection(0)
	if !errors.Is(err, packing.ErrInvariantViolation) {
		t.Fatalf("Expected ErrInvariantViolation, got %v", err)
	}
	var pe *packing.Error
	if !errors.As(err, &pe) || pe.Stage != packing.StageVerify {
		t.Errorf("Expected verify stage, got %v", err)
	}
	if _, err := g.Arrangement(0); !errors.Is(err, packing.ErrNoArrangement) {
		t.Errorf("Expected no cached arrangement after a failure, got %v", err)
	}
}
