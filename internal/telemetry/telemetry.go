// Package telemetry emits bandwidth accounting events. Events are fire and
// forget: sinks never return errors and callers never wait on them.
package telemetry

import (
	"sync"

	"github.com/go-logr/logr"
)

// InitialViewport describes a viewport the first time it is packed
type InitialViewport struct {
	ViewportIndex  int
	Width          int
	Height         int
	Pitch          float64
	Yaw            float64
	HFOV           float64
	VFOV           float64
	ProjectionType string
}

// SelectionRedundancy compares the viewport's net size with the tiled
// area actually selected for it.
type SelectionRedundancy struct {
	ViewportIndex int
	NetWidth      int
	NetHeight     int
	TiledWidth    int
	TiledHeight   int
	TileRows      int
	TileCols      int
}

// Ratio returns tiled area over net area, or 0 when the net area is unknown
func (s SelectionRedundancy) Ratio() float64 {
	net := s.NetWidth * s.NetHeight
	if net <= 0 {
		return 0
	}
	return float64(s.TiledWidth*s.TiledHeight) / float64(net)
}

// EncodedFrameSize is the size of one encoded frame of a tile split
type EncodedFrameSize struct {
	Resolution string
	TileSplit  string
	FrameIndex int
	FrameSize  int
}

// PackedSegmentSize is the size of one packaged segment of a track
type PackedSegmentSize struct {
	TrackIndex   int
	TrackType    string
	SegmentIndex int
	SegmentSize  int
}

// SegmentationInfo describes how the output is cut into segments
type SegmentationInfo struct {
	DashMode        string
	SegmentDuration int
	FrameRate       float64
	TotalFrames     int
	TotalSegments   int
}

// Sink receives telemetry events
type Sink interface {
	InitialViewport(InitialViewport)
	SelectionRedundancy(SelectionRedundancy)
	EncodedFrameSize(EncodedFrameSize)
	PackedSegmentSize(PackedSegmentSize)
	SegmentationInfo(SegmentationInfo)
}

// Nop discards every event
type Nop struct{}

func (Nop) InitialViewport(InitialViewport)         {}
func (Nop) SelectionRedundancy(SelectionRedundancy) {}
func (Nop) EncodedFrameSize(EncodedFrameSize)       {}
func (Nop) PackedSegmentSize(PackedSegmentSize)     {}
func (Nop) SegmentationInfo(SegmentationInfo)       {}

// LogSink writes events as structured log lines at verbosity 1
type LogSink struct {
	log logr.Logger
}

// NewLogSink creates a sink logging through l
func NewLogSink(l logr.Logger) *LogSink {
	return &LogSink{log: l.WithName("bandwidth").V(1)}
}

func (s *LogSink) InitialViewport(e InitialViewport) {
	s.log.Info("initial_viewport_info",
		"viewport", e.ViewportIndex,
		"width", e.Width, "height", e.Height,
		"pitch", e.Pitch, "yaw", e.Yaw,
		"hfov", e.HFOV, "vfov", e.VFOV,
		"projection", e.ProjectionType)
}

func (s *LogSink) SelectionRedundancy(e SelectionRedundancy) {
	s.log.Info("tiles_selection_redundancy",
		"viewport", e.ViewportIndex,
		"netWidth", e.NetWidth, "netHeight", e.NetHeight,
		"tiledWidth", e.TiledWidth, "tiledHeight", e.TiledHeight,
		"tileRows", e.TileRows, "tileCols", e.TileCols,
		"ratio", e.Ratio())
}

func (s *LogSink) EncodedFrameSize(e EncodedFrameSize) {
	s.log.Info("encoded_frame_size",
		"resolution", e.Resolution, "tileSplit", e.TileSplit,
		"frame", e.FrameIndex, "size", e.FrameSize)
}

func (s *LogSink) PackedSegmentSize(e PackedSegmentSize) {
	s.log.Info("packed_segment_size",
		"track", e.TrackIndex, "trackType", e.TrackType,
		"segment", e.SegmentIndex, "size", e.SegmentSize)
}

func (s *LogSink) SegmentationInfo(e SegmentationInfo) {
	s.log.Info("segmentation_info",
		"dashMode", e.DashMode, "segmentDuration", e.SegmentDuration,
		"frameRate", e.FrameRate,
		"totalFrames", e.TotalFrames, "totalSegments", e.TotalSegments)
}

// Events is a batch of recorded telemetry
type Events struct {
	Viewports    []InitialViewport
	Redundancies []SelectionRedundancy
	Frames       []EncodedFrameSize
	Segments     []PackedSegmentSize
	Segmentation []SegmentationInfo
}

// Recorder keeps every event in memory
type Recorder struct {
	mu     sync.Mutex
	events Events
}

func (r *Recorder) InitialViewport(e InitialViewport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events.Viewports = append(r.events.Viewports, e)
}

func (r *Recorder) SelectionRedundancy(e SelectionRedundancy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events.Redundancies = append(r.events.Redundancies, e)
}

func (r *Recorder) EncodedFrameSize(e EncodedFrameSize) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events.Frames = append(r.events.Frames, e)
}

func (r *Recorder) PackedSegmentSize(e PackedSegmentSize) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events.Segments = append(r.events.Segments, e)
}

func (r *Recorder) SegmentationInfo(e SegmentationInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events.Segmentation = append(r.events.Segmentation, e)
}

// Snapshot returns a copy of the recorded events
func (r *Recorder) Snapshot() Events {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Events{
		Viewports:    append([]InitialViewport(nil), r.events.Viewports...),
		Redundancies: append([]SelectionRedundancy(nil), r.events.Redundancies...),
		Frames:       append([]EncodedFrameSize(nil), r.events.Frames...),
		Segments:     append([]PackedSegmentSize(nil), r.events.Segments...),
		Segmentation: append([]SegmentationInfo(nil), r.events.Segmentation...),
	}
}
