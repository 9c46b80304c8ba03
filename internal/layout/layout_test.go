package layout

import (
	"errors"
	"strings"
	"testing"

	"github.com/kiesman99/omafpack/internal/generator"
	"github.com/kiesman99/omafpack/internal/packing"
	"github.com/kiesman99/omafpack/pkg/omaf"
)

func TestParseViewport(t *testing.T) {
	testCases := []struct {
		name    string
		spec    string
		want    omaf.Viewport
		wantErr bool
	}{
		{"angles only", "0,0,120,60", omaf.Viewport{HFOV: 120, VFOV: 60}, false},
		{"with size", " -90, 45 ,30,30,960,540", omaf.Viewport{Yaw: -90, Pitch: 45, HFOV: 30, VFOV: 30, Width: 960, Height: 540}, false},
		{"too few parts", "0,0,120", omaf.Viewport{}, true},
		{"five parts", "0,0,120,60,960", omaf.Viewport{}, true},
		{"bad yaw", "east,0,120,60", omaf.Viewport{}, true},
		{"zero fov", "0,0,0,60", omaf.Viewport{}, true},
		{"pitch beyond pole", "0,95,90,60", omaf.Viewport{}, true},
		{"bad width", "0,0,90,60,wide,540", omaf.Viewport{}, true},
		{"negative height", "0,0,90,60,960,-1", omaf.Viewport{}, true},
		{"width beyond 32 bits", "0,0,90,60,5000000000,540", omaf.Viewport{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseViewport(tc.spec)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestParseViewports_ReportsIndex(t *testing.T) {
	_, err := ParseViewports([]string{"0,0,90,60", "bad"})
	if err == nil || !strings.HasPrefix(err.Error(), "viewport 1:") {
		t.Errorf("Expected error naming viewport 1, got %v", err)
	}
}

func TestSourceValidate(t *testing.T) {
	testCases := []struct {
		name string
		src  Source
		ok   bool
	}{
		{"valid", Source{Width: 1920, Height: 540, TileCols: 4, TileRows: 2}, true},
		{"zero size", Source{TileCols: 4, TileRows: 2}, false},
		{"zero grid", Source{Width: 1920, Height: 540}, false},
		{"grid finer than picture", Source{Width: 2, Height: 2, TileCols: 4, TileRows: 2}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.src.Validate(); (err == nil) != tc.ok {
				t.Errorf("Expected ok=%v, got %v", tc.ok, err)
			}
		})
	}
}

func TestConfigBuild(t *testing.T) {
	cfg := &Config{
		Source:          Source{StreamID: 3, Width: 1920, Height: 540, TileCols: 4, TileRows: 2},
		Viewports:       []omaf.Viewport{{HFOV: 120, VFOV: 60, Width: 960, Height: 540}},
		TilesInViewport: 4,
	}

	g, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	gc, err := g.Configuration()
	if err != nil {
		t.Fatalf("Configuration failed: %v", err)
	}
	if gc.Locator != generator.DefaultLocator {
		t.Errorf("Expected default locator, got %+v", gc.Locator)
	}
	if gc.Catalog.StreamID() != 3 {
		t.Errorf("Expected stream 3, got %d", gc.Catalog.StreamID())
	}

	if _, err := g.GenerateRwpk(0); err != nil {
		t.Errorf("GenerateRwpk failed: %v", err)
	}
}

func TestConfigBuild_Errors(t *testing.T) {
	src := Source{Width: 1920, Height: 540, TileCols: 4, TileRows: 2}
	vps := []omaf.Viewport{{HFOV: 120, VFOV: 60}}

	bad := &Config{Source: Source{}, Viewports: vps}
	if _, err := bad.Build(); err == nil {
		t.Error("Expected invalid source to fail")
	}

	none := &Config{Source: src}
	if _, err := none.Build(); err == nil {
		t.Error("Expected missing viewports to fail")
	}

	plugin := &Config{Source: src, Viewports: vps, Locator: generator.Locator{Path: "plugins", Name: "missing"}}
	if _, err := plugin.Build(); !errors.Is(err, packing.ErrPluginLoadFailure) {
		t.Errorf("Expected ErrPluginLoadFailure, got %v", err)
	}

	small := &Config{Source: src, Viewports: vps, MaxPackedSize: 500}
	g, err := small.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := g.GenerateRwpk(0); !errors.Is(err, packing.ErrDimensionOverflow) {
		t.Errorf("Expected ErrDimensionOverflow, got %v", err)
	}
}
