package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-logr/logr"

	"github.com/kiesman99/omafpack/internal/api"
	"github.com/kiesman99/omafpack/internal/generator"
	"github.com/kiesman99/omafpack/internal/layout"
	"github.com/kiesman99/omafpack/pkg/omaf"
)

var testViewports = []omaf.Viewport{
	{Yaw: 0, Pitch: 0, HFOV: 120, VFOV: 60, Width: 960, Height: 540},
	{Yaw: 0, Pitch: 0, HFOV: 0, VFOV: 0},
}

func testGenerator(t *testing.T) *generator.Generator {
	t.Helper()
	cfg := &layout.Config{
		Source:          layout.Source{Width: 1920, Height: 540, TileCols: 4, TileRows: 2},
		Viewports:       testViewports,
		TilesInViewport: 4,
	}
	g, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

// Test server setup
func setupTestServer(t *testing.T, gen *generator.Generator) *httptest.Server {
	t.Helper()
	apiServer := NewServer("2.0.0-test", gen, logr.Discard())
	server := httptest.NewServer(NewRouter(apiServer, 30*time.Second))
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status %d, got %d. Body: %s", wantStatus, resp.StatusCode, string(body))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", ct)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := setupTestServer(t, testGenerator(t))

	var healthResp api.HealthResponse
	getJSON(t, server.URL+"/api/v1/health", http.StatusOK, &healthResp)

	if healthResp.Status != api.Healthy {
		t.Errorf("Expected status 'healthy', got %s", healthResp.Status)
	}

	if healthResp.Version == nil || *healthResp.Version != "2.0.0-test" {
		t.Errorf("Expected version '2.0.0-test', got %v", healthResp.Version)
	}

	if healthResp.Uptime == nil || *healthResp.Uptime < 0 {
		t.Errorf("Expected valid uptime, got %v", healthResp.Uptime)
	}

	// Check timestamp is recent
	if time.Since(healthResp.Timestamp) > time.Minute {
		t.Errorf("Timestamp seems too old: %v", healthResp.Timestamp)
	}
}

func TestLegacyHealthRedirect(t *testing.T) {
	server := setupTestServer(t, testGenerator(t))

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMovedPermanently {
		t.Errorf("Expected status 301, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/api/v1/health" {
		t.Errorf("Expected redirect to /api/v1/health, got %s", loc)
	}
}

func TestListViewports(t *testing.T) {
	server := setupTestServer(t, testGenerator(t))

	var list api.ViewportList
	getJSON(t, server.URL+"/api/v1/viewports", http.StatusOK, &list)

	if len(list.Viewports) != len(testViewports) {
		t.Fatalf("Expected %d viewports, got %d", len(testViewports), len(list.Viewports))
	}
	first := list.Viewports[0]
	if first.Index != 0 || first.Hfov != 120 || first.Width == nil || *first.Width != 960 {
		t.Errorf("Unexpected first viewport: %+v", first)
	}
	if list.Viewports[1].Width != nil {
		t.Errorf("Expected no size on viewport 1, got %v", *list.Viewports[1].Width)
	}
}

func TestPackingEndpoint_Success(t *testing.T) {
	server := setupTestServer(t, testGenerator(t))

	var p api.ViewportPacking
	getJSON(t, server.URL+"/api/v1/viewports/0/packing", http.StatusOK, &p)

	if p.ViewportIndex != 0 || p.HintMismatch {
		t.Errorf("Unexpected header fields: index %d, mismatch %v", p.ViewportIndex, p.HintMismatch)
	}
	if p.Rwpk.NumRegions != 4 || p.Rwpk.PackedPicWidth != 960 || p.Rwpk.PackedPicHeight != 540 {
		t.Errorf("Unexpected rwpk: %+v", p.Rwpk)
	}

	var regionTiles []int
	for _, r := range p.Rwpk.Regions {
		regionTiles = append(regionTiles, r.TileIndex)
	}
	if want := []int{1, 2, 5, 6}; !reflect.DeepEqual(regionTiles, want) {
		t.Errorf("Expected region tiles %v, got %v", want, regionTiles)
	}

	want := api.TilesMergeDirection{Columns: []api.MergeColumn{
		{Tiles: []api.MergedTile{{TileIndex: 1, SourceCol: 1, SourceRow: 0}, {TileIndex: 5, SourceCol: 1, SourceRow: 1}}},
		{Tiles: []api.MergedTile{{TileIndex: 2, SourceCol: 2, SourceRow: 0}, {TileIndex: 6, SourceCol: 2, SourceRow: 1}}},
	}}
	if !reflect.DeepEqual(p.MergeDirection, want) {
		t.Errorf("Expected merge direction %+v, got %+v", want, p.MergeDirection)
	}
	if p.Arrangement.Cols != 2 || p.Arrangement.Rows != 2 || len(p.Arrangement.Cells) != 4 {
		t.Errorf("Unexpected arrangement: %+v", p.Arrangement)
	}
}

func TestRwpkAndMergeDirectionEndpoints(t *testing.T) {
	server := setupTestServer(t, testGenerator(t))

	var rwpk api.RegionWisePacking
	getJSON(t, server.URL+"/api/v1/viewports/0/rwpk", http.StatusOK, &rwpk)
	if len(rwpk.Regions) != 4 {
		t.Errorf("Expected 4 regions, got %d", len(rwpk.Regions))
	}
	for i, r := range rwpk.Regions {
		if r.TransformType != 0 || r.GuardBand {
			t.Errorf("Region %d: expected identity transform without guard band, got %+v", i, r)
		}
	}

	var md api.TilesMergeDirection
	getJSON(t, server.URL+"/api/v1/viewports/0/merge-direction", http.StatusOK, &md)
	if len(md.Columns) != 2 {
		t.Errorf("Expected 2 merge columns, got %d", len(md.Columns))
	}
}

func TestArrangementEndpoint(t *testing.T) {
	server := setupTestServer(t, testGenerator(t))

	var errResp api.ErrorResponse
	getJSON(t, server.URL+"/api/v1/viewports/0/arrangement", http.StatusNotFound, &errResp)
	if errResp.Error != "NO_ARRANGEMENT" {
		t.Errorf("Expected NO_ARRANGEMENT, got %s", errResp.Error)
	}
	if errResp.RequestId == nil || *errResp.RequestId == "" {
		t.Error("Expected request ID in error response")
	}

	var p api.ViewportPacking
	getJSON(t, server.URL+"/api/v1/viewports/0/packing", http.StatusOK, &p)

	var arr api.TileArrangement
	getJSON(t, server.URL+"/api/v1/viewports/0/arrangement", http.StatusOK, &arr)
	if !reflect.DeepEqual(arr, p.Arrangement) {
		t.Errorf("Expected latest arrangement %+v, got %+v", p.Arrangement, arr)
	}
}

func TestPackingEndpoint_Errors(t *testing.T) {
	server := setupTestServer(t, testGenerator(t))

	testCases := []struct {
		name   string
		path   string
		status int
		code   string
		stage  api.PackingErrorResponseStage
	}{
		{"unknown viewport", "/api/v1/viewports/42/packing", http.StatusNotFound, "UNKNOWN_VIEWPORT", api.Select},
		{"empty selection", "/api/v1/viewports/1/rwpk", http.StatusUnprocessableEntity, "EMPTY_SELECTION", api.Select},
		{"empty selection merge", "/api/v1/viewports/1/merge-direction", http.StatusUnprocessableEntity, "EMPTY_SELECTION", api.Select},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var resp api.PackingErrorResponse
			getJSON(t, server.URL+tc.path, tc.status, &resp)
			if resp.Error != tc.code {
				t.Errorf("Expected error code %s, got %s", tc.code, resp.Error)
			}
			if resp.Stage != tc.stage {
				t.Errorf("Expected stage %s, got %s", tc.stage, resp.Stage)
			}
			if resp.Message == "" {
				t.Error("Expected error message")
			}
		})
	}
}

func TestDimensionOverflow(t *testing.T) {
	cfg := &layout.Config{
		Source:        layout.Source{Width: 1920, Height: 540, TileCols: 4, TileRows: 2},
		Viewports:     testViewports,
		MaxPackedSize: 500,
	}
	g, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	server := setupTestServer(t, g)

	var resp api.PackingErrorResponse
	getJSON(t, server.URL+"/api/v1/viewports/0/packing", http.StatusUnprocessableEntity, &resp)
	if resp.Error != "DIMENSION_OVERFLOW" || resp.Stage != api.Arrange {
		t.Errorf("Expected DIMENSION_OVERFLOW at arrange, got %s at %s", resp.Error, resp.Stage)
	}
}

func TestNotInitialized(t *testing.T) {
	server := setupTestServer(t, generator.New(generator.Viewports(testViewports)))

	var errResp api.ErrorResponse
	getJSON(t, server.URL+"/api/v1/viewports/0/packing", http.StatusServiceUnavailable, &errResp)
	if errResp.Error != "NOT_INITIALIZED" {
		t.Errorf("Expected NOT_INITIALIZED, got %s", errResp.Error)
	}
}

func TestInvalidViewportIndex(t *testing.T) {
	server := setupTestServer(t, testGenerator(t))

	var errResp api.ErrorResponse
	getJSON(t, server.URL+"/api/v1/viewports/left/packing", http.StatusBadRequest, &errResp)
	if errResp.Error != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR, got %s", errResp.Error)
	}
	if !strings.Contains(errResp.Message, "viewportIndex") {
		t.Errorf("Expected message naming viewportIndex, got %s", errResp.Message)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := setupTestServer(t, testGenerator(t))

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/v1/viewports", nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected Access-Control-Allow-Origin *, got %s", got)
	}
}

func TestStream(t *testing.T) {
	server := setupTestServer(t, testGenerator(t))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/stream"
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Failed to dial stream: %v", err)
	}
	defer c.CloseNow()

	for _, idx := range []int{0, 1, 0} {
		if err := wsjson.Write(ctx, c, api.StreamRequest{ViewportIndex: idx}); err != nil {
			t.Fatalf("Failed to write request: %v", err)
		}
		var resp api.StreamResponse
		if err := wsjson.Read(ctx, c, &resp); err != nil {
			t.Fatalf("Failed to read response: %v", err)
		}
		if resp.ViewportIndex != idx {
			t.Errorf("Expected response for viewport %d, got %d", idx, resp.ViewportIndex)
		}

		switch idx {
		case 0:
			if resp.Packing == nil || resp.Error != nil {
				t.Fatalf("Expected packing for viewport 0, got %+v", resp)
			}
			if resp.Packing.Rwpk.NumRegions != 4 {
				t.Errorf("Expected 4 regions, got %d", resp.Packing.Rwpk.NumRegions)
			}
		case 1:
			if resp.Error == nil || resp.Packing != nil {
				t.Fatalf("Expected error for viewport 1, got %+v", resp)
			}
			if resp.Error.Error != "EMPTY_SELECTION" {
				t.Errorf("Expected EMPTY_SELECTION, got %s", resp.Error.Error)
			}
		}
	}

	c.Close(websocket.StatusNormalClosure, "")
}

func TestStream_RejectsMalformedRequest(t *testing.T) {
	server := setupTestServer(t, testGenerator(t))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/stream"
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Failed to dial stream: %v", err)
	}
	defer c.CloseNow()

	if err := c.Write(ctx, websocket.MessageText, []byte("not json")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	_, _, err = c.Read(ctx)
	if got := websocket.CloseStatus(err); got != websocket.StatusInvalidFramePayloadData {
		t.Errorf("Expected close status %v, got %v (%v)", websocket.StatusInvalidFramePayloadData, got, err)
	}
}
