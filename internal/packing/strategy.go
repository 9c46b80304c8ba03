package packing

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/kiesman99/omafpack/internal/catalog"
	"github.com/kiesman99/omafpack/pkg/omaf"
)

// Builtin locator and the default strategy registered under it
const (
	BuiltinLocator = "builtin"
	TileBlockName  = "tile-block"
)

// Params are handed to a strategy factory once at initialization
type Params struct {
	Catalog       *catalog.Catalog
	Projector     omaf.Projector
	ExpectedTiles int
	OutputWidth   int
	OutputHeight  int
	MaxPackedSize int
}

// Selection is the set of tiles covering one viewport
type Selection struct {
	Footprint    []image.Rectangle
	Cols         []int // source columns, in viewing order
	Rows         []int // source rows, top to bottom
	Tiles        []int // tile indices, row-major over Rows x Cols
	Expected     int
	HintMismatch bool
}

// Strategy selects and arranges tiles for a viewport and describes the
// result. Implementations must be safe for concurrent use.
type Strategy interface {
	Select(vp omaf.Viewport) (Selection, error)
	Arrange(sel Selection) (*omaf.TileArrangement, error)
	RegionWisePacking(arr *omaf.TileArrangement, vp omaf.Viewport) (*omaf.RegionWisePacking, error)
	MergeDirection(arr *omaf.TileArrangement) (*omaf.TilesMergeDirectionInCol, error)
}

// Factory binds a strategy to its parameters
type Factory func(p Params) (Strategy, error)

var registry = struct {
	sync.RWMutex
	factories map[string]Factory
}{factories: map[string]Factory{}}

func key(locator, name string) string {
	return locator + "/" + name
}

// Register makes a strategy resolvable under locator and name.
// Registering the same pair twice replaces the earlier factory.
func Register(locator, name string, f Factory) {
	registry.Lock()
	defer registry.Unlock()
	registry.factories[key(locator, name)] = f
}

// Registered lists every registered locator/name pair
func Registered() []string {
	registry.RLock()
	defer registry.RUnlock()

	out := make([]string, 0, len(registry.factories))
	for k := range registry.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve finds and binds the strategy registered under locator and name
func Resolve(locator, name string, p Params) (Strategy, error) {
	registry.RLock()
	f, ok := registry.factories[key(locator, name)]
	registry.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q not registered", ErrPluginLoadFailure, key(locator, name))
	}

	s, err := f(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrPluginLoadFailure, key(locator, name), err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %q returned no strategy", ErrPluginLoadFailure, key(locator, name))
	}
	return s, nil
}

func init() {
	Register(BuiltinLocator, TileBlockName, func(p Params) (Strategy, error) {
		return NewTileBlock(p)
	})
}
