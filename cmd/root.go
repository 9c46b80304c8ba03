package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/omafpack/internal/generator"
	"github.com/kiesman99/omafpack/internal/layout"
	"github.com/kiesman99/omafpack/internal/packing"
	"github.com/kiesman99/omafpack/internal/telemetry"
	"github.com/kiesman99/omafpack/pkg/omaf"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "omafpack",
	Short: "Generate OMAF region-wise packing for viewport-dependent tiled streams",
	Long: `omafpack selects the tiles of an equirectangular tiled stream that cover a
viewport, packs them into a smaller picture and prints the region-wise packing
and tiles merge direction metadata describing the result.

Viewports are given as 'yaw,pitch,hfov,vfov[,width,height]' in degrees, or as a
'viewports' list in the config file.

Examples:
  # Pack a centered 120x60 degree viewport from a 4x2 tiled 3840x1920 stream
  omafpack --width 3840 --height 1920 --tile-cols 4 --tile-rows 2 --viewport 0,0,120,60

  # Several viewports, output scaled to 1920x960, written to a file
  omafpack --width 3840 --height 1920 --tile-cols 8 --tile-rows 4 \
    --viewport 0,0,90,60 --viewport 180,30,90,60 --output-width 1920 --output-height 960 -o packing.json

  # Only report viewport 1 of the config file
  omafpack --config stream.yaml --index 1

  # Start HTTP server
  omafpack serve --port 8080`,
	RunE: runPack,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.omafpack.yaml)")
	pf.BoolP("verbose", "v", false, "log packing decisions and bandwidth events")

	// Source stream
	pf.Uint8("stream-id", 0, "id of the tiled video stream")
	pf.Int("width", 0, "source picture width in pixels")
	pf.Int("height", 0, "source picture height in pixels")
	pf.Int("tile-cols", 0, "tile columns of the source grid")
	pf.Int("tile-rows", 0, "tile rows of the source grid")

	// Packing
	pf.StringArray("viewport", nil, "viewport as 'yaw,pitch,hfov,vfov[,width,height]' (repeatable)")
	pf.Int("tiles-in-viewport", 0, "expected tiles per viewport (0 to skip the check)")
	pf.Int("output-width", 0, "packed output width for viewports without a size")
	pf.Int("output-height", 0, "packed output height for viewports without a size")
	pf.String("strategy-locator", generator.DefaultLocator.Path, "packing strategy locator")
	pf.String("strategy-name", generator.DefaultLocator.Name, "packing strategy name")
	pf.Int("max-packed-size", omaf.MaxPackedPicSize, "largest packed picture side in pixels")

	// Output options
	rootCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	rootCmd.Flags().IntSlice("index", nil, "viewport indices to report (default: all)")

	// Bind flags to viper
	viper.BindPFlag("verbose", pf.Lookup("verbose"))
	viper.BindPFlag("source.stream-id", pf.Lookup("stream-id"))
	viper.BindPFlag("source.width", pf.Lookup("width"))
	viper.BindPFlag("source.height", pf.Lookup("height"))
	viper.BindPFlag("source.tile-cols", pf.Lookup("tile-cols"))
	viper.BindPFlag("source.tile-rows", pf.Lookup("tile-rows"))
	viper.BindPFlag("tiles-in-viewport", pf.Lookup("tiles-in-viewport"))
	viper.BindPFlag("output.width", pf.Lookup("output-width"))
	viper.BindPFlag("output.height", pf.Lookup("output-height"))
	viper.BindPFlag("strategy.locator", pf.Lookup("strategy-locator"))
	viper.BindPFlag("strategy.name", pf.Lookup("strategy-name"))
	viper.BindPFlag("max-packed-size", pf.Lookup("max-packed-size"))
	viper.BindPFlag("output.file", rootCmd.Flags().Lookup("output"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".omafpack" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".omafpack")
	}

	viper.SetEnvPrefix("omafpack")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the packing configuration from flags, env and config file
func loadConfig(cmd *cobra.Command) (*layout.Config, error) {
	cfg := &layout.Config{
		Source: layout.Source{
			StreamID: uint8(viper.GetUint("source.stream-id")),
			Width:    viper.GetInt("source.width"),
			Height:   viper.GetInt("source.height"),
			TileCols: viper.GetInt("source.tile-cols"),
			TileRows: viper.GetInt("source.tile-rows"),
		},
		Locator: generator.Locator{
			Path: viper.GetString("strategy.locator"),
			Name: viper.GetString("strategy.name"),
		},
		TilesInViewport: viper.GetInt("tiles-in-viewport"),
		OutputWidth:     viper.GetInt("output.width"),
		OutputHeight:    viper.GetInt("output.height"),
		MaxPackedSize:   viper.GetInt("max-packed-size"),
	}

	// --viewport flags replace the config file list
	specs, err := cmd.Flags().GetStringArray("viewport")
	if err != nil {
		return nil, err
	}
	if len(specs) > 0 {
		vps, err := layout.ParseViewports(specs)
		if err != nil {
			return nil, err
		}
		cfg.Viewports = vps
	} else if err := viper.UnmarshalKey("viewports", &cfg.Viewports); err != nil {
		return nil, fmt.Errorf("invalid viewports in config: %w", err)
	}

	return cfg, nil
}

// buildGenerator loads the configuration and returns an initialized generator
func buildGenerator(cmd *cobra.Command, log logr.Logger) (*generator.Generator, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cfg.Build(
		generator.WithLogger(log),
		generator.WithTelemetry(telemetry.NewLogSink(log)),
	)
}

// packResult is the JSON report for one viewport
type packResult struct {
	ViewportIndex  int                            `json:"viewport_index"`
	Viewport       omaf.Viewport                  `json:"viewport"`
	HintMismatch   bool                           `json:"hint_mismatch,omitempty"`
	Arrangement    *omaf.TileArrangement          `json:"arrangement,omitempty"`
	RWPK           *omaf.RegionWisePacking        `json:"rwpk,omitempty"`
	MergeDirection *omaf.TilesMergeDirectionInCol `json:"merge_direction,omitempty"`
	Stage          packing.Stage                  `json:"stage,omitempty"`
	Error          string                         `json:"error,omitempty"`
}

func runPack(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd.ErrOrStderr(), viper.GetBool("verbose"))

	g, err := buildGenerator(cmd, log)
	if err != nil {
		return err
	}

	indices, err := cmd.Flags().GetIntSlice("index")
	if err != nil {
		return err
	}
	if len(indices) == 0 {
		for i := 0; i < g.Viewports().Len(); i++ {
			indices = append(indices, i)
		}
	}

	results, failed := packAll(g, indices)

	var w io.Writer = cmd.OutOrStdout()
	if path := viper.GetString("output.file"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d viewports could not be packed", failed, len(results))
	}
	return nil
}

// packAll packs each viewport in order. Failures are reported in place.
func packAll(g *generator.Generator, indices []int) ([]packResult, int) {
	results := make([]packResult, 0, len(indices))
	failed := 0
	for _, idx := range indices {
		pr := packResult{ViewportIndex: idx}
		if vp, ok := g.Viewports().Viewport(idx); ok {
			pr.Viewport = vp
		}

		res, err := g.Generate(idx)
		if err != nil {
			failed++
			pr.Error = err.Error()
			var perr *packing.Error
			if errors.As(err, &perr) {
				pr.Stage = perr.Stage
			}
			results = append(results, pr)
			continue
		}

		pr.HintMismatch = res.Selection.HintMismatch
		pr.Arrangement = res.Arrangement
		pr.RWPK = res.RWPK
		pr.MergeDirection = res.MergeDirection
		results = append(results, pr)
	}
	return results, failed
}
