// lutbake precomputes and inspects the atmospheric scattering tables.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-atmos/internal/atmoscache"
	"github.com/Faultbox/midgard-atmos/internal/bake"
	"github.com/Faultbox/midgard-atmos/internal/config"
	"github.com/Faultbox/midgard-atmos/internal/logger"
	"github.com/Faultbox/midgard-atmos/internal/preview"
	"github.com/Faultbox/midgard-atmos/pkg/atmos"
	"github.com/Faultbox/midgard-atmos/pkg/lut"
)

func main() {
	flag.Usage = printUsage
	config.ParseFlags()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	switch command {
	case "bake":
		err = cmdBake(cfg)
	case "info":
		err = cmdInfo(cfg)
	case "lookup":
		err = cmdLookup(cfg, args)
	case "preview":
		err = cmdPreview(cfg, args)
	case "config":
		err = cmdConfig(cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`lutbake - atmospheric scattering table baker

Usage:
  lutbake [flags] <command> [args]

Commands:
  bake                                          Bake the configured tables
  info                                          List tables under the resource root
  lookup <height-km> <radius-m>                 Show the inscattering class for a planet
  preview <kind> <thickness> <radius> [out-dir] Write PNG slices of a table
  config save [file]                            Write the effective config (default: user config dir)

Flags:
  -config <file>   Config file (default ./lutbake.yaml)
  -root <dir>      Resource root holding the .lut files
  -workers <n>     Parallel workers (default all CPUs)
  -seed <n>        Jitter seed
  -all             Bake inscattering for every class
  -debug           Debug logging

Examples:
  lutbake -root data/atmosphere bake
  lutbake -all -workers 8 bake
  lutbake lookup 64 6400000
  lutbake preview Inscattering 2 1 ./previews
  lutbake -all -workers 8 config save`)
}

func cmdBake(cfg *config.Config) error {
	store := lut.NewDirStore(cfg.Data.ResourceRoot)
	opts := cfg.Options()
	opts.Logger = logger.Log

	plan := cfg.Plan()
	logger.Log.Info("bake started",
		zap.String("root", store.Root()),
		zap.Int("classes", len(plan.Classes)),
		zap.Int("inscattering", len(plan.Inscattering)),
		zap.Uint64("seed", opts.Seed))

	start := time.Now()
	err := bake.NewBaker(store, opts).Run(plan)
	logger.Log.Info("bake finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("failed", len(multierr.Errors(err))))
	return err
}

func cmdInfo(cfg *config.Config) error {
	store := lut.NewDirStore(cfg.Data.ResourceRoot)
	res := cfg.Bake.Resolution

	fmt.Printf("Root: %s\n\n", store.Root())
	fmt.Printf("%-34s %-8s %-16s %s\n", "TABLE", "STATUS", "DIMS", "CHANNELS (min/max/mean)")

	var present, total int
	for _, class := range atmos.AllClasses() {
		for _, k := range lut.Kinds {
			total++
			name := lut.FileName(k, class)

			buf, err := store.Load(k, class)
			if err == nil {
				err = lut.Expect(buf, res.Dims(k))
			}
			switch {
			case errors.Is(err, lut.ErrMissingTable):
				fmt.Printf("%-34s %-8s\n", name, "missing")
				continue
			case err != nil:
				fmt.Printf("%-34s %-8s %v\n", name, "bad", err)
				continue
			}

			present++
			var stats []string
			for c := 0; c < buf.Channels; c++ {
				s := buf.ChannelStats(c)
				stats = append(stats, fmt.Sprintf("%.3g/%.3g/%.3g", s.Min, s.Max, s.Mean))
			}
			fmt.Printf("%-34s %-8s %-16s %s\n", name, "ok", buf.Dims(), strings.Join(stats, "  "))
		}
	}

	fmt.Printf("\n%d of %d tables present\n", present, total)
	return nil
}

func cmdLookup(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: lutbake lookup <height-km> <radius-m>")
	}
	km, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid height %q: %w", args[0], err)
	}
	radius, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid radius %q: %w", args[1], err)
	}

	h := atmos.HeightClassFromKm(km)
	class, ok := atmoscache.Classify(h, radius)
	if !ok {
		fmt.Printf("Height %d km has no atmosphere class\n", km)
		return nil
	}

	// Missing tables are reported through the lookup result below.
	cache, _ := atmoscache.Load(lut.NewDirStore(cfg.Data.ResourceRoot), cfg.Bake.Resolution, logger.Log)

	fmt.Printf("Height:    %s\n", h)
	fmt.Printf("Class:     %s (thickness %d, radius %d)\n", class, class.Thickness, class.Radius)
	fmt.Printf("MinDotUL:  %.5f\n", atmos.GetMinDotUL(atmos.GetAtmosHeight(h), radius))
	if table := cache.GetInscattering(h, radius); table != nil {
		fmt.Printf("Table:     %s (%s)\n", lut.FileName(lut.Inscattering, class), table.Dims())
	} else {
		fmt.Printf("Table:     not loaded\n")
	}
	return nil
}

func cmdPreview(cfg *config.Config, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: lutbake preview <kind> <thickness-class> <radius-class> [out-dir]")
	}
	kind, err := lut.ParseKind(args[0])
	if err != nil {
		return err
	}
	var class atmos.Class
	if class.Thickness, err = strconv.Atoi(args[1]); err != nil {
		return fmt.Errorf("invalid thickness class %q: %w", args[1], err)
	}
	if class.Radius, err = strconv.Atoi(args[2]); err != nil {
		return fmt.Errorf("invalid radius class %q: %w", args[2], err)
	}
	if !class.Valid() {
		return fmt.Errorf("invalid class %+v", class)
	}
	outDir := filepath.Join(cfg.Data.ResourceRoot, "preview")
	if len(args) > 3 {
		outDir = args[3]
	}

	buf, err := lut.NewDirStore(cfg.Data.ResourceRoot).Load(kind, class)
	if err != nil {
		return err
	}

	prefix := strings.TrimSuffix(lut.FileName(kind, class), lut.Ext)
	paths, err := preview.NewWriter(outDir, prefix).WriteTable(buf)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	logger.Log.Info("preview written",
		zap.Stringer("kind", kind),
		zap.Stringer("class", class),
		zap.Int("files", len(paths)))
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) < 1 || args[0] != "save" {
		return fmt.Errorf("usage: lutbake config save [file]")
	}

	path := filepath.Join(config.ConfigDir(), config.FileName)
	save := cfg.Save
	if len(args) > 1 {
		path = args[1]
		save = func() error { return cfg.SaveTo(path) }
	}
	if err := save(); err != nil {
		return err
	}

	fmt.Printf("Config written to %s\n", path)
	return nil
}
