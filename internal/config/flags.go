package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagRoot    = flag.String("root", "", "Directory holding the baked tables")
	flagWorkers = flag.Int("workers", 0, "Parallel bake workers (0 = config/all CPUs)")
	flagSeed    = flag.Uint64("seed", 0, "Jitter seed (0 = config value)")
	flagAll     = flag.Bool("all", false, "Bake inscattering for every class")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagRoot != "" {
		cfg.Data.ResourceRoot = *flagRoot
	}
	if *flagWorkers > 0 {
		cfg.Bake.Workers = *flagWorkers
	}
	if *flagSeed != 0 {
		cfg.Bake.Seed = *flagSeed
	}
	if *flagAll {
		cfg.Bake.AllInscattering = true
	}
}
