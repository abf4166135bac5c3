package config

// Config is the top-level YAML structure.
type Config struct {
	Version string     `yaml:"version"`
	Engine  EngineConf `yaml:"engine"`
	Log     LogConf    `yaml:"log"`
}

// EngineConf holds tunable run settings.
type EngineConf struct {
	RunWorkers   int `yaml:"run_workers"`    // concurrent level computations
	QueueDepth   int `yaml:"queue_depth"`    // pending computations before rejecting
	RunTimeoutMs int `yaml:"run_timeout_ms"` // per computation, covers every collective
	MaxNodes     int `yaml:"max_nodes"`

	// ResultCapacity bounds how many finished results are kept for lookup by job ID.
	ResultCapacity int `yaml:"result_capacity"`

	// ReplicateAdjacency makes every rank build its own adjacency arena
	// from the encoding instead of sharing one read-only arena per run.
	ReplicateAdjacency bool `yaml:"replicate_adjacency"`

	// SkipTourValidation turns off the permutation and cycle check
	// the coordinator runs on the assembled tour before broadcasting it.
	SkipTourValidation bool `yaml:"skip_tour_validation"`
}

// LogConf selects the slog handler.
type LogConf struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}
