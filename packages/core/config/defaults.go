package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Display:  "auto",
		Packages: []string{"./..."},
		GoTool:   "go",
		Race:     BoolPtr(false),
		Short:    BoolPtr(false),
		Subtests: BoolPtr(false),
		NoColor:  BoolPtr(false),
		Verbose:  BoolPtr(false),
	}
}
