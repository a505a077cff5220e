package types

// Config holds workspace parameters resolved from flags, config file, and
// environment before a store is opened.
type Config struct {
	DataDir     string `json:"data_dir" yaml:"data_dir"`
	RecordLimit int    `json:"record_limit" yaml:"record_limit"`
	TrueLabel   string `json:"true_label" yaml:"true_label"`
	FalseLabel  string `json:"false_label" yaml:"false_label"`
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.RecordLimit < 0 {
		return ErrRecordLimitInvalid
	}
	return nil
}

// Display returns the presentation strings configured for this workspace,
// falling back to defaults for unset labels.
func (c Config) Display() DisplayConfig {
	d := DefaultDisplayConfig()
	if c.TrueLabel != "" {
		d.TrueLabel = c.TrueLabel
	}
	if c.FalseLabel != "" {
		d.FalseLabel = c.FalseLabel
	}
	return d
}
