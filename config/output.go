package config

import "github.com/kilianp07/mgdispatch/pkg/export"

// OutputConfig selects where and how the dispatch result is written.
type OutputConfig struct {
	// Path of the result file. Empty disables the file output.
	Path string `json:"path"`
	// Format is csv, json, xlsx, pdf or html. Inferred from Path when empty.
	Format string `json:"format"`
	// SignConvention is "magnitude" or "negated".
	SignConvention string `json:"sign_convention"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = string(export.FormatFromPath(c.Path))
	}
	if c.SignConvention == "" {
		c.SignConvention = export.SignMagnitude.String()
	}
}

// Validate checks format and sign convention names.
func (c OutputConfig) Validate() error {
	if _, err := export.ParseFormat(c.Format); err != nil {
		return err
	}
	_, err := export.ParseSignConvention(c.SignConvention)
	return err
}

// Sign returns the parsed sign convention.
func (c OutputConfig) Sign() export.SignConvention {
	s, _ := export.ParseSignConvention(c.SignConvention)
	return s
}

// FileFormat returns the parsed output format.
func (c OutputConfig) FileFormat() export.Format {
	f, _ := export.ParseFormat(c.Format)
	return f
}
