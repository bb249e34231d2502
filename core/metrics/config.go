package metrics

// ModuleConfig contains the type name and raw configuration for a sink.
type ModuleConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []ModuleConfig `json:"sinks"`
}
