package config

// Source names the layer a setting was resolved from. "qw config get"
// prints it next to each value.
type Source string

// Sources, lowest precedence first.
const (
	SourceDefault Source = "default"
	SourceGlobal  Source = "global" // ~/.config/qw/config.yaml
	SourceLocal   Source = "local"  // .qw/config.yaml under the git root
	SourceEnv     Source = "env"    // QW_* variables
	SourceFlag    Source = "flag"
)
