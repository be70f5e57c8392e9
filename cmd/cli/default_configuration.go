package cli

import (
	"bytes"
	_ "embed"
)

//go:embed default_config.yaml
var embeddedDefaultConfigurationYAML []byte

// EmbeddedDefaultConfiguration returns a copy of the built-in audit defaults and their format.
// The README configuration example is checked against these keys.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return bytes.Clone(embeddedDefaultConfigurationYAML), configurationTypeConstant
}
