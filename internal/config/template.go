package config

import _ "embed"

//go:embed template.yaml
var template []byte

// Template returns the commented starter configuration. It loads cleanly,
// but every credential in it is a placeholder.
func Template() []byte {
	out := make([]byte, len(template))
	copy(out, template)
	return out
}
