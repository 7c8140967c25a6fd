// Package config ships the default activity pipeline configuration.
package config

import _ "embed"

// Pipeline is the default contents of pipeline.yaml, used when no CONFIG_PATH is set.
//
//go:embed pipeline.yaml
var Pipeline []byte
