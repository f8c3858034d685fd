// Package configs embeds the example files shipped with scorefusion.
//
// ConfigTemplate is what `scorefusion config init` writes; RequestExample
// documents the request file format read by `fuse` and `batch`. Edit the
// .yaml files in this directory and rebuild to change them.
package configs

import _ "embed"

// ConfigTemplate is the commented default configuration.
//
//go:embed config.example.yaml
var ConfigTemplate string

// RequestExample is a two-sub-query request over two shards.
//
//go:embed request.example.yaml
var RequestExample string
