// Package hcl decodes scrub's optional configuration file.
package hcl

import (
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/scrubtool/scrub/redact"
)

type Config struct {
	Redactions []Redact `hcl:"redact,block"`
}

type Redact struct {
	Label   string `hcl:"name,label"`
	Pattern string `hcl:"pattern"`
}

// Parse takes a file path and decodes the file from disk into HCL types.
func Parse(path string) (Config, error) {
	var c Config
	err := hclsimple.DecodeFile(path, nil, &c)
	if err != nil {
		return Config{}, err
	}
	return c, nil
}

// MapRedacts compiles the config's redact blocks in file order. Order matters
// downstream: redactions are applied sequentially, never simultaneously.
func MapRedacts(blocks []Redact) ([]*redact.Redact, error) {
	redactions := make([]*redact.Redact, len(blocks))
	for i, b := range blocks {
		red, err := redact.New(b.Pattern, b.Label)
		if err != nil {
			return nil, err
		}
		redactions[i] = red
	}
	return redactions, nil
}
