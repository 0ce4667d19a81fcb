package rules

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/ledgerline/mdm/pkg/errors"
)

// File is the on-disk layout of a rules file.
type File struct {
	Rules []MdmRule `yaml:"rules"`
}

// Parse decodes a rules document.
func Parse(data []byte) ([]MdmRule, error) {
	return parse(data, "")
}

func parse(data []byte, file string) ([]MdmRule, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", file, err)
	}
	return f.Rules, nil
}

// Load reads a rules file.
func Load(path string) ([]MdmRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return parse(data, path)
}

// LoadSet reads a rules file and applies it over the defaults. An empty
// path yields the defaults.
func LoadSet(path string) (*Set, error) {
	if path == "" {
		return DefaultSet(), nil
	}
	rules, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Apply(nil, rules)
}
