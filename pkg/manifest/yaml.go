package manifest

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/warptools/scriptorder/pkg/script"
	"github.com/warptools/scriptorder/pkg/scriptorderapi"
)

// ParseYAML decodes a YAML (or JSON) manifest:
//
//	scripts:
//	  - id: 1
//	    depends_on: [2, 3]
//	  - id: 2
//	    depends_on: 3
//	  - id: 3
//
// An empty document declares no scripts.
//
// Errors:
//
//   - scriptorder-error-manifest-unparsable -- if the body isn't YAML of the right shape.
//   - scriptorder-error-manifest-invalid -- if an entry has no id, has unknown keys, or repeats an id.
func ParseYAML(filename string, body []byte) ([]script.Script, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []script.Script{}, nil
	}
	var doc yamlManifest
	if err := yaml.Unmarshal(body, &doc); err != nil {
		return nil, scriptorderapi.ErrorManifestParse(err, filename, "decode")
	}

	res := make([]script.Script, 0, len(doc.Scripts))
	seen := make(map[int]string, len(doc.Scripts))
	for _, entry := range doc.Scripts {
		pos := fmt.Sprintf("%s:%d:%d", filename, entry.line, entry.column)
		if entry.unknownKey != "" {
			return nil, scriptorderapi.ErrorManifestInvalid(filename, pos, fmt.Sprintf("unknown key %q", entry.unknownKey))
		}
		if entry.ID == nil {
			return nil, scriptorderapi.ErrorManifestInvalid(filename, pos, "script has no id")
		}
		if prev, exists := seen[*entry.ID]; exists {
			return nil, scriptorderapi.ErrorManifestInvalid(filename, pos, fmt.Sprintf("script %d already declared at %s", *entry.ID, prev))
		}
		seen[*entry.ID] = pos
		res = append(res, script.New(*entry.ID, entry.DependsOn...))
	}
	return res, nil
}

type yamlManifest struct {
	Scripts []yamlScript `yaml:"scripts"`
}

type yamlScript struct {
	ID        *int     `yaml:"id"`
	DependsOn yamlDeps `yaml:"depends_on"`

	line, column int
	unknownKey   string
}

func (s *yamlScript) UnmarshalYAML(value *yaml.Node) error {
	type plain yamlScript
	if err := value.Decode((*plain)(s)); err != nil {
		return err
	}
	s.line, s.column = value.Line, value.Column
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			switch key := value.Content[i].Value; key {
			case "id", "depends_on":
			default:
				if s.unknownKey == "" {
					s.unknownKey = key
				}
			}
		}
	}
	return nil
}

// yamlDeps accepts either a single id or a sequence of ids.
type yamlDeps []int

func (d *yamlDeps) UnmarshalYAML(value *yaml.Node) error {
	if value.ShortTag() == "!!null" {
		*d = nil
		return nil
	}
	switch value.Kind {
	case yaml.ScalarNode:
		var single int
		if err := value.Decode(&single); err != nil {
			return err
		}
		*d = yamlDeps{single}
		return nil
	default:
		var many []int
		if err := value.Decode(&many); err != nil {
			return err
		}
		*d = many
		return nil
	}
}
