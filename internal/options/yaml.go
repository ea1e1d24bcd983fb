package options

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeYAML decodes a YAML configuration document. Unknown keys are
// collected into Raw.Unknown rather than rejected.
func DecodeYAML(data []byte) (*Raw, error) {
	raw := &Raw{Syntax: SyntaxYAML}
	if len(bytes.TrimSpace(data)) == 0 {
		return raw, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if len(doc.Content) == 0 {
		return raw, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config root must be a mapping, got %s", nodeKind(root))
	}

	raw.Unknown = unknownYAMLKeys(root, yamlKeys)

	if err := root.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}
	if entries, ok := inputEntries(mappingValue(root, "input")); ok {
		raw.Input = entries
	}
	return raw, nil
}

// mappingValue returns the value node of key in a mapping node
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// inputEntries reads a name -> id mapping in document order. Anything else
// is left to the generic decoding so normalization can report it.
func inputEntries(n *yaml.Node) ([]Entry, bool) {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, false
	}
	entries := make([]Entry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		val := n.Content[i+1]
		if val.Kind != yaml.ScalarNode || val.ShortTag() != "!!str" {
			return nil, false
		}
		entries = append(entries, Entry{Name: n.Content[i].Value, ID: val.Value})
	}
	return entries, true
}

// unknownYAMLKeys walks the root mapping and the nested sections
func unknownYAMLKeys(root *yaml.Node, keys sectionKeys) []string {
	var unknown []string
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		if !contains(keys.root, key) {
			unknown = append(unknown, key)
			continue
		}

		var nested []string
		switch key {
		case "treeshake":
			nested = keys.treeshake
		case "output":
			nested = keys.output
		default:
			continue
		}
		if val.Kind != yaml.MappingNode {
			continue
		}
		for j := 0; j+1 < len(val.Content); j += 2 {
			if k := val.Content[j].Value; !contains(nested, k) {
				unknown = append(unknown, key+"."+k)
			}
		}
	}
	return unknown
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
