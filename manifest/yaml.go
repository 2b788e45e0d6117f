package manifest

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const yamlStrTag = "!!str"

func parseYAML(data []byte) (*Whitelist, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ConfigError{Msg: "malformed YAML", Err: err}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, schemaErrorf("", "empty document")
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, atLine(schemaErrorf("", "document must be a mapping, got %s", yamlKindName(top)), top)
	}

	doc := newDocument()
	var sawWhitelist bool
	seen := make(map[string]bool)
	for i := 0; i+1 < len(top.Content); i += 2 {
		k, v := top.Content[i], top.Content[i+1]
		if k.Kind != yaml.ScalarNode || k.Tag != yamlStrTag {
			return nil, atLine(schemaErrorf("", "top-level key must be a string, got %s", yamlKindName(k)), k)
		}
		if seen[k.Value] {
			return nil, atLine(keyErrorf("", k.Value, "duplicate key"), k)
		}
		seen[k.Value] = true
		switch k.Value {
		case keyWhitelist:
			names, err := yamlStringList(v)
			if err != nil {
				return nil, atLine(keyErrorf("", keyWhitelist, "%v", err), v)
			}
			doc.order = names
			sawWhitelist = true
		case keyOverrides:
			if err := yamlOverrides(v, doc.overrides); err != nil {
				return nil, err
			}
		case keyModules:
			if err := yamlModules(v, doc.modules); err != nil {
				return nil, err
			}
		default:
			return nil, atLine(keyErrorf("", k.Value, "unknown top-level key"), k)
		}
	}
	if !sawWhitelist {
		return nil, schemaErrorf("", "missing %q list", keyWhitelist)
	}
	return doc.build()
}

func yamlOverrides(n *yaml.Node, into map[string]string) error {
	if n.Kind != yaml.MappingNode {
		return atLine(keyErrorf("", keyOverrides, "must be a mapping, got %s", yamlKindName(n)), n)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode || k.Tag != yamlStrTag {
			return atLine(keyErrorf("", k.Value, "namespace must be a string, got %s", yamlKindName(k)), k)
		}
		if v.Kind != yaml.ScalarNode || v.Tag != yamlStrTag {
			return atLine(keyErrorf("", k.Value, "namespace prefix override must be a string, got %s", yamlKindName(v)), v)
		}
		if _, dup := into[k.Value]; dup {
			return atLine(keyErrorf("", k.Value, "duplicate namespace prefix override"), k)
		}
		into[k.Value] = v.Value
	}
	return nil
}

func yamlModules(n *yaml.Node, into map[string]Module) error {
	if n.Kind != yaml.MappingNode {
		return atLine(keyErrorf("", keyModules, "must be a mapping, got %s", yamlKindName(n)), n)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode || k.Tag != yamlStrTag {
			return atLine(keyErrorf("", k.Value, "module name must be a string, got %s", yamlKindName(k)), k)
		}
		name := k.Value
		if _, dup := into[name]; dup {
			return atLine(schemaErrorf(name, "duplicate module"), k)
		}
		if v.Kind != yaml.MappingNode {
			return atLine(schemaErrorf(name, "module must be a mapping, got %s", yamlKindName(v)), v)
		}
		m := Module{Name: name}
		selectors := make(map[string]bool)
		for j := 0; j+1 < len(v.Content); j += 2 {
			ck, cv := v.Content[j], v.Content[j+1]
			if ck.Kind != yaml.ScalarNode || ck.Tag != yamlStrTag {
				return atLine(keyErrorf(name, ck.Value, "class selector must be a string, got %s", yamlKindName(ck)), ck)
			}
			if selectors[ck.Value] {
				return atLine(keyErrorf(name, ck.Value, "duplicate class selector"), ck)
			}
			selectors[ck.Value] = true
			methods, err := yamlStringList(cv)
			if err != nil {
				return atLine(keyErrorf(name, ck.Value, "%v", err), cv)
			}
			m.Entries = append(m.Entries, Entry{Class: ck.Value, Methods: methods})
		}
		into[name] = m
	}
	return nil
}

func yamlStringList(n *yaml.Node) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("must be a sequence of strings, got %s", yamlKindName(n))
	}
	out := make([]string, len(n.Content))
	for i, item := range n.Content {
		if item.Kind != yaml.ScalarNode || item.Tag != yamlStrTag {
			return nil, fmt.Errorf("element %d must be a string, got %s", i, yamlKindName(item))
		}
		out[i] = item.Value
	}
	return out, nil
}

func yamlKindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.ScalarNode:
		switch n.Tag {
		case yamlStrTag:
			return "string"
		case "!!int":
			return "integer"
		case "!!float":
			return "float"
		case "!!bool":
			return "boolean"
		case "!!null":
			return "null"
		}
		return n.Tag
	}
	return "document"
}

func atLine(e *ConfigError, n *yaml.Node) *ConfigError {
	e.Line = n.Line
	return e
}

func encodeYAML(w io.Writer, wl *Whitelist) error {
	top := &yaml.Node{Kind: yaml.MappingNode}

	order := &yaml.Node{Kind: yaml.SequenceNode}
	for _, m := range wl.modules {
		order.Content = append(order.Content, yamlString(m.Name))
	}
	top.Content = append(top.Content, yamlString(keyWhitelist), order)

	if len(wl.overrides) > 0 {
		ov := &yaml.Node{Kind: yaml.MappingNode}
		for _, ns := range sortedKeys(wl.overrides) {
			ov.Content = append(ov.Content, yamlString(ns), yamlString(wl.overrides[ns]))
		}
		top.Content = append(top.Content, yamlString(keyOverrides), ov)
	}

	mods := &yaml.Node{Kind: yaml.MappingNode}
	for _, m := range wl.modules {
		entries := &yaml.Node{Kind: yaml.MappingNode}
		for _, e := range m.Entries {
			methods := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, name := range e.Methods {
				methods.Content = append(methods.Content, yamlString(name))
			}
			entries.Content = append(entries.Content, yamlString(e.Class), methods)
		}
		mods.Content = append(mods.Content, yamlString(m.Name), entries)
	}
	top.Content = append(top.Content, yamlString(keyModules), mods)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{top}}); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}

func yamlString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: yamlStrTag, Value: s}
}
