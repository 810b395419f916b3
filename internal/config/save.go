package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// SaveDefault records key as the default unit of class in the config file.
// Comments and formatting of other sections are preserved by editing the
// yaml.Node tree. An empty key removes the entry.
func SaveDefault(configPath, class, key string) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("config root must be a mapping")
	}
	root := doc.Content[0]

	defaults := mappingValue(root, "defaults")
	if defaults == nil {
		defaults = &yaml.Node{Kind: yaml.MappingNode}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "defaults"}, defaults)
	}
	if defaults.Kind != yaml.MappingNode {
		*defaults = yaml.Node{Kind: yaml.MappingNode}
	}
	setEntry(defaults, class, key)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(configPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// setEntry sets or removes key in mapping m, keeping entries sorted.
func setEntry(m *yaml.Node, key, value string) {
	type entry struct{ k, v *yaml.Node }
	var entries []entry
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			continue
		}
		entries = append(entries, entry{m.Content[i], m.Content[i+1]})
	}
	if value != "" {
		entries = append(entries, entry{
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: value},
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].k.Value < entries[j].k.Value })

	m.Content = m.Content[:0]
	for _, e := range entries {
		m.Content = append(m.Content, e.k, e.v)
	}
}
