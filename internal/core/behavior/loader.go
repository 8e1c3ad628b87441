package behavior

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnknownNode = errors.New("behavior: unknown node")

// Config describes a tree in JSON or YAML. Nodes reference their children by name.
type Config struct {
	Root  string                `json:"root" yaml:"root"`
	Nodes map[string]ConfigNode `json:"nodes" yaml:"nodes"`
}

type ConfigNode struct {
	// Type is one of sequence, selector, parallel or leaf.
	Type     string   `json:"type" yaml:"type"`
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`
	// Leaf names the registered factory; it defaults to the node name.
	Leaf   string `json:"leaf,omitempty" yaml:"leaf,omitempty"`
	Params Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// LoadJSON loads config from JSON reader.
func LoadJSON(r io.Reader) (*Config, error) {
	var c Config
	dec := json.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadYAML loads config from YAML reader.
func LoadYAML(r io.Reader) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile picks the decoder from the file extension.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(f)
	case ".yaml", ".yml":
		return LoadYAML(f)
	default:
		return nil, fmt.Errorf("behavior: unsupported tree file %q", path)
	}
}

func parseKind(t string) (NodeKind, bool) {
	switch strings.ToLower(t) {
	case "leaf", "action", "condition":
		return KindLeaf, true
	case "sequence":
		return KindSequence, true
	case "selector", "fallback":
		return KindSelector, true
	case "parallel":
		return KindParallel, true
	}
	return 0, false
}

// Build constructs an engine, creating leaves through reg.
func (c *Config) Build(reg *Registry) (*Engine, error) {
	if c.Root == "" {
		return nil, ErrNoRoot
	}
	b := NewBuilder()
	visiting := make(map[string]bool)
	built := make(map[string]bool)

	var build func(name string) (NodeID, error)
	build = func(name string) (NodeID, error) {
		nc, ok := c.Nodes[name]
		if !ok {
			return NoNode, fmt.Errorf("%w: %s", ErrUnknownNode, name)
		}
		if visiting[name] {
			return NoNode, fmt.Errorf("%w: cycle through %q", ErrTopology, name)
		}
		if built[name] {
			return NoNode, fmt.Errorf("%w: %q is referenced twice", ErrTopology, name)
		}
		visiting[name] = true
		defer delete(visiting, name)
		built[name] = true

		kind, ok := parseKind(nc.Type)
		if !ok {
			return NoNode, fmt.Errorf("unsupported node type: %s", nc.Type)
		}
		if kind == KindLeaf {
			leafName := nc.Leaf
			if leafName == "" {
				leafName = name
			}
			l, err := reg.New(leafName, nc.Params)
			if err != nil {
				return NoNode, err
			}
			return b.Leaf(name, l), b.Err()
		}

		children := make([]NodeID, 0, len(nc.Children))
		for _, ch := range nc.Children {
			id, err := build(ch)
			if err != nil {
				return NoNode, err
			}
			children = append(children, id)
		}
		return b.Composite(kind, name, children...), b.Err()
	}

	root, err := build(c.Root)
	if err != nil {
		return nil, err
	}
	return b.Build(root)
}
