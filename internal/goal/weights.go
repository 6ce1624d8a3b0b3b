package goal

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type Weight struct {
	Name   string
	Weight float64
}

// WeightSet maps control names to weights. Enumeration follows insertion
// order so descriptions and saved configs are deterministic.
type WeightSet struct {
	entries []Weight
	index   map[string]int
}

func NewWeightSet(weights ...Weight) *WeightSet {
	ws := &WeightSet{index: make(map[string]int)}
	for _, w := range weights {
		ws.SetWeight(w.Name, w.Weight)
	}
	return ws
}

// SetWeight updates name in place, or appends it if absent.
func (ws *WeightSet) SetWeight(name string, weight float64) {
	if ws.index == nil {
		ws.index = make(map[string]int)
	}
	if i, ok := ws.index[name]; ok {
		ws.entries[i].Weight = weight
		return
	}
	ws.index[name] = len(ws.entries)
	ws.entries = append(ws.entries, Weight{Name: name, Weight: weight})
}

func (ws *WeightSet) Get(name string) (float64, bool) {
	if ws == nil {
		return 0, false
	}
	i, ok := ws.index[name]
	if !ok {
		return 0, false
	}
	return ws.entries[i].Weight, true
}

func (ws *WeightSet) Contains(name string) bool {
	_, ok := ws.Get(name)
	return ok
}

func (ws *WeightSet) Len() int {
	if ws == nil {
		return 0
	}
	return len(ws.entries)
}

// Entries returns a copy of the entries in insertion order.
func (ws *WeightSet) Entries() []Weight {
	if ws == nil {
		return nil
	}
	out := make([]Weight, len(ws.entries))
	copy(out, ws.entries)
	return out
}

func (ws *WeightSet) Clone() *WeightSet {
	return NewWeightSet(ws.Entries()...)
}

// MarshalYAML writes the set as a mapping, keeping insertion order.
func (ws *WeightSet) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range ws.Entries() {
		var val yaml.Node
		if err := val.Encode(e.Weight); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name},
			&val,
		)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping of name to weight. Repeated keys keep the
// last value.
func (ws *WeightSet) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("weights: expected mapping, got line %d", value.Line)
	}
	*ws = WeightSet{index: make(map[string]int)}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name string
		var weight float64
		if err := value.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("weights: line %d: %w", value.Content[i].Line, err)
		}
		if err := value.Content[i+1].Decode(&weight); err != nil {
			return fmt.Errorf("weights: %s: %w", name, err)
		}
		ws.SetWeight(name, weight)
	}
	return nil
}
