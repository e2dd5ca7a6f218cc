package training

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ClassNames accepts either a YAML list or an index-to-name mapping.
type ClassNames []string

func (c *ClassNames) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*c = list
		return nil

	case yaml.MappingNode:
		var byIndex map[int]string
		if err := node.Decode(&byIndex); err != nil {
			return err
		}

		keys := make([]int, 0, len(byIndex))
		for k := range byIndex {
			keys = append(keys, k)
		}
		sort.Ints(keys)

		names := make([]string, len(keys))
		for i, k := range keys {
			if k != i {
				return fmt.Errorf("class ids must be contiguous from 0, got %d", k)
			}
			names[i] = byIndex[k]
		}
		*c = names
		return nil
	}

	return fmt.Errorf("names must be a list or a mapping")
}

// Dataset is the YOLO dataset description passed to the trainer.
type Dataset struct {
	Path  string     `yaml:"path"`
	Train string     `yaml:"train"`
	Val   string     `yaml:"val"`
	Test  string     `yaml:"test"`
	NC    int        `yaml:"nc"`
	Names ClassNames `yaml:"names"`
}

var ErrInvalidDataset = errors.New("invalid dataset config")

func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	switch {
	case ds.Train == "":
		return nil, fmt.Errorf("%w: missing train", ErrInvalidDataset)
	case ds.Val == "":
		return nil, fmt.Errorf("%w: missing val", ErrInvalidDataset)
	case len(ds.Names) == 0:
		return nil, fmt.Errorf("%w: no class names", ErrInvalidDataset)
	case ds.NC != 0 && ds.NC != len(ds.Names):
		return nil, fmt.Errorf("%w: nc is %d but %d names are listed", ErrInvalidDataset, ds.NC, len(ds.Names))
	}

	return &ds, nil
}

func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset config: %w", err)
	}
	return ParseDataset(data)
}
