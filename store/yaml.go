package store

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/forensix/aff4/errors"
	"github.com/forensix/aff4/rdf"
)

// YAML is the structured, machine-oriented triple encoding: one block
// per subject, each block mapping attribute URNs to a (type, value)
// pair so values rehydrate with their original kind. Multiple dumps can
// be loaded cumulatively into one store.

type yamlValue struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

func dumpToYAML(s DataStore, w io.Writer) error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}

	doc := make(map[string]map[string]yamlValue, len(snap))
	for subject, attrs := range snap {
		block := make(map[string]yamlValue, len(attrs))
		for attribute, value := range attrs {
			block[attribute.String()] = yamlValue{
				Type:  value.TypeName(),
				Value: value.SerializeToString(),
			}
		}
		doc[subject.String()] = block
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Mark(errors.Wrap(err, "encode yaml dump"), errors.ErrIO)
	}
	return errors.Wrap(enc.Close(), "close yaml encoder")
}

func loadFromYAML(s DataStore, r io.Reader) error {
	var doc map[string]map[string]yamlValue
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil // empty input, nothing to add
		}
		return errors.Mark(errors.Wrap(err, "decode yaml dump"), errors.ErrIO)
	}

	for subject, attrs := range doc {
		for attribute, yv := range attrs {
			value, err := rdf.ParseValue(yv.Type, yv.Value)
			if err != nil {
				return errors.Wrapf(err, "subject %s attribute %s", subject, attribute)
			}
			s.Set(rdf.URN(subject), rdf.URN(attribute), value)
		}
	}
	return nil
}
