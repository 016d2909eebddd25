package cache

import (
	"encoding/json"
	"errors"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Codec turns values into bytes and back.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Extension is the file extension conventionally used for the encoding.
	Extension() string
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Extension() string { return ".json" }

type yamlCodec struct{}

func (yamlCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

func (yamlCodec) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

func (yamlCodec) Extension() string { return ".yaml" }

// tomlCodec goes through the JSON form of a value so types that only know
// how to marshal themselves as JSON keep their shape. The top level must be
// an object, and null fields are left out.
type tomlCodec struct{}

// ErrNotTable is returned when a value does not encode to a TOML table.
var ErrNotTable = errors.New("cache: toml documents must be tables")

func (tomlCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	table, ok := dropNulls(tree).(map[string]any)
	if !ok {
		return nil, ErrNotTable
	}
	return toml.Marshal(table)
}

func (tomlCodec) Unmarshal(data []byte, v any) error {
	var table map[string]any
	if err := toml.Unmarshal(data, &table); err != nil {
		return err
	}
	raw, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func (tomlCodec) Extension() string { return ".toml" }

func dropNulls(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			if e == nil {
				delete(x, k)
				continue
			}
			x[k] = dropNulls(e)
		}
	case []any:
		kept := x[:0]
		for _, e := range x {
			if e != nil {
				kept = append(kept, dropNulls(e))
			}
		}
		return kept
	}
	return v
}

var (
	// JSON encodes values as indented JSON.
	JSON Codec = jsonCodec{}
	// YAML encodes values as a YAML document.
	YAML Codec = yamlCodec{}
	// TOML encodes values as a TOML document.
	TOML Codec = tomlCodec{}
)

// CodecByName returns the codec registered under name ("json", "yaml" or "toml").
func CodecByName(name string) (Codec, bool) {
	switch name {
	case "", "json":
		return JSON, true
	case "yaml", "yml":
		return YAML, true
	case "toml":
		return TOML, true
	}
	return nil, false
}
