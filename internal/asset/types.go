package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Blob is an asset holding its bytes unchanged.
type Blob struct {
	Data []byte
}

func (b *Blob) Deserialize(data []byte) error {
	b.Data = append([]byte(nil), data...)
	return nil
}

// Text is a UTF-8 text asset.
type Text struct {
	Value string
}

func (t *Text) Deserialize(data []byte) error {
	if !utf8.Valid(data) {
		return errors.New("not valid UTF-8")
	}
	t.Value = string(data)
	return nil
}

// JSON decodes a JSON document into V. Comments and trailing commas are
// accepted, as is common in hand-edited game config.
type JSON[V any] struct {
	Value V
}

func (j *JSON[V]) Deserialize(data []byte) error {
	if err := json.Unmarshal(jsonc.ToJSON(data), &j.Value); err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}
	return nil
}

// YAML decodes a YAML document into V.
type YAML[V any] struct {
	Value V
}

func (y *YAML[V]) Deserialize(data []byte) error {
	if err := yaml.Unmarshal(data, &y.Value); err != nil {
		return fmt.Errorf("decoding yaml: %w", err)
	}
	return nil
}
