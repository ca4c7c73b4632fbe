package sync

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ContactFieldKeys are the output keys whose string values are wrapped
// into labelled contact entries. Non-string values for these keys are
// written through unchanged.
var ContactFieldKeys = map[string]bool{
	"email": true,
	"phone": true,
}

// Payload is the outgoing person record as a JSON object.
type Payload []byte

// Has reports whether the payload contains key.
func (p Payload) Has(key string) bool {
	return gjson.GetBytes(p, key).Exists()
}

func (p Payload) String() string {
	return string(p)
}

// BuildPayload applies the ordered field mappings to the source data.
// Mappings whose input value is absent are skipped, so the payload may
// carry fewer fields than the config declares. When two mappings target
// the same key the one processed last wins.
func BuildPayload(source Source, mappings []FieldMapping) (Payload, error) {
	payload := []byte(`{}`)
	for _, m := range mappings {
		result := source.ResultForPath(m.InputKey)
		if !result.Exists() || result.Value() == nil {
			continue
		}
		var err error
		if ContactFieldKeys[m.PipedriveKey] && result.Type == gjson.String {
			var entries []byte
			entries, err = json.Marshal(ContactField(result.String()))
			if err == nil {
				payload, err = sjson.SetRawBytes(payload, m.PipedriveKey, entries)
			}
		} else {
			// write the raw value through so numbers, objects and arrays
			// keep their original JSON types
			payload, err = sjson.SetRawBytes(payload, m.PipedriveKey, []byte(result.Raw))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to map %s to %s %w", m.InputKey, m.PipedriveKey, err)
		}
	}
	return Payload(payload), nil
}
