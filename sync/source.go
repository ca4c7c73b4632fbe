package sync

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Source wraps a parsed JSON document and resolves values by dot separated
// paths. A value is absent when any segment along the path is missing or
// the value is JSON null.
type Source struct {
	data gjson.Result
}

// ParseInput parses a JSON document into a Source.
func ParseInput(json string) (Source, error) {
	var result Source
	if !gjson.Valid(json) {
		return result, errors.New("invalid json input")
	}
	result.data = gjson.Parse(json)
	return result, nil
}

// LoadInputFile reads and parses the input data file at path.
func LoadInputFile(path string) (Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read input file %s %w", path, err)
	}
	return ParseInput(string(raw))
}

// ResultForPath resolves path against the source data. Paths may include
// modifiers registered by Init (e.g. "user.country|@countryName").
func (s Source) ResultForPath(path string) gjson.Result {
	return s.data.Get(path)
}

func (s Source) StringForPath(path string) (string, bool) {
	result := s.data.Get(path)
	return result.String(), result.Exists() && (result.Value() != nil)
}

func (s Source) IntForPath(path string) (int64, bool) {
	result := s.data.Get(path)
	return result.Int(), result.Exists() && (result.Value() != nil)
}

func (s Source) BoolForPath(path string) (bool, bool) {
	result := s.data.Get(path)
	return result.Bool(), result.Exists() && (result.Value() != nil)
}

// IsEmpty reports whether the source holds no usable data.
func (s Source) IsEmpty() bool {
	if !s.data.Exists() || s.data.Type == gjson.Null {
		return true
	}
	if s.data.IsObject() {
		return len(s.data.Map()) == 0
	}
	return false
}

// Data returns the source as a plain map, or nil if it is not an object.
func (s Source) Data() map[string]interface{} {
	if m, ok := s.data.Value().(map[string]interface{}); ok {
		return m
	}
	return nil
}
