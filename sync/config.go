package sync

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/config"
)

// Environment variables supplying the two required credentials.
const (
	EnvAPIToken      = "PIPEDRIVE_API_TOKEN"
	EnvCompanyDomain = "PIPEDRIVE_COMPANY_DOMAIN"
)

// NameMappingKey is the output key every mapping config must target exactly
// once, since the search step is name based.
const NameMappingKey = "name"

// FieldMapping declares that the value at InputKey (a dot path into the
// input data, optionally piped through modifiers) is written to
// PipedriveKey in the outgoing record.
type FieldMapping struct {
	PipedriveKey string `yaml:"pipedriveKey"`
	InputKey     string `yaml:"inputKey"`
}

type APISettings struct {
	Token  string
	Domain string
}

// Validate checks that both credentials are present.
func (a APISettings) Validate() error {
	if a.Token == "" {
		return fmt.Errorf("missing Pipedrive API token (set %s)", EnvAPIToken)
	}
	if a.Domain == "" {
		return fmt.Errorf("missing Pipedrive company domain (set %s)", EnvCompanyDomain)
	}
	return nil
}

// BaseURL returns the API host for the configured domain. A full URL is
// used as-is so the client can be pointed at a replay or local server.
func (a APISettings) BaseURL() string {
	if strings.HasPrefix(a.Domain, "http://") || strings.HasPrefix(a.Domain, "https://") {
		return a.Domain
	}
	return fmt.Sprintf("https://%s.pipedrive.com", a.Domain)
}

type Config struct {
	API      APISettings
	Mappings []FieldMapping
}

// NameMapping returns the mapping targeting the name key, if any.
func NameMapping(mappings []FieldMapping) (FieldMapping, bool) {
	for _, m := range mappings {
		if m.PipedriveKey == NameMappingKey {
			return m, true
		}
	}
	return FieldMapping{}, false
}

// MappingFile wraps a config source for the YAML unmarshaler.
type MappingFile struct {
	Name   string
	Reader io.Reader
	Length int
}

// ReadMappingFile loads the mapping configuration file at path.
func ReadMappingFile(path string) (MappingFile, error) {
	var result MappingFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("failed to read mapping file %s %w", path, err)
	}
	result.Name = path
	result.Reader = bytes.NewReader(raw)
	result.Length = len(raw)
	return result, nil
}

type YAMLConfigUnmarshaler struct{}

func (u YAMLConfigUnmarshaler) Unmarshal(lookupenv func(string) (string, bool), sources ...MappingFile) (Config, error) {
	var result Config
	var options []config.YAMLOption
	for _, s := range sources {
		if s.Length > 0 {
			options = append(options, config.Source(s.Reader))
		}
	}
	options = append(options, config.Expand(lookupenv))
	yaml, err := config.NewYAML(options...)
	if err != nil {
		return result, fmt.Errorf("failed to read yaml config %w", err)
	}
	readError := func(key string, cause error) error {
		return fmt.Errorf("failed to read '%s' from yaml config %w", key, cause)
	}
	key := "api"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.API)
		if err != nil {
			return result, readError(key, err)
		}
	}
	key = "mappings"
	if yaml.Get(key).HasValue() {
		err = yaml.Get(key).Populate(&result.Mappings)
		if err != nil {
			return result, readError(key, err)
		}
	}
	return result, nil
}

// LoadConfigFromEnvironment loads the mapping configuration file and
// overlays the credentials from the environment. The mapping file may also
// reference environment variables directly with ${VAR} expansion.
func LoadConfigFromEnvironment(mappingPath string) (Config, error) {
	mustBeInitialised()

	mappingFile, err := ReadMappingFile(mappingPath)
	if err != nil {
		return Config{}, err
	}

	result, err := YAMLConfigUnmarshaler{}.Unmarshal(os.LookupEnv, mappingFile)
	if err != nil {
		return result, fmt.Errorf("failed to load config %w", err)
	}

	if v, exists := os.LookupEnv(EnvAPIToken); exists && v != "" {
		result.API.Token = v
	}
	if v, exists := os.LookupEnv(EnvCompanyDomain); exists && v != "" {
		result.API.Domain = v
	}

	return result, nil
}
