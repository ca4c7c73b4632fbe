package sync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMappingYAML = `api:
  token: ${SPIGOT_TEST_TOKEN}
  domain: example
mappings:
  - pipedriveKey: name
    inputKey: contact.fullName
  - pipedriveKey: email
    inputKey: contact.email
`

func TestYAMLConfigUnmarshaler(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == "SPIGOT_TEST_TOKEN" {
			return "from-lookup", true
		}
		return "", false
	}
	mf := MappingFile{Name: "test", Reader: strings.NewReader(testMappingYAML), Length: len(testMappingYAML)}

	cfg, err := YAMLConfigUnmarshaler{}.Unmarshal(lookup, mf)
	require.NoError(t, err)
	assert.Equal(t, "from-lookup", cfg.API.Token)
	assert.Equal(t, "example", cfg.API.Domain)
	require.Len(t, cfg.Mappings, 2)
	assert.Equal(t, FieldMapping{PipedriveKey: "name", InputKey: "contact.fullName"}, cfg.Mappings[0])
	assert.Equal(t, FieldMapping{PipedriveKey: "email", InputKey: "contact.email"}, cfg.Mappings[1])
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testMappingYAML), 0o600))

	t.Setenv("SPIGOT_TEST_TOKEN", "file-token")
	t.Setenv(EnvAPIToken, "env-token")
	t.Setenv(EnvCompanyDomain, "acme")

	cfg, err := LoadConfigFromEnvironment(path)
	require.NoError(t, err)
	// env credentials overlay whatever the file provides
	assert.Equal(t, "env-token", cfg.API.Token)
	assert.Equal(t, "acme", cfg.API.Domain)
	require.Len(t, cfg.Mappings, 2)
}

func TestLoadConfigFromEnvironmentMissingFile(t *testing.T) {
	_, err := LoadConfigFromEnvironment(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read mapping file")
}

func TestAPISettingsValidate(t *testing.T) {
	require.NoError(t, APISettings{Token: "t", Domain: "d"}.Validate())
	require.Error(t, APISettings{Domain: "d"}.Validate())
	require.Error(t, APISettings{Token: "t"}.Validate())
}

func TestAPISettingsBaseURL(t *testing.T) {
	assert.Equal(t, "https://acme.pipedrive.com", APISettings{Token: "t", Domain: "acme"}.BaseURL())
	assert.Equal(t, "http://127.0.0.1:8080", APISettings{Token: "t", Domain: "http://127.0.0.1:8080"}.BaseURL())
}

func TestNameMapping(t *testing.T) {
	m, exists := NameMapping([]FieldMapping{
		{PipedriveKey: "email", InputKey: "contact.email"},
		{PipedriveKey: "name", InputKey: "contact.fullName"},
	})
	require.True(t, exists)
	assert.Equal(t, "contact.fullName", m.InputKey)

	_, exists = NameMapping([]FieldMapping{{PipedriveKey: "email", InputKey: "contact.email"}})
	assert.False(t, exists)
}
