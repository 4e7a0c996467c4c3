package locations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocationsFromFile(t *testing.T) {
	data := `[
  {"code": "de", "region": "Germany"},
  {"code": "fi", "region": "Finland"},
  {"code": "", "region": "ignored"}
]`
	path := filepath.Join(t.TempDir(), "locations.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	regionMap, err := LoadLocationsFromFile(path)
	require.NoError(t, err)

	region, ok := regionMap.GetRegion("de")
	assert.True(t, ok)
	assert.Equal(t, "Germany", region)

	_, ok = regionMap.GetRegion("xx")
	assert.False(t, ok)

	assert.Len(t, regionMap, 2)
}

func TestCountryCode(t *testing.T) {
	scenarios := []struct {
		endpoint string
		expected string
	}{
		{"https://de1.api.radio-browser.info/", "de"},
		{"https://fi1.api.radio-browser.info/", "fi"},
		{"https://AT2.api.radio-browser.info/", "at"},
		{"https://203.0.113.9/", ""},
		{"https://[2a03:4000:6:8065::1]/", ""},
		{"", ""},
	}

	for _, item := range scenarios {
		assert.Equal(t, item.expected, CountryCode(item.endpoint), "endpoint %q", item.endpoint)
	}
}
