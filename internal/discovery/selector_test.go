package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"Radio_Endpoint_Selector_Go/pkg/model"
)

func TestSelectBest(t *testing.T) {
	scenarios := []struct {
		description      string
		results          []model.DiscoveryResult
		expectedEndpoint string
		expectedOK       bool
	}{
		{
			description: "it should pick the endpoint with the minimum duration",
			results: []model.DiscoveryResult{
				{Endpoint: "https://a.example/", Duration: 120 * time.Millisecond},
				{Endpoint: "https://b.example/", Duration: 45 * time.Millisecond},
				{Endpoint: "https://c.example/", Duration: 300 * time.Millisecond},
			},
			expectedEndpoint: "https://b.example/",
			expectedOK:       true,
		},
		{
			description: "it should keep input order on duration ties",
			results: []model.DiscoveryResult{
				{Endpoint: "https://first.example/", Duration: 50 * time.Millisecond},
				{Endpoint: "https://second.example/", Duration: 50 * time.Millisecond},
			},
			expectedEndpoint: "https://first.example/",
			expectedOK:       true,
		},
		{
			description:      "it should report no endpoint for empty input",
			results:          nil,
			expectedEndpoint: "",
			expectedOK:       false,
		},
	}

	for _, item := range scenarios {
		t.Run(item.description, func(t *testing.T) {
			endpoint, ok := SelectBest(item.results)
			assert.Equal(t, item.expectedEndpoint, endpoint)
			assert.Equal(t, item.expectedOK, ok)
		})
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	results := []model.DiscoveryResult{
		{Endpoint: "https://slow.example/", Duration: 200 * time.Millisecond},
		{Endpoint: "https://fast.example/", Duration: 10 * time.Millisecond},
	}

	ranked := Rank(results)

	assert.Equal(t, "https://fast.example/", ranked[0].Endpoint)
	assert.Equal(t, "https://slow.example/", results[0].Endpoint, "input must stay untouched")
}

func TestRankIsStable(t *testing.T) {
	results := []model.DiscoveryResult{
		{Endpoint: "https://c.example/", Duration: 80 * time.Millisecond},
		{Endpoint: "https://a.example/", Duration: 30 * time.Millisecond},
		{Endpoint: "https://b.example/", Duration: 30 * time.Millisecond},
	}

	ranked := Rank(results)

	assert.Equal(t, "https://a.example/", ranked[0].Endpoint)
	assert.Equal(t, "https://b.example/", ranked[1].Endpoint)
	assert.Equal(t, "https://c.example/", ranked[2].Endpoint)
}
