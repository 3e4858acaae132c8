package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoveryResult_OmitsEmptyIndexPages(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(DiscoveryResult{URLs: []string{"https://a.example/people/x"}, Method: DiscoverySitemap})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "index_pages")
	assert.Contains(t, string(data), `"method":"sitemap"`)
}
