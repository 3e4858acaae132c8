package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectXML_Locs(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://a.example/people/one</loc></url>
  <url><loc> https://a.example/people/two </loc></url>
</urlset>`)

	locs, err := CollectXML[string](body, "loc", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/people/one", " https://a.example/people/two "}, locs)
}

func TestCollectXML_Limit(t *testing.T) {
	body := []byte(`<urlset><url><loc>a</loc></url><url><loc>b</loc></url><url><loc>c</loc></url></urlset>`)

	locs, err := CollectXML[string](body, "loc", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, locs)
}

func TestCollectXML_Latin1(t *testing.T) {
	body := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><urlset><url><loc>https://a.example/people/m`), 0xfc)
	body = append(body, []byte(`ller</loc></url></urlset>`)...)

	locs, err := CollectXML[string](body, "loc", 0)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "https://a.example/people/müller", locs[0])
}

func TestCollectXML_Malformed(t *testing.T) {
	locs, err := CollectXML[string]([]byte(`<urlset><url><loc>a</loc></url><url><loc>b`), "loc", 0)
	assert.Error(t, err)
	assert.Equal(t, []string{"a"}, locs)
}
