package main

import (
	"context"

	"github.com/sells-group/contact-mapper/internal/fetcher"
	"github.com/sells-group/contact-mapper/internal/mapper"
)

// fakeSite serves canned bodies by absolute URL; anything else is a 404.
func fakeSite(pages map[string]string) fetcher.Func {
	return func(_ context.Context, url string) (*fetcher.Response, error) {
		body, ok := pages[url]
		if !ok {
			return nil, &fetcher.FetchError{URL: url, Reason: fetcher.ReasonStatus, StatusCode: 404}
		}
		return &fetcher.Response{URL: url, FinalURL: url, StatusCode: 200, Body: []byte(body)}, nil
	}
}

func acmePages() map[string]string {
	return map[string]string{
		"https://acme.example/sitemap.xml": `<urlset><url><loc>https://acme.example/people/jane-doe</loc></url></urlset>`,
		"https://acme.example/people/jane-doe": `<html><head><title>Jane Doe | Acme LLP</title></head>
<body><h1>Jane Doe</h1><p>Jane is a Partner in the M&amp;A practice, education: Yale</p></body></html>`,
	}
}

func newFakeMapper(pages map[string]string) *mapper.Mapper {
	site := fakeSite(pages)
	return mapper.New(mapper.Options{
		NewFetcher: func() fetcher.Fetcher { return site },
	})
}
