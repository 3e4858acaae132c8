package fetcher

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CharsetReader decodes non-UTF-8 XML documents using the charset named in
// the XML declaration.
func CharsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}

// CollectXML decodes every element with the given local name, at any depth,
// into a T. It stops after limit elements when limit > 0.
func CollectXML[T any](body []byte, elementName string, limit int) ([]T, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.CharsetReader = CharsetReader
	decoder.Strict = false

	var out []T
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, eris.Wrap(err, "xml: read token")
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != elementName {
			continue
		}

		var item T
		if err := decoder.DecodeElement(&item, &se); err != nil {
			return out, eris.Wrap(err, "xml: decode element")
		}
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			return out, nil
		}
	}
}
