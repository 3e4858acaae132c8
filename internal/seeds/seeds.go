// Package seeds reads firm seed files and resolves their loosely shaped
// records into canonical model.FirmSeed values.
package seeds

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/sells-group/contact-mapper/internal/model"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)
	validate     = validator.New()
)

// Fallback is the seed used when no seed file content is available.
func Fallback() model.FirmSeed {
	score := 92.0
	return model.FirmSeed{
		Firm:          "Cooley LLP",
		Domain:        "cooley.com",
		Source:        "fallback_seed",
		ExposureScore: &score,
	}
}

// Load reads the seed file at path. A missing file, invalid JSON, or a
// document that is not an array is an *InputError. Individual records that
// lack a firm or a usable domain are skipped with a warning.
func Load(path string) ([]model.FirmSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputError{Path: path, Msg: "read seed file", Err: err}
	}
	return Parse(path, data)
}

// LoadOrFallback is Load, except that a missing file or an empty array
// yields the Fallback seed.
func LoadOrFallback(path string) ([]model.FirmSeed, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("seeds: file missing, using fallback seed", zap.String("path", path))
		return []model.FirmSeed{Fallback()}, nil
	}
	if err != nil {
		return nil, &InputError{Path: path, Msg: "read seed file", Err: err}
	}

	out, empty, err := parse(path, data)
	if err != nil {
		return nil, err
	}
	if empty {
		zap.L().Warn("seeds: file is empty, using fallback seed", zap.String("path", path))
		return []model.FirmSeed{Fallback()}, nil
	}
	return out, nil
}

// Parse resolves the seed document in data. path is used for error
// reporting only.
func Parse(path string, data []byte) ([]model.FirmSeed, error) {
	out, _, err := parse(path, data)
	return out, err
}

func parse(path string, data []byte) (seeds []model.FirmSeed, empty bool, err error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, false, &InputError{Path: path, Msg: "invalid JSON", Err: err}
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, false, &InputError{Path: path, Msg: "seed file must be a JSON array of objects", Details: details}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, &InputError{Path: path, Msg: "invalid JSON", Err: err}
	}

	seeds = make([]model.FirmSeed, 0, len(records))
	log := zap.L().With(zap.String("path", path))
	for i, rec := range records {
		if string(rec) == "null" {
			log.Warn("seeds: skipping null record", zap.Int("index", i))
			continue
		}
		var raw model.RawSeed
		if err := json.Unmarshal(rec, &raw); err != nil {
			log.Warn("seeds: skipping malformed record", zap.Int("index", i), zap.Error(err))
			continue
		}
		seed, err := Resolve(raw)
		if err != nil {
			log.Warn("seeds: skipping record", zap.Int("index", i), zap.Error(err))
			continue
		}
		seeds = append(seeds, seed)
	}
	return seeds, len(records) == 0, nil
}

// Resolve turns a raw record into a canonical seed. The firm comes from
// "firm", else "name"; the domain from "domain", else the host of
// "website".
func Resolve(raw model.RawSeed) (model.FirmSeed, error) {
	firm := strings.TrimSpace(raw.Firm)
	if firm == "" {
		firm = strings.TrimSpace(raw.Name)
	}

	domain := NormalizeDomain(raw.Domain)
	if domain == "" {
		domain = NormalizeDomain(raw.Website)
	}

	seed := model.FirmSeed{
		Firm:          firm,
		Domain:        domain,
		Source:        strings.TrimSpace(raw.Source),
		ExposureScore: raw.ExposureScore,
	}
	if err := Validate(seed); err != nil {
		return model.FirmSeed{}, err
	}
	return seed, nil
}

// Validate checks a canonical seed's struct tags.
func Validate(seed model.FirmSeed) error {
	if err := validate.Struct(seed); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return eris.Errorf("seed %q: field %s failed %q (value %q)", seed.Firm, fe.Field(), fe.Tag(), fe.Value())
		}
		return eris.Wrap(err, "seed: validate")
	}
	return nil
}

// NormalizeDomain reduces a domain or URL to a bare lowercase host:
// "https://www.example.com/" becomes "example.com". Input without a dot
// yields "".
func NormalizeDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			s = u.Host
		} else {
			_, s, _ = strings.Cut(s, "://")
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimSuffix(s, ".")

	if !strings.Contains(s, ".") {
		return ""
	}
	return s
}
