package seeds

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contact-mapper/internal/model"
)

func writeSeeds(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legal_signal_leads.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://www.example.com/", "example.com"},
		{"example.com", "example.com"},
		{"WWW.EXAMPLE.COM", "example.com"},
		{"  http://Example.com/people?x=1  ", "example.com"},
		{"example.com/about", "example.com"},
		{"example.com.", "example.com"},
		{"sub.example.co.uk", "sub.example.co.uk"},
		{"localhost", ""},
		{"", ""},
		{"https://", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeDomain(tt.in))
		})
	}
}

func TestResolve_FieldPrecedence(t *testing.T) {
	score := 71.5

	seed, err := Resolve(model.RawSeed{
		Firm:          "Acme LLP",
		Name:          "Acme Legal",
		Domain:        "https://www.acme.example/",
		Website:       "https://other.example",
		Source:        "harvester",
		ExposureScore: &score,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme LLP", seed.Firm)
	assert.Equal(t, "acme.example", seed.Domain)
	assert.Equal(t, "harvester", seed.Source)
	require.NotNil(t, seed.ExposureScore)
	assert.Equal(t, 71.5, *seed.ExposureScore)

	seed, err = Resolve(model.RawSeed{Name: " Beta & Co ", Website: "https://www.beta.example/contact"})
	require.NoError(t, err)
	assert.Equal(t, "Beta & Co", seed.Firm)
	assert.Equal(t, "beta.example", seed.Domain)
	assert.Nil(t, seed.ExposureScore)
}

func TestResolve_Rejects(t *testing.T) {
	_, err := Resolve(model.RawSeed{Domain: "acme.example"})
	assert.Error(t, err, "missing firm")

	_, err = Resolve(model.RawSeed{Firm: "Acme"})
	assert.Error(t, err, "missing domain")

	_, err = Resolve(model.RawSeed{Firm: "Acme", Domain: "intranet"})
	assert.Error(t, err, "domain without dot")

	_, err = Resolve(model.RawSeed{Firm: "Acme", Domain: "acme_example.com"})
	assert.Error(t, err, "not a hostname")
}

func TestLoad(t *testing.T) {
	path := writeSeeds(t, `[
  {"firm": "Acme LLP", "domain": "acme.example", "source": "harvester", "exposureScore": 88},
  {"name": "Beta LLP", "website": "https://www.beta.example/"},
  null,
  {"firm": "No Domain LLP"},
  {"domain": "nofirm.example"},
  {"firm": "Bad Score", "domain": "bad.example", "exposureScore": "high"}
]`)

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme LLP", got[0].Firm)
	assert.Equal(t, "acme.example", got[0].Domain)
	require.NotNil(t, got[0].ExposureScore)
	assert.Equal(t, 88.0, *got[0].ExposureScore)
	assert.Equal(t, "Beta LLP", got[1].Firm)
	assert.Equal(t, "beta.example", got[1].Domain)
}

func TestLoad_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `[{"firm": `},
		{"object not array", `{"firm": "Acme", "domain": "acme.example"}`},
		{"array of strings", `["acme.example"]`},
		{"empty file", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeSeeds(t, tt.content))
			require.Error(t, err)
			var inErr *InputError
			assert.True(t, errors.As(err, &inErr))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	var inErr *InputError
	require.True(t, errors.As(err, &inErr))
	assert.Contains(t, inErr.Error(), "read seed file")
}

func TestLoad_EmptyArray(t *testing.T) {
	got, err := Load(writeSeeds(t, `[]`))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadOrFallback(t *testing.T) {
	got, err := LoadOrFallback(writeSeeds(t, `[]`))
	require.NoError(t, err)
	assert.Equal(t, []model.FirmSeed{Fallback()}, got)

	got, err = LoadOrFallback(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "cooley.com", got[0].Domain)
	assert.Equal(t, "fallback_seed", got[0].Source)
	assert.Equal(t, 92.0, *got[0].ExposureScore)

	got, err = LoadOrFallback(writeSeeds(t, `[{"firm":"Acme","domain":"acme.example"}]`))
	require.NoError(t, err)
	assert.Equal(t, "Acme", got[0].Firm)

	_, err = LoadOrFallback(writeSeeds(t, `{}`))
	assert.Error(t, err, "malformed input is still fatal")
}

func TestInputError_Message(t *testing.T) {
	err := &InputError{Path: "seeds.json", Msg: "bad", Details: []string{"a", "b"}, Err: errors.New("boom")}
	assert.Equal(t, "seeds: seeds.json: bad (a; b): boom", err.Error())
	assert.ErrorIs(t, err, err.Err)
}
