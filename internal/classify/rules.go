package classify

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rules holds the word lists and weights used by the classifier.
type Rules struct {
	RejectNames    []string `yaml:"reject_names"`
	NavWords       []string `yaml:"nav_words"`
	Roles          []string `yaml:"roles"`
	BioSignals     []string `yaml:"bio_signals"`
	DefaultRole    string   `yaml:"default_role"`
	MinNameTokens  int      `yaml:"min_name_tokens"`
	MaxNameTokens  int      `yaml:"max_name_tokens"`
	MinLetterRatio float64  `yaml:"min_letter_ratio"`
	MinBioSignals  int      `yaml:"min_bio_signals"`
	Scoring        Scoring  `yaml:"scoring"`
}

// Scoring holds the confidence formula weights.
type Scoring struct {
	Base         float64 `yaml:"base"`
	RoleBonus    float64 `yaml:"role_bonus"`
	SignalWeight float64 `yaml:"signal_weight"`
	SignalCap    float64 `yaml:"signal_cap"`
	Floor        float64 `yaml:"floor"`
	Ceiling      float64 `yaml:"ceiling"`
}

// DefaultRules returns a fresh copy of the embedded rule set.
func DefaultRules() *Rules {
	r, err := parseRules(defaultRulesYAML)
	if err != nil {
		panic(eris.Wrap(err, "classify: embedded rules"))
	}
	return r
}

// LoadRules reads a rules override from a YAML file. Missing keys keep the
// embedded defaults.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: read rules %s", path)
	}
	return parseRules(data)
}

func parseRules(data []byte) (*Rules, error) {
	var base struct {
		Classifier Rules `yaml:"classifier"`
	}
	if len(defaultRulesYAML) > 0 {
		if err := yaml.Unmarshal(defaultRulesYAML, &base); err != nil {
			return nil, eris.Wrap(err, "classify: parse embedded rules")
		}
	}

	// Overlay: yaml.v3 leaves fields absent from data untouched.
	if err := yaml.Unmarshal(data, &base); err != nil {
		return nil, eris.Wrap(err, "classify: parse rules")
	}

	r := &base.Classifier
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rules) validate() error {
	switch {
	case len(r.Roles) == 0:
		return eris.New("classify: rules: roles must not be empty")
	case r.DefaultRole == "":
		return eris.New("classify: rules: default_role is required")
	case r.MinNameTokens < 1 || r.MaxNameTokens < r.MinNameTokens:
		return eris.Errorf("classify: rules: invalid name token bounds %d..%d", r.MinNameTokens, r.MaxNameTokens)
	case r.Scoring.Floor > r.Scoring.Ceiling:
		return eris.Errorf("classify: rules: floor %.2f above ceiling %.2f", r.Scoring.Floor, r.Scoring.Ceiling)
	}
	return nil
}
