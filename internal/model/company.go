package model

import "time"

// FirmSeed is the canonical input record for one firm. Domain is host-only
// (no scheme, no trailing slash, no "www." prefix).
type FirmSeed struct {
	Firm          string   `json:"firm" validate:"required"`
	Domain        string   `json:"domain" validate:"required,fqdn"`
	Source        string   `json:"source,omitempty"`
	ExposureScore *float64 `json:"exposureScore,omitempty"`
}

// RawSeed is a seed-file record as written by upstream collectors. Older
// files use "name" instead of "firm" and "website" instead of "domain".
type RawSeed struct {
	Firm          string   `json:"firm,omitempty"`
	Name          string   `json:"name,omitempty"`
	Domain        string   `json:"domain,omitempty"`
	Website       string   `json:"website,omitempty"`
	Source        string   `json:"source,omitempty"`
	ExposureScore *float64 `json:"exposureScore,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// MappedContact is a person accepted by the classifier.
type MappedContact struct {
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	SourceURL    string  `json:"sourceUrl"`
	EvidenceText string  `json:"evidenceText"`
	Confidence   float64 `json:"confidence"`
}

// FirmContacts is the terminal artifact for one seed. Contacts are sorted
// by descending confidence.
type FirmContacts struct {
	Firm          string          `json:"firm"`
	Domain        string          `json:"domain"`
	Source        string          `json:"source"`
	ExposureScore float64         `json:"exposureScore"`
	Contacts      []MappedContact `json:"contacts"`
}

// RunStatus represents the current state of a mapping run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of the mapper over a seed file.
type Run struct {
	ID         string         `json:"id"`
	SeedPath   string         `json:"seed_path"`
	OutputPath string         `json:"output_path"`
	Status     RunStatus      `json:"status"`
	Firms      int            `json:"firms"`
	Contacts   int            `json:"contacts"`
	Error      string         `json:"error,omitempty"`
	Result     []FirmContacts `json:"result,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// CountContacts returns the total number of contacts across firms.
func CountContacts(firms []FirmContacts) int {
	n := 0
	for _, f := range firms {
		n += len(f.Contacts)
	}
	return n
}
