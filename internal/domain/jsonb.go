package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Download is a downloadable application form linked from a permit page.
type Download struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Downloads is stored as a JSONB array.
type Downloads []Download

// Scan implements sql.Scanner.
func (d *Downloads) Scan(value any) error {
	return scanJSONB(value, d, func() { *d = Downloads{} })
}

// Value implements driver.Valuer.
func (d Downloads) Value() (driver.Value, error) {
	if len(d) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal([]Download(d))
}

// RuleResult records the outcome of one extraction rule.
type RuleResult struct {
	Rule       string  `json:"rule"`
	Fired      bool    `json:"fired"`
	Delta      float64 `json:"delta"`
	SkipReason string  `json:"skip_reason,omitempty"`
}

// Evidence is stored as a JSONB array.
type Evidence []RuleResult

// Fired returns the names of the rules that contributed to the record.
func (e Evidence) Fired() []string {
	names := make([]string, 0, len(e))
	for _, r := range e {
		if r.Fired {
			names = append(names, r.Rule)
		}
	}
	return names
}

// Scan implements sql.Scanner.
func (e *Evidence) Scan(value any) error {
	return scanJSONB(value, e, func() { *e = Evidence{} })
}

// Value implements driver.Valuer.
func (e Evidence) Value() (driver.Value, error) {
	if len(e) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal([]RuleResult(e))
}

func scanJSONB(value, dest any, empty func()) error {
	if value == nil {
		empty()
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("unsupported type for JSONB column")
	}

	if len(data) == 0 {
		empty()
		return nil
	}

	return json.Unmarshal(data, dest)
}
