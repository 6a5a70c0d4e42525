package platform

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is the configuration data of a profile-driven plugin: signatures,
// selectors, keywords and patterns. Omitted sections disable their rule.
// Patterns are matched case-insensitively; keywords are matched against
// lower-cased text.
type Profile struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Signatures  []string `yaml:"signatures"`

	Department *DepartmentProfile `yaml:"department"`
	Services   *ServicesProfile   `yaml:"services"`
	Downloads  *DownloadsProfile  `yaml:"downloads"`
	Fees       *FeesProfile       `yaml:"fees"`
	Contacts   *ContactsProfile   `yaml:"contacts"`
	Address    *AddressProfile    `yaml:"address"`
	Hours      *HoursProfile      `yaml:"hours"`
	Turnaround *TurnaroundProfile `yaml:"turnaround"`
}

// DepartmentProfile configures the department name rule.
type DepartmentProfile struct {
	Selectors []string `yaml:"selectors"`
	Keywords  []string `yaml:"keywords"`
	Delta     float64  `yaml:"delta"`
}

// ServicesProfile configures the service description rule.
type ServicesProfile struct {
	Tags         []string `yaml:"tags"`
	ClassPattern string   `yaml:"class_pattern"`
	Keywords     []string `yaml:"keywords"`
	MinLength    int      `yaml:"min_length"`
	MaxLength    int      `yaml:"max_length"`
	Truncate     int      `yaml:"truncate"`
	Limit        int      `yaml:"limit"`
	Separator    string   `yaml:"separator"`
	Delta        float64  `yaml:"delta"`
}

// DownloadsProfile configures the downloadable forms rule.
type DownloadsProfile struct {
	HrefPattern string   `yaml:"href_pattern"`
	Keywords    []string `yaml:"keywords"`
	Limit       int      `yaml:"limit"`
	Delta       float64  `yaml:"delta"`
}

// FeesProfile configures the fee rule.
type FeesProfile struct {
	TableClassPattern string   `yaml:"table_class_pattern"`
	TableLimit        int      `yaml:"table_limit"`
	HeaderKeywords    []string `yaml:"header_keywords"`
	SummaryFormat     string   `yaml:"summary_format"`
	TextTags          []string `yaml:"text_tags"`
	TextPattern       string   `yaml:"text_pattern"`
	TextLimit         int      `yaml:"text_limit"`
	MinLength         int      `yaml:"min_length"`
	MaxLength         int      `yaml:"max_length"`
	Limit             int      `yaml:"limit"`
	Separator         string   `yaml:"separator"`
	Delta             float64  `yaml:"delta"`
}

// ContactsProfile configures the phone and email rules.
type ContactsProfile struct {
	PhoneDelta float64 `yaml:"phone_delta"`
	EmailDelta float64 `yaml:"email_delta"`
}

// AddressProfile configures the address rule.
type AddressProfile struct {
	Delta float64 `yaml:"delta"`
}

// HoursProfile configures the office hours rule.
type HoursProfile struct {
	Tags      []string `yaml:"tags"`
	Pattern   string   `yaml:"pattern"`
	Required  string   `yaml:"required"`
	AnyOf     []string `yaml:"any_of"`
	MaxLength int      `yaml:"max_length"`
	Delta     float64  `yaml:"delta"`
}

// TurnaroundProfile configures the turnaround time rule.
type TurnaroundProfile struct {
	Patterns []string `yaml:"patterns"`
	Delta    float64  `yaml:"delta"`
}

// ParseProfile decodes a YAML profile.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfileFile reads and decodes a YAML profile from disk.
func LoadProfileFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Validate checks the required fields and rejects negative deltas.
func (p *Profile) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("profile name is required"))
	}
	if len(p.Signatures) == 0 {
		errs = append(errs, errors.New("profile needs at least one signature"))
	}
	for name, d := range p.deltas() {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s delta must not be negative", name))
		}
	}
	return errors.Join(errs...)
}

func (p *Profile) deltas() map[string]float64 {
	d := make(map[string]float64)
	if p.Department != nil {
		d[RuleDepartment] = p.Department.Delta
	}
	if p.Services != nil {
		d[RuleServices] = p.Services.Delta
	}
	if p.Downloads != nil {
		d[RuleDownloads] = p.Downloads.Delta
	}
	if p.Fees != nil {
		d[RuleFees] = p.Fees.Delta
	}
	if p.Contacts != nil {
		d[RulePhone] = p.Contacts.PhoneDelta
		d[RuleEmail] = p.Contacts.EmailDelta
	}
	if p.Address != nil {
		d[RuleAddress] = p.Address.Delta
	}
	if p.Hours != nil {
		d[RuleHours] = p.Hours.Delta
	}
	if p.Turnaround != nil {
		d[RuleTurnaround] = p.Turnaround.Delta
	}
	return d
}

func compileInsensitive(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
