package platform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/htmlutil"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
)

// Rule names, in the order a profile plugin runs them.
const (
	RuleDepartment = "department"
	RuleServices   = "services"
	RuleDownloads  = "downloads"
	RuleFees       = "fees"
	RulePhone      = "phone"
	RuleEmail      = "email"
	RuleAddress    = "address"
	RuleHours      = "hours"
	RuleTurnaround = "turnaround"
)

// ProfilePlugin is a Plugin driven entirely by a Profile.
type ProfilePlugin struct {
	profile *Profile
	matcher *SignatureMatcher
	rules   []Rule
	helpers Helpers
	logger  logger.Logger
}

// ProfileOption configures a ProfilePlugin.
type ProfileOption func(*ProfilePlugin)

// WithLogger sets the logger used for rule recoveries.
func WithLogger(l logger.Logger) ProfileOption {
	return func(p *ProfilePlugin) {
		p.logger = l
	}
}

// WithHelpers replaces the markup helpers.
func WithHelpers(h Helpers) ProfileOption {
	return func(p *ProfilePlugin) {
		p.helpers = h
	}
}

// NewProfilePlugin compiles profile into a plugin.
func NewProfilePlugin(profile *Profile, opts ...ProfileOption) (*ProfilePlugin, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	p := &ProfilePlugin{
		profile: profile,
		matcher: NewSignatureMatcher(profile.Signatures),
		helpers: htmlutil.Toolkit{},
		logger:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	rules, err := compileRules(profile)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profile.Name, err)
	}
	p.rules = rules

	return p, nil
}

// Name returns the profile name.
func (p *ProfilePlugin) Name() string {
	return p.profile.Name
}

// Info implements Describer.
func (p *ProfilePlugin) Info() Info {
	return Info{
		Name:        p.profile.Name,
		Description: p.profile.Description,
		Signatures:  p.matcher.Signatures(),
		Rules:       p.RuleNames(),
	}
}

// MatchedSignatures implements Describer.
func (p *ProfilePlugin) MatchedSignatures(pageURL, html string) []string {
	return p.matcher.Matched(pageURL, html)
}

// RuleNames returns the enabled rules in execution order.
func (p *ProfilePlugin) RuleNames() []string {
	names := make([]string, 0, len(p.rules))
	for _, r := range p.rules {
		names = append(names, r.Name)
	}
	return names
}

// Detect reports whether any signature occurs in pageURL or html.
func (p *ProfilePlugin) Detect(pageURL, html string) bool {
	return p.matcher.Matches(pageURL, html)
}

// Extract implements Plugin.
func (p *ProfilePlugin) Extract(pageURL, html string, doc *goquery.Document) *domain.Record {
	if !p.Detect(pageURL, html) {
		return nil
	}

	if doc == nil {
		parsed, err := htmlutil.Parse(html)
		if err != nil {
			p.logger.Debug("Failed to parse html", logger.URL(pageURL), logger.Error(err))
			return nil
		}
		doc = parsed
	}

	page := NewPage(pageURL, html, doc, p.helpers)
	base := domain.NewRecord(pageURL, p.profile.Name, p.helpers.GuessJurisdiction(html))
	rec := Fold(page, base, p.rules, p.logger)

	if !rec.Accepted() {
		return nil
	}
	return rec
}

func compileRules(profile *Profile) ([]Rule, error) {
	var rules []Rule

	if cfg := profile.Department; cfg != nil {
		rules = append(rules, departmentRule(cfg))
	}
	if cfg := profile.Services; cfg != nil {
		r, err := servicesRule(cfg)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if cfg := profile.Downloads; cfg != nil {
		r, err := downloadsRule(cfg)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if cfg := profile.Fees; cfg != nil {
		r, err := feesRule(cfg)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if cfg := profile.Contacts; cfg != nil {
		rules = append(rules, phoneRule(cfg.PhoneDelta), emailRule(cfg.EmailDelta))
	}
	if cfg := profile.Address; cfg != nil {
		rules = append(rules, addressRule(cfg.Delta))
	}
	if cfg := profile.Hours; cfg != nil {
		r, err := hoursRule(cfg)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	if cfg := profile.Turnaround; cfg != nil {
		r, err := turnaroundRule(cfg)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}

	return rules, nil
}

// departmentRule takes the first element, in selector priority order, whose
// cleaned text mentions a department keyword.
func departmentRule(cfg *DepartmentProfile) Rule {
	keywords := lowerAll(cfg.Keywords)

	return Rule{
		Name:  RuleDepartment,
		Delta: cfg.Delta,
		Apply: func(p *Page, r *domain.Record) (bool, error) {
			for _, sel := range cfg.Selectors {
				var found string
				p.Doc.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
					text := p.Clean(el)
					if text != "" && containsAny(strings.ToLower(text), keywords) {
						found = text
						return false
					}
					return true
				})
				if found != "" {
					r.DepartmentName = found
					return true, nil
				}
			}
			return false, nil
		},
	}
}

func servicesRule(cfg *ServicesProfile) (Rule, error) {
	classRe, err := compileInsensitive(cfg.ClassPattern)
	if err != nil {
		return Rule{}, fmt.Errorf("services: %w", err)
	}
	keywords := lowerAll(cfg.Keywords)
	tags := strings.Join(cfg.Tags, ", ")

	return Rule{
		Name:  RuleServices,
		Delta: cfg.Delta,
		Apply: func(p *Page, r *domain.Record) (bool, error) {
			var info []string
			p.Doc.Find(tags).Each(func(_ int, el *goquery.Selection) {
				if !hasMatchingClass(el, classRe) {
					return
				}
				text := p.Clean(el)
				if !lengthBetween(text, cfg.MinLength, cfg.MaxLength) {
					return
				}
				if containsAny(strings.ToLower(text), keywords) {
					info = append(info, htmlutil.Truncate(text, cfg.Truncate))
				}
			})
			if len(info) == 0 {
				return false, nil
			}
			r.ProcessingInstructions = strings.Join(head(info, cfg.Limit), cfg.Separator)
			return true, nil
		},
	}, nil
}

func downloadsRule(cfg *DownloadsProfile) (Rule, error) {
	hrefRe, err := compileInsensitive(cfg.HrefPattern)
	if err != nil {
		return Rule{}, fmt.Errorf("downloads: %w", err)
	}
	keywords := lowerAll(cfg.Keywords)
	limit := cfg.Limit
	if limit <= 0 || limit > domain.MaxDownloads {
		limit = domain.MaxDownloads
	}

	return Rule{
		Name:  RuleDownloads,
		Delta: cfg.Delta,
		Apply: func(p *Page, r *domain.Record) (bool, error) {
			var downloads domain.Downloads
			p.Doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				if !hrefRe.MatchString(href) {
					return
				}
				title := p.Clean(a)
				if !containsAny(strings.ToLower(title), keywords) {
					return
				}
				link := ResolveLink(p.URL, href)
				if !link.OK() {
					return
				}
				downloads = append(downloads, domain.Download{Title: title, URL: link.URL})
			})
			if len(downloads) == 0 {
				return false, nil
			}
			r.DownloadableApplications = head(downloads, limit)
			return true, nil
		},
	}, nil
}

func feesRule(cfg *FeesProfile) (Rule, error) {
	tableRe, err := compileInsensitive(cfg.TableClassPattern)
	if err != nil {
		return Rule{}, fmt.Errorf("fees: %w", err)
	}
	textRe, err := compileInsensitive(cfg.TextPattern)
	if err != nil {
		return Rule{}, fmt.Errorf("fees: %w", err)
	}
	headerKeywords := lowerAll(cfg.HeaderKeywords)
	textTags := strings.Join(cfg.TextTags, ", ")

	return Rule{
		Name:  RuleFees,
		Delta: cfg.Delta,
		Apply: func(p *Page, r *domain.Record) (bool, error) {
			var info []string

			tables := p.Doc.Find("table").FilterFunction(func(_ int, t *goquery.Selection) bool {
				return hasMatchingClass(t, tableRe)
			})
			tables.EachWithBreak(func(i int, t *goquery.Selection) bool {
				if i >= cfg.TableLimit {
					return false
				}
				grid := p.Helpers().HTMLTableTo2D(t)
				if len(grid) > 1 && rowContainsAny(grid[0], headerKeywords) {
					info = append(info, fmt.Sprintf(cfg.SummaryFormat, len(grid)-1))
				}
				return true
			})

			matched := ownTextMatches(p.Doc.Find(textTags), textRe)
			for _, el := range head(matched, cfg.TextLimit) {
				text := p.Clean(el)
				if lengthBetween(text, cfg.MinLength, cfg.MaxLength) {
					info = append(info, text)
				}
			}

			if len(info) == 0 {
				return false, nil
			}
			r.PermitFee = strings.Join(head(info, cfg.Limit), cfg.Separator)
			return true, nil
		},
	}, nil
}

func phoneRule(delta float64) Rule {
	return Rule{
		Name:  RulePhone,
		Delta: delta,
		Apply: func(p *Page, r *domain.Record) (bool, error) {
			phones := p.Contacts().Phones
			if len(phones) == 0 {
				return false, nil
			}
			r.Phone = phones[0]
			return true, nil
		},
	}
}

func emailRule(delta float64) Rule {
	return Rule{
		Name:  RuleEmail,
		Delta: delta,
		Apply: func(p *Page, r *domain.Record) (bool, error) {
			emails := p.Contacts().Emails
			if len(emails) == 0 {
				return false, nil
			}
			r.Email = emails[0]
			return true, nil
		},
	}
}

func addressRule(delta float64) Rule {
	return Rule{
		Name:  RuleAddress,
		Delta: delta,
		Apply: func(p *Page, r *domain.Record) (bool, error) {
			addr := p.Helpers().FindAddressBlock(p.Doc)
			if addr == "" {
				return false, nil
			}
			r.Address = addr
			return true, nil
		},
	}
}

func hoursRule(cfg *HoursProfile) (Rule, error) {
	re, err := compileInsensitive(cfg.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("hours: %w", err)
	}
	required := strings.ToLower(cfg.Required)
	anyOf := lowerAll(cfg.AnyOf)
	tags := strings.Join(cfg.Tags, ", ")

	return Rule{
		Name:  RuleHours,
		Delta: cfg.Delta,
		Apply: func(p *Page, r *domain.Record) (bool, error) {
			for _, el := range ownTextMatches(p.Doc.Find(tags), re) {
				text := p.Clean(el)
				lower := strings.ToLower(text)
				if strings.Contains(lower, required) && containsAny(lower, anyOf) {
					r.Hours = htmlutil.Truncate(text, cfg.MaxLength)
					return true, nil
				}
			}
			return false, nil
		},
	}, nil
}

func turnaroundRule(cfg *TurnaroundProfile) (Rule, error) {
	patterns := make([]*regexp.Regexp, 0, len(cfg.Patterns))
	for _, pat := range cfg.Patterns {
		re, err := compileInsensitive(pat)
		if err != nil {
			return Rule{}, fmt.Errorf("turnaround: %w", err)
		}
		patterns = append(patterns, re)
	}

	return Rule{
		Name:  RuleTurnaround,
		Delta: cfg.Delta,
		Apply: func(p *Page, r *domain.Record) (bool, error) {
			for _, re := range patterns {
				if loc := re.FindStringIndex(p.HTML); loc != nil {
					r.TurnaroundTime = p.Clean(RawText(p.HTML[loc[0]:loc[1]]))
					return true, nil
				}
			}
			return false, nil
		},
	}, nil
}

// hasMatchingClass reports whether any class token of el matches re.
func hasMatchingClass(el *goquery.Selection, re *regexp.Regexp) bool {
	class, ok := el.Attr("class")
	if !ok {
		return false
	}
	for _, token := range strings.Fields(class) {
		if re.MatchString(token) {
			return true
		}
	}
	return false
}

// ownTextMatches returns the elements whose single string matches re,
// in document order.
func ownTextMatches(s *goquery.Selection, re *regexp.Regexp) []*goquery.Selection {
	var out []*goquery.Selection
	s.Each(func(_ int, el *goquery.Selection) {
		if own, ok := htmlutil.OwnString(el); ok && re.MatchString(own) {
			out = append(out, el)
		}
	})
	return out
}

func rowContainsAny(row []string, keywords []string) bool {
	for _, cell := range row {
		if containsAny(strings.ToLower(cell), keywords) {
			return true
		}
	}
	return false
}

// lengthBetween reports whether text is non-empty and its rune length is
// strictly between lower and upper.
func lengthBetween(text string, lower, upper int) bool {
	n := htmlutil.RuneLen(text)
	return n > 0 && n > lower && n < upper
}

func head[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}
