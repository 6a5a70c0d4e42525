package platform

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
)

// SkipNoMatch is the evidence reason for a rule that ran but found nothing.
const SkipNoMatch = "no match"

// Rule is one independent extraction step. Apply sets zero or more fields on
// the record and reports whether it fired; a fired rule adds Delta.
type Rule struct {
	Name  string
	Delta float64
	Apply func(p *Page, r *domain.Record) (bool, error)
}

// Fold runs rules in order over base. A rule that errors or panics is
// recorded as skipped and contributes nothing; later rules still run.
// Confidence is clamped to domain.MaxConfidence.
func Fold(p *Page, base *domain.Record, rules []Rule, log logger.Logger) *domain.Record {
	log = logger.OrNop(log)

	for _, rule := range rules {
		fired, err := applyRule(rule, p, base)

		result := domain.RuleResult{Rule: rule.Name}
		switch {
		case err != nil:
			result.SkipReason = err.Error()
			log.Debug("Extraction rule skipped",
				logger.String("rule", rule.Name),
				logger.URL(p.URL),
				logger.Error(err),
			)
		case fired:
			result.Fired = true
			result.Delta = rule.Delta
			base.AddConfidence(rule.Delta)
		default:
			result.SkipReason = SkipNoMatch
		}
		base.Evidence = append(base.Evidence, result)
	}

	return base
}

func applyRule(rule Rule, p *Page, r *domain.Record) (fired bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fired = false
			err = fmt.Errorf("rule %s panicked: %v", rule.Name, rec)
		}
	}()

	if rule.Apply == nil {
		return false, fmt.Errorf("rule %s has no apply func", rule.Name)
	}
	return rule.Apply(p, r)
}
