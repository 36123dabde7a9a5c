package snapshot

import (
	"fmt"
	"strings"

	"erpcore/pkg/domain"
)

// Rule names the reconciliation rule that produced a warning.
type Rule string

// Reconciliation rules.
const (
	RuleUnsupportedVersion Rule = "unsupported_version"
	RuleDuplicateID        Rule = "duplicate_id"
	RuleInvalidID          Rule = "invalid_id"
	RuleUnknownReference   Rule = "unknown_reference"
	RuleSkippedLine        Rule = "skipped_line"
	RuleClampedValue       Rule = "clamped_value"
	RuleStatusNormalized   Rule = "status_normalized"
	RuleScannerReassigned  Rule = "scanner_reassigned"
	RuleCounterRaised      Rule = "counter_raised"
	RuleStandardTerms      Rule = "standard_terms"
	RuleSinglePrices       Rule = "single_prices"
	RuleBestCoverage       Rule = "best_coverage_prices"
	RuleSynthesizedPrices  Rule = "synthesized_prices"
	RuleCustomerFromOrder  Rule = "customer_from_order"
	RuleBillDropped        Rule = "bill_dropped"
)

// Warning describes one record that was skipped, repaired or substituted
// while rebuilding an instance.
type Warning struct {
	Entity  domain.EntityType
	ID      int
	Rule    Rule
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %d [%s]: %s", w.Entity, w.ID, w.Rule, w.Message)
}

// Report collects the warnings of one load.
type Report struct {
	Warnings []Warning
}

// Clean reports whether the document resolved without any warning.
func (r Report) Clean() bool {
	return len(r.Warnings) == 0
}

// ByRule returns the warnings produced by rule.
func (r Report) ByRule(rule Rule) []Warning {
	var out []Warning
	for _, w := range r.Warnings {
		if w.Rule == rule {
			out = append(out, w)
		}
	}
	return out
}

func (r Report) String() string {
	if r.Clean() {
		return "no warnings"
	}
	lines := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
