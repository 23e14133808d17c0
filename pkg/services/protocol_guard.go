package services

import (
	"fmt"
	"strings"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
)

// GuardResult is the verdict of the deterministic guard layer for one
// record. Decision is nil when no guard fired and the record must go to
// the reasoning client.
type GuardResult struct {
	Decision *models.Outcome
	Reasons  []string
}

// Excluded reports whether a guard produced a definitive exclusion.
func (r *GuardResult) Excluded() bool {
	return r.Decision != nil
}

// ProtocolGuard evaluates the deterministic protocol rules that can
// exclude a record without consulting the reasoning service. Guards never
// include a record, only exclude or pass.
type ProtocolGuard interface {
	// Evaluate applies the year window and language guards to a record.
	// Every enabled guard is evaluated even after one has fired, so the
	// result carries the complete set of violation reasons.
	Evaluate(protocol *models.ProtocolConfig, record *models.Record) *GuardResult
}

type protocolGuard struct{}

// NewProtocolGuard creates a new ProtocolGuard.
func NewProtocolGuard() ProtocolGuard {
	return &protocolGuard{}
}

func (g *protocolGuard) Evaluate(protocol *models.ProtocolConfig, record *models.Record) *GuardResult {
	result := &GuardResult{}
	if protocol == nil || record == nil {
		return result
	}

	g.applyYearWindow(protocol.YearWindow, record, result)
	g.applyLanguage(protocol.Language, record, result)
	return result
}

// applyYearWindow excludes records published outside [min, max]. A record
// without a year passes: missing metadata is the reasoning client's
// problem, not the guard's.
func (g *protocolGuard) applyYearWindow(rule *models.YearWindowRule, record *models.Record, result *GuardResult) {
	if rule == nil || !rule.Enabled || record.Year == nil {
		return
	}

	year := *record.Year
	if rule.Min != nil && year < *rule.Min {
		markExcluded(result, fmt.Sprintf("Publication year %d is below minimum %d in protocol.", year, *rule.Min))
	}
	if rule.Max != nil && year > *rule.Max {
		markExcluded(result, fmt.Sprintf("Publication year %d is above maximum %d in protocol.", year, *rule.Max))
	}
}

// applyLanguage excludes records whose language is not in the allow-list.
// Comparison is case-insensitive. An empty allow-list or an empty record
// language disables the check.
func (g *protocolGuard) applyLanguage(rule *models.LanguageRule, record *models.Record, result *GuardResult) {
	if rule == nil || !rule.Enabled || record.Language == "" || len(rule.Allow) == 0 {
		return
	}

	for _, allowed := range rule.Allow {
		if strings.EqualFold(record.Language, allowed) {
			return
		}
	}
	markExcluded(result, fmt.Sprintf("Language %s not in allowed languages %s in protocol.", record.Language, formatAllowList(rule.Allow)))
}

func markExcluded(result *GuardResult, reason string) {
	if result.Decision == nil {
		excluded := models.OutcomeExclude
		result.Decision = &excluded
	}
	result.Reasons = append(result.Reasons, reason)
}

// formatAllowList renders the allow-list the way reviewers see it in the
// protocol document, e.g. ['en', 'de'].
func formatAllowList(allow []string) string {
	quoted := make([]string, len(allow))
	for i, lang := range allow {
		quoted[i] = "'" + lang + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
