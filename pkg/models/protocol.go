package models

import "encoding/json"

// ProtocolConfig is the parsed view of a project's protocol configuration.
// Only year_window and language feed the deterministic guard layer; the
// remaining sections are carried for the reasoning prompt and for protocol
// review surfaces.
type ProtocolConfig struct {
	YearWindow        *YearWindowRule        `json:"year_window,omitempty"`
	Language          *LanguageRule          `json:"language,omitempty"`
	Population        *PopulationRule        `json:"population,omitempty"`
	Interventions     *InterventionsRule     `json:"interventions,omitempty"`
	Comparators       *ComparatorsRule       `json:"comparators,omitempty"`
	Outcomes          *OutcomesRule          `json:"outcomes,omitempty"`
	StudyDesign       *StudyDesignRule       `json:"study_design,omitempty"`
	SampleSize        *SampleSizeRule        `json:"sample_size,omitempty"`
	Followup          *FollowupRule          `json:"followup,omitempty"`
	KeywordExclusions *KeywordExclusionsRule `json:"keyword_exclusions,omitempty"`
}

// YearWindowRule excludes records published outside [Min, Max]. Either bound
// may be nil, meaning unbounded on that side.
type YearWindowRule struct {
	Enabled bool `json:"enabled"`
	Min     *int `json:"min,omitempty"`
	Max     *int `json:"max,omitempty"`
}

// LanguageRule excludes records whose language is not in the allow-list.
// An empty allow-list disables the rule even when Enabled is true.
type LanguageRule struct {
	Enabled bool     `json:"enabled"`
	Allow   []string `json:"allow,omitempty"`
}

type PopulationRule struct {
	FreeText        string   `json:"free_text,omitempty"`
	IncludeKeywords []string `json:"include_keywords,omitempty"`
	ExcludeKeywords []string `json:"exclude_keywords,omitempty"`
}

type InterventionsRule struct {
	FreeText        string   `json:"free_text,omitempty"`
	IncludeKeywords []string `json:"include_keywords,omitempty"`
	ExcludeKeywords []string `json:"exclude_keywords,omitempty"`
}

type ComparatorsRule struct {
	FreeText string `json:"free_text,omitempty"`
}

type OutcomesRule struct {
	Enabled        bool     `json:"enabled"`
	RequiredTopics []string `json:"required_topics,omitempty"`
}

type StudyDesignRule struct {
	Enabled bool     `json:"enabled"`
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

type SampleSizeRule struct {
	Enabled              bool `json:"enabled"`
	Min                  *int `json:"min,omitempty"`
	RequiredForExclusion bool `json:"required_for_exclusion,omitempty"`
}

type FollowupRule struct {
	Enabled   bool `json:"enabled"`
	MinMonths *int `json:"min_months,omitempty"`
}

type KeywordExclusionsRule struct {
	Enabled bool     `json:"enabled"`
	Terms   []string `json:"terms,omitempty"`
}

// ParseProtocolConfig parses a protocol configuration document leniently.
// Each recognized section is decoded independently; a section that is
// absent or does not match its expected shape is left nil and therefore
// treated as disabled. The function never fails for malformed sections,
// only when the document itself is not a JSON object.
func ParseProtocolConfig(raw json.RawMessage) *ProtocolConfig {
	cfg := &ProtocolConfig{}
	if len(raw) == 0 {
		return cfg
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return cfg
	}

	decodeSection(sections, "year_window", &cfg.YearWindow)
	decodeSection(sections, "language", &cfg.Language)
	decodeSection(sections, "population", &cfg.Population)
	decodeSection(sections, "interventions", &cfg.Interventions)
	decodeSection(sections, "comparators", &cfg.Comparators)
	decodeSection(sections, "outcomes", &cfg.Outcomes)
	decodeSection(sections, "study_design", &cfg.StudyDesign)
	decodeSection(sections, "sample_size", &cfg.SampleSize)
	decodeSection(sections, "followup", &cfg.Followup)
	decodeSection(sections, "keyword_exclusions", &cfg.KeywordExclusions)

	return cfg
}

// decodeSection decodes one named section into target, leaving target
// untouched (nil) when the section is missing or malformed.
func decodeSection[T any](sections map[string]json.RawMessage, key string, target **T) {
	raw, ok := sections[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return
	}
	*target = &value
}
