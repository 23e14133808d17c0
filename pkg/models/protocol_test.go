package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProtocolConfig_FullDocument(t *testing.T) {
	raw := json.RawMessage(`{
		"year_window": {"enabled": true, "min": 2000, "max": 2024},
		"language": {"enabled": true, "allow": ["en", "de"]},
		"population": {"free_text": "adults", "include_keywords": ["adult"], "exclude_keywords": ["pediatric"]},
		"outcomes": {"enabled": true, "required_topics": ["mortality"]},
		"study_design": {"enabled": true, "include": ["RCT"], "exclude": ["case report"]},
		"sample_size": {"enabled": true, "min": 30, "required_for_exclusion": true},
		"followup": {"enabled": true, "min_months": 6},
		"keyword_exclusions": {"enabled": true, "terms": ["animal model"]}
	}`)

	cfg := ParseProtocolConfig(raw)

	require.NotNil(t, cfg.YearWindow)
	assert.True(t, cfg.YearWindow.Enabled)
	require.NotNil(t, cfg.YearWindow.Min)
	assert.Equal(t, 2000, *cfg.YearWindow.Min)
	require.NotNil(t, cfg.YearWindow.Max)
	assert.Equal(t, 2024, *cfg.YearWindow.Max)

	require.NotNil(t, cfg.Language)
	assert.Equal(t, []string{"en", "de"}, cfg.Language.Allow)

	require.NotNil(t, cfg.Population)
	assert.Equal(t, "adults", cfg.Population.FreeText)

	require.NotNil(t, cfg.SampleSize)
	assert.True(t, cfg.SampleSize.RequiredForExclusion)

	require.NotNil(t, cfg.Followup)
	require.NotNil(t, cfg.Followup.MinMonths)
	assert.Equal(t, 6, *cfg.Followup.MinMonths)
}

func TestParseProtocolConfig_MissingSectionsAreDisabled(t *testing.T) {
	cfg := ParseProtocolConfig(json.RawMessage(`{"language": {"enabled": true, "allow": ["en"]}}`))

	assert.Nil(t, cfg.YearWindow)
	assert.Nil(t, cfg.StudyDesign)
	require.NotNil(t, cfg.Language)
	assert.True(t, cfg.Language.Enabled)
}

func TestParseProtocolConfig_MalformedSectionIsDisabled(t *testing.T) {
	// year_window has the wrong shape entirely; language is fine.
	raw := json.RawMessage(`{
		"year_window": "not an object",
		"language": {"enabled": true, "allow": ["en"]}
	}`)

	cfg := ParseProtocolConfig(raw)

	assert.Nil(t, cfg.YearWindow)
	require.NotNil(t, cfg.Language)
	assert.Equal(t, []string{"en"}, cfg.Language.Allow)
}

func TestParseProtocolConfig_Empty(t *testing.T) {
	assert.NotNil(t, ParseProtocolConfig(nil))
	assert.Nil(t, ParseProtocolConfig(nil).YearWindow)
	assert.Nil(t, ParseProtocolConfig(json.RawMessage(`[]`)).Language)
	assert.Nil(t, ParseProtocolConfig(json.RawMessage(`{"year_window": null}`)).YearWindow)
}

func TestProjectHasProtocol(t *testing.T) {
	p := &Project{}
	assert.False(t, p.HasProtocol())

	p.ProtocolConfig = json.RawMessage(`null`)
	assert.False(t, p.HasProtocol())

	p.ProtocolConfig = json.RawMessage(`{}`)
	assert.False(t, p.HasProtocol())

	p.ProtocolConfig = json.RawMessage(`{"language": {"enabled": true}}`)
	assert.True(t, p.HasProtocol())
}
