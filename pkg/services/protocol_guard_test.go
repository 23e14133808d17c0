package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohsenrezaeihemami/towardevidence-backend/pkg/models"
)

func intPtr(v int) *int { return &v }

func guardProtocol() *models.ProtocolConfig {
	return &models.ProtocolConfig{
		YearWindow: &models.YearWindowRule{Enabled: true, Min: intPtr(2010), Max: intPtr(2024)},
		Language:   &models.LanguageRule{Enabled: true, Allow: []string{"en", "de"}},
	}
}

func TestProtocolGuard_YearBelowMinimum(t *testing.T) {
	guard := NewProtocolGuard()

	record := &models.Record{Title: "Old trial", Year: intPtr(2005), Language: "en"}
	result := guard.Evaluate(guardProtocol(), record)

	require.True(t, result.Excluded())
	assert.Equal(t, models.OutcomeExclude, *result.Decision)
	require.Len(t, result.Reasons, 1)
	assert.Equal(t, "Publication year 2005 is below minimum 2010 in protocol.", result.Reasons[0])
}

func TestProtocolGuard_YearAboveMaximum(t *testing.T) {
	guard := NewProtocolGuard()

	record := &models.Record{Year: intPtr(2030), Language: "en"}
	result := guard.Evaluate(guardProtocol(), record)

	require.True(t, result.Excluded())
	assert.Equal(t, []string{"Publication year 2030 is above maximum 2024 in protocol."}, result.Reasons)
}

func TestProtocolGuard_LanguageNotAllowed(t *testing.T) {
	guard := NewProtocolGuard()

	record := &models.Record{Year: intPtr(2015), Language: "fr"}
	result := guard.Evaluate(guardProtocol(), record)

	require.True(t, result.Excluded())
	require.Len(t, result.Reasons, 1)
	assert.Equal(t, "Language fr not in allowed languages ['en', 'de'] in protocol.", result.Reasons[0])
}

func TestProtocolGuard_LanguageCaseInsensitive(t *testing.T) {
	guard := NewProtocolGuard()

	record := &models.Record{Year: intPtr(2015), Language: "EN"}
	result := guard.Evaluate(guardProtocol(), record)

	assert.False(t, result.Excluded())
	assert.Empty(t, result.Reasons)
}

func TestProtocolGuard_MultipleViolationsCollectAllReasons(t *testing.T) {
	guard := NewProtocolGuard()

	record := &models.Record{Year: intPtr(1990), Language: "zh"}
	result := guard.Evaluate(guardProtocol(), record)

	require.True(t, result.Excluded())
	require.Len(t, result.Reasons, 2)
	assert.Contains(t, result.Reasons[0], "below minimum")
	assert.Contains(t, result.Reasons[1], "not in allowed languages")
	assert.Equal(t, models.OutcomeExclude, *result.Decision)
}

func TestProtocolGuard_MissingYearPasses(t *testing.T) {
	guard := NewProtocolGuard()

	record := &models.Record{Language: "en"}
	result := guard.Evaluate(guardProtocol(), record)

	assert.False(t, result.Excluded())
}

func TestProtocolGuard_DisabledRulesPass(t *testing.T) {
	guard := NewProtocolGuard()

	protocol := &models.ProtocolConfig{
		YearWindow: &models.YearWindowRule{Enabled: false, Min: intPtr(2010)},
		Language:   &models.LanguageRule{Enabled: false, Allow: []string{"en"}},
	}
	record := &models.Record{Year: intPtr(1950), Language: "fr"}

	result := guard.Evaluate(protocol, record)
	assert.False(t, result.Excluded())
}

func TestProtocolGuard_EmptyAllowListIsNoOp(t *testing.T) {
	guard := NewProtocolGuard()

	protocol := &models.ProtocolConfig{
		Language: &models.LanguageRule{Enabled: true},
	}
	record := &models.Record{Language: "fr"}

	result := guard.Evaluate(protocol, record)
	assert.False(t, result.Excluded())
}

func TestProtocolGuard_NilSectionsPass(t *testing.T) {
	guard := NewProtocolGuard()

	record := &models.Record{Year: intPtr(1950), Language: "xx"}
	result := guard.Evaluate(&models.ProtocolConfig{}, record)

	assert.False(t, result.Excluded())
	assert.Empty(t, result.Reasons)
}

func TestProtocolGuard_UnboundedSides(t *testing.T) {
	guard := NewProtocolGuard()

	protocol := &models.ProtocolConfig{
		YearWindow: &models.YearWindowRule{Enabled: true, Min: intPtr(2000)},
	}

	result := guard.Evaluate(protocol, &models.Record{Year: intPtr(2999)})
	assert.False(t, result.Excluded(), "no max means no upper bound")

	result = guard.Evaluate(protocol, &models.Record{Year: intPtr(1999)})
	assert.True(t, result.Excluded())
}
