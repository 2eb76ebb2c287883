package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"No fences", `{"a":1}`, `{"a":1}`},
		{"Plain fences", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"JSON-tagged fences", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"Surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripCodeFences(tt.input))
		})
	}
}

func TestNormalizeSectionScoresArrayShape(t *testing.T) {
	rubric := DefaultRubric("sales")
	raw := json.RawMessage(`[
		{"name": "Opening", "score": 12, "max_score": 15, "note": "warm start"},
		{"name": "Needs Discovery", "score": 20, "maxScore": 30}
	]`)

	sections := NormalizeSectionScores(raw, rubric)
	require.Len(t, sections, len(rubric.Sections))

	assert.Equal(t, "Opening", sections[0].Name)
	assert.Equal(t, 12.0, sections[0].Score)
	assert.Equal(t, 15, sections[0].MaxScore)
	assert.Equal(t, "warm start", sections[0].Note)

	// maxScore camelCase variant
	assert.Equal(t, 20.0, sections[1].Score)
	assert.Equal(t, 30, sections[1].MaxScore)

	// sections the model skipped fall back to rubric defaults at zero
	assert.Equal(t, "Presentation", sections[2].Name)
	assert.Equal(t, 0.0, sections[2].Score)
	assert.Equal(t, 25, sections[2].MaxScore)
}

func TestNormalizeSectionScoresObjectShape(t *testing.T) {
	rubric := DefaultRubric("sales")
	raw := json.RawMessage(`{
		"Opening": {"score": 10, "max": 15},
		"Close": 9
	}`)

	sections := NormalizeSectionScores(raw, rubric)
	require.Len(t, sections, len(rubric.Sections))

	assert.Equal(t, 10.0, sections[0].Score)
	assert.Equal(t, 15, sections[0].MaxScore)

	// bare-number value with max filled from the rubric
	last := sections[len(sections)-1]
	assert.Equal(t, "Close", last.Name)
	assert.Equal(t, 9.0, last.Score)
	assert.Equal(t, 15, last.MaxScore)
}

func TestNormalizeSectionScoresClampsOutOfRange(t *testing.T) {
	rubric := DefaultRubric("sales")
	raw := json.RawMessage(`[
		{"name": "Opening", "score": 99, "max_score": 15},
		{"name": "Close", "score": -5, "max_score": 15}
	]`)

	sections := NormalizeSectionScores(raw, rubric)
	assert.Equal(t, 15.0, sections[0].Score)
	assert.Equal(t, 0.0, sections[len(sections)-1].Score)
}

func TestNormalizeSectionScoresIsIdempotent(t *testing.T) {
	rubric := DefaultRubric("service")
	raw := json.RawMessage(`[{"name": "Resolution", "score": 22, "max_score": 30, "note": "fast"}]`)

	once := NormalizeSectionScores(raw, rubric)
	reencoded, err := json.Marshal(once)
	require.NoError(t, err)

	twice := NormalizeSectionScores(reencoded, rubric)
	assert.Equal(t, once, twice)
}

func TestNormalizeSectionScoresGarbageYieldsDefaults(t *testing.T) {
	rubric := DefaultRubric("sales")

	for _, raw := range []json.RawMessage{nil, json.RawMessage(`"nope"`), json.RawMessage(`42`)} {
		sections := NormalizeSectionScores(raw, rubric)
		require.Len(t, sections, len(rubric.Sections))
		for i, s := range sections {
			assert.Equal(t, rubric.Sections[i].Name, s.Name)
			assert.Equal(t, 0.0, s.Score)
			assert.Equal(t, rubric.Sections[i].MaxScore, s.MaxScore)
		}
	}
}

func TestNormalizeChecklistArrayShape(t *testing.T) {
	rubric := DefaultRubric("sales")
	raw := json.RawMessage(`[
		{"item": "Asked about the prospect's current coverage", "met": true, "note": "early in the call"},
		{"item": "Mentioned bundling opportunities", "met": false}
	]`)

	results := NormalizeChecklist(raw, rubric)
	require.Len(t, results, len(rubric.Checklist))

	assert.True(t, results[0].Met)
	assert.Equal(t, "early in the call", results[0].Note)

	// unanswered items default to not met
	assert.False(t, results[1].Met)
	assert.Equal(t, rubric.Checklist[1], results[1].Item)
}

func TestNormalizeChecklistObjectShape(t *testing.T) {
	rubric := DefaultRubric("service")
	raw := json.RawMessage(`{
		"Verified caller identity": true,
		"Thanked the caller by name": {"met": true, "note": "twice"}
	}`)

	results := NormalizeChecklist(raw, rubric)
	require.Len(t, results, len(rubric.Checklist))

	assert.True(t, results[0].Met)
	last := results[len(results)-1]
	assert.True(t, last.Met)
	assert.Equal(t, "twice", last.Note)
}

func TestParseAnalysisResponse(t *testing.T) {
	rubric := DefaultRubric("sales")
	reply := "```json\n" + `{
		"overallScore": 72.5,
		"sections": [{"name": "Opening", "score": 12, "max_score": 15}],
		"checklist": [{"item": "Asked for the sale or scheduled a follow-up", "met": true}],
		"summary": "Solid discovery, weak close.",
		"coaching": "Ask for the business directly."
	}` + "\n```"

	result, err := ParseAnalysisResponse(reply, rubric)
	require.NoError(t, err)

	assert.Equal(t, 72.5, result.OverallScore)
	assert.Equal(t, "Solid discovery, weak close.", result.Summary)
	assert.Equal(t, "Ask for the business directly.", result.Coaching)
	assert.Len(t, result.SectionScores, len(rubric.Sections))
	assert.Len(t, result.Checklist, len(rubric.Checklist))
}

func TestParseAnalysisResponseDerivesOverallFromSections(t *testing.T) {
	rubric := DefaultRubric("sales")
	reply := `{
		"sections": [
			{"name": "Opening", "score": 10, "max_score": 15},
			{"name": "Close", "score": 8, "max_score": 15}
		]
	}`

	result, err := ParseAnalysisResponse(reply, rubric)
	require.NoError(t, err)
	assert.Equal(t, 18.0, result.OverallScore)
}

func TestParseAnalysisResponseRejectsNonJSON(t *testing.T) {
	_, err := ParseAnalysisResponse("The call went pretty well overall.", DefaultRubric("sales"))
	assert.Error(t, err)
}

func TestDefaultRubricTotalsAreOneHundred(t *testing.T) {
	for _, callType := range []string{"sales", "service"} {
		total := 0
		for _, s := range DefaultRubric(callType).Sections {
			total += s.MaxScore
		}
		assert.Equal(t, 100, total, "call type %s", callType)
	}
}
