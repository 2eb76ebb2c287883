package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agencydesk/console/models"

	"google.golang.org/genai"
)

// Rubric drives the scoring prompt for one call type. Sections carry
// weights that sum to the overall score; checklist items are pass/fail.
type Rubric struct {
	CallType  string          `json:"call_type"`
	Sections  []RubricSection `json:"sections"`
	Checklist []string        `json:"checklist"`
}

type RubricSection struct {
	Name     string `json:"name"`
	MaxScore int    `json:"max_score"`
	Guidance string `json:"guidance,omitempty"`
}

// SectionScore is the canonical per-section result.
type SectionScore struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	MaxScore int     `json:"max_score"`
	Note     string  `json:"note,omitempty"`
}

// ChecklistResult is the canonical per-item result.
type ChecklistResult struct {
	Item string `json:"item"`
	Met  bool   `json:"met"`
	Note string `json:"note,omitempty"`
}

// AnalysisResult is what the scoring run produces after normalization.
type AnalysisResult struct {
	OverallScore  float64
	SectionScores []SectionScore
	Checklist     []ChecklistResult
	Summary       string
	Coaching      string
}

// DefaultRubric returns the built-in rubric per call type. Sales calls are
// scored on the selling motion; service calls on resolution quality. Both
// rubrics total 100 points.
func DefaultRubric(callType string) Rubric {
	if callType == "service" {
		return Rubric{
			CallType: "service",
			Sections: []RubricSection{
				{Name: "Greeting & Verification", MaxScore: 20, Guidance: "Professional greeting, verified caller identity and policy"},
				{Name: "Issue Discovery", MaxScore: 25, Guidance: "Understood the full problem before acting"},
				{Name: "Resolution", MaxScore: 30, Guidance: "Resolved or clearly escalated with a timeline"},
				{Name: "Cross-Sell Awareness", MaxScore: 10, Guidance: "Spotted coverage gaps worth mentioning"},
				{Name: "Close", MaxScore: 15, Guidance: "Confirmed resolution and next steps"},
			},
			Checklist: []string{
				"Verified caller identity",
				"Restated the issue back to the caller",
				"Set a clear expectation for follow-up",
				"Thanked the caller by name",
			},
		}
	}
	return Rubric{
		CallType: "sales",
		Sections: []RubricSection{
			{Name: "Opening", MaxScore: 15, Guidance: "Warm opening, set the agenda"},
			{Name: "Needs Discovery", MaxScore: 30, Guidance: "Asked open questions about coverage needs and current policies"},
			{Name: "Presentation", MaxScore: 25, Guidance: "Matched products to discovered needs, explained value not just price"},
			{Name: "Objection Handling", MaxScore: 15, Guidance: "Acknowledged and addressed objections without arguing"},
			{Name: "Close", MaxScore: 15, Guidance: "Asked for the business or set a concrete next step"},
		},
		Checklist: []string{
			"Asked about the prospect's current coverage",
			"Quantified at least one coverage gap",
			"Asked for the sale or scheduled a follow-up",
			"Mentioned bundling opportunities",
		},
	}
}

// BuildAnalysisPrompt renders the scoring instructions for a call.
func BuildAnalysisPrompt(rubric Rubric, call *models.AgencyCall) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a senior insurance sales coach. Score the following %s call transcript against the rubric below.\n\n", call.CallType)
	fmt.Fprintf(&b, "Call metadata: direction=%s, duration=%d seconds.\n\n", call.Direction, call.DurationSeconds)

	b.WriteString("SCORED SECTIONS (score each from 0 to its max):\n")
	for _, s := range rubric.Sections {
		fmt.Fprintf(&b, "- %s (max %d): %s\n", s.Name, s.MaxScore, s.Guidance)
	}

	b.WriteString("\nCHECKLIST (answer true or false for each):\n")
	for _, item := range rubric.Checklist {
		fmt.Fprintf(&b, "- %s\n", item)
	}

	b.WriteString(`
Respond with ONLY a JSON object in this exact shape, no prose before or after:
{
  "overall_score": <0-100>,
  "sections": [{"name": "...", "score": <number>, "max_score": <number>, "note": "..."}],
  "checklist": [{"item": "...", "met": <bool>, "note": "..."}],
  "summary": "two or three sentences on how the call went",
  "coaching": "the single most impactful improvement for this rep"
}

TRANSCRIPT:
`)
	b.WriteString(call.Transcript)

	return b.String()
}

// StripCodeFences removes a surrounding markdown code fence if the model
// wrapped its JSON in one.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// NormalizeSectionScores accepts the section payload in either shape the
// model tends to produce: an array of objects, or a map keyed by section
// name. Missing or malformed entries fall back to the rubric defaults with a
// zero score, so the result always covers every rubric section in order.
func NormalizeSectionScores(raw json.RawMessage, rubric Rubric) []SectionScore {
	parsed := make(map[string]SectionScore)

	var arr []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		for _, entry := range arr {
			s := sectionFromFields(entry)
			if s.Name != "" {
				parsed[normalizeKey(s.Name)] = s
			}
		}
	} else {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil {
			for name, val := range obj {
				var fields map[string]json.RawMessage
				if err := json.Unmarshal(val, &fields); err == nil {
					s := sectionFromFields(fields)
					s.Name = name
					parsed[normalizeKey(name)] = s
					continue
				}
				var score float64
				if err := json.Unmarshal(val, &score); err == nil {
					parsed[normalizeKey(name)] = SectionScore{Name: name, Score: score}
				}
			}
		}
	}

	out := make([]SectionScore, 0, len(rubric.Sections))
	for _, section := range rubric.Sections {
		s, ok := parsed[normalizeKey(section.Name)]
		if !ok {
			out = append(out, SectionScore{Name: section.Name, MaxScore: section.MaxScore})
			continue
		}
		s.Name = section.Name
		if s.MaxScore == 0 {
			s.MaxScore = section.MaxScore
		}
		if s.Score < 0 {
			s.Score = 0
		}
		if s.Score > float64(s.MaxScore) {
			s.Score = float64(s.MaxScore)
		}
		out = append(out, s)
	}
	return out
}

func sectionFromFields(fields map[string]json.RawMessage) SectionScore {
	var s SectionScore
	for key, val := range fields {
		switch normalizeKey(key) {
		case "name", "section":
			json.Unmarshal(val, &s.Name)
		case "score", "points":
			json.Unmarshal(val, &s.Score)
		case "maxscore", "max":
			json.Unmarshal(val, &s.MaxScore)
		case "note", "comment", "feedback":
			json.Unmarshal(val, &s.Note)
		}
	}
	return s
}

// NormalizeChecklist accepts an array of result objects or an object keyed
// by item text, and emits one result per rubric item in rubric order.
func NormalizeChecklist(raw json.RawMessage, rubric Rubric) []ChecklistResult {
	parsed := make(map[string]ChecklistResult)

	var arr []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		for _, entry := range arr {
			c := checklistFromFields(entry)
			if c.Item != "" {
				parsed[normalizeKey(c.Item)] = c
			}
		}
	} else {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil {
			for item, val := range obj {
				var met bool
				if err := json.Unmarshal(val, &met); err == nil {
					parsed[normalizeKey(item)] = ChecklistResult{Item: item, Met: met}
					continue
				}
				var fields map[string]json.RawMessage
				if err := json.Unmarshal(val, &fields); err == nil {
					c := checklistFromFields(fields)
					c.Item = item
					parsed[normalizeKey(item)] = c
				}
			}
		}
	}

	out := make([]ChecklistResult, 0, len(rubric.Checklist))
	for _, item := range rubric.Checklist {
		c, ok := parsed[normalizeKey(item)]
		if !ok {
			out = append(out, ChecklistResult{Item: item})
			continue
		}
		c.Item = item
		out = append(out, c)
	}
	return out
}

func checklistFromFields(fields map[string]json.RawMessage) ChecklistResult {
	var c ChecklistResult
	for key, val := range fields {
		switch normalizeKey(key) {
		case "item", "name":
			json.Unmarshal(val, &c.Item)
		case "met", "passed", "result":
			json.Unmarshal(val, &c.Met)
		case "note", "comment", "feedback":
			json.Unmarshal(val, &c.Note)
		}
	}
	return c
}

// normalizeKey flattens snake_case, camelCase, and spacing differences so
// "overall_score", "overallScore" and "Overall Score" all compare equal.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// ParseAnalysisResponse turns the raw model reply into a normalized result.
// It never fails on shape surprises; a reply that is not JSON at all is the
// only error case.
func ParseAnalysisResponse(reply string, rubric Rubric) (*AnalysisResult, error) {
	cleaned := StripCodeFences(reply)

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &top); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	result := &AnalysisResult{}
	var sectionsRaw, checklistRaw json.RawMessage
	for key, val := range top {
		switch normalizeKey(key) {
		case "overallscore", "overall", "totalscore":
			json.Unmarshal(val, &result.OverallScore)
		case "sections", "sectionscores":
			sectionsRaw = val
		case "checklist", "checklistresults":
			checklistRaw = val
		case "summary":
			json.Unmarshal(val, &result.Summary)
		case "coaching", "coachingtip":
			json.Unmarshal(val, &result.Coaching)
		}
	}

	result.SectionScores = NormalizeSectionScores(sectionsRaw, rubric)
	result.Checklist = NormalizeChecklist(checklistRaw, rubric)

	// When the model omits the overall score, derive it from sections.
	if result.OverallScore == 0 {
		for _, s := range result.SectionScores {
			result.OverallScore += s.Score
		}
	}
	if result.OverallScore < 0 {
		result.OverallScore = 0
	}
	if result.OverallScore > 100 {
		result.OverallScore = 100
	}

	return result, nil
}

// CallAnalysisService scores call transcripts with Gemini.
type CallAnalysisService struct {
	genaiClient *genai.Client
	model       string
}

func NewCallAnalysisService(apiKey, model string) *CallAnalysisService {
	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		slog.Error("Failed to create genai client", "error", err)
		return nil
	}

	return &CallAnalysisService{
		genaiClient: genaiClient,
		model:       model,
	}
}

func (s *CallAnalysisService) Model() string {
	return s.model
}

// AnalyzeCall scores one call against the given rubric and returns the
// normalized result.
func (s *CallAnalysisService) AnalyzeCall(ctx context.Context, call *models.AgencyCall, rubric Rubric) (*AnalysisResult, error) {
	if s.genaiClient == nil {
		return nil, fmt.Errorf("genai client not initialized")
	}

	prompt := BuildAnalysisPrompt(rubric, call)

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(
			"You are an expert insurance agency sales coach who scores call transcripts strictly and returns only JSON.",
			genai.RoleUser,
		),
	}

	result, err := s.genaiClient.Models.GenerateContent(
		ctx,
		s.model,
		genai.Text(prompt),
		config,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to score call: %w", err)
	}

	analysis, err := ParseAnalysisResponse(result.Text(), rubric)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}

	slog.Info("Call analyzed", "call_id", call.ID, "overall_score", analysis.OverallScore)
	return analysis, nil
}
