package score

import (
	"fmt"
	"sort"
	"strings"

	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/internal/extract/segment"
)

// stopWords only needs entries longer than three characters - shorter
// tokens are dropped before the lookup.
var stopWords = map[string]struct{}{
	"about": {}, "after": {}, "also": {}, "been": {}, "before": {},
	"being": {}, "between": {}, "both": {}, "during": {},
	"each": {}, "from": {}, "have": {}, "here": {}, "info": {},
	"into": {}, "more": {}, "other": {}, "over": {}, "some": {},
	"such": {}, "than": {}, "that": {}, "their": {}, "them": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {},
	"under": {}, "were": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "while": {}, "will": {}, "with": {}, "would": {},
	"your": {},
}

// Tokens lower-cases and filters a query down to its meaningful terms.
func Tokens(query string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if len(tok) <= 3 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Score rates how well a section's text supports a query value, in [0,1].
// An empty or all-stop-word query scores 0: no assertion can be made.
// A verbatim occurrence of a query with 3+ meaningful terms is boosted
// over incidental keyword overlap.
func Score(sectionText, query string) float64 {
	tokens := Tokens(query)
	if len(tokens) == 0 {
		return 0
	}

	lowered := strings.ToLower(sectionText)
	matched := 0
	for _, tok := range tokens {
		if strings.Contains(lowered, tok) {
			matched++
		}
	}
	result := float64(matched) / float64(len(tokens))

	if len(tokens) >= 3 && containsPhrase(lowered, query) {
		result += 0.5
	}
	if result > 1 {
		result = 1
	}
	return result
}

func containsPhrase(loweredText, query string) bool {
	phrase := strings.ToLower(strings.TrimSpace(query))
	return phrase != "" && strings.Contains(loweredText, phrase)
}

type ScoredSection struct {
	commonModels.Section
	Score float64
}

// FindRelevantSections scores every section against the query, drops
// everything at or below the noise floor and returns the best matches,
// highest score first.
func FindRelevantSections(sections []commonModels.Section, query string, maxSections int) []ScoredSection {
	floor := config.RelevanceFloor()

	var scored []ScoredSection
	for _, s := range sections {
		val := Score(s.Text, query)
		if val <= floor {
			continue
		}
		scored = append(scored, ScoredSection{Section: s, Score: val})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if maxSections > 0 && len(scored) > maxSections {
		scored = scored[:maxSections]
	}
	return scored
}

// FindInText segments raw text on the fly before scoring, for callers
// that hold no stored sections (the MCP tools use this).
func FindInText(text string, query string, maxSections int) []ScoredSection {
	return FindRelevantSections(segment.Sections(text), query, maxSections)
}

// PageFor resolves a character offset to its 1-based page number using
// the page start offsets recorded during extraction.
func PageFor(offset int, pageOffsets []int) int {
	if len(pageOffsets) == 0 {
		return 1
	}
	page := 1
	for i, start := range pageOffsets {
		if offset >= start {
			page = i + 1
		}
	}
	return page
}

// BuildFieldReference assembles the reviewer-facing provenance record
// for one field value. Deterministic for a given (result, value) pair:
// recomputing it yields the same reference.
func BuildFieldReference(result commonModels.ExtractionResult, fieldValue string, matches []ScoredSection) commonModels.FieldReference {
	tokens := Tokens(fieldValue)

	positions := make([]commonModels.SourcePosition, 0, len(matches))
	for _, m := range matches {
		matchType := "keyword"
		if len(tokens) >= 3 && containsPhrase(strings.ToLower(m.Text), fieldValue) {
			matchType = "exact"
		}
		positions = append(positions, commonModels.SourcePosition{
			Page:       PageFor(m.StartOffset, result.PageOffsets),
			Start:      m.StartOffset,
			End:        m.EndOffset,
			Confidence: m.Score,
			MatchType:  matchType,
			WordCount:  matchedTokenCount(m.Text, tokens),
			Context:    contextSnippet(m.Text, tokens),
		})
	}

	explanation := "No supporting text found for this value."
	if len(positions) > 0 {
		explanation = fmt.Sprintf("Matched %d of %d terms in the %q section.",
			positions[0].WordCount, len(tokens), matches[0].Type)
	}

	return commonModels.FieldReference{
		SourcePositions:       positions,
		HasSourceHighlighting: len(positions) > 0,
		Explanation:           explanation,
	}
}

func matchedTokenCount(sectionText string, tokens []string) int {
	lowered := strings.ToLower(sectionText)
	count := 0
	for _, tok := range tokens {
		if strings.Contains(lowered, tok) {
			count++
		}
	}
	return count
}

// contextSnippet returns a short window of section text around the first
// matching token so the reviewer sees the value in place.
func contextSnippet(sectionText string, tokens []string) string {
	lowered := strings.ToLower(sectionText)
	idx := -1
	for _, tok := range tokens {
		if at := strings.Index(lowered, tok); at >= 0 && (idx < 0 || at < idx) {
			idx = at
		}
	}
	if idx < 0 {
		idx = 0
	}

	start := idx - 40
	if start < 0 {
		start = 0
	}
	end := idx + 80
	if end > len(sectionText) {
		end = len(sectionText)
	}
	snippet := strings.TrimSpace(sectionText[start:end])
	snippet = strings.ReplaceAll(snippet, "\n", " ")
	return snippet
}
