package segment

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/medref/ExtractionAPI/internal/adapter/utils"
	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
)

// sectionKeywords is the fixed set that promotes a paragraph to a header
// when its first line carries one of them in upper case.
var sectionKeywords = []string{
	"PATIENT", "DIAGNOSIS", "HISTORY", "MEDICATION", "REFERRAL",
	"PHYSICIAN", "ALLERG", "LAB", "IMAGING", "ASSESSMENT", "IMPRESSION",
	"REASON", "PLAN", "CLINICAL",
}

var (
	pageMarkerRe = regexp.MustCompile(`(?i)^[-=\s]*page\s+\d+(\s+of\s+\d+)?[-=\s]*$`)
	capitalColon = regexp.MustCompile(`^([A-Z][A-Za-z]*\s+)*[A-Z][A-Za-z]*:$`)
	listMarkerRe = regexp.MustCompile(`^(\d+[.)]|[IVXLCivxlc]+[.)])$`)
)

type paragraph struct {
	text  string
	start int
	end   int
}

// Sections splits extracted text into classified sections. Paragraphs
// are blank-line delimited; a header paragraph closes the open section
// and starts a new one, and the header itself belongs to the section it
// opens. No paragraph is ever dropped except blanks and page markers.
func Sections(text string) []commonModels.Section {
	paras := splitParagraphs(text)

	var sections []commonModels.Section
	var open *commonModels.Section
	var openTexts []string

	flush := func() {
		if open == nil {
			return
		}
		open.Text = strings.Join(openTexts, "\n\n")
		sections = append(sections, *open)
		open = nil
		openTexts = nil
	}

	for _, p := range paras {
		if pageMarkerRe.MatchString(strings.TrimSpace(p.text)) {
			continue
		}

		if isHeader(p.text) {
			flush()
			open = &commonModels.Section{
				Type:        classify(p.text),
				StartOffset: p.start,
				EndOffset:   p.end,
			}
			openTexts = []string{p.text}
			continue
		}

		if open == nil {
			//leading body text without a header still opens a section
			open = &commonModels.Section{
				Type:        commonModels.SectionGeneral,
				StartOffset: p.start,
				EndOffset:   p.end,
			}
			openTexts = []string{p.text}
			continue
		}

		openTexts = append(openTexts, p.text)
		open.EndOffset = p.end
	}
	flush()

	return sections
}

// splitParagraphs walks the raw text once, tracking byte offsets so
// section spans index back into the original string.
func splitParagraphs(text string) []paragraph {
	var paras []paragraph
	start := -1
	end := 0

	pos := 0
	for pos <= len(text) {
		lineEnd := strings.IndexByte(text[pos:], '\n')
		var line string
		next := len(text) + 1
		if lineEnd >= 0 {
			line = text[pos : pos+lineEnd]
			next = pos + lineEnd + 1
		} else {
			line = text[pos:]
		}

		if strings.TrimSpace(line) == "" {
			if start >= 0 {
				paras = append(paras, paragraph{text: text[start:end], start: start, end: end})
				start = -1
			}
		} else {
			if start < 0 {
				start = pos
			}
			end = pos + len(line)
		}
		pos = next
	}
	if start >= 0 {
		paras = append(paras, paragraph{text: text[start:end], start: start, end: end})
	}
	return paras
}

type headerRule struct {
	name  string
	match func(firstLine, full string) bool
}

// headerRules is evaluated in priority order; the order is part of the
// observable behavior and each rule is testable on its own.
var headerRules = []headerRule{
	{"short-all-caps", func(line, _ string) bool {
		return len(line) < 50 && isAllCaps(line)
	}},
	{"trailing-colon", func(line, _ string) bool {
		return strings.HasSuffix(line, ":")
	}},
	{"capitalized-colon", func(line, _ string) bool {
		return capitalColon.MatchString(line)
	}},
	{"list-marker", func(line, _ string) bool {
		return listMarkerRe.MatchString(line)
	}},
	{"single-short-token", func(line, _ string) bool {
		return len(line) <= 15 && !strings.ContainsAny(line, " \t")
	}},
	{"section-keyword", func(line, _ string) bool {
		for _, kw := range sectionKeywords {
			if strings.Contains(line, kw) {
				return true
			}
		}
		return false
	}},
}

func isHeader(para string) bool {
	firstLine := strings.TrimSpace(para)
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = strings.TrimSpace(firstLine[:i])
	}
	if firstLine == "" {
		return false
	}
	for _, rule := range headerRules {
		if rule.match(firstLine, para) {
			return true
		}
	}
	return false
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

type typeRule struct {
	keywords    []string
	sectionType commonModels.SectionType
}

// typeRules is a prioritized list: first keyword hit wins, so e.g.
// "Referring Physician History" classifies as Referring Physician.
var typeRules = []typeRule{
	{[]string{"referring", "physician", "provider"}, commonModels.SectionReferringPhysician},
	{[]string{"patient", "demographic"}, commonModels.SectionPatientInfo},
	{[]string{"medication", "drug", "prescri", "allerg"}, commonModels.SectionMedications},
	{[]string{"lab", "studies", "study", "imaging", "result"}, commonModels.SectionLabs},
	{[]string{"diagnos", "assessment", "impression"}, commonModels.SectionDiagnosis},
	{[]string{"history", "clinical", "hpi"}, commonModels.SectionMedicalHistory},
	{[]string{"referral", "reason", "plan"}, commonModels.SectionReferralReason},
}

func classify(headerPara string) commonModels.SectionType {
	lowered := strings.ToLower(headerPara)
	for _, rule := range typeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.sectionType
			}
		}
	}
	return commonModels.SectionGeneral
}

// BuildReferencePoints derives the reviewer-UI display records, one per
// section. They are recomputed with every extraction, never patched.
func BuildReferencePoints(sections []commonModels.Section) []commonModels.ReferencePoint {
	refs := make([]commonModels.ReferencePoint, len(sections))
	for i, s := range sections {
		refs[i] = commonModels.ReferencePoint{
			Id:       utils.GetNewUUID(),
			Text:     preview(s.Text),
			Type:     s.Type,
			Position: commonModels.Position{Start: s.StartOffset, End: s.EndOffset},
		}
	}
	return refs
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= config.ReferencePreviewLen {
		return s
	}
	return string(runes[:config.ReferencePreviewLen]) + "..."
}
