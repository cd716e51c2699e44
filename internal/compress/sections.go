package compress

import (
	"sort"
	"strings"

	"standforge/internal/quality"
)

// Section priority rubric. First matching rule wins; higher score survives
// compression longer.
const (
	scoreFormCritical  = 100
	scoreFormPriority  = 95
	scoreBrand         = 90
	scoreProductSpec   = 85
	scoreVisual        = 80
	scoreDimension     = 75
	scoreManufacturing = 70
	scoreCreative      = 65
	scoreMaterial      = 60
	scoreInstruction   = 30
)

type section struct {
	text      string
	label     string
	order     int
	score     int
	protected bool
}

// sectionLabel is the trimmed first line, used in removed/abbreviated lists.
func sectionLabel(text string) string {
	first := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		first = text[:i]
	}
	first = strings.TrimSpace(first)
	if len(first) > 60 {
		first = first[:60]
	}
	return first
}

// scoreSection applies the fixed priority rubric.
func scoreSection(text string, preserveCreative bool) int {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(text, "EXACTLY"):
		return scoreFormCritical
	case strings.Contains(lower, "form data requirements") || strings.Contains(lower, "absolute truth"):
		return scoreFormPriority
	case strings.Contains(lower, "brand"):
		return scoreBrand
	case strings.Contains(lower, "product"):
		return scoreProductSpec
	case strings.Contains(lower, "3d") || strings.Contains(lower, "reference image") || strings.Contains(lower, "visual context"):
		return scoreVisual
	case strings.Contains(lower, "cm") || strings.Contains(lower, "dimension") ||
		strings.Contains(lower, "width") || strings.Contains(lower, "height") || strings.Contains(lower, "depth"):
		return scoreDimension
	case strings.Contains(lower, "manufactur") || strings.Contains(lower, "structural") || strings.Contains(lower, "constraint"):
		return scoreManufacturing
	case preserveCreative && (strings.Contains(lower, "style") || strings.Contains(lower, "lighting") ||
		strings.Contains(lower, "mood") || strings.Contains(lower, "atmosphere") || strings.Contains(lower, "elegant")):
		return scoreCreative
	case strings.Contains(lower, "material") || strings.Contains(lower, "acrylic") ||
		strings.Contains(lower, "wood") || strings.Contains(lower, "metal") || strings.Contains(lower, "steel"):
		return scoreMaterial
	case strings.Contains(lower, "ensure") || strings.Contains(lower, "should") ||
		strings.Contains(lower, "avoid") || strings.Contains(lower, "instruction"):
		return scoreInstruction
	default:
		return 0
	}
}

// stageTwoSections splits the prompt on blank-line boundaries, retains every
// section holding a protected phrase, then greedily appends the rest by
// score. Sections that cannot fit whole are abbreviated; if even the header
// line cannot fit they are dropped.
func stageTwoSections(text string, cfg Config) (out string, removed, abbreviated []string) {
	raw := strings.Split(text, "\n\n")

	var sections []*section
	for i, chunk := range raw {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		s := &section{
			text:  chunk,
			label: sectionLabel(chunk),
			order: i,
			score: scoreSection(chunk, cfg.PreserveCreativeContext),
		}
		for _, phrase := range cfg.ProtectedContent {
			if phrase != "" && strings.Contains(chunk, phrase) {
				s.protected = true
				break
			}
		}
		sections = append(sections, s)
	}

	// Protected sections are taken first, in document order, never shortened.
	var kept []*section
	used := 0
	for _, s := range sections {
		if !s.protected {
			continue
		}
		kept = append(kept, s)
		used += len(s.text) + 2 // blank-line joiner
	}

	// Remaining sections by score, ties broken by document order.
	var candidates []*section
	for _, s := range sections {
		if !s.protected {
			candidates = append(candidates, s)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	for _, s := range candidates {
		remaining := cfg.MaxLength - used
		if remaining <= 0 {
			removed = append(removed, s.label)
			continue
		}

		if len(s.text)+2 <= remaining {
			kept = append(kept, s)
			used += len(s.text) + 2
			continue
		}

		short, ok := abbreviateSection(s.text, remaining-2)
		if !ok {
			removed = append(removed, s.label)
			continue
		}
		kept = append(kept, &section{text: short, label: s.label, order: s.order, score: s.score})
		used += len(short) + 2
		abbreviated = append(abbreviated, s.label)
	}

	// Reassemble in original document order so the prompt still reads
	// top-to-bottom.
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].order < kept[j].order })

	parts := make([]string, len(kept))
	for i, s := range kept {
		parts[i] = s.text
	}
	return strings.Join(parts, "\n\n"), removed, abbreviated
}

// abbreviateSection keeps the header line and appends subsequent lines while
// space remains. As a last resort the next line is aggressively compressed
// and cut at a word boundary. Returns false if even the header cannot fit.
func abbreviateSection(text string, budget int) (string, bool) {
	lines := strings.Split(text, "\n")
	header := lines[0]
	if len(header) > budget {
		return "", false
	}

	var sb strings.Builder
	sb.WriteString(header)
	used := len(header)

	for _, line := range lines[1:] {
		needed := len(line) + 1 // newline
		if used+needed <= budget {
			sb.WriteString("\n")
			sb.WriteString(line)
			used += needed
			continue
		}

		// Last resort: aggressively compress a partial line into what's left.
		remaining := budget - used - 1
		if remaining > 10 {
			partial := applySubstitutions(line, moderateSubstitutions)
			partial = applySubstitutions(partial, aggressiveSubstitutions)
			partial = stripFillers(partial)
			partial = TruncateAtBoundary(partial, remaining)
			if partial != "" {
				sb.WriteString("\n")
				sb.WriteString(partial)
			}
		}
		break
	}

	return sb.String(), true
}

// TruncateAtBoundary cuts text to at most limit characters, preferring the
// nearest sentence end before the limit, then the nearest word boundary.
// This is the legacy fallback strategy for callers that must ship something
// when compression escalates.
func TruncateAtBoundary(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}

	cut := text[:limit]
	if i := strings.LastIndexByte(cut, '.'); i > 0 {
		return strings.TrimSpace(cut[:i+1])
	}
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		return strings.TrimSpace(cut[:i])
	}
	return cut
}

// RecommendedLevel maps assessor output to the level used when the caller
// has no override. Kept beside the compressor so the mapping is visible at
// the point of use.
func RecommendedLevel(m quality.Metrics) quality.CompressionLevel {
	if m.CompressionRecommendation != "" {
		return m.CompressionRecommendation
	}
	return quality.LevelConservative
}
