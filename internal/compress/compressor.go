// Package compress shrinks a prompt to a hard character budget without
// losing any configured protected phrase. Stage 1 is lossless-ish text
// rewriting gated by the compression level; Stage 2 falls back to
// priority-scored section selection, retaining protected sections
// unconditionally.
package compress

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"standforge/internal/logging"
	"standforge/internal/quality"
)

// Config controls a single compression run.
type Config struct {
	// MaxLength is the hard character budget for the output.
	MaxLength int

	// ProtectedContent lists literal substrings that must survive verbatim.
	ProtectedContent []string

	// Level gates how much Stage-1 rewriting is attempted.
	Level quality.CompressionLevel

	// PreserveCreativeContext keeps creative sections competitive in the
	// Stage-2 rubric; without it they score as generic content.
	PreserveCreativeContext bool

	// MaintainFormPriority is carried for report purposes; the rubric always
	// ranks form sections first regardless.
	MaintainFormPriority bool
}

// Result reports what a compression run did.
type Result struct {
	CompressedText            string
	OriginalLength            int
	CompressedLength          int
	Ratio                     float64
	ProtectedContentPreserved bool
	SectionsRemoved           []string
	SectionsAbbreviated       []string
}

// TextCompressionLabel marks a run solved by Stage 1 alone.
const TextCompressionLabel = "text-compression-applied"

// Verbose-to-concise substitutions applied at moderate and above.
var moderateSubstitutions = [][2]string{
	{"in order to", "to"},
	{"due to the fact that", "because"},
	{"it is important that", ""},
	{"please ensure that", "ensure"},
	{"make sure that", "ensure"},
	{"make sure", "ensure"},
	{"a wide variety of", "many"},
	{"in addition to", "plus"},
	{"at this point in time", "now"},
	{"as well as", "and"},
}

// Additional substitutions applied only at aggressive.
var aggressiveSubstitutions = [][2]string{
	{"approximately", "~"},
	{"in the middle of", "mid"},
	{"positioned at", "at"},
	{"is located", "sits"},
	{"in front of", "before"},
	{"on top of", "atop"},
}

var (
	spacesRe     = regexp.MustCompile(`[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	fillerRe     = regexp.MustCompile(`(?i)\b(?:very|really|extremely|absolutely|incredibly|truly)\s+`)
)

// Compress shrinks prompt to cfg.MaxLength. Prompts already within budget
// are returned unchanged with ratio 1.0.
func Compress(prompt string, cfg Config) Result {
	log := logging.Get(logging.CategoryCompress)

	res := Result{
		CompressedText: prompt,
		OriginalLength: len(prompt),
		Ratio:          1.0,
	}

	if len(prompt) <= cfg.MaxLength {
		res.CompressedLength = len(prompt)
		res.ProtectedContentPreserved = allPresent(prompt, cfg.ProtectedContent)
		return res
	}

	// Stage 1: text rewriting. Protected phrase occurrences are masked out
	// first so no substitution or whitespace collapse can alter them.
	shrunk := stageOneShrink(prompt, cfg)
	if len(shrunk) <= cfg.MaxLength {
		res.CompressedText = shrunk
		res.CompressedLength = len(shrunk)
		res.Ratio = ratio(len(shrunk), len(prompt))
		res.ProtectedContentPreserved = allPresent(shrunk, cfg.ProtectedContent)
		res.SectionsAbbreviated = []string{TextCompressionLabel}
		log.Debugw("stage-1 compression sufficient",
			"original", len(prompt), "compressed", len(shrunk))
		return res
	}

	// Stage 2: section selection.
	out, removed, abbreviated := stageTwoSections(shrunk, cfg)
	res.CompressedText = out
	res.CompressedLength = len(out)
	res.Ratio = ratio(len(out), len(prompt))
	res.ProtectedContentPreserved = allPresent(out, cfg.ProtectedContent)
	res.SectionsRemoved = removed
	res.SectionsAbbreviated = append([]string{TextCompressionLabel}, abbreviated...)

	log.Debugw("stage-2 compression complete",
		"original", len(prompt), "compressed", len(out),
		"removed", len(removed), "abbreviated", len(abbreviated),
		"protectedPreserved", res.ProtectedContentPreserved)

	return res
}

func ratio(compressed, original int) float64 {
	if original == 0 {
		return 1.0
	}
	return float64(compressed) / float64(original)
}

func allPresent(text string, phrases []string) bool {
	for _, p := range phrases {
		if !strings.Contains(text, p) {
			return false
		}
	}
	return true
}

// stageOneShrink applies whitespace normalization and, per level, phrase
// substitution and filler stripping. Spans occupied by protected phrases are
// exempt from every rewrite.
func stageOneShrink(text string, cfg Config) string {
	masked, restore := maskProtected(text, cfg.ProtectedContent)

	// Whitespace collapse runs at every level. Blank-line boundaries are
	// preserved (two newlines) because Stage 2 splits on them.
	masked = spacesRe.ReplaceAllString(masked, " ")
	masked = blankLinesRe.ReplaceAllString(masked, "\n\n")

	if cfg.Level == quality.LevelModerate || cfg.Level == quality.LevelAggressive {
		masked = applySubstitutions(masked, moderateSubstitutions)
	}
	if cfg.Level == quality.LevelAggressive {
		masked = applySubstitutions(masked, aggressiveSubstitutions)
		masked = stripFillers(masked)
	}

	// Tidy double spaces left behind by empty substitutions.
	masked = spacesRe.ReplaceAllString(masked, " ")

	return restore(masked)
}

func applySubstitutions(text string, subs [][2]string) string {
	for _, sub := range subs {
		text = replaceFold(text, sub[0], sub[1])
	}
	return text
}

// replaceFold replaces all case-insensitive occurrences of old with repl.
func replaceFold(text, old, repl string) string {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(old))
	return re.ReplaceAllLiteralString(text, repl)
}

// stripFillers removes intensifier words, skipping any occurrence adjacent
// to the EXACTLY marker or a digit so numeric facts keep their exact shape.
func stripFillers(text string) string {
	matches := fillerRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]

		if precededByExactly(text, start) || followedByDigit(text, end) {
			continue
		}

		sb.WriteString(text[last:start])
		last = end
	}
	sb.WriteString(text[last:])
	return sb.String()
}

func precededByExactly(text string, pos int) bool {
	head := strings.TrimRight(text[:pos], " \t")
	return strings.HasSuffix(head, "EXACTLY")
}

func followedByDigit(text string, pos int) bool {
	return pos < len(text) && text[pos] >= '0' && text[pos] <= '9'
}

// maskProtected replaces each protected phrase occurrence with a sentinel
// token and returns a restore function. Sentinels use NUL delimiters that no
// Stage-1 rewrite can produce or match. Phrases are masked longest first, so
// a phrase containing a shorter one is masked whole instead of being split
// by the shorter phrase's sentinel.
func maskProtected(text string, phrases []string) (string, func(string) string) {
	type token struct {
		sentinel string
		phrase   string
	}
	var tokens []token

	order := make([]int, len(phrases))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(phrases[order[a]]) > len(phrases[order[b]])
	})

	for _, i := range order {
		phrase := phrases[i]
		if phrase == "" || !strings.Contains(text, phrase) {
			continue
		}
		sentinel := "\x00P" + strconv.Itoa(i) + "\x00"
		text = strings.ReplaceAll(text, phrase, sentinel)
		tokens = append(tokens, token{sentinel, phrase})
	}

	restore := func(s string) string {
		for _, tok := range tokens {
			s = strings.ReplaceAll(s, tok.sentinel, tok.phrase)
		}
		return s
	}
	return text, restore
}
