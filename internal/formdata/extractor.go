// Package formdata turns the specification into fixed-wording prompt
// assertions and the protected phrases that must survive compression
// verbatim, plus the heuristic validator that checks they did.
package formdata

import (
	"fmt"
	"strings"

	"standforge/internal/spec"
)

// BlockHeader opens the appended form-priority block. The marker wording is
// load-bearing: the quality assessor and the compressor's priority rubric
// both key off it.
const BlockHeader = "=== FORM DATA REQUIREMENTS (ABSOLUTE PRIORITY) ==="

// CreateFormPriorityPrompt appends the deterministic Tier-1 block to base.
// base is never mutated; calling twice appends two identical blocks, so the
// orchestrator calls this exactly once per run.
func CreateFormPriorityPrompt(base string, s spec.Specification) string {
	var sb strings.Builder
	sb.WriteString(base)
	if base != "" && !strings.HasSuffix(base, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(BlockHeader)
	sb.WriteString("\n")

	if s.BrandName != "" {
		fmt.Fprintf(&sb, "Brand: %s\n", s.BrandName)
	}
	if s.ProductName != "" {
		fmt.Fprintf(&sb, "Product: %s\n", s.ProductName)
	}
	if s.FrontFaceCount > 0 {
		fmt.Fprintf(&sb, "EXACTLY %d front-facing: %d product(s) facing forward on each shelf.\n",
			s.FrontFaceCount, s.FrontFaceCount)
	}
	if s.BackToBackCount > 0 {
		fmt.Fprintf(&sb, "EXACTLY %d back-to-back: %d product(s) arranged back-to-back per row.\n",
			s.BackToBackCount, s.BackToBackCount)
	}
	if s.ShelfCount > 0 {
		fmt.Fprintf(&sb, "EXACTLY %d shelves: the stand has %d shelf level(s).\n",
			s.ShelfCount, s.ShelfCount)
	}
	if s.BaseColor != "" {
		fmt.Fprintf(&sb, "Base color: %s\n", s.BaseColor)
	}
	if len(s.Materials) > 0 {
		fmt.Fprintf(&sb, "Materials: %s\n", strings.Join(s.Materials, ", "))
	}
	sb.WriteString("These form requirements are absolute truth and override any conflicting visual or creative guidance.\n")

	return sb.String()
}

// ProtectedPhrases derives the literal substrings that must appear verbatim
// in any compressed output. Each numeric field contributes two alternate
// phrasings so downstream paraphrase of one form still leaves the other
// intact; both are emitted by CreateFormPriorityPrompt.
func ProtectedPhrases(s spec.Specification) []string {
	var phrases []string

	if s.FrontFaceCount > 0 {
		phrases = append(phrases,
			fmt.Sprintf("EXACTLY %d front-facing", s.FrontFaceCount),
			fmt.Sprintf("%d product(s) facing forward", s.FrontFaceCount),
		)
	}
	if s.BackToBackCount > 0 {
		phrases = append(phrases,
			fmt.Sprintf("EXACTLY %d back-to-back", s.BackToBackCount),
			fmt.Sprintf("%d product(s) arranged back-to-back", s.BackToBackCount),
		)
	}
	if s.ShelfCount > 0 {
		phrases = append(phrases,
			fmt.Sprintf("EXACTLY %d shelves", s.ShelfCount),
			fmt.Sprintf("%d shelf level(s)", s.ShelfCount),
		)
	}
	if s.BrandName != "" {
		phrases = append(phrases, s.BrandName)
	}
	if s.ProductName != "" {
		phrases = append(phrases, s.ProductName)
	}

	return phrases
}

// ArrangementText renders a short human-readable arrangement summary used by
// callers that want the facts outside the form block.
func ArrangementText(s spec.Specification) string {
	var parts []string
	if s.FrontFaceCount > 0 {
		parts = append(parts, fmt.Sprintf("%d facing forward", s.FrontFaceCount))
	}
	if s.BackToBackCount > 0 {
		parts = append(parts, fmt.Sprintf("%d back-to-back", s.BackToBackCount))
	}
	if s.ShelfCount > 0 {
		parts = append(parts, fmt.Sprintf("%d shelves", s.ShelfCount))
	}
	return strings.Join(parts, ", ")
}
