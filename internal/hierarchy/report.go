package hierarchy

import (
	"fmt"
	"strings"

	"standforge/internal/compress"
	"standforge/internal/quality"
)

// Render produces the human-readable per-tier summary used by the CLI.
func (r Report) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Run %s\n", r.RunID)

	fmt.Fprintf(&sb, "Tier 1 (form data): applied=%t valid=%t", r.Tier1.Applied, r.Tier1.Valid)
	if len(r.Tier1.MissingRequirements) > 0 {
		fmt.Fprintf(&sb, " missing=%s", strings.Join(r.Tier1.MissingRequirements, ","))
	}
	sb.WriteString("\n")

	switch {
	case !r.Tier2.Attempted:
		sb.WriteString("Tier 2 (visual context): skipped\n")
	case !r.Tier2.Applied:
		sb.WriteString("Tier 2 (visual context): unavailable, continued tier-1 only\n")
	default:
		fmt.Fprintf(&sb, "Tier 2 (visual context): applied, %d reference image(s), confidence %.2f\n",
			r.Tier2.ReferenceImages, r.Tier2.ScaleConfidence)
	}

	sb.WriteString("Tier 3 (AI enhancement): reserved\n")

	fmt.Fprintf(&sb, "Tier 4 (compression): %d -> %d chars (ratio %.2f, %s), protected=%t valid=%t\n",
		r.Tier4.OriginalLength, r.Tier4.CompressedLength, r.Tier4.Ratio,
		r.Tier4.Level, r.Tier4.ProtectedContentPreserved, r.Tier4.Valid)

	return sb.String()
}

// RenderConflicts formats the conflict list, one line per conflict.
func RenderConflicts(conflicts []ConflictResolution) string {
	if len(conflicts) == 0 {
		return "No conflicts.\n"
	}
	var sb strings.Builder
	for _, c := range conflicts {
		fmt.Fprintf(&sb, "[%s] %s -> %s: %s\n", c.Type, c.Description, c.Outcome, c.Detail)
	}
	return sb.String()
}

// renderCompressionReport is the textual compression summary carried in the
// orchestration result.
func renderCompressionReport(cr compress.Result, level quality.CompressionLevel) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Compression (%s): %d -> %d characters (ratio %.2f)\n",
		level, cr.OriginalLength, cr.CompressedLength, cr.Ratio)
	fmt.Fprintf(&sb, "Protected content preserved: %t\n", cr.ProtectedContentPreserved)

	if len(cr.SectionsAbbreviated) > 0 {
		fmt.Fprintf(&sb, "Abbreviated: %s\n", strings.Join(cr.SectionsAbbreviated, "; "))
	}
	if len(cr.SectionsRemoved) > 0 {
		fmt.Fprintf(&sb, "Removed: %s\n", strings.Join(cr.SectionsRemoved, "; "))
	}

	return sb.String()
}
