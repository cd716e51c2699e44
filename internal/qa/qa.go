// Package qa scores a finished orchestration run. Five independent groups
// of boolean checks are converted to percentages and combined by fixed
// weights into one overall score with pass/warning/critical bucketing.
package qa

import (
	"fmt"
	"strings"

	"standforge/internal/formdata"
	"standforge/internal/hierarchy"
	"standforge/internal/logging"
	"standforge/internal/spec"
)

// Fixed metric weights. They must sum to 1.
const (
	weightFormData    = 0.40
	weightHierarchy   = 0.25
	weightVisual      = 0.15
	weightCompression = 0.10
	weightPrompt      = 0.10
)

// Bucketing cutoffs. Form data is held to a stricter standard than the
// other metrics.
const (
	formPassCutoff    = 90.0
	formWarnCutoff    = 70.0
	overallPassCutoff = 85.0
	overallWarnCutoff = 60.0
)

// Target length band for the generated prompt. The generator upstream hard
// caps at 5000; staying at or under 4800 leaves headroom, and anything
// under 1000 is too thin to carry a full scene.
const (
	minPromptLength = 1000
	maxPromptLength = 4800
)

// Check is one boolean test with a human-readable name.
type Check struct {
	Name   string
	Passed bool
}

// Group is a named set of checks contributing one metric.
type Group struct {
	Name   string
	Checks []Check
}

// Percent is the group's pass ratio as a percentage. An empty group counts
// as fully passed.
func (g Group) Percent() float64 {
	if len(g.Checks) == 0 {
		return 100
	}
	passed := 0
	for _, c := range g.Checks {
		if c.Passed {
			passed++
		}
	}
	return 100 * float64(passed) / float64(len(g.Checks))
}

// Status buckets a score.
type Status string

const (
	StatusPass     Status = "pass"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Report is the scored QA outcome for one run.
type Report struct {
	FormDataIntegrity     float64
	HierarchyCompliance   float64
	VisualContextAccuracy float64
	CompressionEfficiency float64
	PromptOptimization    float64

	OverallScore    float64
	FormDataStatus  Status
	OverallStatus   Status
	Groups          []Group
	Recommendations []string
}

// Evaluate runs the full check battery against an orchestration result.
func Evaluate(res *hierarchy.Result, s spec.Specification) Report {
	log := logging.Get(logging.CategoryQA)

	groups := []Group{
		formDataChecks(res, s),
		hierarchyChecks(res),
		visualChecks(res),
		compressionChecks(res),
		promptChecks(res),
	}

	r := Report{
		FormDataIntegrity:     groups[0].Percent(),
		HierarchyCompliance:   groups[1].Percent(),
		VisualContextAccuracy: groups[2].Percent(),
		CompressionEfficiency: groups[3].Percent(),
		PromptOptimization:    groups[4].Percent(),
		Groups:                groups,
	}

	r.OverallScore = r.FormDataIntegrity*weightFormData +
		r.HierarchyCompliance*weightHierarchy +
		r.VisualContextAccuracy*weightVisual +
		r.CompressionEfficiency*weightCompression +
		r.PromptOptimization*weightPrompt

	r.FormDataStatus = bucket(r.FormDataIntegrity, formPassCutoff, formWarnCutoff)
	r.OverallStatus = bucket(r.OverallScore, overallPassCutoff, overallWarnCutoff)
	r.Recommendations = recommendations(r)

	log.Infow("qa evaluation complete",
		"runId", res.RunID,
		"overall", fmt.Sprintf("%.1f", r.OverallScore),
		"status", r.OverallStatus)

	return r
}

func bucket(score, passCutoff, warnCutoff float64) Status {
	switch {
	case score >= passCutoff:
		return StatusPass
	case score >= warnCutoff:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// formDataChecks verifies Tier-1 facts survived to the final prompt.
func formDataChecks(res *hierarchy.Result, s spec.Specification) Group {
	g := Group{Name: "form-data"}

	vr := formdata.Validate(res.FinalPrompt, s)
	g.Checks = append(g.Checks, Check{"all numeric requirements findable", vr.IsValid})

	g.Checks = append(g.Checks, Check{"form priority block present",
		strings.Contains(res.FinalPrompt, formdata.BlockHeader)})

	protected := true
	for _, phrase := range formdata.ProtectedPhrases(s) {
		if !strings.Contains(res.FinalPrompt, phrase) {
			protected = false
			break
		}
	}
	g.Checks = append(g.Checks, Check{"protected phrases intact", protected})

	g.Checks = append(g.Checks, Check{"absolute-truth marker present",
		strings.Contains(res.FinalPrompt, "absolute truth")})

	return g
}

// hierarchyChecks verifies the tier precedence held.
func hierarchyChecks(res *hierarchy.Result) Group {
	g := Group{Name: "hierarchy"}

	g.Checks = append(g.Checks, Check{"tier 1 applied", res.Report.Tier1.Applied})
	g.Checks = append(g.Checks, Check{"reserved tier 3 stayed inert", !res.Report.Tier3.Applied})

	escalated := false
	for _, c := range res.Conflicts {
		if c.Outcome == hierarchy.OutcomeEscalationNeeded {
			escalated = true
			break
		}
	}
	g.Checks = append(g.Checks, Check{"no escalation-needed conflicts", !escalated})
	g.Checks = append(g.Checks, Check{"integrity score at least 70", res.IntegrityScore >= 70})

	return g
}

// visualChecks verifies the advisory tier, or its graceful absence.
func visualChecks(res *hierarchy.Result) Group {
	g := Group{Name: "visual-context"}

	if !res.Report.Tier2.Attempted {
		g.Checks = append(g.Checks, Check{"visual context not requested", true})
		return g
	}

	if !res.Report.Tier2.Applied {
		// Collaborator failed; the only requirement is that the run degraded
		// to a complete Tier-1 prompt.
		g.Checks = append(g.Checks, Check{"degraded gracefully to tier-1 prompt",
			strings.Contains(res.FinalPrompt, formdata.BlockHeader)})
		return g
	}

	g.Checks = append(g.Checks, Check{"override note present",
		strings.Contains(res.FinalPrompt, "Form data overrides 3D measurements")})

	conf := res.Report.Tier2.ScaleConfidence
	g.Checks = append(g.Checks, Check{"scale confidence within [0,1]", conf >= 0 && conf <= 1})

	if res.Report.Tier2.ReferenceImages > 0 {
		g.Checks = append(g.Checks, Check{"reference images listed",
			strings.Contains(res.FinalPrompt, "Reference image 1")})
	}

	return g
}

// compressionChecks verifies the Tier-4 outcome stayed within contract.
func compressionChecks(res *hierarchy.Result) Group {
	g := Group{Name: "compression"}
	t4 := res.Report.Tier4

	g.Checks = append(g.Checks,
		Check{"prompt length at most 4800", len(res.FinalPrompt) <= maxPromptLength},
		Check{"compression ratio within [0.6, 1.0]", t4.Ratio >= 0.6 && t4.Ratio <= 1.0},
		Check{"protected content preserved", t4.ProtectedContentPreserved},
		Check{"post-compression validation passed", t4.Valid},
	)

	return g
}

// promptChecks verifies overall prompt shape.
func promptChecks(res *hierarchy.Result) Group {
	g := Group{Name: "integration"}
	prompt := res.FinalPrompt

	g.Checks = append(g.Checks,
		Check{"prompt length at least 1000", len(prompt) >= minPromptLength},
		Check{"prompt within generation hard cap", len(prompt) <= 5000},
		Check{"creative content precedes form block", !strings.HasPrefix(prompt, formdata.BlockHeader)},
		Check{"form block appears exactly once", strings.Count(prompt, formdata.BlockHeader) == 1},
	)

	return g
}

// recommendations emits one actionable line per low metric.
func recommendations(r Report) []string {
	var recs []string

	if r.FormDataIntegrity < formPassCutoff {
		recs = append(recs, "form data integrity is low: review compression settings and protected phrase coverage")
	}
	if r.HierarchyCompliance < 100 {
		recs = append(recs, "hierarchy conflicts need attention: inspect the conflict list for escalations")
	}
	if r.VisualContextAccuracy < 100 {
		recs = append(recs, "visual context degraded: verify the scan service and its scale confidence")
	}
	if r.CompressionEfficiency < 100 {
		recs = append(recs, "compression left the target band: consider a larger budget or a lighter level")
	}
	if r.PromptOptimization < 100 {
		recs = append(recs, "prompt shape is off target: check length band and section ordering")
	}
	if len(recs) == 0 {
		recs = append(recs, "no action needed")
	}

	return recs
}

// Render produces the human-readable QA summary used by the CLI.
func (r Report) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Overall: %.1f (%s)\n", r.OverallScore, r.OverallStatus)
	fmt.Fprintf(&sb, "  form data integrity:     %5.1f (%s)\n", r.FormDataIntegrity, r.FormDataStatus)
	fmt.Fprintf(&sb, "  hierarchy compliance:    %5.1f\n", r.HierarchyCompliance)
	fmt.Fprintf(&sb, "  visual context accuracy: %5.1f\n", r.VisualContextAccuracy)
	fmt.Fprintf(&sb, "  compression efficiency:  %5.1f\n", r.CompressionEfficiency)
	fmt.Fprintf(&sb, "  prompt optimization:     %5.1f\n", r.PromptOptimization)

	for _, g := range r.Groups {
		for _, c := range g.Checks {
			if !c.Passed {
				fmt.Fprintf(&sb, "  FAIL [%s] %s\n", g.Name, c.Name)
			}
		}
	}

	sb.WriteString("Recommendations:\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&sb, "  - %s\n", rec)
	}

	return sb.String()
}
