// Package hierarchy runs the four-tier source-of-truth pipeline: form data
// is absolute truth, visual context is advisory, AI enhancement is reserved,
// and compression must not destroy a Tier-1 fact. Conflicts between tiers
// are resolved by fixed precedence and reported, never silently dropped.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"standforge/internal/cache"
	"standforge/internal/compress"
	"standforge/internal/config"
	"standforge/internal/dimension"
	"standforge/internal/formdata"
	"standforge/internal/logging"
	"standforge/internal/quality"
	"standforge/internal/spec"
	"standforge/internal/visual"
)

// ConflictType identifies which tiers disagreed.
type ConflictType string

const (
	ConflictFormVsVisual      ConflictType = "form-vs-visual"
	ConflictFormVsAI          ConflictType = "form-vs-ai"
	ConflictFormVsCompression ConflictType = "form-vs-compression"
)

// Outcome is how a conflict was resolved.
type Outcome string

const (
	OutcomeFormWins         Outcome = "form-wins"
	OutcomeCompromise       Outcome = "compromise"
	OutcomeEscalationNeeded Outcome = "escalation-needed"
)

// ConflictResolution records one detected conflict and its resolution.
type ConflictResolution struct {
	Type        ConflictType
	Description string
	Outcome     Outcome
	Detail      string
}

// TierOneReport summarizes form-data application.
type TierOneReport struct {
	Applied             bool
	Valid               bool
	MissingRequirements []string
}

// TierTwoReport summarizes the advisory visual-context stage.
type TierTwoReport struct {
	Attempted       bool
	Applied         bool
	ReferenceImages int
	ScaleConfidence float64
}

// TierThreeReport is the reserved AI-enhancement stage. Applied stays false
// until that integration exists.
type TierThreeReport struct {
	Applied bool
}

// TierFourReport summarizes compression and the post-compression gate.
type TierFourReport struct {
	OriginalLength            int
	CompressedLength          int
	Ratio                     float64
	Level                     quality.CompressionLevel
	ProtectedContentPreserved bool
	Valid                     bool
}

// Report is the per-tier summary for one run.
type Report struct {
	RunID string
	Tier1 TierOneReport
	Tier2 TierTwoReport
	Tier3 TierThreeReport
	Tier4 TierFourReport
}

// Result is the full orchestration output.
type Result struct {
	RunID             string
	FinalPrompt       string
	Report            Report
	Quality           quality.Metrics
	CompressionReport string
	Conflicts         []ConflictResolution
	IntegrityScore    int
	Analysis          dimension.Result
}

// VisualSource fetches advisory context for a product. Implementations may
// fail freely; every error is treated as "no visual context".
type VisualSource interface {
	Fetch(ctx context.Context, s spec.Specification) (*visual.Context, error)
}

// ErrEmptyPrompt is returned when orchestration would produce no prompt text
// at all. Partial degradation is always preferred over this.
var ErrEmptyPrompt = errors.New("orchestration produced an empty prompt")

const dimensionCachePrefix = "dimension:"

// Orchestrator wires the pipeline stages together. A nil visual source
// disables Tier 2; a nil store disables analysis memoization.
type Orchestrator struct {
	cfg    *config.Config
	visual VisualSource
	store  *cache.Store
}

// New creates an orchestrator. cfg may be nil, in which case defaults apply.
func New(cfg *config.Config, vs VisualSource, store *cache.Store) *Orchestrator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Orchestrator{cfg: cfg, visual: vs, store: store}
}

// Generate runs the four tiers over base and s. An empty base gets a
// deterministic creative opener seeded from the specification fingerprint.
// Stage failures degrade the result; only a completely empty outcome is an
// error.
func (o *Orchestrator) Generate(ctx context.Context, base string, s spec.Specification) (*Result, error) {
	log := logging.Get(logging.CategoryHierarchy)

	res := &Result{RunID: uuid.NewString()}
	res.Report.RunID = res.RunID

	log.Infow("orchestration started", "runId", res.RunID, "fingerprint", s.Fingerprint()[:12])

	res.Analysis = o.analyze(s)

	if base == "" {
		base = BasePrompt(s, styleSeed(s))
	}
	prompt := withLayoutSummary(base, res.Analysis)

	// Tier 1: form data is applied once and sanity-checked. A missing
	// requirement here usually means the field was legitimately absent, so
	// the run continues.
	prompt = formdata.CreateFormPriorityPrompt(prompt, s)
	t1 := formdata.Validate(prompt, s)
	res.Report.Tier1 = TierOneReport{
		Applied:             true,
		Valid:               t1.IsValid,
		MissingRequirements: t1.MissingRequirements,
	}
	if !t1.IsValid {
		log.Warnw("tier-1 validation incomplete",
			"runId", res.RunID, "missing", t1.MissingRequirements)
	}

	// Tier 2: advisory visual context.
	prompt = o.applyVisualContext(ctx, prompt, s, res)

	// Tier 3: reserved for AI suggestions; nothing may override Tier 1, and
	// no integration exists yet.
	res.Report.Tier3 = TierThreeReport{Applied: false}

	// Tier 4: compress under the hard budget, then gate on the validator.
	prompt = o.compressAndGate(prompt, s, res)

	res.FinalPrompt = prompt
	res.IntegrityScore = integrityScore(res)

	if strings.TrimSpace(res.FinalPrompt) == "" {
		return nil, ErrEmptyPrompt
	}

	log.Infow("orchestration complete",
		"runId", res.RunID,
		"finalLength", len(res.FinalPrompt),
		"integrity", res.IntegrityScore,
		"conflicts", len(res.Conflicts))

	return res, nil
}

// analyze runs the dimensional analyzer, memoized by specification
// fingerprint when a store is configured.
func (o *Orchestrator) analyze(s spec.Specification) dimension.Result {
	if o.store == nil || !o.cfg.Cache.Enabled {
		return dimension.Analyze(s)
	}

	ttl, err := o.cfg.CacheTTL()
	if err != nil {
		ttl = cache.DefaultTTL
	}

	key := dimensionCachePrefix + s.Fingerprint()
	v, err := o.store.GetOrCompute(key, ttl, func() (any, error) {
		return dimension.Analyze(s), nil
	})
	if err != nil {
		return dimension.Analyze(s)
	}
	return v.(dimension.Result)
}

// withLayoutSummary appends the analyzer's packing facts as a section of
// their own, so compression ranks them as product content rather than prose.
func withLayoutSummary(base string, a dimension.Result) string {
	if a.Layout.ProductsPerShelf <= 0 {
		return base
	}

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Product layout: %d product(s) per shelf (%d across, %d deep)",
		a.Layout.ProductsPerShelf, a.Layout.ProductsPerRow, a.Layout.ProductsPerColumn)
	if a.Layout.TotalCapacity > 0 {
		fmt.Fprintf(&sb, ", %d total", a.Layout.TotalCapacity)
	}
	sb.WriteString(".")
	if !a.IsPhysicallyValid {
		sb.WriteString(" Note: the requested geometry has unresolved fit issues.")
	}
	return sb.String()
}

// applyVisualContext runs Tier 2. Collaborator failure is logged and the
// Tier-1 prompt continues untouched.
func (o *Orchestrator) applyVisualContext(ctx context.Context, prompt string, s spec.Specification, res *Result) string {
	if o.visual == nil || !o.cfg.Visual.Enabled {
		return prompt
	}

	log := logging.Get(logging.CategoryHierarchy)
	res.Report.Tier2.Attempted = true

	vc, err := o.visual.Fetch(ctx, s)
	if err != nil {
		log.Warnw("visual context unavailable, continuing tier-1 only",
			"runId", res.RunID, "err", err)
		return prompt
	}

	confidence := vc.ScaleAccuracy.OverallConfidence
	res.Report.Tier2.Applied = true
	res.Report.Tier2.ReferenceImages = len(vc.ReferenceImages)
	res.Report.Tier2.ScaleConfidence = confidence

	if confidence < 0.8 {
		res.Conflicts = append(res.Conflicts, ConflictResolution{
			Type:        ConflictFormVsVisual,
			Description: "3D scan scale confidence below threshold",
			Outcome:     OutcomeFormWins,
			Detail:      fmt.Sprintf("overall confidence %.2f is below 0.80; form dimensions are authoritative", confidence),
		})
	}
	if !vc.HasProductScale() {
		res.Conflicts = append(res.Conflicts, ConflictResolution{
			Type:        ConflictFormVsVisual,
			Description: "scan produced no product scale measurement",
			Outcome:     OutcomeFormWins,
			Detail:      "product scale could not be matched against the scan; form dimensions are authoritative",
		})
	}

	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\n=== VISUAL CONTEXT (3D SCAN, ADVISORY) ===\n")
	fmt.Fprintf(&sb, "Scale confidence: %.2f\n", confidence)
	for i, img := range vc.ReferenceImages {
		fmt.Fprintf(&sb, "Reference image %d (%s): %s\n", i+1, img.View, img.URL)
	}
	sb.WriteString("Form data overrides 3D measurements wherever they disagree.")

	return sb.String()
}

// compressAndGate runs Tier 4: assess, compress, then re-validate. A failed
// gate becomes an escalation-needed conflict, never a silent drop.
func (o *Orchestrator) compressAndGate(prompt string, s spec.Specification, res *Result) string {
	log := logging.Get(logging.CategoryHierarchy)

	res.Quality = quality.Assess(prompt)

	level := quality.CompressionLevel(o.cfg.Pipeline.CompressionLevel)
	if level == "" {
		level = compress.RecommendedLevel(res.Quality)
	}

	maxLength := o.cfg.Pipeline.MaxPromptLength
	if maxLength <= 0 {
		maxLength = 4500
	}

	cr := compress.Compress(prompt, compress.Config{
		MaxLength:               maxLength,
		ProtectedContent:        formdata.ProtectedPhrases(s),
		Level:                   level,
		PreserveCreativeContext: o.cfg.Pipeline.PreserveCreativeContext,
		MaintainFormPriority:    true,
	})

	gate := formdata.Validate(cr.CompressedText, s)

	res.Report.Tier4 = TierFourReport{
		OriginalLength:            cr.OriginalLength,
		CompressedLength:          cr.CompressedLength,
		Ratio:                     cr.Ratio,
		Level:                     level,
		ProtectedContentPreserved: cr.ProtectedContentPreserved,
		Valid:                     gate.IsValid,
	}
	res.CompressionReport = renderCompressionReport(cr, level)

	if !gate.IsValid || !cr.ProtectedContentPreserved {
		detail := "protected content lost during compression"
		if !gate.IsValid {
			detail = fmt.Sprintf("requirements missing after compression: %s",
				strings.Join(gate.MissingRequirements, ", "))
		}
		res.Conflicts = append(res.Conflicts, ConflictResolution{
			Type:        ConflictFormVsCompression,
			Description: "compression destroyed tier-1 facts",
			Outcome:     OutcomeEscalationNeeded,
			Detail:      detail,
		})
		log.Errorw("tier-4 gate failed", "runId", res.RunID, "detail", detail)
	}

	return cr.CompressedText
}

// integrityScore applies the fixed scoring rule: start at 100, subtract 20
// per missing Tier-1 requirement and 15 per escalation, add a 5 bonus when
// validation passed at both gates and no conflicts occurred, clamp to
// [0,100].
func integrityScore(res *Result) int {
	score := 100
	score -= 20 * len(res.Report.Tier1.MissingRequirements)

	for _, c := range res.Conflicts {
		if c.Outcome == OutcomeEscalationNeeded {
			score -= 15
		}
	}

	if res.Report.Tier1.Valid && res.Report.Tier4.Valid && len(res.Conflicts) == 0 {
		score += 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// styleSeed derives a stable style selector from the specification so the
// same input always opens with the same scene.
func styleSeed(s spec.Specification) int64 {
	var seed int64
	for _, b := range []byte(s.Fingerprint()[:8]) {
		seed = seed<<8 | int64(b)
	}
	return seed
}
