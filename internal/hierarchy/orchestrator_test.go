package hierarchy

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standforge/internal/cache"
	"standforge/internal/formdata"
	"standforge/internal/spec"
	"standforge/internal/visual"
)

func fullSpec() spec.Specification {
	return spec.Specification{
		Product:         spec.Dimensions{Width: 13, Depth: 2.5, Height: 5},
		Shelf:           spec.Dimensions{Width: 15, Depth: 15, Height: 30},
		Stand:           spec.Dimensions{Width: 15, Depth: 15, Height: 60},
		FrontFaceCount:  1,
		BackToBackCount: 12,
		ShelfCount:      3,
		BrandName:       "Acme",
		ProductName:     "Widget",
		BaseColor:       "matte black",
		Materials:       []string{"acrylic", "steel"},
	}
}

type fakeVisual struct {
	ctx *visual.Context
	err error
}

func (f *fakeVisual) Fetch(context.Context, spec.Specification) (*visual.Context, error) {
	return f.ctx, f.err
}

func scaledContext(confidence float64, scaleMatched bool, images int) *visual.Context {
	vc := &visual.Context{
		ScaleAccuracy: visual.ScaleAccuracy{
			OverallConfidence: confidence,
			ProductScale:      visual.ProductScale{Matched: scaleMatched},
		},
	}
	for i := 0; i < images; i++ {
		vc.ReferenceImages = append(vc.ReferenceImages, visual.ReferenceImage{
			URL:  "https://scans.example/view.png",
			View: "front",
		})
	}
	return vc
}

func TestGenerate_FormDataOnly(t *testing.T) {
	o := New(nil, nil, nil)

	res, err := o.Generate(context.Background(), "", fullSpec())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Contains(t, res.FinalPrompt, formdata.BlockHeader)
	assert.Contains(t, res.FinalPrompt, "EXACTLY 3 shelves")
	assert.Contains(t, res.FinalPrompt, "Acme")

	assert.True(t, res.Report.Tier1.Applied)
	assert.True(t, res.Report.Tier1.Valid)
	assert.False(t, res.Report.Tier2.Attempted)
	assert.False(t, res.Report.Tier3.Applied)
	assert.True(t, res.Report.Tier4.Valid)
	assert.True(t, res.Report.Tier4.ProtectedContentPreserved)

	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 100, res.IntegrityScore)
	assert.LessOrEqual(t, len(res.FinalPrompt), 4500)
}

func TestGenerate_Deterministic(t *testing.T) {
	o := New(nil, nil, nil)

	a, err := o.Generate(context.Background(), "", fullSpec())
	require.NoError(t, err)
	b, err := o.Generate(context.Background(), "", fullSpec())
	require.NoError(t, err)

	assert.Equal(t, a.FinalPrompt, b.FinalPrompt)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestGenerate_FrontFacePatternSurvives(t *testing.T) {
	// Every run must either carry N adjacent to "front" or record an
	// escalation.
	o := New(nil, nil, nil)
	s := fullSpec()
	s.FrontFaceCount = 7

	res, err := o.Generate(context.Background(), "", s)
	require.NoError(t, err)

	pattern := regexp.MustCompile(`(?i)\b7\b[^.\n]{0,40}front|front[^.\n]{0,40}\b7\b`)
	escalated := false
	for _, c := range res.Conflicts {
		if c.Outcome == OutcomeEscalationNeeded {
			escalated = true
		}
	}
	assert.True(t, pattern.MatchString(res.FinalPrompt) || escalated)
}

func TestGenerate_VisualHighConfidence(t *testing.T) {
	vs := &fakeVisual{ctx: scaledContext(0.95, true, 2)}
	o := New(nil, vs, nil)

	res, err := o.Generate(context.Background(), "", fullSpec())
	require.NoError(t, err)

	assert.True(t, res.Report.Tier2.Attempted)
	assert.True(t, res.Report.Tier2.Applied)
	assert.Equal(t, 2, res.Report.Tier2.ReferenceImages)
	assert.Contains(t, res.FinalPrompt, "Form data overrides 3D measurements")
	assert.Contains(t, res.FinalPrompt, "Reference image 1")
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 100, res.IntegrityScore)
}

func TestGenerate_VisualLowConfidence(t *testing.T) {
	vs := &fakeVisual{ctx: scaledContext(0.6, true, 1)}
	o := New(nil, vs, nil)

	res, err := o.Generate(context.Background(), "", fullSpec())
	require.NoError(t, err)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, ConflictFormVsVisual, res.Conflicts[0].Type)
	assert.Equal(t, OutcomeFormWins, res.Conflicts[0].Outcome)
	// A form-wins conflict costs the clean-run bonus, nothing more.
	assert.Equal(t, 100, res.IntegrityScore)
}

func TestGenerate_VisualMissingProductScale(t *testing.T) {
	vs := &fakeVisual{ctx: scaledContext(0.9, false, 1)}
	o := New(nil, vs, nil)

	res, err := o.Generate(context.Background(), "", fullSpec())
	require.NoError(t, err)

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, OutcomeFormWins, res.Conflicts[0].Outcome)
	assert.Contains(t, res.Conflicts[0].Detail, "form dimensions are authoritative")
}

func TestGenerate_VisualFailureIsNonFatal(t *testing.T) {
	vs := &fakeVisual{err: errors.New("scan backlog")}
	o := New(nil, vs, nil)

	res, err := o.Generate(context.Background(), "", fullSpec())
	require.NoError(t, err)

	assert.True(t, res.Report.Tier2.Attempted)
	assert.False(t, res.Report.Tier2.Applied)
	assert.NotContains(t, res.FinalPrompt, "VISUAL CONTEXT")
	assert.Contains(t, res.FinalPrompt, formdata.BlockHeader)
}

func TestGenerate_CallerBasePromptIsKept(t *testing.T) {
	o := New(nil, nil, nil)
	base := "A hand-written scene description for the shoot."

	res, err := o.Generate(context.Background(), base, fullSpec())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.FinalPrompt, base))
}

func TestGenerate_MemoizesAnalysis(t *testing.T) {
	store := cache.New()
	o := New(nil, nil, store)
	s := fullSpec()

	_, err := o.Generate(context.Background(), "", s)
	require.NoError(t, err)

	_, ok := store.Get(dimensionCachePrefix + s.Fingerprint())
	assert.True(t, ok)
}

func TestCompressAndGate_EscalatesOnLostFacts(t *testing.T) {
	o := New(nil, nil, nil)
	s := spec.Specification{ShelfCount: 3}
	res := &Result{RunID: "test"}

	// The prompt never mentions the shelf count, so the post-compression
	// gate must fail and escalate.
	out := o.compressAndGate("A prompt with no numeric facts at all.", s, res)

	assert.NotEmpty(t, out)
	assert.False(t, res.Report.Tier4.Valid)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, ConflictFormVsCompression, res.Conflicts[0].Type)
	assert.Equal(t, OutcomeEscalationNeeded, res.Conflicts[0].Outcome)
}

func TestIntegrityScore(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want int
	}{
		{
			"clean run earns bonus",
			Result{Report: Report{
				Tier1: TierOneReport{Valid: true},
				Tier4: TierFourReport{Valid: true},
			}},
			100,
		},
		{
			"one missing requirement forfeits the bonus too",
			Result{Report: Report{
				Tier1: TierOneReport{MissingRequirements: []string{"shelfCount"}},
				Tier4: TierFourReport{Valid: true},
			}},
			80,
		},
		{
			"one escalation",
			Result{
				Report: Report{
					Tier1: TierOneReport{Valid: true},
					Tier4: TierFourReport{Valid: true},
				},
				Conflicts: []ConflictResolution{{Outcome: OutcomeEscalationNeeded}},
			},
			85,
		},
		{
			"form-wins conflict only drops the bonus",
			Result{
				Report: Report{
					Tier1: TierOneReport{Valid: true},
					Tier4: TierFourReport{Valid: true},
				},
				Conflicts: []ConflictResolution{{Outcome: OutcomeFormWins}},
			},
			100,
		},
		{
			"clamped at zero",
			Result{Report: Report{
				Tier1: TierOneReport{MissingRequirements: []string{"a", "b", "c", "d", "e", "f"}},
			}},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, integrityScore(&tt.res))
		})
	}
}

func TestBasePrompt_DeterministicPerSeed(t *testing.T) {
	s := fullSpec()

	assert.Equal(t, BasePrompt(s, 3), BasePrompt(s, 3))
	assert.Equal(t, BasePrompt(s, 1), BasePrompt(s, 1+int64(StyleCount())))

	p := BasePrompt(s, 0)
	assert.Contains(t, p, "Acme Widget")
	assert.Contains(t, p, "matte black")
	assert.Contains(t, p, "acrylic and steel")
}

func TestBasePrompt_NegativeSeed(t *testing.T) {
	assert.NotPanics(t, func() { BasePrompt(fullSpec(), -7) })
}

func TestReportRender(t *testing.T) {
	r := Report{
		RunID: "abc",
		Tier1: TierOneReport{Applied: true, Valid: true},
		Tier2: TierTwoReport{Attempted: true, Applied: true, ReferenceImages: 2, ScaleConfidence: 0.91},
		Tier4: TierFourReport{OriginalLength: 5000, CompressedLength: 4400, Ratio: 0.88, Level: "moderate", ProtectedContentPreserved: true, Valid: true},
	}

	out := r.Render()
	assert.Contains(t, out, "Run abc")
	assert.Contains(t, out, "Tier 2 (visual context): applied, 2 reference image(s)")
	assert.Contains(t, out, "5000 -> 4400")
}

func TestRenderConflicts(t *testing.T) {
	assert.Equal(t, "No conflicts.\n", RenderConflicts(nil))

	out := RenderConflicts([]ConflictResolution{{
		Type:        ConflictFormVsCompression,
		Description: "compression destroyed tier-1 facts",
		Outcome:     OutcomeEscalationNeeded,
		Detail:      "shelfCount missing",
	}})
	assert.Contains(t, out, "form-vs-compression")
	assert.Contains(t, out, "escalation-needed")
}
