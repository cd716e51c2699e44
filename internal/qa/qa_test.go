package qa

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standforge/internal/hierarchy"
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

type stubVisual struct{ ctx *visual.Context }

func (s *stubVisual) Fetch(context.Context, spec.Specification) (*visual.Context, error) {
	return s.ctx, nil
}

func generate(t *testing.T, vs hierarchy.VisualSource) *hierarchy.Result {
	t.Helper()
	res, err := hierarchy.New(nil, vs, nil).Generate(context.Background(), "", fullSpec())
	require.NoError(t, err)
	return res
}

func TestEvaluate_CleanRunExceeds85(t *testing.T) {
	// All critical numeric facts present, no conflicts: the weighted score
	// must clear 85.
	res := generate(t, nil)
	require.Empty(t, res.Conflicts)

	r := Evaluate(res, fullSpec())

	assert.Greater(t, r.OverallScore, 85.0)
	assert.Equal(t, StatusPass, r.OverallStatus)
	assert.Equal(t, 100.0, r.FormDataIntegrity)
	assert.Equal(t, StatusPass, r.FormDataStatus)
	assert.Equal(t, 100.0, r.HierarchyCompliance)
}

func TestEvaluate_WithVisualContext(t *testing.T) {
	vs := &stubVisual{ctx: &visual.Context{
		ReferenceImages: []visual.ReferenceImage{{URL: "https://scans.example/f.png", View: "front"}},
		ScaleAccuracy: visual.ScaleAccuracy{
			OverallConfidence: 0.93,
			ProductScale:      visual.ProductScale{Matched: true},
		},
	}}

	r := Evaluate(generate(t, vs), fullSpec())

	assert.Equal(t, 100.0, r.VisualContextAccuracy)
	assert.Greater(t, r.OverallScore, 85.0)
}

func TestEvaluate_EscalationDragsHierarchyDown(t *testing.T) {
	res := generate(t, nil)
	res.Conflicts = append(res.Conflicts, hierarchy.ConflictResolution{
		Type:    hierarchy.ConflictFormVsCompression,
		Outcome: hierarchy.OutcomeEscalationNeeded,
	})
	res.IntegrityScore = 65

	r := Evaluate(res, fullSpec())

	// Two of four hierarchy checks fail: no-escalation and integrity floor.
	assert.Equal(t, 50.0, r.HierarchyCompliance)
	assert.Less(t, r.OverallScore, 90.0)
	assert.NotEqual(t, []string{"no action needed"}, r.Recommendations)
}

func TestEvaluate_LostFormDataIsCritical(t *testing.T) {
	res := generate(t, nil)
	res.FinalPrompt = "a prompt with none of the required facts"
	res.Report.Tier4.ProtectedContentPreserved = false
	res.Report.Tier4.Valid = false

	r := Evaluate(res, fullSpec())

	assert.Equal(t, 0.0, r.FormDataIntegrity)
	assert.Equal(t, StatusCritical, r.FormDataStatus)
	assert.NotEqual(t, StatusPass, r.OverallStatus)
}

func TestEvaluate_Deterministic(t *testing.T) {
	res := generate(t, nil)

	a := Evaluate(res, fullSpec())
	b := Evaluate(res, fullSpec())

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("repeated evaluation differs (-first +second):\n%s", diff)
	}
}

func TestGroupPercent(t *testing.T) {
	tests := []struct {
		name   string
		checks []Check
		want   float64
	}{
		{"empty group passes", nil, 100},
		{"all pass", []Check{{Passed: true}, {Passed: true}}, 100},
		{"half pass", []Check{{Passed: true}, {Passed: false}}, 50},
		{"none pass", []Check{{Passed: false}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Group{Checks: tt.checks}.Percent())
		})
	}
}

func TestBucket(t *testing.T) {
	assert.Equal(t, StatusPass, bucket(92, 90, 70))
	assert.Equal(t, StatusWarning, bucket(75, 90, 70))
	assert.Equal(t, StatusCritical, bucket(42, 90, 70))
}

func TestRender(t *testing.T) {
	r := Evaluate(generate(t, nil), fullSpec())
	out := r.Render()

	assert.Contains(t, out, "Overall:")
	assert.Contains(t, out, "form data integrity:")
	assert.Contains(t, out, "Recommendations:")
}
