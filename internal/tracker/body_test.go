package tracker

import (
	"context"
	"math"
	"testing"
)

func TestBMI(t *testing.T) {
	if got := BMI(80, 170); math.Abs(got-27.68) > 0.01 {
		t.Errorf("BMI(80, 170) = %v, want about 27.68", got)
	}
	if got := BMI(80, 0); got != 0 {
		t.Errorf("BMI without height = %v, want 0", got)
	}
}

func TestBMICategory(t *testing.T) {
	tests := []struct {
		bmi  float64
		want string
	}{
		{17, CategoryUnderweight},
		{18.49, CategoryUnderweight},
		{18.5, CategoryNormal},
		{24.99, CategoryNormal},
		{25, CategoryOverweight},
		{29.9, CategoryOverweight},
		{30, CategoryObese},
	}
	for _, tt := range tests {
		if got := BMICategory(tt.bmi); got != tt.want {
			t.Errorf("BMICategory(%v) = %q, want %q", tt.bmi, got, tt.want)
		}
	}
}

func TestNormalRangeAndIdealWeight(t *testing.T) {
	lo, hi := NormalRange(170)
	if math.Abs(lo-53.465) > 1e-9 || math.Abs(hi-71.961) > 1e-9 {
		t.Errorf("NormalRange(170) = %v, %v", lo, hi)
	}
	if got := IdealWeight(170); math.Abs(got-62.713) > 1e-9 {
		t.Errorf("IdealWeight(170) = %v, want 62.713", got)
	}
}

func TestBodyOf(t *testing.T) {
	b, ok := BodyOf(80, 170)
	if !ok {
		t.Fatal("BodyOf reported no view")
	}
	if b.BMI != 27.7 || b.Category != CategoryOverweight {
		t.Errorf("bmi = %v %q", b.BMI, b.Category)
	}
	if b.IdealKG != 62.7 || b.MaxNormalKG != 72 || b.DiffKG != 17.3 {
		t.Errorf("ideal = %v max = %v diff = %v", b.IdealKG, b.MaxNormalKG, b.DiffKG)
	}
	// 1 - 17.287/80
	if b.Progress != 78.4 {
		t.Errorf("Progress = %v, want 78.4", b.Progress)
	}

	// Below ideal the diff is negative
	b, _ = BodyOf(50, 170)
	if b.DiffKG >= 0 || b.Category != CategoryUnderweight {
		t.Errorf("underweight body = %+v", b)
	}

	if _, ok := BodyOf(80, 0); ok {
		t.Error("BodyOf without height should report false")
	}
}

func TestWeight_SummaryIncludesBodyWhenHeightKnown(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Given: no height
	w := NewWeight(f.deps, 65)
	w.Save(ctx, 80)
	if s := w.Summary(ctx); s.Body != nil {
		t.Errorf("Body without height = %+v", s.Body)
	}

	// When: a height is set
	w.WithHeight(170)

	// Then: the summary carries the BMI view of the latest weight
	s := w.Summary(ctx)
	if s.Body == nil || s.Body.BMI != 27.7 || s.Body.HeightCM != 170 {
		t.Fatalf("Body = %+v", s.Body)
	}
	if s.TargetKG != 65 || s.ToGoKG != 15 {
		t.Errorf("target = %v to go = %v", s.TargetKG, s.ToGoKG)
	}
}
