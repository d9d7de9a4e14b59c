package domain

import (
	"math"
	"testing"
)

func TestAccuracy(t *testing.T) {
	almostEqual := func(a, b float64) bool {
		return math.Abs(a-b) < 1e-9
	}

	t.Run("osu standard", func(t *testing.T) {
		if got := Accuracy(RulesetOsu, 100, 0, 0, 0, 0, 0); got != 100 {
			t.Errorf("all 300s = %f, want 100", got)
		}
		// 50x300 + 30x100 + 10x50 + 10xmiss
		want := 100 * (50 + 30.0/3.0 + 10.0/6.0) / 100
		if got := Accuracy(RulesetOsu, 50, 30, 10, 10, 0, 0); !almostEqual(got, want) {
			t.Errorf("mixed hits = %f, want %f", got, want)
		}
		if got := Accuracy(RulesetOsu, 0, 0, 0, 0, 0, 0); got != 0 {
			t.Errorf("no hits = %f, want 0", got)
		}
	})

	t.Run("taiko ignores 50s", func(t *testing.T) {
		want := 100 * (80 + 0.5*20) / 100.0
		if got := Accuracy(RulesetTaiko, 80, 20, 999, 0, 0, 0); !almostEqual(got, want) {
			t.Errorf("taiko = %f, want %f", got, want)
		}
	})

	t.Run("catch counts fruit", func(t *testing.T) {
		// 90 caught, 5 miss, 5 droplet miss (katu)
		want := 100 * 90.0 / 100.0
		if got := Accuracy(RulesetCatch, 70, 10, 10, 5, 5, 0); !almostEqual(got, want) {
			t.Errorf("catch = %f, want %f", got, want)
		}
	})

	t.Run("mania weights geki as perfect", func(t *testing.T) {
		if got := Accuracy(RulesetMania, 0, 0, 0, 0, 0, 100); got != 100 {
			t.Errorf("all geki = %f, want 100", got)
		}
		want := 100 * (50 + 2.0/3.0*10 + 20.0/3.0 + 10.0/6.0) / 100
		if got := Accuracy(RulesetMania, 30, 20, 10, 10, 10, 20); !almostEqual(got, want) {
			t.Errorf("mania mixed = %f, want %f", got, want)
		}
	})
}

func TestWarningFlags(t *testing.T) {
	f := WarningNone.With(WarningShortMatch).With(WarningTiedGame)

	if !f.Has(WarningShortMatch) || !f.Has(WarningTiedGame) {
		t.Error("expected both flags set")
	}
	if f.Has(WarningRosterSizeMismatch) {
		t.Error("unset flag reported as set")
	}
	if WarningNone.Has(WarningNone) {
		t.Error("none must never report as set")
	}

	f = f.Without(WarningShortMatch)
	if f.Has(WarningShortMatch) {
		t.Error("expected flag removed")
	}
	if !f.Has(WarningTiedGame) {
		t.Error("unrelated flag lost on removal")
	}

	if got := WarningNone.String(); got != "none" {
		t.Errorf("String() = %q, want none", got)
	}
	combined := WarningShortMatch.With(WarningExcludedScores)
	if got := combined.String(); got != "short_match,excluded_scores" {
		t.Errorf("String() = %q, want short_match,excluded_scores", got)
	}
}

func TestRulesetValid(t *testing.T) {
	for _, r := range AllRulesets() {
		if !r.Valid() {
			t.Errorf("ruleset %d not valid", r)
		}
	}
	if Ruleset(7).Valid() {
		t.Error("out-of-range ruleset reported valid")
	}
}
