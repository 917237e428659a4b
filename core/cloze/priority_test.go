package cloze

import (
	"errors"
	"testing"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"high", High, false},
		{"Medium", Medium, false},
		{" low ", Low, false},
		{"urgent", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPriority) {
					t.Errorf("ParsePriority(%q) error = %v, want ErrInvalidPriority", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParsePriority(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestPriorityText(t *testing.T) {
	var p Priority
	if err := p.UnmarshalText([]byte("low")); err != nil || p != Low {
		t.Fatalf("UnmarshalText = %v, %v", p, err)
	}
	b, err := High.MarshalText()
	if err != nil || string(b) != "high" {
		t.Errorf("MarshalText = %q, %v", b, err)
	}
	if _, err := Priority(9).MarshalText(); err == nil {
		t.Error("MarshalText should reject an invalid priority")
	}
	if Priority(9).String() != "Priority(9)" {
		t.Errorf("String() = %q", Priority(9).String())
	}
}

func TestPrioritySet(t *testing.T) {
	s := SetOf(High, Medium)
	if !s.Has(High) || !s.Has(Medium) || s.Has(Low) {
		t.Errorf("SetOf(high, medium) = %v", s)
	}
	if s.String() != "high,medium" {
		t.Errorf("String() = %q", s.String())
	}
	if s.With(Low) != AllPriorities || AllPriorities.String() != "all" {
		t.Error("adding low should give the full set")
	}
	if s.Without(High).Without(Medium).String() != "none" {
		t.Error("removing every tier should give none")
	}
	if s.With(Priority(0)) != s {
		t.Error("invalid tiers should be ignored")
	}

	tests := []struct {
		in   string
		want PrioritySet
	}{
		{"all", AllPriorities},
		{"none", 0},
		{"", 0},
		{"low", SetOf(Low)},
		{"high, low", SetOf(High, Low)},
	}
	for _, tt := range tests {
		got, err := ParsePrioritySet(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParsePrioritySet(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParsePrioritySet("high,urgent"); err == nil {
		t.Error("ParsePrioritySet should reject unknown tiers")
	}
}

func TestFeedback(t *testing.T) {
	tests := []struct {
		in    string
		want  Feedback
		delta int
	}{
		{"yes", Yes, 2},
		{"rather-yes", RatherYes, 1},
		{"rather_yes", RatherYes, 1},
		{"neutral", Neutral, 0},
		{"rather-no", RatherNo, -1},
		{"NO", No, -2},
		{"none", FeedbackNone, 0},
	}
	for _, tt := range tests {
		got, err := ParseFeedback(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFeedback(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			continue
		}
		if got.Delta() != tt.delta {
			t.Errorf("%v.Delta() = %d, want %d", got, got.Delta(), tt.delta)
		}
	}
	if _, err := ParseFeedback("maybe"); !errors.Is(err, ErrInvalidFeedback) {
		t.Errorf("ParseFeedback(maybe) error = %v", err)
	}
	if FeedbackNone.IsGrade() || !No.IsGrade() {
		t.Error("IsGrade mismatch")
	}
}
