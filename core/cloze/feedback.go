package cloze

import (
	"encoding"
	"fmt"
	"strings"
)

// Feedback is the learner's self-assessment after revealing an annotation.
type Feedback int

const (
	FeedbackNone Feedback = iota // No feedback recorded.
	Yes                          // Recalled.
	RatherYes                    // Mostly recalled.
	Neutral                      // Unsure.
	RatherNo                     // Mostly forgotten.
	No                           // Forgotten.
)

var (
	feedbackNames  = [...]string{FeedbackNone: "none", Yes: "yes", RatherYes: "rather-yes", Neutral: "neutral", RatherNo: "rather-no", No: "no"}
	feedbackByName = map[string]Feedback{
		"none":       FeedbackNone,
		"yes":        Yes,
		"rather-yes": RatherYes,
		"neutral":    Neutral,
		"rather-no":  RatherNo,
		"no":         No,
	}
	feedbackDelta = [...]int{FeedbackNone: 0, Yes: 2, RatherYes: 1, Neutral: 0, RatherNo: -1, No: -2}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Feedback(0)
	_ encoding.TextMarshaler   = Feedback(0)
	_ encoding.TextUnmarshaler = (*Feedback)(nil)
)

func (f Feedback) isValid() bool {
	return f >= FeedbackNone && f <= No
}

// IsGrade reports whether f is a feedback kind that can be applied
// (everything except FeedbackNone).
func (f Feedback) IsGrade() bool {
	return f >= Yes && f <= No
}

// Delta is the score change applied by this feedback.
func (f Feedback) Delta() int {
	if !f.isValid() {
		return 0
	}
	return feedbackDelta[f]
}

// String returns the attribute form, e.g. "rather-yes".
func (f Feedback) String() string {
	if f.isValid() {
		return feedbackNames[f]
	}
	return fmt.Sprintf("Feedback(%d)", int(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f Feedback) MarshalText() ([]byte, error) {
	if !f.isValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFeedback, int(f))
	}
	return []byte(feedbackNames[f]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Feedback) UnmarshalText(text []byte) error {
	v, err := ParseFeedback(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseFeedback parses a feedback name. Underscores are accepted in place of
// hyphens ("rather_yes").
func ParseFeedback(s string) (Feedback, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	v, ok := feedbackByName[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFeedback, s)
	}
	return v, nil
}
