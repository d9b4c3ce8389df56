package terminal

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/google/go-cmp/cmp"
)

func TestAskHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var answer string
	if err := ask(ctx, &survey.Input{Message: "never shown"}, &answer); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := NewSurveyDriver(&bytes.Buffer{}).Info(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from Info, got %v", err)
	}
}

func TestSurveyDriverInfoWritesLine(t *testing.T) {
	var buf bytes.Buffer
	if err := NewSurveyDriver(&buf).Info(context.Background(), "==> Step 1"); err != nil {
		t.Fatalf("info: %v", err)
	}
	if buf.String() != "==> Step 1\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestLabelsAtSkipsOutOfRange(t *testing.T) {
	got := labelsAt([]string{"UDP", "TCP"}, []int{1, 5, -1, 0})
	if diff := cmp.Diff([]string{"TCP", "UDP"}, got); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}
