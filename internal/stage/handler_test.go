package stage

import "testing"

func TestOutcomeHasSkipped(t *testing.T) {
	if (Outcome{}).HasSkipped() {
		t.Fatal("empty outcome must not report skipped inputs")
	}
	if !(Outcome{Skipped: []string{"category lemons missing"}}).HasSkipped() {
		t.Fatal("expected skipped inputs")
	}
}
