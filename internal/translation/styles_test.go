package translation

import "testing"

func TestStyleForKnownStyles(t *testing.T) {
	t.Parallel()

	for _, name := range StyleNames() {
		tpl := styleFor(name)
		if tpl.instruction == "" {
			t.Fatalf("style %q has no instruction", name)
		}
		if tpl.temperature <= 0 || tpl.temperature > 1 {
			t.Fatalf("style %q has temperature %v outside (0, 1]", name, tpl.temperature)
		}
	}
}

func TestStyleForUnknownFallsBackToGeneral(t *testing.T) {
	t.Parallel()

	general := styleFor(DefaultStyle)
	for _, name := range []string{"", "shakespearean", "  FORMAL-ish  ", "42"} {
		tpl := styleFor(name)
		if tpl != general {
			t.Fatalf("style %q did not fall back to general", name)
		}
	}

	if styleFor(" Formal ") == general {
		t.Fatal("trimmed case-insensitive lookup failed for formal")
	}
}
