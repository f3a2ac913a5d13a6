package errors

import "testing"

func TestRegistryCoversEveryPhase(t *testing.T) {
	wantPhases := map[string]bool{
		"lexer": false, "parser": false, "resolve": false, "check": false,
		"lower": false, "ssa": false, "emit": false, "driver": false,
	}
	for _, info := range Registry {
		if _, ok := wantPhases[info.Phase]; ok {
			wantPhases[info.Phase] = true
		}
	}
	for phase, seen := range wantPhases {
		if !seen {
			t.Errorf("no registered error code for phase %q", phase)
		}
	}
}

func TestInfoLookup(t *testing.T) {
	info, ok := Info(SEM004)
	if !ok {
		t.Fatalf("expected SEM004 to be registered")
	}
	if info.Phase != "check" {
		t.Errorf("SEM004 phase = %q, want %q", info.Phase, "check")
	}

	if _, ok := Info("NOPE999"); ok {
		t.Errorf("expected unknown code to be absent")
	}
}

func TestPhaseHelper(t *testing.T) {
	if got := Phase(KIR001); got != "lower" {
		t.Errorf("Phase(KIR001) = %q, want %q", got, "lower")
	}
	if got := Phase("bogus"); got != "" {
		t.Errorf("Phase(bogus) = %q, want empty", got)
	}
}
