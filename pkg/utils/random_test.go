package utils

import "testing"

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if len(a) != 16 {
		t.Errorf("len(GenerateID()) = %d, want 16", len(a))
	}
	if a == b {
		t.Errorf("two IDs collided: %s", a)
	}
}

func TestStringToSeed(t *testing.T) {
	if StringToSeed("forest") != StringToSeed("forest") {
		t.Error("same phrase must give the same seed")
	}
	if StringToSeed("forest") == StringToSeed("desert") {
		t.Error("different phrases should give different seeds")
	}
}
