package power

import (
	"testing"
)

func TestBowls_Gain(t *testing.T) {
	bowls := NewBowls(7, 5, 0)

	if gained := bowls.Gain(5); gained != 5 {
		t.Errorf("Expected to gain 5, got %d", gained)
	}
	if bowls != NewBowls(2, 10, 0) {
		t.Errorf("Expected bowls 2/10/0, got %+v", bowls)
	}

	if gained := bowls.Gain(3); gained != 3 {
		t.Errorf("Expected to gain 3, got %d", gained)
	}
	if bowls != NewBowls(0, 11, 1) {
		t.Errorf("Expected bowls 0/11/1, got %+v", bowls)
	}
}

func TestBowls_GainStopsWhenExhausted(t *testing.T) {
	bowls := NewBowls(1, 1, 10)

	if gained := bowls.Gain(10); gained != 3 {
		t.Errorf("Expected to gain 3, got %d", gained)
	}
	if bowls != NewBowls(0, 0, 12) {
		t.Errorf("Expected all tokens in bowl 3, got %+v", bowls)
	}
	if gained := bowls.Gain(4); gained != 0 {
		t.Errorf("Expected no gain once bowls 1 and 2 are empty, got %d", gained)
	}
}

func TestBowls_GainConservesTokens(t *testing.T) {
	for b1 := 0; b1 <= 6; b1++ {
		for b2 := 0; b2 <= 6; b2++ {
			for b3 := 0; b3 <= 3; b3++ {
				for amount := 0; amount <= 14; amount++ {
					bowls := NewBowls(b1, b2, b3)
					before := bowls.Total()
					gained := bowls.Gain(amount)
					if bowls.Total() != before {
						t.Fatalf("gain %d on %d/%d/%d changed total %d -> %d", amount, b1, b2, b3, before, bowls.Total())
					}
					if gained > amount || gained > b1+b2 {
						t.Fatalf("gain %d on %d/%d/%d reported %d", amount, b1, b2, b3, gained)
					}
					if bowls.Bowl1 < 0 || bowls.Bowl2 < 0 || bowls.Bowl3 < 0 {
						t.Fatalf("negative bowl after gain: %+v", bowls)
					}
				}
			}
		}
	}
}

func TestBowls_Spend(t *testing.T) {
	bowls := NewBowls(2, 7, 3)

	if !bowls.Spend(2) {
		t.Error("Expected to spend 2 power")
	}
	if bowls != NewBowls(4, 7, 1) {
		t.Errorf("Expected bowls 4/7/1, got %+v", bowls)
	}

	if bowls.Spend(2) {
		t.Error("Expected spend of 2 to fail with 1 in bowl 3")
	}
	if bowls != NewBowls(4, 7, 1) {
		t.Errorf("Failed spend must not change bowls, got %+v", bowls)
	}
	if bowls.Spend(-1) {
		t.Error("Expected negative spend to fail")
	}
}

func TestBowls_Burn(t *testing.T) {
	for b2 := 0; b2 <= 9; b2++ {
		for amount := 1; amount <= 5; amount++ {
			bowls := NewBowls(1, b2, 2)
			ok := bowls.Burn(amount)
			if ok != (b2 >= 2*amount) {
				t.Fatalf("burn %d with bowl2=%d: expected success=%v", amount, b2, b2 >= 2*amount)
			}
			if ok {
				if bowls != NewBowls(1, b2-2*amount, 2+amount) {
					t.Fatalf("burn %d with bowl2=%d left %+v", amount, b2, bowls)
				}
			} else if bowls != NewBowls(1, b2, 2) {
				t.Fatalf("failed burn mutated bowls: %+v", bowls)
			}
		}
	}
}

func TestBowls_BurnZeroAndNegative(t *testing.T) {
	bowls := NewBowls(1, 4, 2)
	if !bowls.Burn(0) {
		t.Fatal("expected burning zero to succeed")
	}
	if bowls != NewBowls(1, 4, 2) {
		t.Fatalf("burning zero changed bowls: %+v", bowls)
	}
	if NewBowls(0, 0, 0).CanBurn(0) != true {
		t.Error("expected zero burn with empty bowl 2 to succeed")
	}
	if bowls.Burn(-1) {
		t.Error("expected negative burn to fail")
	}
}

func TestBowls_MaxBurn(t *testing.T) {
	if got := NewBowls(0, 7, 0).MaxBurn(); got != 3 {
		t.Errorf("Expected max burn 3, got %d", got)
	}
	if NewBowls(0, 1, 0).CanBurn(1) {
		t.Error("Expected burn of 1 to need 2 tokens in bowl 2")
	}
}
