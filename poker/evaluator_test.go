package poker

import (
	"testing"
)

func evalValue(t *testing.T, cards string) HandValue {
	t.Helper()
	v, err := Evaluate(MustParseCards(cards))
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", cards, err)
	}
	return v
}

func TestCategoryClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cards    string
		category HandCategory
	}{
		{"As Ks Qs Js Ts", StraightFlush},
		{"5d 4d 3d 2d Ad", StraightFlush}, // steel wheel
		{"9c 9d 9h 9s 2c", FourOfAKind},
		{"9c 9d 9h 2s 2c", FullHouse},
		{"Ah Jh 8h 5h 2h", Flush},
		{"9c 8d 7h 6s 5c", Straight},
		{"5d 4c 3h 2s Ac", Straight}, // wheel
		{"7c 7d 7h Ks 2c", ThreeOfAKind},
		{"7c 7d Kh Ks 2c", TwoPair},
		{"7c 7d Ah Ks 2c", Pair},
		{"Ac Jd 9h 7s 5c", HighCard},
	}

	for _, tt := range tests {
		v := evalValue(t, tt.cards)
		if v.Category != tt.category {
			t.Errorf("%s: got %s, want %s", tt.cards, v.Category, tt.category)
		}
	}
}

func TestCategoryOrderingRegression(t *testing.T) {
	t.Parallel()

	// Ascending strength; every hand must beat all before it.
	ladder := []string{
		"Ac Jd 9h 7s 5c", // high card
		"7c 7d Ah Ks 2c", // pair
		"7c 7d Kh Ks 2c", // two pair
		"7c 7d 7h Ks 2c", // trips
		"9c 8d 7h 6s 5c", // straight
		"Ah Jh 8h 5h 2h", // flush
		"9c 9d 9h 2s 2c", // full house
		"9c 9d 9h 9s 2c", // quads
		"As Ks Qs Js Ts", // straight flush
	}

	for i := 1; i < len(ladder); i++ {
		for j := 0; j < i; j++ {
			hi := evalValue(t, ladder[i])
			lo := evalValue(t, ladder[j])
			if hi.Compare(lo) <= 0 {
				t.Errorf("%s should beat %s", ladder[i], ladder[j])
			}
		}
	}
}

func TestKickersBreakTies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stronger, weaker string
	}{
		{"Ac Ad Kh 7s 5c", "Ac Ad Qh 7s 5c"},     // pair kicker
		{"Kc Kd Kh As 2c", "Kc Kd Kh Qs Jc"},     // trips kicker
		{"9c 8d 7h 6s 5c", "5d 4c 3h 2s Ac"},     // nine-high beats wheel
		{"Ah Jh 8h 5h 3h", "Ah Jh 8h 5h 2h"},     // flush last card
		{"Ac Ad 9h 9s Kc", "Ac Ad 9h 9s Qc"},     // two-pair kicker
		{"Tc Td Th 2s 2c", "9c 9d 9h As Ac"},     // full house by trips
	}

	for _, tt := range tests {
		s := evalValue(t, tt.stronger)
		w := evalValue(t, tt.weaker)
		if s.Compare(w) <= 0 {
			t.Errorf("%s should beat %s", tt.stronger, tt.weaker)
		}
	}
}

func TestExactTieIsSplit(t *testing.T) {
	t.Parallel()

	a := evalValue(t, "9c 8d 7h 6s 5c")
	b := evalValue(t, "9h 8s 7c 6d 5h")
	if a.Compare(b) != 0 {
		t.Errorf("identical straights should tie: %v vs %v", a, b)
	}
}

func TestBestOfSevenUsesBoard(t *testing.T) {
	t.Parallel()

	// Hole cards are irrelevant: the board itself is a straight.
	v := evalValue(t, "2c 2d 9h 8s 7c 6d 5h")
	if v.Category != Straight {
		t.Fatalf("expected straight from board, got %s", v.Category)
	}
	if v.Ranks[0] != Nine {
		t.Errorf("expected nine-high straight, got %v", v.Ranks)
	}

	// Seven cards containing a hidden flush.
	v = evalValue(t, "Ah Kh 2c 7h 9h 3h 3c")
	if v.Category != Flush {
		t.Errorf("expected flush, got %s", v.Category)
	}
}

func TestEvaluateRejectsBadSizes(t *testing.T) {
	t.Parallel()

	if _, err := Evaluate(MustParseCards("Ah Kh 2c 7h")); err == nil {
		t.Error("expected error for 4 cards")
	}
	if _, err := Evaluate(MustParseCards("Ah Kh 2c 7h 9h 3h 3c 4d")); err == nil {
		t.Error("expected error for 8 cards")
	}
}
