package poker

import (
	"fmt"
	"sort"
)

// HandCategory enumerates the standard hand categories, weakest first.
type HandCategory uint8

const (
	HighCard HandCategory = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns a human-readable category name.
func (c HandCategory) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandValue is the total-order key for a 5-card hand: category first, then
// tiebreak ranks in descending significance. Equal values are a split.
type HandValue struct {
	Category HandCategory
	Ranks    [5]Rank
}

// Compare returns >0 if v beats o, <0 if o beats v, 0 on a tie.
func (v HandValue) Compare(o HandValue) int {
	if v.Category != o.Category {
		return int(v.Category) - int(o.Category)
	}
	for i := range v.Ranks {
		if v.Ranks[i] != o.Ranks[i] {
			return int(v.Ranks[i]) - int(o.Ranks[i])
		}
	}
	return 0
}

func (v HandValue) String() string {
	return fmt.Sprintf("%s %v", v.Category, v.Ranks)
}

// Evaluate finds the best 5-card hand from 5 to 7 cards by enumerating
// every 5-card combination.
func Evaluate(cards []Card) (HandValue, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return HandValue{}, fmt.Errorf("evaluate needs 5-7 cards, got %d", len(cards))
	}

	var best HandValue
	first := true

	n := len(cards)
	var combo [5]Card
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						combo[0], combo[1], combo[2], combo[3], combo[4] =
							cards[a], cards[b], cards[c], cards[d], cards[e]
						v := evaluate5(combo)
						if first || v.Compare(best) > 0 {
							best = v
							first = false
						}
					}
				}
			}
		}
	}

	return best, nil
}

// evaluate5 classifies exactly five cards.
func evaluate5(cards [5]Card) HandValue {
	ranks := make([]Rank, 5)
	flush := true
	for i, c := range cards {
		ranks[i] = c.Rank
		if c.Suit != cards[0].Suit {
			flush = false
		}
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })

	straightHigh, straight := straightHighCard(ranks)

	if straight && flush {
		return HandValue{Category: StraightFlush, Ranks: [5]Rank{straightHigh}}
	}

	// Group ranks by multiplicity, largest groups first, then rank.
	counts := map[Rank]int{}
	for _, r := range ranks {
		counts[r]++
	}
	type group struct {
		rank  Rank
		count int
	}
	groups := make([]group, 0, 5)
	for r, n := range counts {
		groups = append(groups, group{rank: r, count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	var key [5]Rank
	i := 0
	for _, g := range groups {
		for n := 0; n < g.count && i < 5; n++ {
			key[i] = g.rank
			i++
		}
	}

	switch {
	case groups[0].count == 4:
		return HandValue{Category: FourOfAKind, Ranks: key}
	case groups[0].count == 3 && groups[1].count == 2:
		return HandValue{Category: FullHouse, Ranks: key}
	case flush:
		copy(key[:], ranks)
		return HandValue{Category: Flush, Ranks: key}
	case straight:
		return HandValue{Category: Straight, Ranks: [5]Rank{straightHigh}}
	case groups[0].count == 3:
		return HandValue{Category: ThreeOfAKind, Ranks: key}
	case groups[0].count == 2 && groups[1].count == 2:
		return HandValue{Category: TwoPair, Ranks: key}
	case groups[0].count == 2:
		return HandValue{Category: Pair, Ranks: key}
	default:
		copy(key[:], ranks)
		return HandValue{Category: HighCard, Ranks: key}
	}
}

// straightHighCard reports whether the sorted-descending ranks form a
// straight and returns its high card. The ace plays low only in A-5-4-3-2,
// which ranks below every other straight with a high card of Five.
func straightHighCard(ranks []Rank) (Rank, bool) {
	distinct := true
	for i := 1; i < len(ranks); i++ {
		if ranks[i] == ranks[i-1] {
			distinct = false
			break
		}
	}
	if !distinct {
		return 0, false
	}

	run := true
	for i := 1; i < len(ranks); i++ {
		if ranks[i-1]-ranks[i] != 1 {
			run = false
			break
		}
	}
	if run {
		return ranks[0], true
	}

	// Wheel: A 5 4 3 2.
	if ranks[0] == Ace && ranks[1] == Five && ranks[2] == Four && ranks[3] == Three && ranks[4] == Two {
		return Five, true
	}

	return 0, false
}
