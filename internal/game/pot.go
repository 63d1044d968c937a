package game

import (
	"sort"

	"github.com/parlourlabs/holdem/poker"
)

// Pot is a main or side pot with the seats eligible to win it.
type Pot struct {
	Amount   int
	Eligible []int
}

// PotManager tracks per-seat contributions for one hand and computes the
// pot partition and payouts at settlement. Folded players keep no claim on
// any pot but their contributed chips stay in the pots they fed.
type PotManager struct {
	contributions map[int]int
}

// NewPotManager creates an empty pot manager.
func NewPotManager() *PotManager {
	return &PotManager{contributions: make(map[int]int)}
}

// Record adds a chip contribution for a seat.
func (pm *PotManager) Record(seat, amount int) {
	pm.contributions[seat] += amount
}

// Contribution returns the total contributed by a seat this hand.
func (pm *PotManager) Contribution(seat int) int {
	return pm.contributions[seat]
}

// Total returns all chips contributed this hand.
func (pm *PotManager) Total() int {
	total := 0
	for _, amt := range pm.contributions {
		total += amt
	}
	return total
}

// Build partitions contributions into a main pot and side pots. Boundaries
// are the distinct contribution totals of players still in the hand, walked
// in ascending order; each pot takes the incremental contribution of every
// seat that contributed past the previous boundary.
func (pm *PotManager) Build(players []*Player) []Pot {
	inHand := func(seat int) bool {
		for _, p := range players {
			if p.Seat == seat {
				return p.InHand()
			}
		}
		return false
	}

	levelSet := map[int]bool{}
	for seat, amt := range pm.contributions {
		if amt > 0 && inHand(seat) {
			levelSet[amt] = true
		}
	}
	levels := make([]int, 0, len(levelSet))
	for l := range levelSet {
		levels = append(levels, l)
	}
	sort.Ints(levels)

	var pots []Pot
	prev := 0
	for _, level := range levels {
		pot := Pot{}
		for seat, amt := range pm.contributions {
			slice := min(amt, level) - min(amt, prev)
			if slice > 0 {
				pot.Amount += slice
			}
			if amt >= level && inHand(seat) {
				pot.Eligible = append(pot.Eligible, seat)
			}
		}
		sort.Ints(pot.Eligible)
		if pot.Amount > 0 && len(pot.Eligible) > 0 {
			pots = append(pots, pot)
		}
		prev = level
	}

	// Chips above the highest in-hand level (e.g. a folded over-bettor)
	// have no eligible claimant beyond the last pot; fold them into it.
	excess := 0
	for _, amt := range pm.contributions {
		if amt > prev {
			excess += amt - prev
		}
	}
	if excess > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += excess
	}

	return pots
}

// Settle pays each pot to the best eligible hand among its contributors and
// returns payouts by seat. Split pots divide evenly; remainder chips go one
// at a time clockwise from the first eligible seat after the poster.
func (pm *PotManager) Settle(players []*Player, values map[int]poker.HandValue, poster, numSeats int) map[int]int {
	payouts := make(map[int]int)

	for _, pot := range pm.Build(players) {
		winners := potWinners(pot, values)
		if len(winners) == 0 {
			continue
		}

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		for _, seat := range winners {
			payouts[seat] += share
		}
		for _, seat := range clockwiseFrom(poster+1, numSeats, winners) {
			if remainder == 0 {
				break
			}
			payouts[seat]++
			remainder--
		}
	}

	return payouts
}

// potWinners finds the best eligible hand(s) for one pot. With a single
// eligible seat (everyone else folded) no evaluation is needed.
func potWinners(pot Pot, values map[int]poker.HandValue) []int {
	if len(pot.Eligible) == 1 {
		return pot.Eligible
	}

	var best poker.HandValue
	var winners []int
	for _, seat := range pot.Eligible {
		v, ok := values[seat]
		if !ok {
			continue
		}
		if len(winners) == 0 || v.Compare(best) > 0 {
			best = v
			winners = []int{seat}
		} else if v.Compare(best) == 0 {
			winners = append(winners, seat)
		}
	}
	return winners
}

// clockwiseFrom orders the given seats clockwise starting at seat start.
func clockwiseFrom(start, numSeats int, seats []int) []int {
	member := make(map[int]bool, len(seats))
	for _, s := range seats {
		member[s] = true
	}
	ordered := make([]int, 0, len(seats))
	for i := 0; i < numSeats; i++ {
		seat := (start + i) % numSeats
		if member[seat] {
			ordered = append(ordered, seat)
		}
	}
	return ordered
}
