package game

// Phase of a hand. Settled is terminal.
type Phase int

const (
	Preflop Phase = iota
	Flop
	TurnPhase
	River
	Showdown
	Settled
)

func (p Phase) String() string {
	return [...]string{"preflop", "flop", "turn", "river", "showdown", "settled"}[p]
}

// BettingRound holds the betting state for one street.
type BettingRound struct {
	CurrentBet int // amount each active player must match this street
	MinRaise   int // minimum increment over CurrentBet for the next bet
	ForcedBet  int // baseline increment, restored each street
	Aggressor  int // seat of the last full raise, -1 if none
	Acted      []bool
	NoRaise    []bool // seats that may only call or fold until the next full raise
	PosterOpt  bool   // preflop: poster still owed their option
}

// NewBettingRound creates betting state for preflop with the forced bet
// already counted as the bet to match. The poster retains the option to
// act even if everyone just calls.
func NewBettingRound(numSeats, forcedBet int) *BettingRound {
	return &BettingRound{
		CurrentBet: forcedBet,
		MinRaise:   forcedBet,
		ForcedBet:  forcedBet,
		Aggressor:  -1,
		Acted:      make([]bool, numSeats),
		NoRaise:    make([]bool, numSeats),
		PosterOpt:  true,
	}
}

// Reset prepares the betting state for a new street.
func (br *BettingRound) Reset() {
	br.CurrentBet = 0
	br.MinRaise = br.ForcedBet
	br.Aggressor = -1
	br.Acted = make([]bool, len(br.Acted))
	br.NoRaise = make([]bool, len(br.NoRaise))
	br.PosterOpt = false
}

// Reopen marks a full raise: everyone else must act again, with full
// raise rights restored.
func (br *BettingRound) Reopen(seat int) {
	for i := range br.Acted {
		br.Acted[i] = false
		br.NoRaise[i] = false
	}
	br.Acted[seat] = true
	br.Aggressor = seat
}

// CapRaises marks a short all-in: it raises the bet to match without
// reopening, so seats that already acted lose the right to raise again.
func (br *BettingRound) CapRaises(allIn int) {
	for i, acted := range br.Acted {
		if acted && i != allIn {
			br.NoRaise[i] = true
		}
	}
}

// CanRaise reports whether a seat still holds raise rights this street.
func (br *BettingRound) CanRaise(seat int) bool {
	return !br.NoRaise[seat]
}

// Complete reports whether the street's betting is closed: every player who
// can still act has matched the current bet and has acted since the last
// full raise. With at most one player left able to act, betting closes as
// soon as that player has matched the bet (nobody remains to respond).
func (br *BettingRound) Complete(players []*Player, poster int) bool {
	actors := 0
	for _, p := range players {
		if p.CanAct() {
			actors++
		}
	}

	if actors <= 1 {
		for _, p := range players {
			if p.CanAct() && p.Bet != br.CurrentBet {
				return false
			}
		}
		return true
	}

	for _, p := range players {
		if !p.CanAct() {
			continue
		}
		if p.Bet != br.CurrentBet {
			return false
		}
		if !br.Acted[p.Seat] {
			return false
		}
	}

	// Preflop the poster keeps the option to act even when everyone has
	// merely called the forced bet; the Acted check above covers it, this
	// guards the case where the poster's seat flag was set by Reopen.
	if br.PosterOpt && br.Aggressor == -1 && !br.Acted[poster] {
		for _, p := range players {
			if p.Seat == poster && p.CanAct() {
				return false
			}
		}
	}

	return true
}

// LegalActions computes the legal action set with bounds for a player.
func (br *BettingRound) LegalActions(p *Player) []LegalAction {
	actions := []LegalAction{{Kind: Fold}}
	toCall := br.CurrentBet - p.Bet

	if toCall <= 0 {
		actions = append(actions, LegalAction{Kind: Check})
	} else {
		actions = append(actions, LegalAction{Kind: Call})
	}

	// A bet must reach CurrentBet+MinRaise unless it is an all-in; the
	// ceiling is always the player's stack. A seat facing a short all-in
	// it has already acted against may only call or fold.
	maxBet := p.Bet + p.Chips
	if maxBet > br.CurrentBet && br.CanRaise(p.Seat) {
		minBet := br.CurrentBet + br.MinRaise
		if minBet > maxBet {
			minBet = maxBet // short all-in
		}
		actions = append(actions, LegalAction{Kind: Bet, Min: minBet, Max: maxBet})
	}

	return actions
}
