package game

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/parlourlabs/holdem/poker"
)

// ErrInvariant marks a fatal consistency failure within a hand. The hand is
// aborted and contributions are returned rather than guessed at.
var ErrInvariant = fmt.Errorf("game invariant violated")

// HandState drives one hand from preflop to settlement. It owns the deck,
// the board, the betting state and the pot partition; the Room serializes
// all calls into it.
type HandState struct {
	ID       string
	Players  []*Player // participants in seat order
	NumSeats int       // table seat count, for clockwise arithmetic
	Button   int
	Poster   int // forced-bet poster, seat left of the button
	Phase    Phase
	Board    []poker.Card
	Deck     *poker.Deck
	Betting  *BettingRound
	Pots     *PotManager

	turn        int // seat holding the turn, -1 during non-action phases
	forcedBet   int
	startStacks map[int]int
	history     []string
	sink        Sink
	logger      *log.Logger
	result      *HandResult
}

// HandResult is the outcome of a settled or aborted hand.
type HandResult struct {
	HandID  string
	Aborted bool
	Payouts map[int]int // chips received from pots, by seat
	Deltas  map[int]int // stack change vs hand start, by seat
}

// HandConfig configures a new hand.
type HandConfig struct {
	ID        string
	Players   []*Player // must all be able to act, in seat order
	NumSeats  int
	Button    int
	ForcedBet int
	Deck      *poker.Deck // optional, for deterministic tests
	RNG       *rand.Rand
	Sink      Sink
	Logger    *log.Logger
}

// NewHand starts a hand: resets players, deals hole cards, posts the forced
// bet and hands the turn to the seat after the poster.
func NewHand(cfg HandConfig) (*HandState, error) {
	if len(cfg.Players) < 2 {
		return nil, fmt.Errorf("need at least 2 players, got %d", len(cfg.Players))
	}
	if cfg.ForcedBet <= 0 {
		return nil, fmt.Errorf("forced bet must be positive, got %d", cfg.ForcedBet)
	}

	deck := cfg.Deck
	if deck == nil {
		rng := cfg.RNG
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		deck = poker.NewDeck(rng)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	h := &HandState{
		ID:          cfg.ID,
		Players:     cfg.Players,
		NumSeats:    cfg.NumSeats,
		Button:      cfg.Button,
		Phase:       Preflop,
		Deck:        deck,
		Pots:        NewPotManager(),
		Betting:     NewBettingRound(cfg.NumSeats, cfg.ForcedBet),
		turn:        -1,
		forcedBet:   cfg.ForcedBet,
		startStacks: make(map[int]int),
		sink:        cfg.Sink,
		logger:      logger.WithPrefix("hand").With("hand", cfg.ID),
	}

	for _, p := range h.Players {
		p.ResetForHand()
		if !p.CanAct() {
			return nil, fmt.Errorf("seat %d cannot join hand in state %s", p.Seat, p.Status)
		}
		h.startStacks[p.Seat] = p.Chips
	}

	for _, p := range h.Players {
		p.HoleCards = h.Deck.Deal(2)
	}

	h.Poster = h.nextActor(h.Button + 1)
	poster := h.playerAt(h.Poster)
	post := min(h.forcedBet, poster.Chips)
	h.commit(poster, post)
	h.addHistory("%s posts %d", poster.Name, post)

	seats := make([]int, 0, len(h.Players))
	for _, p := range h.Players {
		seats = append(seats, p.Seat)
	}
	h.emit(HandStartEvent{
		HandID: h.ID, Button: h.Button, Poster: h.Poster,
		ForcedBet: h.forcedBet, Seats: seats, ts: time.Now(),
	})

	h.turn = h.nextActor(h.Poster + 1)
	if h.turn == -1 || h.Betting.Complete(h.Players, h.Poster) {
		// Posting left nobody with a decision; run the board out.
		h.advancePhase()
	}

	h.logger.Debug("hand started", "button", h.Button, "poster", h.Poster, "players", len(h.Players))
	return h, nil
}

// TurnSeat returns the seat holding the turn, or -1 when no action is
// expected.
func (h *HandState) TurnSeat() int {
	return h.turn
}

// Result returns the outcome once the hand has settled, else nil.
func (h *HandState) Result() *HandResult {
	return h.result
}

// History returns the human-readable action log for the hand.
func (h *HandState) History() []string {
	return h.history
}

// LegalActions returns the legal action set for the current turn holder,
// or nil when no action is expected.
func (h *HandState) LegalActions() []LegalAction {
	if h.turn == -1 {
		return nil
	}
	return h.Betting.LegalActions(h.playerAt(h.turn))
}

// DefaultAction is what the scheduler submits when the turn holder never
// responds: fold facing an unmatched bet, check otherwise.
func (h *HandState) DefaultAction(seat int) Action {
	p := h.playerAt(seat)
	if p == nil || h.Betting.CurrentBet > p.Bet {
		return Action{Kind: Fold, Timestamp: time.Now()}
	}
	return Action{Kind: Check, Timestamp: time.Now()}
}

// Apply validates an action against the current round and player state and
// applies it. This is the single gateway for real, AI and synthetic actions
// alike; once it starts mutating it runs to completion.
func (h *HandState) Apply(seat int, act Action) error {
	return h.apply(seat, act, false)
}

// ApplySynthetic applies a scheduler-generated action. Identical to Apply
// except the emitted event is marked synthetic.
func (h *HandState) ApplySynthetic(seat int, act Action) error {
	return h.apply(seat, act, true)
}

func (h *HandState) apply(seat int, act Action, synthetic bool) error {
	if h.Phase >= Showdown {
		return reject(seat, "hand is %s", h.Phase)
	}
	if h.turn == -1 {
		return reject(seat, "no action expected")
	}
	if seat != h.turn {
		return reject(seat, "not your turn (turn is seat %d)", h.turn)
	}

	p := h.playerAt(seat)
	if p == nil {
		return reject(seat, "not in this hand")
	}
	if !p.CanAct() {
		return reject(seat, "cannot act while %s", p.Status)
	}

	toCall := h.Betting.CurrentBet - p.Bet

	// Validate before any mutation so a rejection leaves the hand intact.
	switch act.Kind {
	case Fold:
	case Check:
		if toCall > 0 {
			return reject(seat, "cannot check, %d to call", toCall)
		}
	case Call:
		if toCall <= 0 {
			return reject(seat, "nothing to call, check instead")
		}
	case Bet:
		maxBet := p.Bet + p.Chips
		if !h.Betting.CanRaise(seat) {
			return reject(seat, "betting was not reopened, call or fold")
		}
		if act.Amount <= h.Betting.CurrentBet {
			return reject(seat, "bet %d must exceed current bet %d", act.Amount, h.Betting.CurrentBet)
		}
		if act.Amount > maxBet {
			return reject(seat, "bet %d exceeds stack (max %d)", act.Amount, maxBet)
		}
		if act.Amount < h.Betting.CurrentBet+h.Betting.MinRaise && act.Amount < maxBet {
			return reject(seat, "raise below minimum %d", h.Betting.CurrentBet+h.Betting.MinRaise)
		}
	default:
		return reject(seat, "unknown action")
	}

	switch act.Kind {
	case Fold:
		p.Status = StatusFolded
		h.addHistory("%s folds", p.Name)

	case Check:
		h.addHistory("%s checks", p.Name)

	case Call:
		pay := min(toCall, p.Chips)
		h.commit(p, pay)
		if p.Status == StatusAllIn && pay < toCall {
			h.addHistory("%s calls %d (all-in)", p.Name, pay)
		} else {
			h.addHistory("%s calls %d", p.Name, pay)
		}

	case Bet:
		fullRaise := act.Amount >= h.Betting.CurrentBet+h.Betting.MinRaise
		if fullRaise {
			h.Betting.MinRaise = act.Amount - h.Betting.CurrentBet
			h.Betting.Reopen(seat)
		} else {
			h.Betting.CapRaises(seat)
		}
		h.Betting.CurrentBet = act.Amount
		h.commit(p, act.Amount-p.Bet)
		if p.Status == StatusAllIn {
			h.addHistory("%s bets %d (all-in)", p.Name, act.Amount)
		} else {
			h.addHistory("%s bets %d", p.Name, act.Amount)
		}
	}

	h.Betting.Acted[seat] = true
	if seat == h.Poster {
		h.Betting.PosterOpt = false
	}

	h.turn = h.nextActor(seat + 1)
	complete := h.turn == -1 || h.Betting.Complete(h.Players, h.Poster)
	if complete {
		h.turn = -1
	}

	h.emit(PlayerActionEvent{
		Seat: seat, Kind: act.Kind, Amount: act.Amount, Synthetic: synthetic,
		PotTotal: h.Pots.Total(), NextTurn: h.turn, ts: time.Now(),
	})

	if complete {
		h.advancePhase()
	}
	return nil
}

// commit moves chips from a player's stack into the pot.
func (h *HandState) commit(p *Player, amount int) {
	p.Chips -= amount
	p.Bet += amount
	p.TotalBet += amount
	h.Pots.Record(p.Seat, amount)
	if p.Chips == 0 {
		p.Status = StatusAllIn
	}
}

// advancePhase closes the street and moves the hand forward. With a single
// contender left it settles immediately without revealing further cards;
// with nobody left to act it runs the remaining board out in one step.
func (h *HandState) advancePhase() {
	h.turn = -1

	if h.countInHand() <= 1 {
		h.settle()
		return
	}

	for _, p := range h.Players {
		p.Bet = 0
	}
	h.Betting.Reset()

	switch h.Phase {
	case Preflop:
		h.Phase = Flop
		h.Board = append(h.Board, h.Deck.Deal(3)...)
	case Flop:
		h.Phase = TurnPhase
		h.Board = append(h.Board, h.Deck.Deal(1)...)
	case TurnPhase:
		h.Phase = River
		h.Board = append(h.Board, h.Deck.Deal(1)...)
	case River:
		h.settle()
		return
	default:
		return
	}

	h.emit(PhaseChangeEvent{Phase: h.Phase, Board: h.boardCopy(), ts: time.Now()})

	if h.Betting.Complete(h.Players, h.Poster) {
		// All-in runout: nobody left with a decision, keep dealing.
		h.advancePhase()
		return
	}

	h.turn = h.nextActor(h.Button + 1)
}

// settle evaluates contenders, pays out every pot and verifies chip
// conservation. It is atomic: once entered it always leaves the hand in
// Settled with either payouts applied or contributions refunded.
func (h *HandState) settle() {
	h.turn = -1

	contenders := h.countInHand()
	if contenders > 1 {
		h.Phase = Showdown
		h.emit(PhaseChangeEvent{Phase: Showdown, Board: h.boardCopy(), ts: time.Now()})
	}

	values := make(map[int]poker.HandValue)
	reveal := make(map[int][]poker.Card)
	if contenders > 1 {
		for _, p := range h.Players {
			if !p.InHand() {
				continue
			}
			v, err := poker.Evaluate(append(append([]poker.Card{}, p.HoleCards...), h.Board...))
			if err != nil {
				h.abort(fmt.Sprintf("evaluating seat %d: %v", p.Seat, err))
				return
			}
			values[p.Seat] = v
			reveal[p.Seat] = p.HoleCards
		}
	}

	payouts := h.Pots.Settle(h.Players, values, h.Poster, h.NumSeats)

	paid := 0
	for _, amt := range payouts {
		paid += amt
	}
	if paid != h.Pots.Total() {
		h.abort(fmt.Sprintf("payouts %d != pot total %d", paid, h.Pots.Total()))
		return
	}

	startTotal := 0
	for _, s := range h.startStacks {
		startTotal += s
	}
	endTotal := paid
	for _, p := range h.Players {
		endTotal += p.Chips
	}
	if startTotal != endTotal {
		h.abort(fmt.Sprintf("chip conservation: started %d, ending %d", startTotal, endTotal))
		return
	}

	deltas := make(map[int]int)
	for seat, amt := range payouts {
		h.playerAt(seat).Chips += amt
	}
	for _, p := range h.Players {
		deltas[p.Seat] = p.Chips - h.startStacks[p.Seat]
		if amt := payouts[p.Seat]; amt > 0 {
			h.addHistory("%s wins %d", p.Name, amt)
		}
	}

	h.Phase = Settled
	h.result = &HandResult{HandID: h.ID, Payouts: payouts, Deltas: deltas}
	h.emit(HandSettledEvent{HandID: h.ID, Payouts: payouts, Deltas: deltas, Reveal: reveal, ts: time.Now()})
	h.logger.Debug("hand settled", "pot", paid, "winners", len(payouts))
}

// abort returns every contribution to its contributor. No ledger deltas are
// produced for an aborted hand.
func (h *HandState) abort(reason string) {
	refunds := make(map[int]int)
	for _, p := range h.Players {
		refund := h.Pots.Contribution(p.Seat)
		p.Chips += refund
		refunds[p.Seat] = refund
	}
	h.Phase = Settled
	h.turn = -1
	h.result = &HandResult{HandID: h.ID, Aborted: true, Payouts: map[int]int{}, Deltas: map[int]int{}}
	h.emit(HandAbortedEvent{HandID: h.ID, Reason: reason, Refunds: refunds, ts: time.Now()})
	h.logger.Error("hand aborted", "reason", reason, "err", ErrInvariant)
}

func (h *HandState) playerAt(seat int) *Player {
	for _, p := range h.Players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

// nextActor finds the next seat clockwise from `from` that can act.
func (h *HandState) nextActor(from int) int {
	for i := 0; i < h.NumSeats; i++ {
		seat := ((from + i) % h.NumSeats + h.NumSeats) % h.NumSeats
		if p := h.playerAt(seat); p != nil && p.CanAct() {
			return seat
		}
	}
	return -1
}

func (h *HandState) countInHand() int {
	n := 0
	for _, p := range h.Players {
		if p.InHand() {
			n++
		}
	}
	return n
}

func (h *HandState) boardCopy() []poker.Card {
	board := make([]poker.Card, len(h.Board))
	copy(board, h.Board)
	return board
}

func (h *HandState) addHistory(format string, args ...any) {
	h.history = append(h.history, fmt.Sprintf(format, args...))
}
