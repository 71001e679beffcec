package domain

import (
	"errors"
	"testing"
)

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		prep func(g *Game) (player int, a Action)
		code RejectionCode
	}{
		{
			name: "play on opponent's turn",
			prep: func(g *Game) (int, Action) { return 1, PlayCard{Instance: g.Players[1].Hand[0]} },
			code: CodeNotYourTurn,
		},
		{
			name: "turn ownership is checked before phase",
			prep: func(g *Game) (int, Action) {
				g.Phase = PhaseDrawOrder
				return 1, EndTurn{}
			},
			code: CodeNotYourTurn,
		},
		{
			name: "nil action",
			prep: func(g *Game) (int, Action) { return 0, nil },
			code: CodeMalformedPayload,
		},
		{
			name: "zero instance",
			prep: func(g *Game) (int, Action) { return 0, PlayCard{} },
			code: CodeMalformedPayload,
		},
		{
			name: "play card from opponent's hand",
			prep: func(g *Game) (int, Action) { return 0, PlayCard{Instance: g.Players[1].Hand[0]} },
			code: CodeUnknownCardInstance,
		},
		{
			name: "play card missing from catalog",
			prep: func(g *Game) (int, Action) { return 0, PlayCard{Instance: giveHand(g, 0, "ghost")} },
			code: CodeUnknownCardInstance,
		},
		{
			name: "play during draw order",
			prep: func(g *Game) (int, Action) {
				g.Phase = PhaseDrawOrder
				return 0, PlayCard{Instance: g.Players[0].Hand[0]}
			},
			code: CodeWrongPhase,
		},
		{
			name: "buy slot out of range",
			prep: func(g *Game) (int, Action) { return 0, BuyCard{Slot: 5} },
			code: CodeMalformedPayload,
		},
		{
			name: "buy without trade",
			prep: func(g *Game) (int, Action) {
				putTradeRow(g, 1, "wall")
				g.Players[0].Trade = 2
				return 0, BuyCard{Slot: 1}
			},
			code: CodeInsufficientResource,
		},
		{
			name: "attack without combat",
			prep: func(g *Game) (int, Action) { return 0, Attack{Target: 1} },
			code: CodeInsufficientResource,
		},
		{
			name: "payload is checked before resources",
			prep: func(g *Game) (int, Action) { return 0, Attack{Target: 1, Amount: -1} },
			code: CodeMalformedPayload,
		},
		{
			name: "attack more than combat",
			prep: func(g *Game) (int, Action) {
				g.Players[0].Combat = 2
				return 0, Attack{Target: 1, Amount: 3}
			},
			code: CodeInsufficientResource,
		},
		{
			name: "attack self",
			prep: func(g *Game) (int, Action) {
				g.Players[0].Combat = 2
				return 0, Attack{Target: 0}
			},
			code: CodeInvalidTarget,
		},
		{
			name: "attack missing seat",
			prep: func(g *Game) (int, Action) {
				g.Players[0].Combat = 2
				return 0, Attack{Target: 4}
			},
			code: CodeInvalidTarget,
		},
		{
			name: "attack own base",
			prep: func(g *Game) (int, Action) {
				g.Players[0].Combat = 2
				return 0, Attack{Target: 1, Base: giveBase(g, 0, "barracks")}
			},
			code: CodeInvalidTarget,
		},
		{
			name: "attack unknown base",
			prep: func(g *Game) (int, Action) {
				g.Players[0].Combat = 2
				return 0, Attack{Target: 1, Base: 999}
			},
			code: CodeUnknownCardInstance,
		},
		{
			name: "attack a card in hand",
			prep: func(g *Game) (int, Action) {
				g.Players[0].Combat = 2
				return 0, Attack{Target: 1, Base: g.Players[1].Hand[0]}
			},
			code: CodeInvalidTarget,
		},
		{
			name: "set draw order outside draw phase",
			prep: func(g *Game) (int, Action) { return 0, SetDrawOrder{Order: []InstanceID{1}} },
			code: CodeWrongPhase,
		},
		{
			name: "empty draw order",
			prep: func(g *Game) (int, Action) {
				g.Phase = PhaseDrawOrder
				return 0, SetDrawOrder{}
			},
			code: CodeMalformedPayload,
		},
		{
			name: "use base not owned",
			prep: func(g *Game) (int, Action) { return 0, UseBase{Instance: giveBase(g, 1, "barracks")} },
			code: CodeUnknownCardInstance,
		},
		{
			name: "scrap card in hand",
			prep: func(g *Game) (int, Action) { return 0, ScrapCard{Instance: giveHand(g, 0, "explorer")} },
			code: CodeUnknownCardInstance,
		},
		{
			name: "end turn in combat",
			prep: func(g *Game) (int, Action) {
				g.Phase = PhaseCombat
				return 0, EndTurn{}
			},
			code: CodeWrongPhase,
		},
		{
			name: "unseated player",
			prep: func(g *Game) (int, Action) { return 7, Forfeit{} },
			code: CodeInvalidTarget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t)
			player, a := tt.prep(g)
			err := Validate(g, testCatalog, player, a)
			r, ok := AsRejection(err)
			if !ok {
				t.Fatalf("expected rejection %s, got %v", tt.code, err)
			}
			if r.Code != tt.code {
				t.Fatalf("expected %s, got %s (%s)", tt.code, r.Code, r.Message)
			}
		})
	}
}

func TestNotYourTurnLeavesGameUnchanged(t *testing.T) {
	g := newTestGame(t)
	requireRejected(t, g, 1, PlayCard{Instance: g.Players[1].Hand[0]}, CodeNotYourTurn)
}

func TestRejectionMatchesByCode(t *testing.T) {
	g := newTestGame(t)
	err := Validate(g, testCatalog, 1, EndTurn{})
	if !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected errors.Is to match ErrNotYourTurn, got %v", err)
	}
	if errors.Is(err, ErrWrongPhase) {
		t.Fatalf("rejection matched a different code")
	}
	if Validate(g, testCatalog, 0, EndTurn{}) != nil {
		t.Fatalf("end turn by the active player should be legal")
	}
}
