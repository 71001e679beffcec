package nakama

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"deckduel/internal/app"
	"deckduel/internal/domain"
)

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name string
		data string
		want domain.Action
	}{
		{"play", `{"kind":"play_card","instance":12}`, domain.PlayCard{Instance: 12}},
		{"buy slot zero", `{"kind":"buy_card"}`, domain.BuyCard{Slot: 0}},
		{"attack player", `{"kind":"attack","target":1,"amount":3}`, domain.Attack{Target: 1, Amount: 3}},
		{"attack base", `{"kind":"attack","target":1,"base":40}`, domain.Attack{Target: 1, Base: 40}},
		{"draw order", `{"kind":"set_draw_order","order":[5,3]}`, domain.SetDrawOrder{Order: []domain.InstanceID{5, 3}}},
		{"end turn", `{"kind":"end_turn"}`, domain.EndTurn{}},
		{"scrap", `{"kind":"scrap_card","instance":7}`, domain.ScrapCard{Instance: 7}},
		{"use base", `{"kind":"use_base","instance":8}`, domain.UseBase{Instance: 8}},
		{"forfeit", `{"kind":"forfeit"}`, domain.Forfeit{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeAction([]byte(tt.data))
			if err != nil {
				t.Fatalf("decodeAction: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
			encoded, err := encodeAction(got)
			if err != nil {
				t.Fatalf("encodeAction: %v", err)
			}
			again, err := decodeAction(encoded)
			if err != nil || !reflect.DeepEqual(again, tt.want) {
				t.Fatalf("re-decoding %s gave %#v, %v", encoded, again, err)
			}
		})
	}
}

func TestDecodeActionRejectsMalformedPayloads(t *testing.T) {
	for _, data := range []string{
		``,
		`not json`,
		`{}`,
		`{"kind":"teleport"}`,
		`{"kind":"end_turn","extra":true}`,
		`{"kind":"play_card","instance":"twelve"}`,
	} {
		t.Run(data, func(t *testing.T) {
			_, err := decodeAction([]byte(data))
			if !errors.Is(err, domain.ErrMalformedPayload) {
				t.Fatalf("expected MALFORMED_PAYLOAD, got %v", err)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrNotYourTurn, "NOT_YOUR_TURN"},
		{fmt.Errorf("wrapped: %w", domain.ErrInvalidTarget), "INVALID_TARGET"},
		{app.ErrMalformedAction, "MALFORMED_PAYLOAD"},
		{app.ErrNotSeated, "NOT_SEATED"},
		{app.ErrNotStarted, "NOT_STARTED"},
		{app.ErrAlreadyStarted, "ALREADY_STARTED"},
		{app.ErrNotEnoughPlayers, "NOT_ENOUGH_PLAYERS"},
		{app.ErrSessionNotFound, "SESSION_NOT_FOUND"},
		{domain.ErrInvariant, "INTERNAL"},
	}
	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Errorf("errorCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
