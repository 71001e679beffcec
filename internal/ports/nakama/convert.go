package nakama

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"deckduel/internal/app"
	"deckduel/internal/domain"
	"deckduel/internal/view"
)

// actionEnvelope is the wire form of a client action.
type actionEnvelope struct {
	Kind     domain.ActionKind `json:"kind"`
	Instance int               `json:"instance,omitempty"`
	Slot     int               `json:"slot,omitempty"`
	Target   int               `json:"target,omitempty"`
	Base     int               `json:"base,omitempty"`
	Amount   int               `json:"amount,omitempty"`
	Order    []int             `json:"order,omitempty"`
}

func malformed(format string, args ...any) error {
	return &domain.Rejection{Code: domain.CodeMalformedPayload, Message: fmt.Sprintf(format, args...)}
}

// decodeAction parses a client action. Errors are MALFORMED_PAYLOAD rejections.
func decodeAction(data []byte) (domain.Action, error) {
	var env actionEnvelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return nil, malformed("decode action: %v", err)
	}

	switch env.Kind {
	case domain.ActionPlayCard:
		return domain.PlayCard{Instance: domain.InstanceID(env.Instance)}, nil
	case domain.ActionBuyCard:
		return domain.BuyCard{Slot: env.Slot}, nil
	case domain.ActionAttack:
		return domain.Attack{Target: env.Target, Base: domain.InstanceID(env.Base), Amount: env.Amount}, nil
	case domain.ActionSetDrawOrder:
		order := make([]domain.InstanceID, len(env.Order))
		for i, id := range env.Order {
			order[i] = domain.InstanceID(id)
		}
		return domain.SetDrawOrder{Order: order}, nil
	case domain.ActionEndTurn:
		return domain.EndTurn{}, nil
	case domain.ActionScrapCard:
		return domain.ScrapCard{Instance: domain.InstanceID(env.Instance)}, nil
	case domain.ActionUseBase:
		return domain.UseBase{Instance: domain.InstanceID(env.Instance)}, nil
	case domain.ActionForfeit:
		return domain.Forfeit{}, nil
	case "":
		return nil, malformed("action kind is missing")
	default:
		return nil, malformed("unknown action kind %q", env.Kind)
	}
}

// encodeAction is the inverse of decodeAction.
func encodeAction(a domain.Action) ([]byte, error) {
	env := actionEnvelope{Kind: a.Kind()}
	switch a := a.(type) {
	case domain.PlayCard:
		env.Instance = int(a.Instance)
	case domain.BuyCard:
		env.Slot = a.Slot
	case domain.Attack:
		env.Target, env.Base, env.Amount = a.Target, int(a.Base), a.Amount
	case domain.SetDrawOrder:
		for _, id := range a.Order {
			env.Order = append(env.Order, int(id))
		}
	case domain.ScrapCard:
		env.Instance = int(a.Instance)
	case domain.UseBase:
		env.Instance = int(a.Instance)
	}
	return json.Marshal(env)
}

// viewMessage carries either a full snapshot or a delta for one recipient.
type viewMessage struct {
	Seat     int            `json:"seat"`
	Snapshot *view.Snapshot `json:"snapshot,omitempty"`
	Delta    *view.Delta    `json:"delta,omitempty"`
}

type errorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type lobbyMessage struct {
	SessionID  string        `json:"session_id"`
	Lifecycle  app.Lifecycle `json:"lifecycle"`
	Host       string        `json:"host"`
	Players    []string      `json:"players"`
	Spectators []string      `json:"spectators"`
	OpenSeats  int           `json:"open_seats"`
	Winner     int           `json:"winner"`
	Failure    string        `json:"failure,omitempty"`
}

func lobbyFromInfo(info app.SessionInfo) lobbyMessage {
	return lobbyMessage{
		SessionID:  info.ID,
		Lifecycle:  info.Lifecycle,
		Host:       info.Host,
		Players:    info.Players,
		Spectators: info.Spectators,
		OpenSeats:  info.OpenSeats,
		Winner:     info.Winner,
		Failure:    info.Failure,
	}
}

// errorCode maps an error from the session manager to the code sent to clients.
func errorCode(err error) string {
	if r, ok := domain.AsRejection(err); ok {
		return string(r.Code)
	}
	switch {
	case errors.Is(err, app.ErrMalformedAction):
		return string(domain.CodeMalformedPayload)
	case errors.Is(err, app.ErrNotSeated):
		return "NOT_SEATED"
	case errors.Is(err, app.ErrNotStarted):
		return "NOT_STARTED"
	case errors.Is(err, app.ErrAlreadyStarted):
		return "ALREADY_STARTED"
	case errors.Is(err, app.ErrNotEnoughPlayers):
		return "NOT_ENOUGH_PLAYERS"
	case errors.Is(err, app.ErrSessionNotFound):
		return "SESSION_NOT_FOUND"
	default:
		return "INTERNAL"
	}
}
