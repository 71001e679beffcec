package nakama

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"deckduel/internal/app"
)

// Match label keys. Quick match filters on them.
const (
	labelKeyGame    = "game"
	labelKeyPhase   = "phase"
	labelKeyOpen    = "open"
	labelKeyPrivate = "private"
	labelKeyHost    = "host"
	labelKeyPlayers = "players"
)

// buildLabel renders the match label of a session as JSON.
func buildLabel(info app.SessionInfo) (string, error) {
	label, err := structpb.NewStruct(map[string]interface{}{
		labelKeyGame:    labelGame,
		labelKeyPhase:   string(info.Lifecycle),
		labelKeyOpen:    info.OpenSeats,
		labelKeyPrivate: info.Private,
		labelKeyHost:    info.Host,
		labelKeyPlayers: len(info.Players),
	})
	if err != nil {
		return "", fmt.Errorf("build label: %w", err)
	}
	labelBytes, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", fmt.Errorf("marshal label: %w", err)
	}
	return string(labelBytes), nil
}

// quickMatchQuery finds public waiting matches with a free seat.
func quickMatchQuery() string {
	return fmt.Sprintf("+label.%s:%s +label.%s:%s +label.%s:F +label.%s:>=1",
		labelKeyGame, labelGame, labelKeyPhase, app.LifecycleWaiting, labelKeyPrivate, labelKeyOpen)
}
