package nakama

import (
	"encoding/json"
	"strings"
	"testing"

	"deckduel/internal/app"
)

func TestBuildLabel(t *testing.T) {
	tests := []struct {
		name string
		info app.SessionInfo
		want map[string]any
	}{
		{
			name: "Waiting",
			info: app.SessionInfo{Lifecycle: app.LifecycleWaiting, Host: "alice", Players: []string{"alice"}, OpenSeats: 3},
			want: map[string]any{"game": "deckduel", "phase": "waiting", "open": 3.0, "private": false, "host": "alice", "players": 1.0},
		},
		{
			name: "PrivatePlaying",
			info: app.SessionInfo{Lifecycle: app.LifecyclePlaying, Host: "bob", Players: []string{"bob", "carol"}, Private: true},
			want: map[string]any{"game": "deckduel", "phase": "playing", "open": 0.0, "private": true, "host": "bob", "players": 2.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, err := buildLabel(tt.info)
			if err != nil {
				t.Fatalf("buildLabel: %v", err)
			}
			var got map[string]any
			if err := json.Unmarshal([]byte(label), &got); err != nil {
				t.Fatalf("label is not JSON: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("label[%s] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestQuickMatchQuery(t *testing.T) {
	q := quickMatchQuery()
	for _, part := range []string{"+label.game:deckduel", "+label.phase:waiting", "+label.private:F", "+label.open:>=1"} {
		if !strings.Contains(q, part) {
			t.Fatalf("query %q is missing %q", q, part)
		}
	}
}
