package nakama

const (
	// MatchNameDeckDuel is the authoritative match handler name registered with Nakama.
	MatchNameDeckDuel = "deckduel_match"

	RpcCreateGame  = "create_game"
	RpcQuickMatch  = "quick_match"
	RpcInvite      = "invite"
	RpcListGames   = "list_games"
	RpcRecentGames = "recent_games"

	// labelGame tags our matches in the match listing.
	labelGame = "deckduel"

	// envConfigPath names the runtime env key holding the game config file path.
	envConfigPath = "DECKDUEL_CONFIG_PATH"
)

// Op codes for client messages and server messages.
const (
	// Client -> Server
	OpStartGame int64 = 1
	OpAction    int64 = 2
	OpResync    int64 = 3

	// Server -> Client
	OpLobby int64 = 101
	OpView  int64 = 102 // sent privately
	OpError int64 = 103 // sent privately
)

// Error codes used with runtime.NewError, matching gRPC status codes.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codePermissionDenied   = 7
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnavailable        = 14
	codeUnauthenticated    = 16
)
