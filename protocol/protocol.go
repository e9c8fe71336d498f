package protocol

// client -> server
const (
	MsgJoin          = "join"
	MsgPosition      = "position"
	MsgCollectOrb    = "collect_orb"
	MsgPlayerDied    = "player_died"
	MsgShotgunShot   = "shotgun_shot"
	MsgPlayerDamaged = "player_damaged"
	MsgClaimRuler    = "claim_ruler"
	MsgRequestWorld  = "request_world"
	MsgResetGame     = "reset_game"
	MsgSignal        = "signal"
)

// server -> client. position, shotgun_shot, player_damaged and signal are
// reused in this direction.
const (
	MsgRoomInfo     = "room_info"
	MsgWorldData    = "world_data"
	MsgPlayerList   = "player_list"
	MsgPlayerJoined = "player_joined"
	MsgPlayerLeft   = "player_left"
	MsgOrbCollected = "orb_collected"
	MsgOrbsDropped  = "orbs_dropped"
	MsgRulerClaimed = "ruler_claimed"
	MsgRulerCleared = "ruler_cleared"
	MsgGameReset    = "game_reset"
	MsgError        = "error"
)

const MaxUsernameLen = 24
