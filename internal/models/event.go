package models

// 배틀 채널로 발행되는 이벤트 타입
const (
	EventBotAdded      = "bot_added"
	EventPlayerJoined  = "player_joined"
	EventPlayerReady   = "player_ready"
	EventBattleStarted = "battle_started"
	EventBoxOpened     = "box_opened"
	EventBattleEnded   = "battle_ended"
)

// BattleEvent 배틀 채널 이벤트 (비영속, at-most-once 전달)
type BattleEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// BoxOpenedPayload box_opened 이벤트 내용
type BoxOpenedPayload struct {
	PlayerID string      `json:"playerId"`
	BoxIndex int         `json:"boxIndex"`
	Loot     []*LootItem `json:"loot"`
}

// BattleEndedPayload battle_ended 이벤트 내용
type BattleEndedPayload struct {
	Winners []string `json:"winners"`
}

// PlayerPayload player_joined / player_ready 이벤트 내용
type PlayerPayload struct {
	PlayerID string `json:"playerId"`
}
