package models

type Rarity string

// 희귀도 등급 (오름차순)
const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

type LootItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Value    int64  `json:"value"`
	Rarity   Rarity `json:"rarity"`
}
