package service

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Haiikyu/reveelbox-sub005/internal/models"
)

// ItemTemplate 박스 풀에 들어가는 아이템 원형
type ItemTemplate struct {
	Name     string
	ImageURL string
	Rarity   models.Rarity
}

// Box 개봉 가능한 박스 설정
type Box struct {
	Name         string
	Price        int64
	ItemsPerOpen int
	Pool         []ItemTemplate
}

// RarityTier 희귀도별 추첨 가중치와 가치 범위
type RarityTier struct {
	Weight   int
	MinValue int64
	MaxValue int64
}

// Catalogue 박스 인덱스 -> 박스, 희귀도 -> 등급 테이블
// 루트 생성은 전부 이 테이블로 결정된다 (코드에 흩어진 임의 범위 금지)
type Catalogue struct {
	Boxes map[int]Box
	Tiers map[models.Rarity]RarityTier
}

// DefaultCatalogue 기본 박스 카탈로그
// 가중치는 common 60 / rare 25 / epic 12 / legendary 3,
// 가치 범위는 등급당 [MinValue, MaxValue] 균등 분포
func DefaultCatalogue() Catalogue {
	return Catalogue{
		Tiers: map[models.Rarity]RarityTier{
			models.RarityCommon:    {Weight: 60, MinValue: 10, MaxValue: 50},
			models.RarityRare:      {Weight: 25, MinValue: 50, MaxValue: 200},
			models.RarityEpic:      {Weight: 12, MinValue: 200, MaxValue: 800},
			models.RarityLegendary: {Weight: 3, MinValue: 800, MaxValue: 5000},
		},
		Boxes: map[int]Box{
			0: {
				Name:         "Starter Crate",
				Price:        100,
				ItemsPerOpen: 1,
				Pool: []ItemTemplate{
					{Name: "Rusty Dagger", ImageURL: "/items/rusty-dagger.png", Rarity: models.RarityCommon},
					{Name: "Leather Gloves", ImageURL: "/items/leather-gloves.png", Rarity: models.RarityCommon},
					{Name: "Silver Ring", ImageURL: "/items/silver-ring.png", Rarity: models.RarityRare},
					{Name: "Emerald Pendant", ImageURL: "/items/emerald-pendant.png", Rarity: models.RarityEpic},
				},
			},
			1: {
				Name:         "Golden Crate",
				Price:        250,
				ItemsPerOpen: 1,
				Pool: []ItemTemplate{
					{Name: "Gold Coin Stack", ImageURL: "/items/gold-coins.png", Rarity: models.RarityCommon},
					{Name: "Jade Figurine", ImageURL: "/items/jade-figurine.png", Rarity: models.RarityRare},
					{Name: "Phoenix Feather", ImageURL: "/items/phoenix-feather.png", Rarity: models.RarityEpic},
					{Name: "Dragon Scale", ImageURL: "/items/dragon-scale.png", Rarity: models.RarityLegendary},
				},
			},
			2: {
				Name:         "Mythic Crate",
				Price:        500,
				ItemsPerOpen: 2,
				Pool: []ItemTemplate{
					{Name: "Obsidian Shard", ImageURL: "/items/obsidian-shard.png", Rarity: models.RarityCommon},
					{Name: "Runed Tablet", ImageURL: "/items/runed-tablet.png", Rarity: models.RarityRare},
					{Name: "Void Crystal", ImageURL: "/items/void-crystal.png", Rarity: models.RarityEpic},
					{Name: "Crown of Ages", ImageURL: "/items/crown-of-ages.png", Rarity: models.RarityLegendary},
				},
			},
		},
	}
}

// Validate 박스/등급 구성 검증
// 빈 풀이나 등급 테이블에 없는 희귀도는 추첨 단계에서 패닉이므로 생성 시점에 거른다
func (c Catalogue) Validate() error {
	if len(c.Boxes) == 0 {
		return fmt.Errorf("catalogue has no boxes")
	}

	for idx, box := range c.Boxes {
		if box.ItemsPerOpen < 1 {
			return fmt.Errorf("box %d: itemsPerOpen must be at least 1", idx)
		}
		if len(box.Pool) == 0 {
			return fmt.Errorf("box %d: empty item pool", idx)
		}
		for _, template := range box.Pool {
			tier, ok := c.Tiers[template.Rarity]
			if !ok {
				return fmt.Errorf("box %d: no tier configured for rarity %q", idx, template.Rarity)
			}
			if tier.Weight <= 0 {
				return fmt.Errorf("rarity %q: weight must be positive", template.Rarity)
			}
			if tier.MinValue < 0 || tier.MaxValue < tier.MinValue {
				return fmt.Errorf("rarity %q: invalid value range [%d, %d]", template.Rarity, tier.MinValue, tier.MaxValue)
			}
		}
	}

	return nil
}

// LootService 박스 개봉 루트 생성기
type LootService struct {
	catalogue Catalogue

	// rand.Rand는 동시 사용이 안전하지 않다
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLootService 루트 생성기 생성 (rng가 nil이면 시간 시드)
// 잘못 구성된 카탈로그는 여기서 거부한다
func NewLootService(catalogue Catalogue, rng *rand.Rand) (*LootService, error) {
	if err := catalogue.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalogue: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &LootService{
		catalogue: catalogue,
		rng:       rng,
	}, nil
}

// BoxPrice 박스 가격 조회
func (s *LootService) BoxPrice(boxIndex int) (int64, error) {
	box, ok := s.catalogue.Boxes[boxIndex]
	if !ok {
		return 0, ErrInvalidBox
	}
	return box.Price, nil
}

// HasBox 카탈로그에 박스 존재 여부
func (s *LootService) HasBox(boxIndex int) bool {
	_, ok := s.catalogue.Boxes[boxIndex]
	return ok
}

// Generate 박스 개봉. 아이템마다 독립적으로 희귀도 추첨 후 등급 범위에서 가치 추첨
func (s *LootService) Generate(boxIndex int) ([]*models.LootItem, error) {
	box, ok := s.catalogue.Boxes[boxIndex]
	if !ok {
		return nil, ErrInvalidBox
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]*models.LootItem, 0, box.ItemsPerOpen)
	for i := 0; i < box.ItemsPerOpen; i++ {
		rarity := s.drawRarity(box.Pool)
		template := s.pickTemplate(box.Pool, rarity)
		tier := s.catalogue.Tiers[rarity]

		items = append(items, &models.LootItem{
			ID:       uuid.NewString(),
			Name:     template.Name,
			ImageURL: template.ImageURL,
			Value:    tier.MinValue + s.rng.Int63n(tier.MaxValue-tier.MinValue+1),
			Rarity:   rarity,
		})
	}

	return items, nil
}

// drawRarity 풀에 실제로 존재하는 희귀도만 놓고 가중치 추첨
func (s *LootService) drawRarity(pool []ItemTemplate) models.Rarity {
	present := make(map[models.Rarity]bool)
	for _, t := range pool {
		present[t.Rarity] = true
	}

	total := 0
	for rarity, tier := range s.catalogue.Tiers {
		if present[rarity] {
			total += tier.Weight
		}
	}

	roll := s.rng.Intn(total)
	for _, rarity := range rarityOrder {
		tier, ok := s.catalogue.Tiers[rarity]
		if !ok || !present[rarity] {
			continue
		}
		if roll < tier.Weight {
			return rarity
		}
		roll -= tier.Weight
	}

	// total이 present 가중치 합이므로 도달 불가
	return models.RarityCommon
}

// pickTemplate 해당 희귀도의 원형 중 균등 추첨
func (s *LootService) pickTemplate(pool []ItemTemplate, rarity models.Rarity) ItemTemplate {
	candidates := make([]ItemTemplate, 0, len(pool))
	for _, t := range pool {
		if t.Rarity == rarity {
			candidates = append(candidates, t)
		}
	}
	return candidates[s.rng.Intn(len(candidates))]
}

// 추첨 순회 순서 고정 (map 순회 비결정성 제거)
var rarityOrder = []models.Rarity{
	models.RarityCommon,
	models.RarityRare,
	models.RarityEpic,
	models.RarityLegendary,
}
