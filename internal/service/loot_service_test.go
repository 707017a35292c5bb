package service

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/Haiikyu/reveelbox-sub005/internal/models"
)

// newLootService 기본 카탈로그 + 고정 시드 루트 생성기
func newLootService(t *testing.T, seed int64) *LootService {
	t.Helper()
	svc, err := NewLootService(DefaultCatalogue(), rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewLootService() error = %v", err)
	}
	return svc
}

func TestNewLootService_RejectsInvalidCatalogue(t *testing.T) {
	tests := []struct {
		name      string
		catalogue Catalogue
		wantIn    string
	}{
		{
			name:      "no boxes",
			catalogue: Catalogue{Tiers: DefaultCatalogue().Tiers},
			wantIn:    "no boxes",
		},
		{
			name: "empty pool",
			catalogue: Catalogue{
				Tiers: DefaultCatalogue().Tiers,
				Boxes: map[int]Box{
					0: {Name: "Empty Crate", Price: 100, ItemsPerOpen: 1},
				},
			},
			wantIn: "empty item pool",
		},
		{
			name: "pool rarity without tier",
			catalogue: Catalogue{
				Tiers: map[models.Rarity]RarityTier{
					models.RarityCommon: {Weight: 60, MinValue: 10, MaxValue: 50},
				},
				Boxes: map[int]Box{
					0: {
						Name:         "Mismatched Crate",
						Price:        100,
						ItemsPerOpen: 1,
						Pool: []ItemTemplate{
							{Name: "Dragon Scale", Rarity: models.RarityLegendary},
						},
					},
				},
			},
			wantIn: "no tier configured",
		},
		{
			name: "zero items per open",
			catalogue: Catalogue{
				Tiers: DefaultCatalogue().Tiers,
				Boxes: map[int]Box{
					0: {
						Name:  "Hollow Crate",
						Price: 100,
						Pool: []ItemTemplate{
							{Name: "Rusty Dagger", Rarity: models.RarityCommon},
						},
					},
				},
			},
			wantIn: "itemsPerOpen",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLootService(tt.catalogue, rand.New(rand.NewSource(1)))
			if err == nil {
				t.Fatal("NewLootService() accepted an invalid catalogue")
			}
			if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("NewLootService() error = %v, want mention of %q", err, tt.wantIn)
			}
		})
	}

	if _, err := NewLootService(DefaultCatalogue(), nil); err != nil {
		t.Errorf("NewLootService(DefaultCatalogue()) error = %v, want nil", err)
	}
}

func TestLootService_Generate_InvalidBox(t *testing.T) {
	svc := newLootService(t, 1)

	items, err := svc.Generate(999)
	if !errors.Is(err, ErrInvalidBox) {
		t.Fatalf("Generate(999) error = %v, want ErrInvalidBox", err)
	}
	if items != nil {
		t.Errorf("Generate(999) returned items on error: %v", items)
	}
}

func TestLootService_Generate_ItemCount(t *testing.T) {
	catalogue := DefaultCatalogue()
	svc := newLootService(t, 7)

	for boxIndex, box := range catalogue.Boxes {
		items, err := svc.Generate(boxIndex)
		if err != nil {
			t.Fatalf("Generate(%d) error = %v", boxIndex, err)
		}
		if len(items) != box.ItemsPerOpen {
			t.Errorf("Generate(%d) produced %d items, want %d", boxIndex, len(items), box.ItemsPerOpen)
		}
	}
}

func TestLootService_Generate_ValuesWithinTierRange(t *testing.T) {
	catalogue := DefaultCatalogue()
	svc := newLootService(t, 42)

	for i := 0; i < 500; i++ {
		items, err := svc.Generate(1)
		if err != nil {
			t.Fatalf("Generate(1) error = %v", err)
		}

		for _, item := range items {
			tier, ok := catalogue.Tiers[item.Rarity]
			if !ok {
				t.Fatalf("item has unknown rarity %q", item.Rarity)
			}
			if item.Value < tier.MinValue || item.Value > tier.MaxValue {
				t.Errorf("item %q value %d outside [%d, %d] for rarity %s",
					item.Name, item.Value, tier.MinValue, tier.MaxValue, item.Rarity)
			}
			if item.ID == "" {
				t.Error("item generated without id")
			}
		}
	}
}

func TestLootService_Generate_DeterministicUnderSeed(t *testing.T) {
	gen := func(seed int64) []*models.LootItem {
		svc := newLootService(t, seed)
		var all []*models.LootItem
		for i := 0; i < 20; i++ {
			items, err := svc.Generate(2)
			if err != nil {
				t.Fatalf("Generate(2) error = %v", err)
			}
			all = append(all, items...)
		}
		return all
	}

	first := gen(99)
	second := gen(99)

	if len(first) != len(second) {
		t.Fatalf("runs produced different item counts: %d vs %d", len(first), len(second))
	}

	for i := range first {
		if first[i].Name != second[i].Name ||
			first[i].Rarity != second[i].Rarity ||
			first[i].Value != second[i].Value {
			t.Errorf("item %d differs between seeded runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestLootService_Generate_RarityDistribution(t *testing.T) {
	svc := newLootService(t, 123)

	counts := make(map[models.Rarity]int)
	const draws = 10000
	for i := 0; i < draws; i++ {
		items, err := svc.Generate(1)
		if err != nil {
			t.Fatalf("Generate(1) error = %v", err)
		}
		for _, item := range items {
			counts[item.Rarity]++
		}
	}

	// 가중치 60/25/12/3 기준, 넉넉한 허용 범위로 분포 확인
	if counts[models.RarityCommon] < draws/2 {
		t.Errorf("common drawn %d times out of %d, expected majority", counts[models.RarityCommon], draws)
	}
	if counts[models.RarityLegendary] == 0 {
		t.Error("legendary never drawn in 10000 draws")
	}
	if counts[models.RarityLegendary] > draws/10 {
		t.Errorf("legendary drawn %d times, far above its 3%% weight", counts[models.RarityLegendary])
	}
}
