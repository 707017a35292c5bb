package service

import (
	"reflect"
	"testing"

	"github.com/Haiikyu/reveelbox-sub005/internal/models"
)

func TestResolveWinners(t *testing.T) {
	p := func(userID string, total int64) *models.Participant {
		return &models.Participant{UserID: userID, TotalValue: total}
	}

	tests := []struct {
		name         string
		participants []*models.Participant
		expected     []string
	}{
		{
			name:         "single max wins",
			participants: []*models.Participant{p("a", 100), p("b", 70), p("c", 50)},
			expected:     []string{"a"},
		},
		{
			name:         "tie on max returns all tied",
			participants: []*models.Participant{p("a", 100), p("b", 100), p("c", 50)},
			expected:     []string{"a", "b"},
		},
		{
			name:         "empty list resolves to empty winners",
			participants: []*models.Participant{},
			expected:     []string{},
		},
		{
			name:         "single participant with zero value still wins",
			participants: []*models.Participant{p("a", 0)},
			expected:     []string{"a"},
		},
		{
			name:         "all zero is a full tie",
			participants: []*models.Participant{p("a", 0), p("b", 0)},
			expected:     []string{"a", "b"},
		},
		{
			name:         "max not in first position",
			participants: []*models.Participant{p("a", 10), p("b", 500), p("c", 20)},
			expected:     []string{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winners := ResolveWinners(tt.participants)
			if !reflect.DeepEqual(winners, tt.expected) {
				t.Errorf("ResolveWinners() = %v, want %v", winners, tt.expected)
			}
		})
	}
}
