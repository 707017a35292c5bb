package service

import "github.com/Haiikyu/reveelbox-sub005/internal/models"

// ResolveWinners 누적 루트 가치가 최대인 참가자 전원을 승자로 반환
// 동률이면 모두 승자이고, 참가자가 없으면 빈 목록이다 (에러 아님)
// 반환 순서는 참가 순서를 따른다
func ResolveWinners(participants []*models.Participant) []string {
	winners := []string{}
	if len(participants) == 0 {
		return winners
	}

	max := participants[0].TotalValue
	for _, p := range participants[1:] {
		if p.TotalValue > max {
			max = p.TotalValue
		}
	}

	for _, p := range participants {
		if p.TotalValue == max {
			winners = append(winners, p.UserID)
		}
	}

	return winners
}
