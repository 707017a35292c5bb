package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Haiikyu/reveelbox-sub005/internal/models"
)

// ErrChannelUnavailable 브로드캐스트 전송 실패
// 이벤트는 정보성 사이드 채널이므로 호출자는 이 에러로 커밋된 전이를 되돌리면 안 된다
var ErrChannelUnavailable = errors.New("broadcast channel unavailable")

const channelPrefix = "battle:"

// ChannelFor 배틀별 pub/sub 채널 이름
func ChannelFor(battleID string) string {
	return channelPrefix + battleID
}

// Publisher 배틀 이벤트 Redis 발행자 (at-most-once, 비영속)
type Publisher struct {
	client *redis.Client
}

// NewPublisher 발행자 생성
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish 배틀 채널로 이벤트 발행
func (p *Publisher) Publish(ctx context.Context, battleID string, event *models.BattleEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, ChannelFor(battleID), data).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}

	return nil
}
