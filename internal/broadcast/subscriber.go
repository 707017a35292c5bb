package broadcast

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Haiikyu/reveelbox-sub005/pkg/logger"
)

// Subscriber 모든 배틀 채널을 구독해서 핸들러로 넘기는 브리지
// 여러 API 인스턴스가 떠 있어도 각 인스턴스가 전체 이벤트를 받는다
type Subscriber struct {
	client  *redis.Client
	handler func(battleID string, data []byte)
}

// NewSubscriber 구독자 생성
func NewSubscriber(client *redis.Client, handler func(battleID string, data []byte)) *Subscriber {
	return &Subscriber{
		client:  client,
		handler: handler,
	}
}

// Run 구독 루프 실행 (컨텍스트 취소까지 블록)
func (s *Subscriber) Run(ctx context.Context) {
	pubsub := s.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				logger.Warn("Battle event subscription closed")
				return
			}

			battleID := strings.TrimPrefix(msg.Channel, channelPrefix)
			s.handler(battleID, []byte(msg.Payload))
		}
	}
}
