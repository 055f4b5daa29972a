package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// streamMaxLen caps the stream so acknowledged entries do not pile up.
const streamMaxLen = 1000

type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

// Enqueue appends a task to the stream and returns its entry id.
func (p *Producer) Enqueue(ctx context.Context, task string, payload map[string]any) (string, error) {
	values, err := encode(task, payload)
	if err != nil {
		return "", err
	}
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: values,
	}).Result()
}
