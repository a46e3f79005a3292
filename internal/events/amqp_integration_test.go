//go:build integration

package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAMQPPublisher_Publish(t *testing.T) {
	url := os.Getenv("TEST_AMQP_URL")
	if url == "" {
		t.Skip("TEST_AMQP_URL not set, skipping integration test")
	}

	exchange := "resume_builder_test"
	pub, err := NewAMQPPublisher(AMQPConfig{URL: url, Exchange: exchange}, nil)
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	ch, err := conn.Channel()
	require.NoError(t, err)
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, RoutingKeyResumeGenerated, exchange, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pub.PublishResumeGenerated(ctx, ResumeGenerated{ArtifactID: "a-1", UserID: "u-1"}))

	select {
	case d := <-deliveries:
		var got ResumeGenerated
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, "a-1", got.ArtifactID)
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}
}
