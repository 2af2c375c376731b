//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	id "cardscan/pkg/domain"
	audit "cardscan/pkg/platform/audit"
	"cardscan/pkg/testutil/containers"
)

func TestStore_AppendProducesKeyedRecord(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	const topic = "cardscan.audit.test"
	store, err := New(ctx, []string{broker.SeedBroker}, topic)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Ping(ctx))

	sessionID := id.NewScanSessionID()
	event := audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		SessionID: sessionID,
		Action:    string(audit.EventScanCompleted),
		State:     "completed",
	}
	require.NoError(t, store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.SeedBroker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollRecords(ctx, 1)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, sessionID.String(), string(records[0].Key))
	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, event, got)
}

func TestEnsureTopic_Idempotent(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := kgo.NewClient(kgo.SeedBrokers(broker.SeedBroker))
	require.NoError(t, err)
	defer client.Close()
	adm := kadm.NewClient(client)

	require.NoError(t, EnsureTopic(ctx, adm, "cardscan.audit.twice", 1, 1))
	require.NoError(t, EnsureTopic(ctx, adm, "cardscan.audit.twice", 1, 1))

	topics, err := adm.ListTopics(ctx, "cardscan.audit.twice")
	require.NoError(t, err)
	assert.True(t, topics.Has("cardscan.audit.twice"))
}
