//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"portalgate/internal/notify"
	"portalgate/internal/portal"
	id "portalgate/pkg/domain"
	"portalgate/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
}

func (s *KafkaPublisherSuite) TestPublishedEventIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "portalgate-test-" + uuid.NewString()
	pub, err := notify.NewKafkaPublisher(s.redpanda.Brokers, topic)
	s.Require().NoError(err)
	defer pub.Close()

	s.Require().NoError(pub.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(pub.EnsureTopic(ctx, 1, 1), "existing topic is not an error")

	n := notify.Notification{
		SubjectID:   id.SubjectID(uuid.New()),
		Namespace:   portal.Admin,
		Title:       "Session expired",
		Description: "Your session reached its maximum age. Please sign in again.",
		Severity:    notify.SeverityWarning,
		Reason:      "expired",
		At:          time.Now().UTC().Truncate(time.Second),
	}
	s.Require().NoError(pub.Notify(ctx, n))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal(n.SubjectID.String(), string(records[0].Key))

	var got notify.Notification
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(n.Reason, got.Reason)
	s.Equal(n.Namespace, got.Namespace)
	s.True(n.At.Equal(got.At))
}
