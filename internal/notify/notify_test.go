package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Deliver(ctx context.Context, n Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func sample(recipient string) Notification {
	return Notification{
		RecipientID: recipient,
		Kind:        ContractActivated,
		Payload:     Payload{"contract_id": "C1"},
		CreatedAt:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestCompositeSink(t *testing.T) {
	ok := new(MockSink)
	failing := new(MockSink)
	n := sample("tenant-1")
	ok.On("Deliver", mock.Anything, n).Return(nil)
	failing.On("Deliver", mock.Anything, n).Return(errors.New("boom"))

	cs := NewCompositeSink(ok)
	cs.AddSink(nil)
	require.NoError(t, cs.Deliver(context.Background(), n))

	cs.AddSink(failing)
	err := cs.Deliver(context.Background(), n)
	assert.ErrorContains(t, err, "boom")
	ok.AssertNumberOfCalls(t, "Deliver", 2)

	assert.Error(t, NewCompositeSink().Deliver(context.Background(), n))
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "notifications.log")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Deliver(context.Background(), sample("tenant-1")))
	require.NoError(t, sink.Deliver(context.Background(), sample("owner-1")))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var recipients []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var n Notification
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &n))
		recipients = append(recipients, n.RecipientID)
	}
	assert.Equal(t, []string{"tenant-1", "owner-1"}, recipients)

	_, err = NewFileSink("  ")
	assert.Error(t, err)
}

func TestRedisInbox(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR_TEST")
	if addr == "" {
		t.Skip("REDIS_ADDR_TEST not set, skipping Redis inbox test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx := context.Background()
	require.NoError(t, client.Del(ctx, InboxKey("inbox-test")).Err())

	inbox := NewRedisInbox(client, 2, time.Hour)
	for _, kind := range []Kind{VisitRequested, VisitConfirmed, VisitCompleted} {
		n := sample("inbox-test")
		n.Kind = kind
		require.NoError(t, inbox.Deliver(ctx, n))
	}

	got, err := inbox.Inbox(ctx, "inbox-test", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, VisitCompleted, got[0].Kind)
	assert.Equal(t, VisitConfirmed, got[1].Kind)
}
