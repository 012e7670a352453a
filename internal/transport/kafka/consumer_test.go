package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"

	"service-fulfillment/internal/service/orders"
	testlog "service-fulfillment/internal/testutil"
)

type fakeSession struct {
	ctx context.Context

	mu     sync.Mutex
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "" }
func (s *fakeSession) GenerationID() int32                      { return 0 }

func (s *fakeSession) Marked() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.marked...)
}

type fakeClaim struct {
	ch chan *sarama.ConsumerMessage
}

func (c fakeClaim) Topic() string                            { return "orders" }
func (c fakeClaim) Partition() int32                         { return 0 }
func (c fakeClaim) InitialOffset() int64                     { return 0 }
func (c fakeClaim) HighWaterMarkOffset() int64               { return 0 }
func (c fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.ch }

func claimOf(values ...[]byte) fakeClaim {
	ch := make(chan *sarama.ConsumerMessage, len(values))
	for i, v := range values {
		ch <- &sarama.ConsumerMessage{Offset: int64(i), Value: v}
	}
	close(ch)
	return fakeClaim{ch: ch}
}

func event(t *testing.T, dto EventDTO) []byte {
	t.Helper()
	b, err := json.Marshal(dto)
	require.NoError(t, err)
	return b
}

func TestConsumeClaim_HandlesAndMarks(t *testing.T) {
	t.Parallel()

	var got []orders.Event
	c := NewConsumerWithGroup(nil, "orders", func(_ context.Context, e orders.Event) error {
		got = append(got, e)
		return nil
	}, nil)
	sess := &fakeSession{ctx: context.Background()}

	err := (&groupHandler{c: c}).ConsumeClaim(sess, claimOf(
		event(t, EventDTO{OrderID: 1, Status: " created ", DeliveryAddress: " 1 Main "}),
		event(t, EventDTO{OrderID: 1, Status: "canceled"}),
	))
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1}, sess.Marked())
	require.Len(t, got, 2)
	require.Equal(t, "created", got[0].Status)
	require.Equal(t, "1 Main", got[0].DeliveryAddress)
}

func TestConsumeClaim_SkipsMalformed(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	c := NewConsumerWithGroup(nil, "orders", func(context.Context, orders.Event) error {
		t.Fatal("handler must not be called")
		return nil
	}, rec.Logger())
	sess := &fakeSession{ctx: context.Background()}

	err := (&groupHandler{c: c}).ConsumeClaim(sess, claimOf(
		[]byte("not-json"),
		event(t, EventDTO{OrderID: 0, Status: "created"}),
		[]byte(`{"order_id":"7","status":"created"}`),
	))
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, 2}, sess.Marked())
	require.Equal(t, []string{"kafka bad json", "kafka invalid order_id", "kafka bad json"}, rec.Messages())
}

func TestConsumeClaim_TransientErrorStopsWithoutMark(t *testing.T) {
	t.Parallel()

	boom := errors.New("store busy")
	calls := 0
	c := NewConsumerWithGroup(nil, "orders", func(context.Context, orders.Event) error {
		calls++
		return boom
	}, nil)
	c.retryBackoff = time.Millisecond
	sess := &fakeSession{ctx: context.Background()}

	err := (&groupHandler{c: c}).ConsumeClaim(sess, claimOf(
		event(t, EventDTO{OrderID: 1, Status: "created"}),
		event(t, EventDTO{OrderID: 2, Status: "created"}),
	))
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
	require.Empty(t, sess.Marked())
}

func TestConsumeClaim_TransientErrorHoldsClaimForBackoff(t *testing.T) {
	t.Parallel()

	c := NewConsumerWithGroup(nil, "orders", func(context.Context, orders.Event) error {
		return errors.New("no partner")
	}, nil)
	c.retryBackoff = 40 * time.Millisecond
	sess := &fakeSession{ctx: context.Background()}

	start := time.Now()
	err := (&groupHandler{c: c}).ConsumeClaim(sess, claimOf(event(t, EventDTO{OrderID: 1, Status: "created"})))
	require.Error(t, err)
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestConsumeClaim_BackoffEndsWithSession(t *testing.T) {
	t.Parallel()

	c := NewConsumerWithGroup(nil, "orders", func(context.Context, orders.Event) error {
		return errors.New("no partner")
	}, nil)
	c.retryBackoff = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sess := &fakeSession{ctx: ctx}

	done := make(chan error, 1)
	go func() {
		done <- (&groupHandler{c: c}).ConsumeClaim(sess, claimOf(event(t, EventDTO{OrderID: 1, Status: "created"})))
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("ConsumeClaim kept waiting after the session ended")
	}
}

// redeliveringGroup hands the same message to every session, as a broker does
// for an unmarked offset, and ends the session once the claim returns.
type redeliveringGroup struct {
	fakeGroup
	payload []byte
}

func (g *redeliveringGroup) Consume(ctx context.Context, _ []string, h sarama.ConsumerGroupHandler) error {
	g.mu.Lock()
	g.consumes++
	g.mu.Unlock()
	if ctx.Err() != nil {
		return nil
	}
	_ = h.ConsumeClaim(&fakeSession{ctx: ctx}, claimOf(g.payload))
	return nil
}

func (g *redeliveringGroup) Consumes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.consumes
}

func TestRun_HandlerErrorDoesNotSpinRejoins(t *testing.T) {
	t.Parallel()

	g := &redeliveringGroup{payload: event(t, EventDTO{OrderID: 1, Status: "created"})}
	c := NewConsumerWithGroup(g, "orders", func(context.Context, orders.Event) error {
		return errors.New("no partner")
	}, nil)
	c.retryBackoff = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := c.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.LessOrEqual(t, g.Consumes(), 6)
}

func TestConsumeClaim_PermanentErrorMarks(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	c := NewConsumerWithGroup(nil, "orders", func(context.Context, orders.Event) error {
		return Permanent(errors.New("no address"))
	}, rec.Logger())
	sess := &fakeSession{ctx: context.Background()}

	err := (&groupHandler{c: c}).ConsumeClaim(sess, claimOf(event(t, EventDTO{OrderID: 1, Status: "created"})))
	require.NoError(t, err)
	require.Equal(t, []int64{0}, sess.Marked())
	require.Equal(t, []string{"kafka event dropped"}, rec.Messages())
}

type fakeGroup struct {
	mu       sync.Mutex
	consumes int
	results  []error
	closed   bool
}

func (g *fakeGroup) Consume(ctx context.Context, _ []string, _ sarama.ConsumerGroupHandler) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.consumes++
	if len(g.results) == 0 {
		<-ctx.Done()
		return nil
	}
	err := g.results[0]
	g.results = g.results[1:]
	return err
}

func (g *fakeGroup) Errors() <-chan error      { return nil }
func (g *fakeGroup) Pause(map[string][]int32)  {}
func (g *fakeGroup) Resume(map[string][]int32) {}
func (g *fakeGroup) PauseAll()                 {}
func (g *fakeGroup) ResumeAll()                {}
func (g *fakeGroup) Close() error              { g.closed = true; return nil }

func TestRun_RetriesAfterErrorUntilCancelled(t *testing.T) {
	t.Parallel()

	g := &fakeGroup{results: []error{errors.New("broker down"), nil}}
	rec := testlog.New()
	c := NewConsumerWithGroup(g, "orders", nil, rec.Logger())
	c.retryBackoff = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.GreaterOrEqual(t, g.consumes, 3)
	require.Contains(t, rec.Messages(), "kafka consume error")
}

func TestRun_ClosedGroupEnds(t *testing.T) {
	t.Parallel()

	g := &fakeGroup{results: []error{sarama.ErrClosedConsumerGroup}}
	c := NewConsumerWithGroup(g, "orders", nil, nil)

	require.NoError(t, c.Run(context.Background()))
	require.NoError(t, c.Close())
	require.True(t, g.closed)
}

func TestNewConsumer_GroupError(t *testing.T) {
	boom := errors.New("no brokers")
	old := newConsumerGroup
	newConsumerGroup = func([]string, string, *sarama.Config) (sarama.ConsumerGroup, error) {
		return nil, boom
	}
	t.Cleanup(func() { newConsumerGroup = old })

	_, err := NewConsumer(Config{Brokers: []string{"x:9092"}, GroupID: "g", Topic: "t"}, nil, nil)
	require.ErrorIs(t, err, boom)
}

func TestPermanent(t *testing.T) {
	t.Parallel()

	require.NoError(t, Permanent(nil))
	base := errors.New("bad")
	err := Permanent(base)
	require.True(t, IsPermanent(err))
	require.ErrorIs(t, err, base)
	require.False(t, IsPermanent(base))
	require.Equal(t, "permanent: bad", err.Error())
}
