package mailer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIssuer struct {
	issued []string
}

func (f *fakeIssuer) Create(email string, ttl time.Duration) (string, error) {
	f.issued = append(f.issued, email)
	return "tok-" + email, nil
}

type brokenIssuer struct{}

func (brokenIssuer) Create(string, time.Duration) (string, error) {
	return "", errors.New("no secret")
}

type sliceQueue struct {
	msgs []*Message
	full bool
}

func (q *sliceQueue) Enqueue(msg *Message) bool {
	if q.full {
		return false
	}
	q.msgs = append(q.msgs, msg)
	return true
}

func newTestMailer(t *testing.T, tokens TokenIssuer, queue Enqueuer) *Mailer {
	t.Helper()
	m, err := New(Config{Sender: "noreply@example.com", BaseURL: "http://localhost:5000/"}, tokens, queue, nil)
	require.NoError(t, err)
	return m
}

func TestComposeSelectsTemplate(t *testing.T) {
	tests := []struct {
		kind    Kind
		subject string
		text    string
		action  string
		link    string
	}{
		{KindConfirm, "Confirm your account!", "confirm your account", "Confirm", "http://localhost:5000/confirm/tok-a@example.com"},
		{KindReset, "Reset your password!", "reset your password", "Reset", "http://localhost:5000/recover/tok-a@example.com"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			issuer := &fakeIssuer{}
			m := newTestMailer(t, issuer, &sliceQueue{})

			msg, err := m.Compose(tt.kind, "a@example.com")
			require.NoError(t, err)

			assert.Equal(t, tt.subject, msg.Subject)
			assert.Equal(t, "a@example.com", msg.To)
			assert.Equal(t, "noreply@example.com", msg.From)
			assert.Contains(t, msg.HTML, tt.text)
			assert.Contains(t, msg.HTML, tt.action)
			assert.Contains(t, msg.HTML, tt.link)
			assert.Contains(t, msg.HTML, `src="cid:logo"`)
			assert.Equal(t, []string{"a@example.com"}, issuer.issued)

			require.Len(t, msg.Inline, 1)
			assert.Equal(t, "logo", msg.Inline[0].ContentID)
			assert.NotEmpty(t, msg.Inline[0].Data)
		})
	}
}

func TestComposeUnknownKind(t *testing.T) {
	m := newTestMailer(t, &fakeIssuer{}, &sliceQueue{})
	_, err := m.Compose(Kind("welcome"), "a@example.com")
	assert.Error(t, err)
}

func TestSendEnqueues(t *testing.T) {
	queue := &sliceQueue{}
	m := newTestMailer(t, &fakeIssuer{}, queue)

	require.NoError(t, m.Send(context.Background(), KindConfirm, "a@example.com"))
	require.Len(t, queue.msgs, 1)
	assert.Equal(t, KindConfirm, queue.msgs[0].Kind)
}

func TestSendFullQueueDrops(t *testing.T) {
	queue := &sliceQueue{full: true}
	m := newTestMailer(t, &fakeIssuer{}, queue)

	assert.NoError(t, m.Send(context.Background(), KindReset, "a@example.com"))
	assert.Empty(t, queue.msgs)
}

func TestSendTokenFailure(t *testing.T) {
	queue := &sliceQueue{}
	m := newTestMailer(t, brokenIssuer{}, queue)

	assert.Error(t, m.Send(context.Background(), KindConfirm, "a@example.com"))
	assert.Empty(t, queue.msgs)
}

func TestLinkTrimsBaseURL(t *testing.T) {
	tmpl := DefaultTemplates[KindReset]
	assert.Equal(t, "https://app.example.com/recover/abc", tmpl.Link("https://app.example.com/", "abc"))
	assert.Equal(t, "https://app.example.com/recover/abc", tmpl.Link("https://app.example.com", "abc"))
}

func TestBuildMessageHeaders(t *testing.T) {
	m := newTestMailer(t, &fakeIssuer{}, &sliceQueue{})
	msg, err := m.Compose(KindConfirm, "a@example.com")
	require.NoError(t, err)

	gm := buildMessage("fallback@example.com", msg)
	assert.Equal(t, []string{"noreply@example.com"}, gm.GetHeader("From"))
	assert.Equal(t, []string{"a@example.com"}, gm.GetHeader("To"))
	assert.Equal(t, []string{"Confirm your account!"}, gm.GetHeader("Subject"))

	var buf strings.Builder
	_, err = gm.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Content-ID: <logo>")
}

// flakyTransport fails the first failures deliveries
type flakyTransport struct {
	mu        sync.Mutex
	failures  int
	attempts  int
	delivered []*Message
	done      chan struct{}
}

func (f *flakyTransport) Deliver(ctx context.Context, msg *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.failures {
		return errors.New("smtp unavailable")
	}
	f.delivered = append(f.delivered, msg)
	if f.done != nil {
		close(f.done)
		f.done = nil
	}
	return nil
}

func TestDispatcherRetriesThenDelivers(t *testing.T) {
	transport := &flakyTransport{failures: 2, done: make(chan struct{})}
	done := transport.done
	d := NewDispatcher(DispatcherConfig{Workers: 1, MaxRetries: 3, InitialInterval: time.Millisecond}, transport, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()

	require.True(t, d.Enqueue(&Message{Kind: KindConfirm, To: "a@example.com"}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("mail was never delivered")
	}
	cancel()
	require.NoError(t, <-errc)

	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.Equal(t, 3, transport.attempts)
	assert.Len(t, transport.delivered, 1)
}

func TestDispatcherGivesUp(t *testing.T) {
	transport := &flakyTransport{failures: 100}
	d := NewDispatcher(DispatcherConfig{Workers: 1, MaxRetries: 2, InitialInterval: time.Millisecond}, transport, nil)

	d.deliver(context.Background(), &Message{Kind: KindReset, To: "a@example.com"})

	assert.Equal(t, 3, transport.attempts)
	assert.Empty(t, transport.delivered)
}

func TestDispatcherQueueBound(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{QueueSize: 1}, &LogTransport{}, nil)
	assert.True(t, d.Enqueue(&Message{}))
	assert.False(t, d.Enqueue(&Message{}))
}

func TestDispatcherDrainsOnShutdown(t *testing.T) {
	transport := &flakyTransport{}
	d := NewDispatcher(DispatcherConfig{Workers: 1, QueueSize: 4}, transport, nil)
	require.True(t, d.Enqueue(&Message{To: "a@example.com"}))
	require.True(t, d.Enqueue(&Message{To: "b@example.com"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))

	assert.Len(t, transport.delivered, 2)
}

func TestLogTransportWithoutLogger(t *testing.T) {
	transport := &LogTransport{}
	assert.NoError(t, transport.Deliver(context.Background(), &Message{Kind: KindConfirm, To: "a@example.com"}))
}

// blockingTransport fails until released, then delivers
type blockingTransport struct {
	flakyTransport
	started chan struct{}
	release chan struct{}
}

func (b *blockingTransport) Deliver(ctx context.Context, msg *Message) error {
	select {
	case b.started <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
		return b.flakyTransport.Deliver(ctx, msg)
	default:
		return errors.New("smtp busy")
	}
}

func TestDispatcherFinishesInFlightOnShutdown(t *testing.T) {
	transport := &blockingTransport{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	d := NewDispatcher(DispatcherConfig{
		Workers:         1,
		MaxRetries:      50,
		InitialInterval: 20 * time.Millisecond,
		DrainTimeout:    5 * time.Second,
	}, transport, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()

	require.True(t, d.Enqueue(&Message{Kind: KindReset, To: "a@example.com"}))
	select {
	case <-transport.started:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery never started")
	}

	// shut down while the message is between retries, then let smtp recover
	cancel()
	time.Sleep(10 * time.Millisecond)
	close(transport.release)

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.Len(t, transport.delivered, 1)
}
