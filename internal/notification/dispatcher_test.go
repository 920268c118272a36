package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelshare/wheelshare-api/pkg/carpool"
	"github.com/wheelshare/wheelshare-api/pkg/domain"
	"github.com/wheelshare/wheelshare-api/pkg/memstore"
)

type fakeSender struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (s *fakeSender) Send(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("send without deadline")
	}
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *fakeSender) sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.msgs...)
}

type dispatchFixture struct {
	store              *memstore.Store
	sender             *fakeSender
	alice, bob, nomail *domain.User
	carpool            *domain.Carpool
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &dispatchFixture{store: memstore.New(), sender: &fakeSender{}}
	f.alice = f.store.AddUser("Alice", "alice@example.com")
	f.bob = f.store.AddUser("Bob <b>", "bob@example.com")
	f.nomail = f.store.AddUser("Nomad", "not-an-address")

	group := f.store.AddGroup("Robotics", f.alice.ID, f.bob.ID)
	event := &domain.Event{Name: "Practice", GroupID: &group.ID, CreatorID: f.alice.ID}
	require.NoError(t, f.store.AddEvent(event))

	c, err := carpool.NewCarpoolService(f.store, nil, logger).Create(ctx, carpool.CreateParams{
		Name:    "Morning ride",
		UserID:  f.alice.ID,
		EventID: event.ID,
	})
	require.NoError(t, err)
	f.carpool = c
	return f
}

func (f *dispatchFixture) dispatcher(async bool) *Dispatcher {
	return NewDispatcher(f.store, f.sender, DispatcherConfig{
		AppBaseURL: "https://wheelshare.example.com",
		Async:      async,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDispatcher_NotifyInvited(t *testing.T) {
	f := newDispatchFixture(t)
	d := f.dispatcher(false)

	require.NoError(t, d.NotifyInvited(context.Background(), f.bob.ID, f.carpool.ID))

	msgs := f.sender.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, "bob@example.com", msgs[0].To)
	assert.Equal(t, "Bob <b>", msgs[0].ToName)
	assert.Contains(t, msgs[0].Subject, "Morning ride")
	assert.Contains(t, msgs[0].Text, "Alice invited you")
	assert.Contains(t, msgs[0].HTML, "https://wheelshare.example.com/carpools/")
}

func TestDispatcher_NotifyRequested(t *testing.T) {
	f := newDispatchFixture(t)
	d := f.dispatcher(false)

	require.NoError(t, d.NotifyRequested(context.Background(), f.bob.ID, f.alice.ID, f.carpool.ID))

	msgs := f.sender.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].HTML, "Bob &lt;b&gt;")
	assert.NotContains(t, msgs[0].HTML, "Bob <b>")
}

func TestDispatcher_NotifyRequestAccepted(t *testing.T) {
	f := newDispatchFixture(t)
	d := f.dispatcher(false)

	require.NoError(t, d.NotifyRequestAccepted(context.Background(), f.bob.ID, f.carpool.ID))

	msgs := f.sender.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, "bob@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Subject, "You're in")
}

func TestDispatcher_Errors(t *testing.T) {
	f := newDispatchFixture(t)
	d := f.dispatcher(false)
	ctx := context.Background()

	err := d.NotifyInvited(ctx, 9999, f.carpool.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = d.NotifyInvited(ctx, f.bob.ID, 9999)
	assert.ErrorIs(t, err, domain.ErrCarpoolNotFound)

	err = d.NotifyRequestAccepted(ctx, f.nomail.ID, f.carpool.ID)
	assert.Error(t, err)

	f.sender.err = errors.New("smtp down")
	err = d.NotifyRequestAccepted(ctx, f.bob.ID, f.carpool.ID)
	assert.EqualError(t, err, "smtp down")
}

func TestDispatcher_AsyncOutlivesRequestContext(t *testing.T) {
	f := newDispatchFixture(t)
	d := f.dispatcher(true)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.NotifyInvited(ctx, f.bob.ID, f.carpool.ID))
	cancel()
	d.Wait()

	assert.Len(t, f.sender.sent(), 1)
}

func TestDispatcher_AsyncSwallowsSendErrors(t *testing.T) {
	f := newDispatchFixture(t)
	f.sender.err = errors.New("smtp down")
	d := f.dispatcher(true)

	assert.NoError(t, d.NotifyInvited(context.Background(), f.bob.ID, f.carpool.ID))
	d.Wait()
	assert.Len(t, f.sender.sent(), 1)
}

func TestEmailService_Send(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	s := NewEmailService(EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		User:     "mailer",
		Password: "secret",
		From:     "noreply@wheelshare.app",
		FromName: "WheelShare",
	})
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotMsg = addr, a, to, string(msg)
		return nil
	}

	err := s.Send(context.Background(), Message{
		To:      "bob@example.com",
		ToName:  "Bob",
		Subject: "Hello",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, []string{"bob@example.com"}, gotTo)
	assert.True(t, strings.HasPrefix(gotMsg, "From: WheelShare <noreply@wheelshare.app>\r\nTo: Bob <bob@example.com>\r\n"))
	assert.Contains(t, gotMsg, "Subject: Hello\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "<p>hi</p>"))
}

func TestEmailService_CancelledContext(t *testing.T) {
	s := NewEmailService(EmailConfig{Host: "smtp.example.com", Port: 25})
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("sendMail should not be called")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: "bob@example.com"}), context.Canceled)
}
