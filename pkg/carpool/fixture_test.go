package carpool_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wheelshare/wheelshare-api/pkg/carpool"
	"github.com/wheelshare/wheelshare-api/pkg/domain"
	"github.com/wheelshare/wheelshare-api/pkg/memstore"
)

type sent struct {
	Kind      string
	UserID    int64
	OwnerID   int64
	CarpoolID int64
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []sent
	err   error
}

func (n *recordingNotifier) record(s sent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, s)
	return n.err
}

func (n *recordingNotifier) NotifyInvited(_ context.Context, inviteeID, carpoolID int64) error {
	return n.record(sent{Kind: "invited", UserID: inviteeID, CarpoolID: carpoolID})
}

func (n *recordingNotifier) NotifyRequested(_ context.Context, requesterID, ownerID, carpoolID int64) error {
	return n.record(sent{Kind: "requested", UserID: requesterID, OwnerID: ownerID, CarpoolID: carpoolID})
}

func (n *recordingNotifier) NotifyRequestAccepted(_ context.Context, requesterID, carpoolID int64) error {
	return n.record(sent{Kind: "accepted", UserID: requesterID, CarpoolID: carpoolID})
}

func (n *recordingNotifier) sent() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sent(nil), n.calls...)
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = nil
}

type fixture struct {
	ctx         context.Context
	store       *memstore.Store
	notifier    *recordingNotifier
	predicates  *carpool.Predicates
	invitations *carpool.InvitationService
	carpools    *carpool.CarpoolService
	messages    *carpool.MessageService

	group                   *domain.Group
	event                   *domain.Event
	alice, bob, carol, dave *domain.User
	outsider                *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		ctx:         context.Background(),
		store:       store,
		notifier:    notifier,
		predicates:  carpool.NewPredicates(store),
		invitations: carpool.NewInvitationService(store, notifier, logger),
		carpools:    carpool.NewCarpoolService(store, notifier, logger),
		messages:    carpool.NewMessageService(store, logger),
	}

	f.alice = store.AddUser("Alice", "alice@example.com")
	f.bob = store.AddUser("Bob", "bob@example.com")
	f.carol = store.AddUser("Carol", "carol@example.com")
	f.dave = store.AddUser("Dave", "dave@example.com")
	f.outsider = store.AddUser("Olive", "olive@example.com")

	f.group = store.AddGroup("Robotics", f.alice.ID, f.bob.ID, f.carol.ID, f.dave.ID)
	f.event = &domain.Event{Name: "Practice", GroupID: &f.group.ID, CreatorID: f.alice.ID}
	require.NoError(t, store.AddEvent(f.event))

	return f
}

func (f *fixture) newCarpool(t *testing.T, creator *domain.User, name string) *domain.Carpool {
	t.Helper()
	c, err := f.carpools.Create(f.ctx, carpool.CreateParams{
		Name:    name,
		UserID:  creator.ID,
		EventID: f.event.ID,
	})
	require.NoError(t, err)
	f.notifier.reset()
	return c
}

func (f *fixture) invitationCount(t *testing.T, userID, carpoolID int64) int {
	t.Helper()
	invs, err := f.store.Invitations().ListByCarpool(f.ctx, carpoolID)
	require.NoError(t, err)
	n := 0
	for _, inv := range invs {
		if inv.UserID == userID {
			n++
		}
	}
	return n
}

func (f *fixture) isMember(t *testing.T, carpoolID, userID int64) bool {
	t.Helper()
	ok, err := f.predicates.IsCarpoolMember(f.ctx, carpoolID, userID)
	require.NoError(t, err)
	return ok
}
