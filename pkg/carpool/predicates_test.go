package carpool_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

func TestPredicates(t *testing.T) {
	f := newFixture(t)
	c := f.newCarpool(t, f.alice, "C1")

	_, err := f.invitations.Create(f.ctx, f.bob.ID, c.ID, false)
	require.NoError(t, err)
	require.NoError(t, f.invitations.Execute(f.ctx, f.bob.ID, c.ID))

	msg, err := f.messages.Send(f.ctx, f.bob.ID, c.ID, "hello")
	require.NoError(t, err)

	p := f.predicates
	tests := []struct {
		name string
		fn   func() (bool, error)
		want bool
	}{
		{"creator is member", func() (bool, error) { return p.IsCarpoolMember(f.ctx, c.ID, f.alice.ID) }, true},
		{"joined user is member", func() (bool, error) { return p.IsCarpoolMember(f.ctx, c.ID, f.bob.ID) }, true},
		{"carol is not member", func() (bool, error) { return p.IsCarpoolMember(f.ctx, c.ID, f.carol.ID) }, false},
		{"alice is creator", func() (bool, error) { return p.IsCarpoolCreator(f.ctx, c.ID, f.alice.ID) }, true},
		{"bob is not creator", func() (bool, error) { return p.IsCarpoolCreator(f.ctx, c.ID, f.bob.ID) }, false},
		{"group member can view", func() (bool, error) { return p.CanViewCarpool(f.ctx, c.ID, f.carol.ID) }, true},
		{"outsider cannot view", func() (bool, error) { return p.CanViewCarpool(f.ctx, c.ID, f.outsider.ID) }, false},
		{"group member can add carpool", func() (bool, error) { return p.CanAddCarpoolToEvent(f.ctx, f.event.ID, f.dave.ID) }, true},
		{"outsider cannot add carpool", func() (bool, error) { return p.CanAddCarpoolToEvent(f.ctx, f.event.ID, f.outsider.ID) }, false},
		{"creator manages invites", func() (bool, error) { return p.CanManageCarpoolInvites(f.ctx, c.ID, f.alice.ID) }, true},
		{"member cannot manage invites", func() (bool, error) { return p.CanManageCarpoolInvites(f.ctx, c.ID, f.bob.ID) }, false},
		{"creator manages requests", func() (bool, error) { return p.CanManageCarpoolRequests(f.ctx, c.ID, f.alice.ID) }, true},
		{"member cannot manage requests", func() (bool, error) { return p.CanManageCarpoolRequests(f.ctx, c.ID, f.bob.ID) }, false},
		{"creator views invitations", func() (bool, error) { return p.CanViewCarpoolInvitesAndRequests(f.ctx, c.ID, f.alice.ID) }, true},
		{"member cannot view invitations", func() (bool, error) { return p.CanViewCarpoolInvitesAndRequests(f.ctx, c.ID, f.bob.ID) }, false},
		{"creator can delete", func() (bool, error) { return p.CanDeleteCarpool(f.ctx, c.ID, f.alice.ID) }, true},
		{"member cannot delete", func() (bool, error) { return p.CanDeleteCarpool(f.ctx, c.ID, f.bob.ID) }, false},
		{"member can send", func() (bool, error) { return p.CanSendMessage(f.ctx, c.ID, f.bob.ID) }, true},
		{"non-member cannot send", func() (bool, error) { return p.CanSendMessage(f.ctx, c.ID, f.carol.ID) }, false},
		{"author can remove", func() (bool, error) { return p.CanRemoveMessage(f.ctx, msg.ID, f.bob.ID) }, true},
		{"creator cannot remove others", func() (bool, error) { return p.CanRemoveMessage(f.ctx, msg.ID, f.alice.ID) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredicates_MissingEntitiesAreFalse(t *testing.T) {
	f := newFixture(t)
	p := f.predicates
	const missing = 9999

	checks := map[string]func() (bool, error){
		"member":          func() (bool, error) { return p.IsCarpoolMember(f.ctx, missing, f.alice.ID) },
		"creator":         func() (bool, error) { return p.IsCarpoolCreator(f.ctx, missing, f.alice.ID) },
		"view":            func() (bool, error) { return p.CanViewCarpool(f.ctx, missing, f.alice.ID) },
		"add to event":    func() (bool, error) { return p.CanAddCarpoolToEvent(f.ctx, missing, f.alice.ID) },
		"delete":          func() (bool, error) { return p.CanDeleteCarpool(f.ctx, missing, f.alice.ID) },
		"remove message":  func() (bool, error) { return p.CanRemoveMessage(f.ctx, missing, f.alice.ID) },
		"manage invites":  func() (bool, error) { return p.CanManageCarpoolInvites(f.ctx, missing, f.alice.ID) },
		"manage requests": func() (bool, error) { return p.CanManageCarpoolRequests(f.ctx, missing, f.alice.ID) },
	}

	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			got, err := check()
			require.NoError(t, err)
			assert.False(t, got)
		})
	}
}

func TestPredicates_EventWithoutGroup(t *testing.T) {
	f := newFixture(t)
	orphan := &domain.Event{Name: "Unlisted", CreatorID: f.alice.ID}
	require.NoError(t, f.store.AddEvent(orphan))

	ok, err := f.predicates.CanAddCarpoolToEvent(f.ctx, orphan.ID, f.alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPredicates_StoreFailure(t *testing.T) {
	f := newFixture(t)
	c := f.newCarpool(t, f.alice, "C1")

	boom := errors.New("connection reset")
	f.store.FailOn("carpools.GetByID", boom)

	ok, err := f.predicates.IsCarpoolCreator(f.ctx, c.ID, f.alice.ID)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
}
