package carpool_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelshare/wheelshare-api/pkg/carpool"
	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

func TestCarpoolCreate(t *testing.T) {
	f := newFixture(t)
	note := "leaving from the library"

	c, err := f.carpools.Create(f.ctx, carpool.CreateParams{
		Name:           "  Morning  ",
		UserID:         f.alice.ID,
		EventID:        f.event.ID,
		InvitedUserIDs: []int64{f.bob.ID, f.alice.ID, f.carol.ID, f.bob.ID},
		Note:           &note,
	})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "Morning", c.Name)
	assert.Equal(t, f.alice.ID, c.CreatorID)

	details, err := f.carpools.Get(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserPreview{f.alice.Preview()}, details.Members)
	assert.Equal(t, f.event.ID, details.Event.ID)
	require.NotNil(t, details.Carpool.Note)
	assert.Equal(t, note, *details.Carpool.Note)

	require.Len(t, details.Invitations, 2, "duplicates and the creator are not invited")
	for _, inv := range details.Invitations {
		assert.False(t, inv.IsRequest)
	}
	assert.Equal(t, 1, f.invitationCount(t, f.bob.ID, c.ID))
	assert.Equal(t, 1, f.invitationCount(t, f.carol.ID, c.ID))

	assert.Equal(t, []sent{
		{Kind: "invited", UserID: f.bob.ID, CarpoolID: c.ID},
		{Kind: "invited", UserID: f.carol.ID, CarpoolID: c.ID},
	}, f.notifier.sent())
}

func TestCarpoolCreate_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		params  carpool.CreateParams
		wantErr error
	}{
		{
			name:    "blank name",
			params:  carpool.CreateParams{Name: "   ", UserID: f.alice.ID, EventID: f.event.ID},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "missing event",
			params:  carpool.CreateParams{Name: "Morning", UserID: f.alice.ID, EventID: 9999},
			wantErr: domain.ErrEventNotFound,
		},
		{
			name: "missing invitee",
			params: carpool.CreateParams{
				Name:           "Morning",
				UserID:         f.alice.ID,
				EventID:        f.event.ID,
				InvitedUserIDs: []int64{f.bob.ID, 9999},
			},
			wantErr: domain.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.carpools.Create(f.ctx, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// A failed invite insert rolls back the carpool and the invites before it.
	carpools, err := f.store.Carpools().ListByEvent(f.ctx, f.event.ID)
	require.NoError(t, err)
	assert.Empty(t, carpools)
	assert.Empty(t, f.notifier.sent())
}

func TestCarpoolLeave_SoleMemberDeletesCarpool(t *testing.T) {
	f := newFixture(t)
	c := f.newCarpool(t, f.alice, "C1")

	_, err := f.invitations.Create(f.ctx, f.bob.ID, c.ID, false)
	require.NoError(t, err)
	_, err = f.invitations.Create(f.ctx, f.carol.ID, c.ID, true)
	require.NoError(t, err)
	_, err = f.messages.Send(f.ctx, f.alice.ID, c.ID, "see you at 8")
	require.NoError(t, err)

	deleted, err := f.carpools.Leave(f.ctx, c.ID, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = f.carpools.Get(f.ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrCarpoolNotFound)

	invs, err := f.store.Invitations().ListByCarpool(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, invs)

	received, err := f.invitations.ReceivedInvitations(f.ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, received)
}

func TestCarpoolLeave_OtherMembersRemain(t *testing.T) {
	f := newFixture(t)
	c := f.newCarpool(t, f.alice, "C1")

	_, err := f.invitations.Create(f.ctx, f.bob.ID, c.ID, false)
	require.NoError(t, err)
	require.NoError(t, f.invitations.Execute(f.ctx, f.bob.ID, c.ID))

	deleted, err := f.carpools.Leave(f.ctx, c.ID, f.bob.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	details, err := f.carpools.Get(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserPreview{f.alice.Preview()}, details.Members)
	assert.Equal(t, f.alice.ID, details.Carpool.CreatorID)
}

func TestCarpoolLeave_CreatorTransfersToEarliestMember(t *testing.T) {
	f := newFixture(t)
	c := f.newCarpool(t, f.alice, "C1")

	for _, u := range []*domain.User{f.carol, f.bob} {
		_, err := f.invitations.Create(f.ctx, u.ID, c.ID, true)
		require.NoError(t, err)
		require.NoError(t, f.invitations.Execute(f.ctx, u.ID, c.ID))
	}

	deleted, err := f.carpools.Leave(f.ctx, c.ID, f.alice.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	details, err := f.carpools.Get(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, f.carol.ID, details.Carpool.CreatorID)
	assert.Equal(t, []domain.UserPreview{f.carol.Preview(), f.bob.Preview()}, details.Members)

	ok, err := f.predicates.IsCarpoolCreator(f.ctx, c.ID, f.carol.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCarpoolLeave_NotMember(t *testing.T) {
	f := newFixture(t)
	c := f.newCarpool(t, f.alice, "C1")

	_, err := f.carpools.Leave(f.ctx, c.ID, f.bob.ID)
	assert.ErrorIs(t, err, domain.ErrNotMember)

	_, err = f.carpools.Leave(f.ctx, 9999, f.bob.ID)
	assert.ErrorIs(t, err, domain.ErrCarpoolNotFound)
}

func TestCarpoolLeave_RollsBackWhenCascadeFails(t *testing.T) {
	f := newFixture(t)
	c := f.newCarpool(t, f.alice, "C1")

	_, err := f.invitations.Create(f.ctx, f.bob.ID, c.ID, false)
	require.NoError(t, err)

	f.store.FailOn("messages.DeleteByCarpool", errors.New("connection reset"))

	_, err = f.carpools.Leave(f.ctx, c.ID, f.alice.ID)
	require.Error(t, err)

	details, err := f.carpools.Get(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserPreview{f.alice.Preview()}, details.Members)
	assert.Len(t, details.Invitations, 1)
}

func TestCarpoolDelete(t *testing.T) {
	f := newFixture(t)
	c := f.newCarpool(t, f.alice, "C1")

	_, err := f.invitations.Create(f.ctx, f.bob.ID, c.ID, true)
	require.NoError(t, err)
	require.NoError(t, f.invitations.Execute(f.ctx, f.bob.ID, c.ID))
	_, err = f.invitations.Create(f.ctx, f.carol.ID, c.ID, false)
	require.NoError(t, err)
	_, err = f.messages.Send(f.ctx, f.bob.ID, c.ID, "running late")
	require.NoError(t, err)

	require.NoError(t, f.carpools.Delete(f.ctx, c.ID))

	_, err = f.carpools.Get(f.ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrCarpoolNotFound)
	assert.False(t, f.isMember(t, c.ID, f.bob.ID))

	err = f.carpools.Delete(f.ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrCarpoolNotFound)
}

func TestCarpoolPotentialInvitees(t *testing.T) {
	f := newFixture(t)
	c1 := f.newCarpool(t, f.alice, "C1")
	f.newCarpool(t, f.bob, "C2")

	for _, u := range []*domain.User{f.alice, f.bob, f.carol} {
		require.NoError(t, f.store.AddSignup(f.event.ID, u.ID, false))
	}

	invitees, err := f.carpools.PotentialInvitees(f.ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.UserPreview{f.carol.Preview()}, invitees)

	// Carol joining any carpool of the event removes her too.
	_, err = f.invitations.Create(f.ctx, f.carol.ID, c1.ID, true)
	require.NoError(t, err)
	require.NoError(t, f.invitations.Execute(f.ctx, f.carol.ID, c1.ID))

	invitees, err = f.carpools.PotentialInvitees(f.ctx, c1.ID)
	require.NoError(t, err)
	assert.Empty(t, invitees)

	_, err = f.carpools.PotentialInvitees(f.ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrCarpoolNotFound)
}

func TestCarpoolActiveForUser(t *testing.T) {
	f := newFixture(t)
	current := f.newCarpool(t, f.alice, "Current")

	ended := time.Now().Add(-time.Hour)
	past := &domain.Event{
		Name:      "Last season",
		GroupID:   &f.group.ID,
		CreatorID: f.alice.ID,
		StartTime: ended.Add(-24 * time.Hour),
		EndTime:   &ended,
	}
	require.NoError(t, f.store.AddEvent(past))
	_, err := f.carpools.Create(f.ctx, carpool.CreateParams{Name: "Old", UserID: f.alice.ID, EventID: past.ID})
	require.NoError(t, err)

	active, err := f.carpools.ActiveForUser(f.ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, current.ID, active[0].ID)

	active, err = f.carpools.ActiveForUser(f.ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCarpoolUpdateNote(t *testing.T) {
	f := newFixture(t)
	c := f.newCarpool(t, f.alice, "C1")

	note := "bring snacks"
	require.NoError(t, f.carpools.UpdateNote(f.ctx, c.ID, &note))
	details, err := f.carpools.Get(f.ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, details.Carpool.Note)
	assert.Equal(t, note, *details.Carpool.Note)

	blank := "  "
	require.NoError(t, f.carpools.UpdateNote(f.ctx, c.ID, &blank))
	details, err = f.carpools.Get(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, details.Carpool.Note)

	err = f.carpools.UpdateNote(f.ctx, 9999, &note)
	assert.ErrorIs(t, err, domain.ErrCarpoolNotFound)
}
