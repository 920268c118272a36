package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

type carpoolRepo struct{ s *Store }

func (r carpoolRepo) Create(ctx context.Context, c *domain.Carpool) error {
	return r.s.view("carpools.Create", func(st *state) error {
		if _, ok := st.events[c.EventID]; !ok {
			return domain.ErrEventNotFound
		}
		if _, ok := st.users[c.CreatorID]; !ok {
			return domain.ErrUserNotFound
		}
		c.ID = st.nextID()
		st.carpools[c.ID] = *c
		return nil
	})
}

func (r carpoolRepo) GetByID(ctx context.Context, id int64) (*domain.Carpool, error) {
	var c domain.Carpool
	err := r.s.view("carpools.GetByID", func(st *state) error {
		found, ok := st.carpools[id]
		if !ok {
			return domain.ErrCarpoolNotFound
		}
		c = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Lock is GetByID; transactions already run one at a time.
func (r carpoolRepo) Lock(ctx context.Context, id int64) (*domain.Carpool, error) {
	return r.GetByID(ctx, id)
}

func (r carpoolRepo) Delete(ctx context.Context, id int64) error {
	return r.s.view("carpools.Delete", func(st *state) error {
		if _, ok := st.carpools[id]; !ok {
			return domain.ErrCarpoolNotFound
		}
		if len(st.members[id]) > 0 {
			return ErrForeignKey
		}
		for k := range st.invitations {
			if k.carpoolID == id {
				return ErrForeignKey
			}
		}
		for _, m := range st.messages {
			if m.CarpoolID == id {
				return ErrForeignKey
			}
		}
		delete(st.carpools, id)
		delete(st.members, id)
		return nil
	})
}

func (r carpoolRepo) UpdateNote(ctx context.Context, id int64, note *string) error {
	return r.s.view("carpools.UpdateNote", func(st *state) error {
		c, ok := st.carpools[id]
		if !ok {
			return domain.ErrCarpoolNotFound
		}
		c.Note = note
		st.carpools[id] = c
		return nil
	})
}

func (r carpoolRepo) UpdateCreator(ctx context.Context, id, creatorID int64) error {
	return r.s.view("carpools.UpdateCreator", func(st *state) error {
		c, ok := st.carpools[id]
		if !ok {
			return domain.ErrCarpoolNotFound
		}
		c.CreatorID = creatorID
		st.carpools[id] = c
		return nil
	})
}

func (r carpoolRepo) ListByEvent(ctx context.Context, eventID int64) ([]*domain.Carpool, error) {
	var out []*domain.Carpool
	err := r.s.view("carpools.ListByEvent", func(st *state) error {
		for _, c := range st.carpools {
			if c.EventID == eventID {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	sortCarpools(out)
	return out, err
}

func (r carpoolRepo) ListActiveByMember(ctx context.Context, userID int64) ([]*domain.Carpool, error) {
	now := time.Now()
	var out []*domain.Carpool
	err := r.s.view("carpools.ListActiveByMember", func(st *state) error {
		for id, members := range st.members {
			if !hasMember(members, userID) {
				continue
			}
			c := st.carpools[id]
			event := st.events[c.EventID]
			if event.HasEnded(now) {
				continue
			}
			out = append(out, &c)
		}
		return nil
	})
	sortCarpools(out)
	return out, err
}

func (r carpoolRepo) AddMember(ctx context.Context, carpoolID, userID int64) error {
	return r.s.view("carpools.AddMember", func(st *state) error {
		if _, ok := st.carpools[carpoolID]; !ok {
			return domain.ErrCarpoolNotFound
		}
		if _, ok := st.users[userID]; !ok {
			return domain.ErrUserNotFound
		}
		if hasMember(st.members[carpoolID], userID) {
			return nil
		}
		st.members[carpoolID] = append(st.members[carpoolID], domain.CarpoolMember{
			CarpoolID: carpoolID,
			UserID:    userID,
			JoinedAt:  time.Now(),
		})
		return nil
	})
}

func (r carpoolRepo) RemoveMember(ctx context.Context, carpoolID, userID int64) error {
	return r.s.view("carpools.RemoveMember", func(st *state) error {
		members := st.members[carpoolID]
		for i, m := range members {
			if m.UserID == userID {
				st.members[carpoolID] = append(members[:i:i], members[i+1:]...)
				return nil
			}
		}
		return domain.ErrNotMember
	})
}

func (r carpoolRepo) DeleteMembers(ctx context.Context, carpoolID int64) error {
	return r.s.view("carpools.DeleteMembers", func(st *state) error {
		delete(st.members, carpoolID)
		return nil
	})
}

func (r carpoolRepo) IsMember(ctx context.Context, carpoolID, userID int64) (bool, error) {
	var ok bool
	err := r.s.view("carpools.IsMember", func(st *state) error {
		ok = hasMember(st.members[carpoolID], userID)
		return nil
	})
	return ok, err
}

func (r carpoolRepo) ListMembers(ctx context.Context, carpoolID int64) ([]*domain.CarpoolMember, error) {
	var out []*domain.CarpoolMember
	err := r.s.view("carpools.ListMembers", func(st *state) error {
		for _, m := range st.members[carpoolID] {
			m := m
			out = append(out, &m)
		}
		return nil
	})
	return out, err
}

func (r carpoolRepo) CountMembers(ctx context.Context, carpoolID int64) (int, error) {
	var n int
	err := r.s.view("carpools.CountMembers", func(st *state) error {
		n = len(st.members[carpoolID])
		return nil
	})
	return n, err
}

func (r carpoolRepo) ListMemberIDsByEvent(ctx context.Context, eventID int64) ([]int64, error) {
	var ids []int64
	err := r.s.view("carpools.ListMemberIDsByEvent", func(st *state) error {
		for id, c := range st.carpools {
			if c.EventID != eventID {
				continue
			}
			for _, m := range st.members[id] {
				ids = append(ids, m.UserID)
			}
		}
		return nil
	})
	return ids, err
}

type invitationRepo struct{ s *Store }

func (r invitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	return r.s.view("invitations.Create", func(st *state) error {
		key := pairKey{inv.UserID, inv.CarpoolID}
		if _, ok := st.invitations[key]; ok {
			return domain.ErrInvitationExists
		}
		if _, ok := st.carpools[inv.CarpoolID]; !ok {
			return domain.ErrCarpoolNotFound
		}
		if _, ok := st.users[inv.UserID]; !ok {
			return domain.ErrUserNotFound
		}
		st.invitations[key] = *inv
		return nil
	})
}

func (r invitationRepo) Get(ctx context.Context, userID, carpoolID int64) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.s.view("invitations.Get", func(st *state) error {
		found, ok := st.invitations[pairKey{userID, carpoolID}]
		if !ok {
			return domain.ErrInvitationNotFound
		}
		inv = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r invitationRepo) Take(ctx context.Context, userID, carpoolID int64, isRequest *bool) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.s.view("invitations.Take", func(st *state) error {
		key := pairKey{userID, carpoolID}
		found, ok := st.invitations[key]
		if !ok || (isRequest != nil && found.IsRequest != *isRequest) {
			return domain.ErrInvitationNotFound
		}
		delete(st.invitations, key)
		inv = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r invitationRepo) DeleteByCarpool(ctx context.Context, carpoolID int64) error {
	return r.s.view("invitations.DeleteByCarpool", func(st *state) error {
		for k := range st.invitations {
			if k.carpoolID == carpoolID {
				delete(st.invitations, k)
			}
		}
		return nil
	})
}

func (r invitationRepo) ListByCarpool(ctx context.Context, carpoolID int64) ([]*domain.Invitation, error) {
	var out []*domain.Invitation
	err := r.s.view("invitations.ListByCarpool", func(st *state) error {
		for k, inv := range st.invitations {
			if k.carpoolID == carpoolID {
				inv := inv
				out = append(out, &inv)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SentTime.Equal(out[j].SentTime) {
			return out[i].SentTime.Before(out[j].SentTime)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, err
}

func (r invitationRepo) ListForUser(ctx context.Context, userID int64, isRequest bool) ([]*domain.InvitationView, error) {
	return r.listViews("invitations.ListForUser", func(st *state, inv domain.Invitation) bool {
		return inv.UserID == userID && inv.IsRequest == isRequest
	})
}

func (r invitationRepo) ListForMemberCarpools(ctx context.Context, userID int64, isRequest bool) ([]*domain.InvitationView, error) {
	return r.listViews("invitations.ListForMemberCarpools", func(st *state, inv domain.Invitation) bool {
		return inv.IsRequest == isRequest && hasMember(st.members[inv.CarpoolID], userID)
	})
}

func (r invitationRepo) listViews(op string, match func(*state, domain.Invitation) bool) ([]*domain.InvitationView, error) {
	var out []*domain.InvitationView
	err := r.s.view(op, func(st *state) error {
		for _, inv := range st.invitations {
			if !match(st, inv) {
				continue
			}
			u := st.users[inv.UserID]
			out = append(out, &domain.InvitationView{
				User:      u.Preview(),
				CarpoolID: inv.CarpoolID,
				Carpool:   st.carpools[inv.CarpoolID].Name,
				IsRequest: inv.IsRequest,
				SentTime:  inv.SentTime,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SentTime.Equal(out[j].SentTime) {
			return out[i].SentTime.Before(out[j].SentTime)
		}
		if out[i].CarpoolID != out[j].CarpoolID {
			return out[i].CarpoolID < out[j].CarpoolID
		}
		return out[i].User.ID < out[j].User.ID
	})
	return out, err
}

type eventRepo struct{ s *Store }

func (r eventRepo) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	var e domain.Event
	err := r.s.view("events.GetByID", func(st *state) error {
		found, ok := st.events[id]
		if !ok {
			return domain.ErrEventNotFound
		}
		e = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r eventRepo) ListSignupUsers(ctx context.Context, eventID int64) ([]domain.UserPreview, error) {
	var out []domain.UserPreview
	err := r.s.view("events.ListSignupUsers", func(st *state) error {
		for _, su := range st.signups[eventID] {
			u := st.users[su.UserID]
			out = append(out, u.Preview())
		}
		return nil
	})
	return out, err
}

type groupRepo struct{ s *Store }

func (r groupRepo) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var ok bool
	err := r.s.view("groups.IsMember", func(st *state) error {
		_, ok = st.groupUsers[groupID][userID]
		return nil
	})
	return ok, err
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.s.view("users.GetByID", func(st *state) error {
		found, ok := st.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		u = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r userRepo) GetPreviews(ctx context.Context, ids []int64) ([]domain.UserPreview, error) {
	var out []domain.UserPreview
	err := r.s.view("users.GetPreviews", func(st *state) error {
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				out = append(out, u.Preview())
			}
		}
		return nil
	})
	return out, err
}

type messageRepo struct{ s *Store }

func (r messageRepo) Create(ctx context.Context, m *domain.Message) error {
	return r.s.view("messages.Create", func(st *state) error {
		if _, ok := st.carpools[m.CarpoolID]; !ok {
			return domain.ErrCarpoolNotFound
		}
		m.ID = st.nextID()
		st.messages[m.ID] = *m
		return nil
	})
}

func (r messageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	var m domain.Message
	err := r.s.view("messages.GetByID", func(st *state) error {
		found, ok := st.messages[id]
		if !ok {
			return domain.ErrMessageNotFound
		}
		m = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r messageRepo) ListByCarpool(ctx context.Context, carpoolID int64) ([]*domain.Message, error) {
	var out []*domain.Message
	err := r.s.view("messages.ListByCarpool", func(st *state) error {
		for _, m := range st.messages {
			if m.CarpoolID == carpoolID {
				m := m
				out = append(out, &m)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r messageRepo) MarkRemoved(ctx context.Context, id int64) error {
	return r.s.view("messages.MarkRemoved", func(st *state) error {
		m, ok := st.messages[id]
		if !ok || m.Removed {
			return domain.ErrMessageNotFound
		}
		m.Removed = true
		st.messages[id] = m
		return nil
	})
}

func (r messageRepo) DeleteByCarpool(ctx context.Context, carpoolID int64) error {
	return r.s.view("messages.DeleteByCarpool", func(st *state) error {
		for id, m := range st.messages {
			if m.CarpoolID == carpoolID {
				delete(st.messages, id)
			}
		}
		return nil
	})
}

func hasMember(members []domain.CarpoolMember, userID int64) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func sortCarpools(cs []*domain.Carpool) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
}
