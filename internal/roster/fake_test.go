package roster

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackform/backend/internal/models"
)

// fakeStore is an in-memory Store/Tx for exercising the service without
// Postgres. Writes inside InTx mutate staged copies and only land on commit.
type fakeStore struct {
	invites      map[uuid.UUID]*models.Invite
	teams        map[uuid.UUID]*models.Team
	participants map[uuid.UUID]*models.Participant
	users        map[uuid.UUID]*models.User
	slots        map[uuid.UUID]*models.Slot
	now          time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		invites:      make(map[uuid.UUID]*models.Invite),
		teams:        make(map[uuid.UUID]*models.Team),
		participants: make(map[uuid.UUID]*models.Participant),
		users:        make(map[uuid.UUID]*models.User),
		slots:        make(map[uuid.UUID]*models.Slot),
		now:          time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeStore) InTx(ctx context.Context, fn func(Tx) error) error {
	staged := &fakeTx{
		base:    f,
		invites: make(map[uuid.UUID]models.Invite),
		slots:   make(map[uuid.UUID]models.Slot),
	}
	if err := fn(staged); err != nil {
		return err
	}
	for id, inv := range staged.invites {
		cp := inv
		f.invites[id] = &cp
	}
	for id, slot := range staged.slots {
		cp := slot
		f.slots[id] = &cp
	}
	return nil
}

func (f *fakeStore) TeamsWithOpenSlots(ctx context.Context, hackathonID uuid.UUID) ([]TeamOpenSlots, error) {
	var open []*models.Slot
	for _, slot := range f.slots {
		if slot.UserID != nil {
			continue
		}
		team := f.teams[slot.TeamID]
		if team == nil || team.HackathonID != hackathonID {
			continue
		}
		open = append(open, slot)
	}
	sort.Slice(open, func(i, j int) bool {
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})

	byTeam := make(map[uuid.UUID]*TeamOpenSlots)
	var order []uuid.UUID
	for _, slot := range open {
		entry, ok := byTeam[slot.TeamID]
		if !ok {
			entry = &TeamOpenSlots{Team: *f.teams[slot.TeamID]}
			byTeam[slot.TeamID] = entry
			order = append(order, slot.TeamID)
		}
		entry.OpenRoles = append(entry.OpenRoles, slot.Role)
	}

	var result []TeamOpenSlots
	for _, teamID := range order {
		result = append(result, *byTeam[teamID])
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Team.CreatedAt.Before(result[j].Team.CreatedAt)
	})
	return result, nil
}

// seed helpers

func (f *fakeStore) addUser(name string, chatID int64) *models.User {
	u := &models.User{ID: uuid.New(), TelegramID: chatID, Name: name, CreatedAt: f.tick()}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) addTeam(hackathonID uuid.UUID, name string) *models.Team {
	t := &models.Team{ID: uuid.New(), HackathonID: hackathonID, Name: name, CreatedAt: f.tick()}
	f.teams[t.ID] = t
	return t
}

func (f *fakeStore) addParticipant(hackathonID uuid.UUID, user *models.User, role *models.Role) *models.Participant {
	p := &models.Participant{
		ID:          uuid.New(),
		HackathonID: hackathonID,
		ProfileID:   uuid.New(),
		CreatedAt:   f.tick(),
		Profile: &models.Profile{
			ID:     uuid.New(),
			UserID: user.ID,
			Role:   role,
		},
	}
	f.participants[p.ID] = p
	return p
}

func (f *fakeStore) addSlot(teamID uuid.UUID, role models.Role, userID *uuid.UUID) *models.Slot {
	s := &models.Slot{ID: uuid.New(), TeamID: teamID, Role: role, UserID: userID, CreatedAt: f.tick()}
	f.slots[s.ID] = s
	return s
}

// fakeTx overlays staged writes on the base store.
type fakeTx struct {
	base    *fakeStore
	invites map[uuid.UUID]models.Invite
	slots   map[uuid.UUID]models.Slot
}

func (t *fakeTx) invite(id uuid.UUID) *models.Invite {
	if inv, ok := t.invites[id]; ok {
		cp := inv
		return &cp
	}
	if inv, ok := t.base.invites[id]; ok {
		cp := *inv
		return &cp
	}
	return nil
}

func (t *fakeTx) slot(id uuid.UUID) *models.Slot {
	if s, ok := t.slots[id]; ok {
		cp := s
		return &cp
	}
	if s, ok := t.base.slots[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

func (t *fakeTx) allSlotIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for id := range t.base.slots {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for id := range t.slots {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func (t *fakeTx) PendingInvite(ctx context.Context, teamID, participantID uuid.UUID, direction models.InviteDirection) (*models.Invite, error) {
	for id := range t.base.invites {
		inv := t.invite(id)
		if inv.TeamID == teamID && inv.ParticipantID == participantID &&
			inv.Direction == direction && inv.Status == models.StatusPending {
			return inv, nil
		}
	}
	for id := range t.invites {
		if _, ok := t.base.invites[id]; ok {
			continue
		}
		inv := t.invite(id)
		if inv.TeamID == teamID && inv.ParticipantID == participantID &&
			inv.Direction == direction && inv.Status == models.StatusPending {
			return inv, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) CreateInvite(ctx context.Context, teamID, participantID uuid.UUID, direction models.InviteDirection) (*models.Invite, error) {
	inv := models.Invite{
		ID:            uuid.New(),
		TeamID:        teamID,
		ParticipantID: participantID,
		Direction:     direction,
		Status:        models.StatusPending,
		CreatedAt:     t.base.tick(),
	}
	t.invites[inv.ID] = inv
	cp := inv
	return &cp, nil
}

func (t *fakeTx) InviteForUpdate(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	return t.invite(id), nil
}

func (t *fakeTx) SetInviteStatus(ctx context.Context, id uuid.UUID, status models.InviteStatus) error {
	inv := t.invite(id)
	if inv == nil {
		return nil
	}
	now := t.base.tick()
	inv.Status = status
	inv.DecidedAt = &now
	t.invites[id] = *inv
	return nil
}

func (t *fakeTx) TeamByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	if team, ok := t.base.teams[id]; ok {
		cp := *team
		return &cp, nil
	}
	return nil, nil
}

func (t *fakeTx) ParticipantByID(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	if p, ok := t.base.participants[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (t *fakeTx) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := t.base.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (t *fakeTx) TeamCaptain(ctx context.Context, teamID uuid.UUID) (*models.User, error) {
	var captain *models.Slot
	for _, id := range t.allSlotIDs() {
		s := t.slot(id)
		if s.TeamID != teamID || s.UserID == nil {
			continue
		}
		if captain == nil || s.CreatedAt.Before(captain.CreatedAt) {
			captain = s
		}
	}
	if captain == nil {
		return nil, nil
	}
	return t.UserByID(ctx, *captain.UserID)
}

func (t *fakeTx) LockUserOccupancy(ctx context.Context, hackathonID, userID uuid.UUID) error {
	return nil
}

func (t *fakeTx) OccupiedSlotCount(ctx context.Context, hackathonID, userID uuid.UUID) (int, error) {
	count := 0
	for _, id := range t.allSlotIDs() {
		s := t.slot(id)
		if s.UserID == nil || *s.UserID != userID {
			continue
		}
		team := t.base.teams[s.TeamID]
		if team != nil && team.HackathonID == hackathonID {
			count++
		}
	}
	return count, nil
}

func (t *fakeTx) OpenSlotForUpdate(ctx context.Context, teamID uuid.UUID, role models.Role) (*models.Slot, error) {
	var open *models.Slot
	for _, id := range t.allSlotIDs() {
		s := t.slot(id)
		if s.TeamID != teamID || s.Role != role || s.UserID != nil {
			continue
		}
		if open == nil || s.CreatedAt.Before(open.CreatedAt) {
			open = s
		}
	}
	return open, nil
}

func (t *fakeTx) BindSlot(ctx context.Context, slotID, userID uuid.UUID) error {
	s := t.slot(slotID)
	if s == nil || s.UserID != nil {
		return ErrRoleSlotUnavailable
	}
	s.UserID = &userID
	t.slots[slotID] = *s
	return nil
}

// fakeNotifier records notifications and optionally fails.
type fakeNotifier struct {
	fail  error
	calls []notifyCall
}

type notifyCall struct {
	chatID   int64
	text     string
	inviteID uuid.UUID
}

func (n *fakeNotifier) NotifyInvite(ctx context.Context, chatID int64, text string, inviteID uuid.UUID) error {
	n.calls = append(n.calls, notifyCall{chatID: chatID, text: text, inviteID: inviteID})
	return n.fail
}
