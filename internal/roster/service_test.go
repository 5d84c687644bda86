package roster

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/hackform/backend/internal/models"
)

func rolePtr(r models.Role) *models.Role { return &r }

type fixture struct {
	store    *fakeStore
	notifier *fakeNotifier
	service  *Service

	hackathonID uuid.UUID
	captain     *models.User
	candidate   *models.User
	team        *models.Team
	participant *models.Participant
}

// newFixture builds a hackathon with one team: the captain occupies a
// backend slot and a frontend slot is open. One frontend participant is
// registered and unattached.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	notifier := &fakeNotifier{}

	hackathonID := uuid.New()
	captain := store.addUser("Alice", 1001)
	candidate := store.addUser("Bob", 1002)

	team := store.addTeam(hackathonID, "Rocket")
	store.addSlot(team.ID, models.RoleBackend, &captain.ID)
	store.addSlot(team.ID, models.RoleFrontend, nil)

	store.addParticipant(hackathonID, captain, rolePtr(models.RoleBackend))
	participant := store.addParticipant(hackathonID, candidate, rolePtr(models.RoleFrontend))

	return &fixture{
		store:       store,
		notifier:    notifier,
		service:     NewService(store, notifier, nil),
		hackathonID: hackathonID,
		captain:     captain,
		candidate:   candidate,
		team:        team,
		participant: participant,
	}
}

func (f *fixture) occupiedBy(userID uuid.UUID) int {
	n := 0
	for _, s := range f.store.slots {
		if s.UserID != nil && *s.UserID == userID {
			n++
		}
	}
	return n
}

func TestProposeInviteNotifiesParticipant(t *testing.T) {
	f := newFixture(t)

	invite, msg, err := f.service.Propose(context.Background(), f.team.ID, f.participant.ID, models.DirectionInvite)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if invite.Status != models.StatusPending {
		t.Errorf("status = %s, want PENDING", invite.Status)
	}
	if msg != "Invite sent." {
		t.Errorf("confirmation = %q", msg)
	}
	if len(f.notifier.calls) != 1 {
		t.Fatalf("notifications = %d, want 1", len(f.notifier.calls))
	}
	call := f.notifier.calls[0]
	if call.chatID != f.candidate.TelegramID {
		t.Errorf("notified chat %d, want candidate %d", call.chatID, f.candidate.TelegramID)
	}
	if call.inviteID != invite.ID {
		t.Errorf("notified invite %s, want %s", call.inviteID, invite.ID)
	}
	if !strings.Contains(call.text, f.team.Name) {
		t.Errorf("notification %q does not mention team name", call.text)
	}
}

func TestProposeRequestNotifiesCaptain(t *testing.T) {
	f := newFixture(t)

	invite, msg, err := f.service.Propose(context.Background(), f.team.ID, f.participant.ID, models.DirectionRequest)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if invite.Direction != models.DirectionRequest {
		t.Errorf("direction = %s, want REQUEST", invite.Direction)
	}
	if msg != "Join request sent." {
		t.Errorf("confirmation = %q", msg)
	}
	if len(f.notifier.calls) != 1 {
		t.Fatalf("notifications = %d, want 1", len(f.notifier.calls))
	}
	call := f.notifier.calls[0]
	if call.chatID != f.captain.TelegramID {
		t.Errorf("notified chat %d, want captain %d", call.chatID, f.captain.TelegramID)
	}
	if !strings.Contains(call.text, f.candidate.Name) {
		t.Errorf("notification %q does not name the requester", call.text)
	}
}

func TestProposeDuplicatePendingRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, _, err := f.service.Propose(ctx, f.team.ID, f.participant.ID, models.DirectionInvite); err != nil {
		t.Fatalf("first Propose: %v", err)
	}
	_, _, err := f.service.Propose(ctx, f.team.ID, f.participant.ID, models.DirectionInvite)
	if !errors.Is(err, ErrDuplicateProposal) {
		t.Fatalf("second Propose err = %v, want ErrDuplicateProposal", err)
	}
	if got := len(f.store.invites); got != 1 {
		t.Errorf("stored invites = %d, want 1", got)
	}
	if got := len(f.notifier.calls); got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}
}

func TestProposeOppositeDirectionsCoexist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, _, err := f.service.Propose(ctx, f.team.ID, f.participant.ID, models.DirectionInvite); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, _, err := f.service.Propose(ctx, f.team.ID, f.participant.ID, models.DirectionRequest); err != nil {
		t.Fatalf("request alongside pending invite: %v", err)
	}
	if got := len(f.store.invites); got != 2 {
		t.Errorf("stored invites = %d, want 2", got)
	}
}

func TestProposeNotificationFailureKeepsInvite(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail = errors.New("telegram down")

	invite, _, err := f.service.Propose(context.Background(), f.team.ID, f.participant.ID, models.DirectionInvite)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	stored := f.store.invites[invite.ID]
	if stored == nil || stored.Status != models.StatusPending {
		t.Fatalf("invite not persisted despite notification failure: %+v", stored)
	}
}

func TestAcceptBindsMatchingSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invite, _, err := f.service.Propose(ctx, f.team.ID, f.participant.ID, models.DirectionInvite)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if err := f.service.Decide(ctx, invite.ID, DecisionAccept); err != nil {
		t.Fatalf("Decide accept: %v", err)
	}

	stored := f.store.invites[invite.ID]
	if stored.Status != models.StatusAccepted {
		t.Errorf("status = %s, want ACCEPTED", stored.Status)
	}
	if stored.DecidedAt == nil {
		t.Error("DecidedAt not set")
	}
	if got := f.occupiedBy(f.candidate.ID); got != 1 {
		t.Errorf("candidate occupies %d slots, want 1", got)
	}
	for _, s := range f.store.slots {
		if s.UserID != nil && *s.UserID == f.candidate.ID && s.Role != models.RoleFrontend {
			t.Errorf("candidate bound to %s slot, want frontend", s.Role)
		}
	}
}

func TestRejectLeavesSlotsUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invite, _, err := f.service.Propose(ctx, f.team.ID, f.participant.ID, models.DirectionInvite)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if err := f.service.Decide(ctx, invite.ID, DecisionReject); err != nil {
		t.Fatalf("Decide reject: %v", err)
	}

	stored := f.store.invites[invite.ID]
	if stored.Status != models.StatusRejected {
		t.Errorf("status = %s, want REJECTED", stored.Status)
	}
	if got := f.occupiedBy(f.candidate.ID); got != 0 {
		t.Errorf("candidate occupies %d slots after reject, want 0", got)
	}
}

func TestDecideTerminalInviteNotActionable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invite, _, err := f.service.Propose(ctx, f.team.ID, f.participant.ID, models.DirectionInvite)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if err := f.service.Decide(ctx, invite.ID, DecisionReject); err != nil {
		t.Fatalf("first Decide: %v", err)
	}

	for _, decision := range []Decision{DecisionAccept, DecisionReject} {
		if err := f.service.Decide(ctx, invite.ID, decision); !errors.Is(err, ErrInviteNotActionable) {
			t.Errorf("Decide(%s) on rejected invite err = %v, want ErrInviteNotActionable", decision, err)
		}
	}
	if f.store.invites[invite.ID].Status != models.StatusRejected {
		t.Error("terminal status changed by a late decision")
	}
}

func TestDecideUnknownInviteNotActionable(t *testing.T) {
	f := newFixture(t)

	err := f.service.Decide(context.Background(), uuid.New(), DecisionAccept)
	if !errors.Is(err, ErrInviteNotActionable) {
		t.Fatalf("err = %v, want ErrInviteNotActionable", err)
	}
}

func TestAcceptFailsWhenUserAlreadyPlaced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A second team also wants Bob.
	other := f.store.addTeam(f.hackathonID, "Comet")
	f.store.addSlot(other.ID, models.RoleFrontend, nil)

	first, _, err := f.service.Propose(ctx, f.team.ID, f.participant.ID, models.DirectionInvite)
	if err != nil {
		t.Fatalf("first Propose: %v", err)
	}
	second, _, err := f.service.Propose(ctx, other.ID, f.participant.ID, models.DirectionInvite)
	if err != nil {
		t.Fatalf("second Propose: %v", err)
	}

	if err := f.service.Decide(ctx, first.ID, DecisionAccept); err != nil {
		t.Fatalf("accept first: %v", err)
	}
	err = f.service.Decide(ctx, second.ID, DecisionAccept)
	if !errors.Is(err, ErrRoleSlotUnavailable) {
		t.Fatalf("accept second err = %v, want ErrRoleSlotUnavailable", err)
	}
	if got := f.occupiedBy(f.candidate.ID); got != 1 {
		t.Errorf("candidate occupies %d slots, want 1", got)
	}
	// The failed accept rolled back entirely, so the invite stays pending.
	if f.store.invites[second.ID].Status != models.StatusPending {
		t.Errorf("second invite status = %s, want PENDING after rollback", f.store.invites[second.ID].Status)
	}
}

func TestAcceptFailsWithoutMatchingRoleSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A designer has no open slot on the team.
	designer := f.store.addUser("Carol", 1003)
	p := f.store.addParticipant(f.hackathonID, designer, rolePtr(models.RoleDesigner))

	invite, _, err := f.service.Propose(ctx, f.team.ID, p.ID, models.DirectionInvite)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	err = f.service.Decide(ctx, invite.ID, DecisionAccept)
	if !errors.Is(err, ErrRoleSlotUnavailable) {
		t.Fatalf("err = %v, want ErrRoleSlotUnavailable", err)
	}
	if f.store.invites[invite.ID].Status != models.StatusPending {
		t.Error("invite left terminal after failed accept")
	}
}

func TestAcceptFailsForParticipantWithoutRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	undecided := f.store.addUser("Dave", 1004)
	p := f.store.addParticipant(f.hackathonID, undecided, nil)

	invite, _, err := f.service.Propose(ctx, f.team.ID, p.ID, models.DirectionInvite)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	err = f.service.Decide(ctx, invite.ID, DecisionAccept)
	if !errors.Is(err, ErrRoleSlotUnavailable) {
		t.Fatalf("err = %v, want ErrRoleSlotUnavailable", err)
	}
}

func TestAcceptLeavesSiblingProposalsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := f.store.addTeam(f.hackathonID, "Comet")
	f.store.addSlot(other.ID, models.RoleFrontend, nil)

	accepted, _, err := f.service.Propose(ctx, f.team.ID, f.participant.ID, models.DirectionInvite)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	sibling, _, err := f.service.Propose(ctx, other.ID, f.participant.ID, models.DirectionInvite)
	if err != nil {
		t.Fatalf("sibling Propose: %v", err)
	}

	if err := f.service.Decide(ctx, accepted.ID, DecisionAccept); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if f.store.invites[sibling.ID].Status != models.StatusPending {
		t.Errorf("sibling status = %s, want PENDING", f.store.invites[sibling.ID].Status)
	}
}

func TestProposeRejectsTeamFromAnotherHackathon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	otherHackathon := uuid.New()
	foreign := f.store.addTeam(otherHackathon, "Outsiders")
	f.store.addSlot(foreign.ID, models.RoleFrontend, nil)

	for _, direction := range []models.InviteDirection{models.DirectionInvite, models.DirectionRequest} {
		_, _, err := f.service.Propose(ctx, foreign.ID, f.participant.ID, direction)
		if !errors.Is(err, ErrTeamNotInHackathon) {
			t.Errorf("Propose(%s) err = %v, want ErrTeamNotInHackathon", direction, err)
		}
	}
	if got := len(f.store.invites); got != 0 {
		t.Errorf("stored invites = %d, want 0", got)
	}
}

func TestAssignPlacesParticipant(t *testing.T) {
	f := newFixture(t)

	if err := f.service.Assign(context.Background(), f.team.ID, f.participant.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got := f.occupiedBy(f.candidate.ID); got != 1 {
		t.Errorf("candidate occupies %d slots, want 1", got)
	}
	for _, s := range f.store.slots {
		if s.UserID != nil && *s.UserID == f.candidate.ID && s.Role != models.RoleFrontend {
			t.Errorf("candidate bound to %s slot, want frontend", s.Role)
		}
	}
}

func TestAssignRejectsTeamFromAnotherHackathon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The candidate already sits on a team in another hackathon whose team
	// an organizer of this one tries to hand them into.
	otherHackathon := uuid.New()
	foreign := f.store.addTeam(otherHackathon, "Outsiders")
	f.store.addSlot(foreign.ID, models.RoleFrontend, &f.candidate.ID)
	f.store.addSlot(foreign.ID, models.RoleBackend, nil)

	err := f.service.Assign(ctx, foreign.ID, f.participant.ID)
	if !errors.Is(err, ErrTeamNotInHackathon) {
		t.Fatalf("err = %v, want ErrTeamNotInHackathon", err)
	}
	if got := f.occupiedBy(f.candidate.ID); got != 1 {
		t.Errorf("candidate occupies %d slots, want the 1 pre-existing", got)
	}
}

func TestAssignFailsWhenUserAlreadyPlaced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := f.store.addTeam(f.hackathonID, "Comet")
	f.store.addSlot(other.ID, models.RoleFrontend, nil)

	if err := f.service.Assign(ctx, f.team.ID, f.participant.ID); err != nil {
		t.Fatalf("first Assign: %v", err)
	}
	err := f.service.Assign(ctx, other.ID, f.participant.ID)
	if !errors.Is(err, ErrRoleSlotUnavailable) {
		t.Fatalf("second Assign err = %v, want ErrRoleSlotUnavailable", err)
	}
	if got := f.occupiedBy(f.candidate.ID); got != 1 {
		t.Errorf("candidate occupies %d slots, want 1", got)
	}
}

func TestAssignFailsWithoutMatchingRoleSlot(t *testing.T) {
	f := newFixture(t)

	designer := f.store.addUser("Carol", 1003)
	p := f.store.addParticipant(f.hackathonID, designer, rolePtr(models.RoleDesigner))

	err := f.service.Assign(context.Background(), f.team.ID, p.ID)
	if !errors.Is(err, ErrRoleSlotUnavailable) {
		t.Fatalf("err = %v, want ErrRoleSlotUnavailable", err)
	}
	if got := f.occupiedBy(designer.ID); got != 0 {
		t.Errorf("designer occupies %d slots, want 0", got)
	}
}

func TestEmptySlotsByHackathon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	full := f.store.addTeam(f.hackathonID, "Full")
	f.store.addSlot(full.ID, models.RoleML, &f.candidate.ID)

	teams, err := f.service.EmptySlotsByHackathon(ctx, f.hackathonID)
	if err != nil {
		t.Fatalf("EmptySlotsByHackathon: %v", err)
	}
	if len(teams) != 1 {
		t.Fatalf("teams with open slots = %d, want 1", len(teams))
	}
	if teams[0].Team.ID != f.team.ID {
		t.Errorf("team = %s, want %s", teams[0].Team.ID, f.team.ID)
	}
	if len(teams[0].OpenRoles) != 1 || teams[0].OpenRoles[0] != models.RoleFrontend {
		t.Errorf("open roles = %v, want [frontend]", teams[0].OpenRoles)
	}
}

func TestEmptySlotsProjectionRepeatable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := f.store.addTeam(f.hackathonID, "Comet")
	f.store.addSlot(other.ID, models.RoleML, nil)
	f.store.addSlot(other.ID, models.RoleDesigner, nil)

	first, err := f.service.EmptySlotsByHackathon(ctx, f.hackathonID)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := f.service.EmptySlotsByHackathon(ctx, f.hackathonID)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("projection changed between reads with no writes:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestEmptySlotsAllTeamsFull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invite, _, err := f.service.Propose(ctx, f.team.ID, f.participant.ID, models.DirectionInvite)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if err := f.service.Decide(ctx, invite.ID, DecisionAccept); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	teams, err := f.service.EmptySlotsByHackathon(ctx, f.hackathonID)
	if err != nil {
		t.Fatalf("EmptySlotsByHackathon: %v", err)
	}
	if len(teams) != 0 {
		t.Errorf("teams with open slots = %d, want 0", len(teams))
	}
}
