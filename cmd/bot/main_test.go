package main

import (
	"testing"

	"github.com/google/uuid"

	"github.com/hackform/backend/internal/roster"
)

func TestParseCallback(t *testing.T) {
	id := uuid.New()

	decision, got, err := parseCallback(callbackAccept + id.String())
	if err != nil {
		t.Fatalf("accept callback: %v", err)
	}
	if decision != roster.DecisionAccept || got != id {
		t.Errorf("got (%s, %s)", decision, got)
	}

	decision, got, err = parseCallback(callbackDecline + id.String())
	if err != nil {
		t.Fatalf("decline callback: %v", err)
	}
	if decision != roster.DecisionReject || got != id {
		t.Errorf("got (%s, %s)", decision, got)
	}
}

func TestParseCallbackRejectsJunk(t *testing.T) {
	for _, data := range []string{
		"",
		"accept_invite:",
		"accept_invite:not-a-uuid",
		"ban_user:" + uuid.New().String(),
	} {
		if _, _, err := parseCallback(data); err == nil {
			t.Errorf("parseCallback(%q) accepted", data)
		}
	}
}
