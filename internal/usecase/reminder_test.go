package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
)

func reminderEntry(itemID, ownerID int64, listName, itemName, ownerEmail string, remindOn time.Time) domain.ReminderEntry {
	return domain.ReminderEntry{
		Item: domain.ListItem{
			ID:       itemID,
			Name:     itemName,
			Quantity: 1,
			RemindOn: &remindOn,
		},
		ListName:   listName,
		OwnerID:    ownerID,
		OwnerEmail: ownerEmail,
	}
}

func TestRunRemindersSendsOneDigestPerOwner(t *testing.T) {
	lists := newListRepoMock()
	mailer := &mailerMock{}
	svc := NewReminderService(lists, mailer, nil)

	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	lists.due = []domain.ReminderEntry{
		reminderEntry(10, 1, "Weekly shop", "Milk", "alice@example.com", due),
		reminderEntry(11, 1, "Weekly shop", "Eggs", "alice@example.com", due),
		reminderEntry(12, 2, "Pantry", "Flour", "bob@example.com", due),
	}

	sent, err := svc.RunReminders(context.Background())
	if err != nil {
		t.Fatalf("RunReminders returned error: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 digests, got %d", sent)
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(mailer.sent))
	}

	first := mailer.sent[0]
	if first.To != "alice@example.com" {
		t.Fatalf("expected first digest to alice, got %s", first.To)
	}
	if !strings.Contains(first.HTML, "Milk") || !strings.Contains(first.HTML, "Eggs") {
		t.Fatalf("expected alice's digest to list both items, got %q", first.HTML)
	}
	if strings.Contains(first.HTML, "Flour") {
		t.Fatal("alice's digest must not contain bob's items")
	}
	if !strings.Contains(first.Text, "Weekly shop: Milk") {
		t.Fatalf("expected plain-text fallback, got %q", first.Text)
	}

	if len(lists.reminded) != 3 {
		t.Fatalf("expected 3 items marked reminded, got %v", lists.reminded)
	}
}

func TestRunRemindersLeavesItemsUnmarkedWhenDeliveryFails(t *testing.T) {
	lists := newListRepoMock()
	mailer := &mailerMock{err: errors.New("smtp down")}
	svc := NewReminderService(lists, mailer, nil)

	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	lists.due = []domain.ReminderEntry{
		reminderEntry(10, 1, "Weekly shop", "Milk", "alice@example.com", due),
	}

	sent, err := svc.RunReminders(context.Background())
	if err != nil {
		t.Fatalf("RunReminders returned error: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected 0 digests, got %d", sent)
	}
	if len(lists.reminded) != 0 {
		t.Fatalf("failed delivery must not mark items, got %v", lists.reminded)
	}
}

func TestRunRemindersNoDueItems(t *testing.T) {
	lists := newListRepoMock()
	mailer := &mailerMock{}
	svc := NewReminderService(lists, mailer, nil)

	sent, err := svc.RunReminders(context.Background())
	if err != nil {
		t.Fatalf("RunReminders returned error: %v", err)
	}
	if sent != 0 || len(mailer.sent) != 0 {
		t.Fatalf("expected nothing sent, got sent=%d emails=%d", sent, len(mailer.sent))
	}
}

func TestRunRemindersPropagatesScanFailure(t *testing.T) {
	lists := newListRepoMock()
	lists.dueErr = errors.New("db down")
	svc := NewReminderService(lists, &mailerMock{}, nil)

	if _, err := svc.RunReminders(context.Background()); err == nil {
		t.Fatal("expected an error when the reminder scan fails")
	}
}

func TestRunRemindersUsesOwnerNameInDigest(t *testing.T) {
	lists := newListRepoMock()
	mailer := &mailerMock{}
	svc := NewReminderService(lists, mailer, nil)

	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	entry := reminderEntry(10, 1, "Weekly shop", "Milk", "alice@example.com", due)
	name := "Alice"
	entry.OwnerName = &name
	lists.due = []domain.ReminderEntry{entry}

	if _, err := svc.RunReminders(context.Background()); err != nil {
		t.Fatalf("RunReminders returned error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mailer.sent))
	}
	if mailer.sent[0].ToName != "Alice" {
		t.Fatalf("expected digest addressed to Alice, got %q", mailer.sent[0].ToName)
	}
	if !strings.Contains(mailer.sent[0].HTML, "Hi Alice,") {
		t.Fatalf("expected greeting with owner name, got %q", mailer.sent[0].HTML)
	}
}
