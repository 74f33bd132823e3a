package usecase

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/smart-grocery-api/internal/core/domain"
	"github.com/arklim/smart-grocery-api/internal/core/port"
	"github.com/arklim/smart-grocery-api/internal/infra/logger"
)

// ReminderService scans for items whose reminder date has arrived and mails
// each list owner a single digest. Scheduling is external; a cron hits the
// tasks endpoint which calls RunReminders.
type ReminderService struct {
	lists  port.ListRepository
	mailer port.Mailer
	logger *zap.Logger
	now    func() time.Time
}

// NewReminderService constructs a ReminderService.
func NewReminderService(lists port.ListRepository, mailer port.Mailer, log *zap.Logger) *ReminderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReminderService{
		lists:  lists,
		mailer: mailer,
		logger: log,
		now:    time.Now,
	}
}

// WithClock overrides the time source, primarily for tests.
func (s *ReminderService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// RunReminders delivers one digest per owner with due items and marks the
// delivered items. Items whose digest fails to send stay unmarked so the next
// run retries them. Returns the number of digests sent.
func (s *ReminderService) RunReminders(ctx context.Context) (int, error) {
	now := s.now().UTC()

	entries, err := s.lists.DueReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("load due reminders: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	sent := 0
	for _, group := range groupByOwner(entries) {
		msg := reminderDigest(group)

		mailCtx, cancel := context.WithTimeout(ctx, mailDeliveryBudget)
		err := s.mailer.Send(mailCtx, msg)
		cancel()
		if err != nil {
			s.logger.Error("reminder digest delivery failed",
				zap.String("email", logger.MaskEmail(group[0].OwnerEmail)),
				zap.Error(err),
			)
			continue
		}
		sent++

		ids := make([]int64, 0, len(group))
		for _, entry := range group {
			ids = append(ids, entry.Item.ID)
		}
		if err := s.lists.MarkReminded(ctx, ids, now); err != nil {
			s.logger.Error("marking reminded items failed",
				zap.Int64("owner_id", group[0].OwnerID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("reminder run completed",
		zap.Int("due_items", len(entries)),
		zap.Int("digests_sent", sent),
	)

	return sent, nil
}

// groupByOwner buckets entries per owner, preserving the repository's
// owner-ordered iteration.
func groupByOwner(entries []domain.ReminderEntry) [][]domain.ReminderEntry {
	var (
		groups  [][]domain.ReminderEntry
		byOwner = make(map[int64]int)
	)
	for _, entry := range entries {
		idx, ok := byOwner[entry.OwnerID]
		if !ok {
			idx = len(groups)
			byOwner[entry.OwnerID] = idx
			groups = append(groups, nil)
		}
		groups[idx] = append(groups[idx], entry)
	}
	return groups
}

func reminderDigest(group []domain.ReminderEntry) port.EmailMessage {
	owner := group[0]

	name := owner.OwnerEmail
	if owner.OwnerName != nil && strings.TrimSpace(*owner.OwnerName) != "" {
		name = *owner.OwnerName
	}

	var htmlRows, textLines strings.Builder
	for _, entry := range group {
		htmlRows.WriteString(fmt.Sprintf(
			"<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			html.EscapeString(entry.ListName),
			html.EscapeString(entry.Item.Name),
			formatReminderDate(entry.Item.Expiry),
			formatReminderDate(entry.Item.RemindOn),
		))
		textLines.WriteString(fmt.Sprintf(
			"- %s: %s (expiry %s, remind on %s)\n",
			entry.ListName,
			entry.Item.Name,
			formatReminderDate(entry.Item.Expiry),
			formatReminderDate(entry.Item.RemindOn),
		))
	}

	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>Here are your item reminders for today:</p>"+
			"<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\">"+
			"<thead><tr><th>List</th><th>Item</th><th>Expiry</th><th>Remind On</th></tr></thead>"+
			"<tbody>%s</tbody></table>"+
			"<p>You can adjust or clear reminders in the app.</p>",
		html.EscapeString(name), htmlRows.String(),
	)
	textBody := fmt.Sprintf(
		"Hi %s,\n\nHere are your item reminders for today:\n%s\nYou can adjust or clear reminders in the app.\n",
		name, textLines.String(),
	)

	return port.EmailMessage{
		To:      owner.OwnerEmail,
		ToName:  name,
		Subject: "Your grocery reminders",
		HTML:    htmlBody,
		Text:    textBody,
	}
}

func formatReminderDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
