package dashboard

import (
	"context"
	"errors"

	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

var readPatch = remote.Record{"read": true}

// Notifications lists the actor's notifications, newest first.
func Notifications(ctx context.Context, env dataview.Env, actor remote.Actor) *dataview.Page[models.Notification] {
	return dataview.Open(ctx, env, actor, notificationsView())
}

// MarkRead flags one notification as read and patches the page without re-reading it.
func MarkRead(ctx context.Context, env dataview.Env, actor remote.Actor, id string) (*dataview.Page[models.Notification], error) {
	page := Notifications(ctx, env, actor)
	if page.State == dataview.Failed {
		return page, page.Err()
	}
	if !hasRow(page.Rows, id) {
		return page, remote.ErrNotFound
	}
	return page, page.Mutate(ctx, id, readPatch, models.Alert("Error updating notification", ""))
}

// MarkAllRead issues one update per unread notification. Rows are patched locally; nothing is re-read.
func MarkAllRead(ctx context.Context, env dataview.Env, actor remote.Actor) (*dataview.Page[models.Notification], error) {
	page := Notifications(ctx, env, actor)
	if page.State == dataview.Failed {
		return page, page.Err()
	}
	var unread []string
	for _, n := range page.Rows {
		if !n.Read {
			unread = append(unread, n.ID)
		}
	}
	var errs []error
	for _, id := range unread {
		if err := page.Mutate(ctx, id, readPatch, models.Alert("Error updating notification", "")); err != nil {
			errs = append(errs, err)
		}
	}
	return page, errors.Join(errs...)
}

// UnreadCount counts unread notifications on page.
func UnreadCount(page *dataview.Page[models.Notification]) int {
	n := 0
	for _, row := range page.Rows {
		if !row.Read {
			n++
		}
	}
	return n
}

func hasRow(rows []models.Notification, id string) bool {
	for _, n := range rows {
		if n.ID == id {
			return true
		}
	}
	return false
}
