package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agrilinkchain/agrilink/internal/dashboard"
	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/http/respond"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/models/dto"
)

// mountAccount adds the profile and notification pages shared by the farmer and buyer portals under base.
func (p portal) mountAccount(r chi.Router, base string) {
	r.Get("/profile", p.handleProfile(base+"/profile"))
	r.Put("/profile", p.handleSaveProfile(base+"/profile"))
	r.Get("/notifications", p.handleNotifications(base+"/notifications"))
	r.Post("/notifications/read-all", p.handleMarkAllRead(base+"/notifications"))
	r.Post("/notifications/{id}/read", p.handleMarkRead(base+"/notifications"))
}

// notificationsPage adds the unread badge count to the notification list.
type notificationsPage struct {
	Unread int `json:"unread"`
	*dataview.Page[models.Notification]
}

func notificationsView(page *dataview.Page[models.Notification]) notificationsPage {
	return notificationsPage{Unread: dashboard.UnreadCount(page), Page: page}
}

func (p portal) handleProfile(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := mustSession(r)
		page := dashboard.LoadProfile(r.Context(), p.env(rec), rec.Actor)
		name := ""
		if page.Profile != nil {
			name = page.Profile.FullName
		}
		p.render(w, r, path, name, page, page.Notices)
	}
}

func (p portal) handleSaveProfile(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.ProfileRequest
		if err := respond.Decode(w, r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		rec := mustSession(r)
		page, err := dashboard.SaveProfile(r.Context(), p.env(rec), rec.Actor, req)
		if err != nil {
			notices := []models.Notice{models.Alert("Update failed", err.Error())}
			if page != nil {
				notices = page.Notices
			}
			p.fail(w, r, err, notices...)
			return
		}
		name := ""
		if page.Profile != nil {
			name = page.Profile.FullName
		}
		p.render(w, r, path, name, page, page.Notices)
	}
}

func (p portal) handleNotifications(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := mustSession(r)
		page := dashboard.Notifications(r.Context(), p.env(rec), rec.Actor)
		p.render(w, r, path, "", notificationsView(page), page.Notices)
	}
}

func (p portal) handleMarkRead(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := mustSession(r)
		page, err := dashboard.MarkRead(r.Context(), p.env(rec), rec.Actor, chi.URLParam(r, "id"))
		if err != nil {
			p.fail(w, r, err, page.Notices...)
			return
		}
		p.render(w, r, path, "", notificationsView(page), page.Notices)
	}
}

func (p portal) handleMarkAllRead(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := mustSession(r)
		page, err := dashboard.MarkAllRead(r.Context(), p.env(rec), rec.Actor)
		if err != nil {
			p.fail(w, r, err, page.Notices...)
			return
		}
		p.render(w, r, path, "", notificationsView(page), page.Notices)
	}
}
