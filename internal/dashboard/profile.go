package dashboard

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/models/dto"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// ProfilePage is the actor's own profile form.
type ProfilePage struct {
	Profile *models.Profile `json:"profile"`
	State   dataview.State  `json:"state"`
	Notices []models.Notice `json:"notices,omitempty"`
}

// LoadProfile reads the actor's profile row.
func LoadProfile(ctx context.Context, env dataview.Env, actor remote.Actor) *ProfilePage {
	page := dataview.Open(ctx, env, actor, ownProfileView())
	return &ProfilePage{Profile: first(page), State: page.State, Notices: page.Notices}
}

// SaveProfile upserts the editable profile fields. Role and verification are never written here.
func SaveProfile(ctx context.Context, env dataview.Env, actor remote.Actor, req dto.ProfileRequest) (*ProfilePage, error) {
	if actor.ID == "" {
		return nil, dataview.ErrUnscoped
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	rec := remote.Record{
		"id":         actor.ID,
		"full_name":  strings.TrimSpace(req.FullName),
		"phone":      strings.TrimSpace(req.Phone),
		"location":   strings.TrimSpace(req.Location),
		"bio":        strings.TrimSpace(req.Bio),
		"updated_at": now(),
	}
	if err := env.Collections.Upsert(ctx, remote.Profiles, rec); err != nil {
		logger(env).Warn("profile upsert failed", zap.String("actor", actor.ID), zap.Error(err))
		return &ProfilePage{State: dataview.Failed, Notices: []models.Notice{models.Alert("Update failed", err.Error())}},
			fmt.Errorf("save profile: %w", err)
	}

	page := LoadProfile(ctx, env, actor)
	page.Notices = append(page.Notices, models.Info("Profile updated!", "Your information has been saved successfully."))
	return page, nil
}
