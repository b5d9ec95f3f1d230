package dashboard

import (
	"context"

	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// AgentOverview shows an agent's referral code and the farmers who signed up with it.
type AgentOverview struct {
	ReferralCode string                         `json:"referral_code"`
	Total        int                            `json:"total_onboarded"`
	Verified     int                            `json:"verified"`
	Pending      int                            `json:"pending_verification"`
	Onboarded    *dataview.Page[models.Profile] `json:"onboarded"`
}

// LoadAgentOverview reads the profiles referred by the agent's code, taken from identity metadata.
// An agent without a code has nobody to look up.
func LoadAgentOverview(ctx context.Context, env dataview.Env, actor remote.Actor) *AgentOverview {
	code := actor.ReferralCode()
	view := onboardedView(code)

	var page *dataview.Page[models.Profile]
	if code == "" {
		page = dataview.Attach(env, actor, view)
		page.EmptyMessage = view.EmptyMessage
	} else {
		page = dataview.Open(ctx, env, actor, view)
	}

	out := &AgentOverview{ReferralCode: code, Total: len(page.Rows), Onboarded: page}
	for _, p := range page.Rows {
		if p.Verified {
			out.Verified++
		} else {
			out.Pending++
		}
	}
	return out
}
