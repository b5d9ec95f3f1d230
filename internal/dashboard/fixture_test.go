package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrilinkchain/agrilink/internal/dataview"
	"github.com/agrilinkchain/agrilink/internal/remote"
	"github.com/agrilinkchain/agrilink/internal/remote/memory"
)

var t0 = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

var (
	farmer = remote.Actor{ID: "farmer-1", Email: "musa@example.com", Metadata: remote.Metadata{"role": "farmer"}}
	buyer  = remote.Actor{ID: "buyer-1", Email: "ada@example.com", Metadata: remote.Metadata{"role": "buyer"}}
	admin  = remote.Actor{ID: "admin-1", Email: "root@example.com", Metadata: remote.Metadata{"role": "admin"}}
	agent  = remote.Actor{ID: "agent-1", Email: "kemi@example.com", Metadata: remote.Metadata{"role": "agent", "referral_code": "AGT12345"}}
)

// spy counts the calls that reach the backend and can fail them on demand.
type spy struct {
	remote.Collections
	mu        sync.Mutex
	reads     int
	updates   int
	failReads bool
}

var errBackendDown = errors.New("backend unavailable")

func (s *spy) Read(ctx context.Context, q remote.Query) ([]remote.Record, error) {
	s.mu.Lock()
	s.reads++
	fail := s.failReads
	s.mu.Unlock()
	if fail {
		return nil, errBackendDown
	}
	return s.Collections.Read(ctx, q)
}

func (s *spy) Update(ctx context.Context, collection, id string, patch remote.Record) error {
	s.mu.Lock()
	s.updates++
	s.mu.Unlock()
	return s.Collections.Update(ctx, collection, id, patch)
}

func (s *spy) counts() (reads, updates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.updates
}

func (s *spy) reset() {
	s.mu.Lock()
	s.reads, s.updates = 0, 0
	s.mu.Unlock()
}

func newFixture(t *testing.T) (*spy, dataview.Env) {
	t.Helper()
	backend := memory.New()
	require.NoError(t, backend.Seed(remote.Profiles,
		remote.Record{"id": farmer.ID, "full_name": "Musa Abubakar", "email": farmer.Email, "location": "Kano", "role": "farmer", "verified": true, "total_earnings": 54000.0, "credit_score": 720, "referred_by": "AGT12345", "created_at": t0},
		remote.Record{"id": "farmer-2", "full_name": "John Ojo", "email": "john@example.com", "location": "Oyo", "role": "farmer", "verified": false, "referred_by": "AGT12345", "created_at": t0.Add(time.Hour)},
		remote.Record{"id": "farmer-3", "full_name": "Sarah Williams", "email": "sarah@example.com", "role": "farmer", "verified": false, "created_at": t0.Add(2 * time.Hour)},
		remote.Record{"id": buyer.ID, "full_name": "Ada Obi", "email": buyer.Email, "role": "buyer", "verified": true, "created_at": t0.Add(3 * time.Hour)},
		remote.Record{"id": admin.ID, "full_name": "Root", "email": admin.Email, "role": "admin", "verified": true, "created_at": t0.Add(4 * time.Hour)},
		remote.Record{"id": agent.ID, "full_name": "Kemi Ade", "email": agent.Email, "role": "agent", "verified": false, "referral_code": "AGT12345", "created_at": t0.Add(5 * time.Hour)},
	))
	require.NoError(t, backend.Seed(remote.Listings,
		remote.Record{"id": "l-1", "title": "Fresh Organic Tomatoes", "price": 1200.0, "unit": "kg", "quantity": 50.0, "category": "Vegetables", "farmer_id": farmer.ID, "created_at": t0},
		remote.Record{"id": "l-2", "title": "Premium White Yam", "price": 4500.0, "unit": "tuber", "quantity": 20.0, "category": "Roots", "farmer_id": farmer.ID, "created_at": t0.Add(time.Hour)},
		remote.Record{"id": "l-3", "title": "Sweet Yellow Corn", "price": 800.0, "unit": "5 cobs", "quantity": 100.0, "category": "Grains", "farmer_id": "farmer-2", "created_at": t0.Add(2 * time.Hour)},
	))
	require.NoError(t, backend.Seed(remote.Orders,
		remote.Record{"id": "o-1", "buyer_id": buyer.ID, "farmer_id": farmer.ID, "listing_id": "l-1", "amount": 2400.0, "status": "pending", "created_at": t0},
		remote.Record{"id": "o-2", "buyer_id": buyer.ID, "farmer_id": farmer.ID, "listing_id": "l-2", "amount": 9000.0, "status": "completed", "created_at": t0.Add(time.Hour)},
		remote.Record{"id": "o-3", "buyer_id": buyer.ID, "farmer_id": farmer.ID, "listing_id": "l-1", "amount": 1200.0, "status": "completed", "created_at": t0.Add(2 * time.Hour)},
		remote.Record{"id": "o-4", "buyer_id": buyer.ID, "farmer_id": "farmer-2", "listing_id": "l-3", "amount": 800.0, "status": "cancelled", "created_at": t0.Add(3 * time.Hour)},
		remote.Record{"id": "o-5", "buyer_id": "buyer-2", "farmer_id": farmer.ID, "listing_id": "l-2", "amount": 4500.0, "status": "pending", "created_at": t0.Add(4 * time.Hour)},
	))
	require.NoError(t, backend.Seed(remote.Reviews,
		remote.Record{"id": "r-1", "rating": 5, "comment": "Great tomatoes", "buyer_id": buyer.ID, "farmer_id": farmer.ID, "order_id": "o-2", "created_at": t0},
		remote.Record{"id": "r-2", "rating": 4, "comment": "", "buyer_id": buyer.ID, "farmer_id": farmer.ID, "order_id": "o-3", "created_at": t0.Add(time.Hour)},
		remote.Record{"id": "r-3", "rating": 4, "comment": "Good", "buyer_id": "buyer-2", "farmer_id": farmer.ID, "created_at": t0.Add(2 * time.Hour)},
	))
	require.NoError(t, backend.Seed(remote.Notifications,
		remote.Record{"id": "n-1", "user_id": buyer.ID, "type": "order", "title": "Order placed", "message": "Your order is pending", "read": false, "created_at": t0},
		remote.Record{"id": "n-2", "user_id": buyer.ID, "type": "review", "title": "Thanks", "message": "Review saved", "read": true, "created_at": t0.Add(time.Hour)},
		remote.Record{"id": "n-3", "user_id": buyer.ID, "type": "system", "title": "Welcome", "message": "Hello", "read": false, "created_at": t0.Add(2 * time.Hour)},
		remote.Record{"id": "n-4", "user_id": buyer.ID, "type": "order", "title": "Order shipped", "message": "On the way", "read": false, "created_at": t0.Add(3 * time.Hour)},
		remote.Record{"id": "n-5", "user_id": farmer.ID, "type": "order", "title": "New order", "read": false, "created_at": t0},
	))
	s := &spy{Collections: backend.Scoped("")}
	return s, dataview.Env{Collections: s}
}
