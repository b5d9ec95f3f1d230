package remote

// Schema lists the columns of every collection the application reads or writes.
var Schema = map[string][]string{
	Profiles: {
		"id", "full_name", "email", "phone", "location", "bio", "avatar_url", "role", "verified",
		"referral_code", "referred_by", "total_earnings", "credit_score", "created_at", "updated_at",
	},
	Listings: {
		"id", "title", "description", "price", "unit", "quantity", "category", "image_url", "farmer_id", "created_at",
	},
	Orders: {
		"id", "buyer_id", "farmer_id", "listing_id", "amount", "status", "created_at", "updated_at",
	},
	Reviews: {
		"id", "rating", "comment", "buyer_id", "farmer_id", "order_id", "created_at",
	},
	Notifications: {
		"id", "user_id", "type", "title", "message", "read", "created_at",
	},
}

// HasColumn reports whether collection defines column.
func HasColumn(collection, column string) bool {
	for _, c := range Schema[collection] {
		if c == column {
			return true
		}
	}
	return false
}

// CheckQuery validates q against Schema.
func CheckQuery(q Query) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if _, ok := Schema[q.Collection]; !ok {
		return ErrUnknownCollection
	}
	for _, c := range q.Columns {
		if !HasColumn(q.Collection, c) {
			return invalidf("unknown column %q on %s", c, q.Collection)
		}
	}
	for _, f := range q.Filters {
		if !HasColumn(q.Collection, f.Column) {
			return invalidf("unknown filter column %q on %s", f.Column, q.Collection)
		}
	}
	if q.Order != nil && !HasColumn(q.Collection, q.Order.Column) {
		return invalidf("unknown order column %q on %s", q.Order.Column, q.Collection)
	}
	for _, e := range q.Expand {
		target := e.TargetOrDefault()
		if !HasColumn(q.Collection, e.Column) {
			return invalidf("unknown expansion column %q on %s", e.Column, q.Collection)
		}
		if _, ok := Schema[target]; !ok {
			return ErrUnknownCollection
		}
		for _, field := range e.Fields {
			if !HasColumn(target, field) {
				return invalidf("unknown expansion field %q on %s", field, target)
			}
		}
	}
	return nil
}

// CheckRecord validates that every key of rec is a column of collection.
func CheckRecord(collection string, rec Record) error {
	if _, ok := Schema[collection]; !ok {
		return ErrUnknownCollection
	}
	for k := range rec {
		if !HasColumn(collection, k) {
			return invalidf("unknown column %q on %s", k, collection)
		}
	}
	return nil
}

// TargetOrDefault returns the expanded collection; expansions point at profiles unless told otherwise.
func (e Expansion) TargetOrDefault() string {
	if e.Target == "" {
		return Profiles
	}
	return e.Target
}
