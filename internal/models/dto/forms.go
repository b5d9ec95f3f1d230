package dto

// ListingRequest is the farmer's "add listing" form.
type ListingRequest struct {
	Title       string  `json:"title" validate:"required,max=120"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gt=0"`
	Unit        string  `json:"unit" validate:"max=32"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	Category    string  `json:"category" validate:"required,max=64"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
}

// ProfileRequest carries the fields an owner may edit on their own profile.
type ProfileRequest struct {
	FullName string `json:"full_name" validate:"max=150"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Location string `json:"location" validate:"max=120"`
	Bio      string `json:"bio" validate:"max=1000"`
}
