package domain

// Book is an inventory record. A nil Owner means the record is public:
// visible and mutable by any authenticated user. Owner is set once at
// creation and never changed by updates.
type Book struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	ReleaseDate string   `json:"releaseDate"`
	Quantity    int      `json:"quantity"`
	IsRentable  bool     `json:"isRentable"`
	Owner       *string  `json:"owner,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Long        *float64 `json:"long,omitempty"`
}

func (b Book) IsPublic() bool {
	return b.Owner == nil
}
