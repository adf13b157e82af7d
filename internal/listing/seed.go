package listing

// PlaceholderImage is shown for listings without a photo.
const PlaceholderImage = "/static/placeholder.svg"

func rate(v int64) *int64 { return &v }

// Seed returns the static listings every browsing session starts with.
// Each call returns a fresh slice so sessions never share state.
func Seed() []Listing {
	return []Listing{
		{
			ID:         "1",
			Title:      "Italian antique two-seat bench sofa",
			Price:      350000,
			HourlyRate: rate(5000),
			Location:   "Hannam-dong",
			TimeAgo:    "6 minutes ago",
			Image:      PlaceholderImage,
			Category:   CategoryFurniture,
			Available:  true,
		},
		{
			ID:         "2",
			Title:      "Oakley Bathroom Sink backpack, brand new",
			Price:      170000,
			HourlyRate: rate(3000),
			Location:   "Hannam-dong",
			TimeAgo:    "6 minutes ago",
			Image:      "https://images.unsplash.com/photo-1473091534298-04dcbce3278c?w=400&h=400&fit=crop",
			Category:   CategoryTools,
			Available:  true,
		},
		{
			ID:         "3",
			Title:      "Gucci jacquard tote bag",
			Price:      350000,
			HourlyRate: rate(4000),
			Location:   "Hannam-dong",
			TimeAgo:    "7 minutes ago",
			Image:      "https://images.unsplash.com/photo-1460925895917-afdab827c52f?w=400&h=400&fit=crop",
			Category:   CategoryTools,
			Available:  true,
		},
		{
			ID:         "4",
			Title:      "Knit trousers",
			Price:      5000,
			HourlyRate: rate(1000),
			Location:   "Hannam-dong",
			TimeAgo:    "7 minutes ago",
			Image:      "https://images.unsplash.com/photo-1487887235947-a955ef187fcc?w=400&h=400&fit=crop",
			Category:   CategoryFurniture,
			Available:  true,
		},
		{
			ID:         "5",
			Title:      "Power drill set - DIY essential",
			Price:      80000,
			HourlyRate: rate(8000),
			Location:   "Yongsan-gu",
			TimeAgo:    "15 minutes ago",
			Image:      "https://images.unsplash.com/photo-1461749280684-dccba630e2f6?w=400&h=400&fit=crop",
			Category:   CategoryTools,
			Available:  true,
		},
		{
			ID:         "6",
			Title:      "Camping tent for 4 + tarp",
			Price:      120000,
			HourlyRate: rate(10000),
			Location:   "Hannam-dong",
			TimeAgo:    "23 minutes ago",
			Image:      "https://images.unsplash.com/photo-1721322800607-8c38375eef04?w=400&h=400&fit=crop",
			Category:   CategoryCamping,
			Available:  true,
		},
		{
			ID:         "7",
			Title:      "Three-step folding ladder",
			Price:      45000,
			HourlyRate: rate(3000),
			Location:   "Gangnam-gu",
			TimeAgo:    "1 hour ago",
			Image:      "https://images.unsplash.com/photo-1473091534298-04dcbce3278c?w=400&h=400&fit=crop",
			Category:   CategoryTools,
			Available:  false,
		},
		{
			ID:         "8",
			Title:      "MacBook Pro 16-inch laptop",
			Price:      250000,
			HourlyRate: rate(15000),
			Location:   "Hannam-dong",
			TimeAgo:    "2 hours ago",
			Image:      "https://images.unsplash.com/photo-1460925895917-afdab827c52f?w=400&h=400&fit=crop",
			Category:   CategoryElectronics,
			Available:  true,
		},
	}
}

// PopularSearches are the quick search tags shown under the board.
var PopularSearches = []string{
	"drill", "ladder", "hammer", "saw", "air conditioner", "bicycle",
	"laptop", "computer", "fridge", "washer", "desk", "chair",
	"tent", "camping", "party", "speaker", "vacuum", "iron",
	"projector", "console", "fitness", "golf", "fishing", "hiking",
}
