package analytics

// SystemAnalytics is the admin dashboard. Money is in minor units of each booking's currency.
type SystemAnalytics struct {
	TotalUsers           int64             `json:"total_users"`
	TotalEvents          int64             `json:"total_events"`
	ActiveBookings       int64             `json:"active_bookings"`
	TotalRevenue         int64             `json:"total_revenue"`
	BookingsByStatus     map[string]int64  `json:"bookings_by_status"`
	PopularEvents        []EventPopularity `json:"popular_events"`
	BookingsPerEventType []TypeCount       `json:"bookings_per_event_type"`
	DailyRevenue         []DailyMetric     `json:"daily_revenue"`
}

type EventPopularity struct {
	EventID            string `json:"event_id"`
	Title              string `json:"title"`
	Location           string `json:"location"`
	TotalTicketsBooked int64  `json:"total_tickets_booked"`
}

type TypeCount struct {
	EventType string `json:"event_type"`
	Tickets   int64  `json:"tickets"`
}

type DailyMetric struct {
	Date     string `json:"date"`
	Bookings int64  `json:"bookings"`
	Revenue  int64  `json:"revenue"`
}

// EventAnalytics summarises one event's sales
type EventAnalytics struct {
	EventID          string  `json:"event_id"`
	Title            string  `json:"title"`
	AvailableTickets int     `json:"available_tickets"`
	TicketsSold      int64   `json:"tickets_sold"`
	Revenue          int64   `json:"revenue"`
	ConfirmedCount   int64   `json:"confirmed_count"`
	CancelledCount   int64   `json:"cancelled_count"`
	RefundedCount    int64   `json:"refunded_count"`
	PendingCount     int64   `json:"pending_count"`
	CancellationRate float64 `json:"cancellation_rate"`
	CommentCount     int64   `json:"comment_count"`
	AverageRating    float64 `json:"average_rating"`
}

// PersonalAnalytics is a user's own booking summary
type PersonalAnalytics struct {
	TotalBookings     int64 `json:"total_bookings"`
	ConfirmedBookings int64 `json:"confirmed_bookings"`
	TicketsPurchased  int64 `json:"tickets_purchased"`
	TotalSpent        int64 `json:"total_spent"`
	UpcomingEvents    int64 `json:"upcoming_events"`
}
