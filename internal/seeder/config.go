package seeder

import "time"

// Config holds configuration for a seeding run
type Config struct {
	BaseURL string        // Base URL of the service
	Matches int           // Number of matches to generate
	Workers int           // Number of concurrent submitters
	Timeout time.Duration // HTTP request timeout
	Last    int           // Analytics window fetched after seeding
	Verbose bool          // Log every submission
	Seed    uint64        // Random seed; 0 picks one from the clock
}

// Stats holds run statistics
type Stats struct {
	Generated int
	Submitted int
	Created   int
	Duplicate int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// matchPayload is the body accepted by POST /matches.
type matchPayload struct {
	Date         string         `json:"date"`
	Opponent     string         `json:"opponent"`
	GoalsFor     int            `json:"goals_for"`
	GoalsAgainst int            `json:"goals_against"`
	Notes        string         `json:"notes,omitempty"`
	GoalEvents   []eventPayload `json:"goal_events"`
}

type eventPayload struct {
	Side       string   `json:"side"`
	Minute     int      `json:"minute"`
	PlayType   string   `json:"play_type"`
	ABPSubtype string   `json:"abp_subtype,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	XEnd       *float64 `json:"x_end,omitempty"`
	YEnd       *float64 `json:"y_end,omitempty"`
}

// matchAck is the response of POST /matches.
type matchAck struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}
