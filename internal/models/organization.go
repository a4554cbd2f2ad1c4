package models

// Organization fundraising state. FundRaised is in minor units and only ever
// increases; both counters are mutated with atomic adds at the store level.
type Organization struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	FundRaised     int64  `json:"fund_raised"`
	TotalDonations int64  `json:"total_donations"`
}

// Event is a fundraising event belonging to an organization. GoalReached is a
// one-way latch: once FundRaised reaches FundraisingGoal it stays true.
type Event struct {
	ID              int64  `json:"id"`
	OrganizationID  int64  `json:"organization_id"`
	Name            string `json:"name"`
	FundRaised      int64  `json:"fund_raised"`
	TotalDonations  int64  `json:"total_donations"`
	FundraisingGoal int64  `json:"fundraising_goal"`
	GoalReached     bool   `json:"goal_reached"`
}

// User holds the subset of profile fields the donation core reads.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
