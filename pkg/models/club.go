package models

// Role is a club member's permission level.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

type User struct {
	ID         string   `json:"id,omitempty"`
	Username   string   `json:"username"`
	FullName   string   `json:"full_name"`
	Email      string   `json:"email"`
	Role       Role     `json:"role"`
	Coins      int      `json:"coins"`
	ProjectIDs []string `json:"project_ids,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "Active"
	ProjectCompleted ProjectStatus = "Completed"
	ProjectOnHold    ProjectStatus = "OnHold"
)

type Project struct {
	ID            string        `json:"id,omitempty"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Status        ProjectStatus `json:"status"`
	MemberIDs     []string      `json:"member_ids,omitempty"`
	ProjectLeadID string        `json:"project_lead_id,omitempty"`
	GithubLink    string        `json:"github_link,omitempty"`
	CreatedBy     string        `json:"created_by,omitempty"`
	CreatedAt     string        `json:"created_at,omitempty"`
	UpdatedAt     string        `json:"updated_at,omitempty"`
}

type CoinTransaction struct {
	ID        string `json:"id,omitempty"`
	UserID    string `json:"user_id"`
	Amount    int    `json:"amount"`
	AdminID   string `json:"admin_id,omitempty"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at,omitempty"`
}

type LeaderboardEntry struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	CoinsEarned int    `json:"coins_earned"`
	Rank        int    `json:"rank"`
}

type Leaderboard struct {
	WeekStart string             `json:"week_start"`
	WeekEnd   string             `json:"week_end"`
	Rankings  []LeaderboardEntry `json:"rankings"`
}

type Message struct {
	ID             string   `json:"id,omitempty"`
	SenderID       string   `json:"sender_id,omitempty"`
	RecipientIDs   []string `json:"recipient_ids,omitempty"`
	Subject        string   `json:"subject"`
	Content        string   `json:"content"`
	IsGroupMessage bool     `json:"is_group_message"`
	CreatedAt      string   `json:"created_at,omitempty"`
}

// Blog is a database-backed article served by the REST backend.
type Blog struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Content     string `json:"content"`
	AuthorName  string `json:"author_name"`
	ImageURL    string `json:"image_url,omitempty"`
	Category    string `json:"category,omitempty"`
	CreatedAt   string `json:"created_at"`
}
