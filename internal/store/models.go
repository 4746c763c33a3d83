package store

import "time"

// Project statuses. Quote projects are created by the public quote-request
// intake before any commercial agreement exists.
const (
	ProjectStatusPlanning   = "planning"
	ProjectStatusInProgress = "in-progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusOnHold     = "on-hold"
	ProjectStatusQuote      = "quote"
)

type Project struct {
	ID            string
	Name          string
	Title         string
	ClientName    string
	ClientID      *string
	Status        string
	Budget        float64
	Timeline      string
	Progress      int
	Featured      bool
	FeaturedOrder *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Client struct {
	ID           string
	Name         string
	Email        string
	Company      string
	Phone        string
	Website      string
	BusinessName string
	Address      string
	// ProjectCount and TotalSpent are derived values recomputed by
	// RecalculateClientStats, never incremented in place.
	ProjectCount int
	TotalSpent   float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ClientContact struct {
	ID        string
	ClientID  string
	Name      string
	Email     string
	Phone     string
	Role      string
	IsPrimary bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Review struct {
	ID          string
	ClientName  string
	ClientTitle string
	Company     string
	Rating      int
	ReviewText  string
	ProjectName string
	ProjectID   *string
	ImageURL    string
	IsActive    bool
	SortOrder   int
	Source      string
	SourceURL   string
	Verified    bool
	Featured    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Notification struct {
	ID        string
	Type      string
	Title     string
	Message   string
	Link      string
	Read      bool
	CreatedAt time.Time
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Company      string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Used      bool
}

type File struct {
	ID         string
	ProjectID  string
	Name       string
	FileType   string
	URL        string
	Size       int64
	UploadedBy *string
	CreatedAt  time.Time
}

type Message struct {
	ID          string
	SenderID    string
	RecipientID string
	ProjectID   string
	Subject     string
	Body        string
	Read        bool
	CreatedAt   time.Time
}

type Service struct {
	ID               string
	Title            string
	Description      string
	Audience         string
	Features         []string
	Disclaimer       string
	Price            string
	Category         string
	HardwareIncluded bool
	Active           bool
	SortOrder        int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
