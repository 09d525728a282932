package domain

import "time"

// Status values written by the sync handlers.
const (
	ProfileStatusActive      = "active"
	ProjectStatusPublished   = "Published"
	ContributorInitialized   = "Initialized"
	NotificationStatusUnread = "unread"
)

// Notification copy for the contributor lifecycle.
const (
	NotifyContributionRequest = "Contribution Request."
	NotifyContributionDeleted = "Contribution Deleted."
	ContributionRequestsURL   = "users/requests"
)

// Profile is the mirrored identity stored at users/{uid}.
// Optional fields are nil when the profile or the field is absent.
type Profile struct {
	ID           string
	Exists       bool
	Email        *string
	Name         *string
	Picture      *string
	CreationTime *string
	Status       string
}

// Creator is the point-in-time owner snapshot embedded in a project.
type Creator struct {
	UID     string
	Name    *string
	Picture *string
}

// Project is stored at projects/{projectId}.
type Project struct {
	ID      string
	Exists  bool
	Title   *string
	Images  []string
	Creator *Creator
}

// CreatorName returns the denormalized creator name, nil when unknown.
func (p Project) CreatorName() *string {
	if p.Creator == nil {
		return nil
	}
	return p.Creator.Name
}

// ContributorRelationship is stored at projects/{projectId}/contributors/{uid}.
type ContributorRelationship struct {
	ProjectID   string
	UserID      string
	Email       *string
	Name        *string
	Picture     *string
	CreatedAt   *time.Time
	Status      string
	Description *string
}

// Contribution mirrors a relationship under users/{uid}/contributions/{projectId}.
type Contribution struct {
	ProjectID   string
	ProjectName *string
	CreatorName *string
	Status      string
	Description *string
}

// Notification is appended under users/{uid}/notifications.
type Notification struct {
	Title     string
	URL       *string
	Status    string
	CreatedAt time.Time
}

// Identity is the identity-provider record delivered on account creation.
type Identity struct {
	UID          string
	Email        *string
	DisplayName  *string
	PhotoURL     *string
	CreationTime *string
}

// Outcome reports whether a handler wrote anything.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
)
