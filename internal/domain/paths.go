package domain

import "strings"

const (
	UsersCollection         = "users"
	ProjectsCollection      = "projects"
	ContributionsCollection = "contributions"
	NotificationsCollection = "notifications"
	ContributorsCollection  = "contributors"
)

// Segments are joined verbatim; ids are never cleaned, so "." or ".." cannot
// resolve to another document.
func join(segments ...string) string {
	return strings.Join(segments, "/")
}

func ProfilePath(uid string) string {
	return join(UsersCollection, uid)
}

func ProjectPath(projectID string) string {
	return join(ProjectsCollection, projectID)
}

func ContributorPath(projectID, uid string) string {
	return join(ProjectsCollection, projectID, ContributorsCollection, uid)
}

func ContributionsPath(uid string) string {
	return join(UsersCollection, uid, ContributionsCollection)
}

func ContributionPath(uid, projectID string) string {
	return join(ContributionsPath(uid), projectID)
}

func NotificationsPath(uid string) string {
	return join(UsersCollection, uid, NotificationsCollection)
}
