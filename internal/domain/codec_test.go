package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestProfileFromData(t *testing.T) {
	t.Run("missing profile", func(t *testing.T) {
		p := ProfileFromData("u1", nil)
		assert.False(t, p.Exists)
		assert.Equal(t, "u1", p.ID)
		assert.Nil(t, p.Name)
		assert.Nil(t, p.Picture)
	})

	t.Run("present fields", func(t *testing.T) {
		p := ProfileFromData("u1", map[string]any{
			"name":    "Ada",
			"picture": "https://img/ada.png",
			"email":   "ada@example.com",
			"status":  "active",
		})
		assert.True(t, p.Exists)
		require.NotNil(t, p.Name)
		assert.Equal(t, "Ada", *p.Name)
		assert.Equal(t, "ada@example.com", *p.Email)
		assert.Equal(t, ProfileStatusActive, p.Status)
	})

	t.Run("wrong types are treated as absent", func(t *testing.T) {
		p := ProfileFromData("u1", map[string]any{"name": 42})
		assert.True(t, p.Exists)
		assert.Nil(t, p.Name)
	})
}

func TestProjectFromData(t *testing.T) {
	p := ProjectFromData("p1", map[string]any{
		"title":   "Bridge",
		"images":  []any{"a", 3, "b"},
		"status":  "Published",
		"creator": map[string]any{"uid": "u1", "name": "Ada"},
	})

	assert.True(t, p.Exists)
	assert.Equal(t, []string{"a", "b"}, p.Images)
	require.NotNil(t, p.Title)
	assert.Equal(t, "Bridge", *p.Title)
	require.NotNil(t, p.Creator)
	assert.Equal(t, "u1", p.Creator.UID)
	assert.Equal(t, "Ada", *p.CreatorName())
	assert.Nil(t, p.Creator.Picture)

	missing := ProjectFromData("p2", nil)
	assert.False(t, missing.Exists)
	assert.Nil(t, missing.CreatorName())
	assert.Empty(t, missing.Images)
}

func TestCreatorFields(t *testing.T) {
	assert.Equal(t, map[string]any{"uid": "u1"}, Creator{UID: "u1"}.Fields())
	assert.Equal(t,
		map[string]any{"uid": "u1", "name": "Ada", "picture": "pic"},
		Creator{UID: "u1", Name: strPtr("Ada"), Picture: strPtr("pic")}.Fields(),
	)
}

func TestNotificationFields_NullURL(t *testing.T) {
	now := time.Now()
	m := Notification{Title: NotifyContributionDeleted, Status: NotificationStatusUnread, CreatedAt: now}.Fields()

	v, ok := m["url"]
	assert.True(t, ok, "url key must be present")
	assert.Nil(t, v)
	assert.Equal(t, "Contribution Deleted.", m["title"])
}

func TestIdentityFromData(t *testing.T) {
	id := IdentityFromData("u1", map[string]any{
		"email":       "ada@example.com",
		"displayName": "Ada",
		"metadata":    map[string]any{"creationTime": "Fri, 01 Mar 2024 00:00:00 GMT"},
	})
	assert.Equal(t, "Ada", *id.DisplayName)
	assert.Nil(t, id.PhotoURL)
	assert.Equal(t, "Fri, 01 Mar 2024 00:00:00 GMT", *id.CreationTime)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "users/u1", ProfilePath("u1"))
	assert.Equal(t, "projects/p1", ProjectPath("p1"))
	assert.Equal(t, "projects/p1/contributors/u1", ContributorPath("p1", "u1"))
	assert.Equal(t, "users/u1/contributions/p1", ContributionPath("u1", "p1"))
	assert.Equal(t, "users/u1/notifications", NotificationsPath("u1"))
}
