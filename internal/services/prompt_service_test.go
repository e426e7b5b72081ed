package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/somnifex/PromptManager/internal/database"
	"github.com/somnifex/PromptManager/internal/models"
)

func seedUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashedpassword",
		Role:     role,
		IsActive: true,
	}
	assert.NoError(t, database.DB.Create(u).Error)
	return u
}

func TestCreatePromptAttachesDefaultTag(t *testing.T) {
	setupTestDB()
	author := seedUser(t, "bob", models.RoleUser)

	p, err := CreatePrompt(author, CreatePromptInput{
		Title:   "Greeting",
		Content: "v1",
	})
	assert.NoError(t, err)

	loaded, err := GetPrompt(p.ID)
	assert.NoError(t, err)
	assert.Len(t, loaded.Tags, 1)
	assert.Equal(t, models.DefaultTagName, loaded.Tags[0].Name)
	assert.Equal(t, models.DefaultTagColor, loaded.Tags[0].Color)
	assert.Equal(t, models.SharingModePrivate, loaded.SharingMode)

	count, err := VersionCount(p.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	versions, err := ListVersions(p.ID)
	assert.NoError(t, err)
	assert.Len(t, versions, 1)
	assert.Equal(t, uint(1), versions[0].VersionNumber)
	assert.Equal(t, "v1", versions[0].Content)
}

func TestCreatePromptWithTags(t *testing.T) {
	setupTestDB()
	author := seedUser(t, "bob", models.RoleUser)

	tag := models.Tag{Name: "api", Color: "#1976d2"}
	assert.NoError(t, database.DB.Create(&tag).Error)

	p, err := CreatePrompt(author, CreatePromptInput{
		Title:   "Greeting",
		Content: "v1",
		TagIDs:  []uint{tag.ID},
	})
	assert.NoError(t, err)

	loaded, err := GetPrompt(p.ID)
	assert.NoError(t, err)
	assert.Len(t, loaded.Tags, 1)
	assert.Equal(t, "api", loaded.Tags[0].Name)

	_, err = CreatePrompt(author, CreatePromptInput{
		Title:   "Broken",
		Content: "v1",
		TagIDs:  []uint{9999},
	})
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestUpdatePromptVersioning(t *testing.T) {
	setupTestDB()
	author := seedUser(t, "bob", models.RoleUser)

	p, err := CreatePrompt(author, CreatePromptInput{Title: "Greeting", Content: "v1"})
	assert.NoError(t, err)

	// Title-only update does not version
	newTitle := "Renamed"
	updated, err := UpdatePrompt(p.ID, author, UpdatePromptInput{Title: &newTitle})
	assert.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	count, _ := VersionCount(p.ID)
	assert.Equal(t, int64(1), count)

	// Content update creates version 2
	newContent := "v2"
	updated, err = UpdatePrompt(p.ID, author, UpdatePromptInput{Content: &newContent, CommitMessage: "second draft"})
	assert.NoError(t, err)
	assert.Equal(t, "v2", updated.Content)

	versions, err := ListVersions(p.ID)
	assert.NoError(t, err)
	assert.Len(t, versions, 2)
	assert.Equal(t, uint(2), versions[0].VersionNumber)
	assert.Equal(t, "v2", versions[0].Content)
	assert.Equal(t, "second draft", versions[0].CommitMessage)
	assert.Equal(t, uint(1), versions[1].VersionNumber)
}

func TestUpdatePromptTagSemantics(t *testing.T) {
	setupTestDB()
	author := seedUser(t, "bob", models.RoleUser)

	tagA := models.Tag{Name: "a", Color: "#111111"}
	tagB := models.Tag{Name: "b", Color: "#222222"}
	assert.NoError(t, database.DB.Create(&tagA).Error)
	assert.NoError(t, database.DB.Create(&tagB).Error)

	p, err := CreatePrompt(author, CreatePromptInput{Title: "T", Content: "c", TagIDs: []uint{tagA.ID}})
	assert.NoError(t, err)

	// nil TagIDs: unchanged
	title := "T2"
	updated, err := UpdatePrompt(p.ID, author, UpdatePromptInput{Title: &title})
	assert.NoError(t, err)
	assert.Len(t, updated.Tags, 1)
	assert.Equal(t, "a", updated.Tags[0].Name)

	// non-empty TagIDs: replaced exactly
	newTags := []uint{tagB.ID}
	updated, err = UpdatePrompt(p.ID, author, UpdatePromptInput{TagIDs: &newTags})
	assert.NoError(t, err)
	assert.Len(t, updated.Tags, 1)
	assert.Equal(t, "b", updated.Tags[0].Name)

	// empty TagIDs: reset to Default
	empty := []uint{}
	updated, err = UpdatePrompt(p.ID, author, UpdatePromptInput{TagIDs: &empty})
	assert.NoError(t, err)
	assert.Len(t, updated.Tags, 1)
	assert.Equal(t, models.DefaultTagName, updated.Tags[0].Name)
}

func TestRestoreVersion(t *testing.T) {
	setupTestDB()
	author := seedUser(t, "bob", models.RoleUser)

	p, err := CreatePrompt(author, CreatePromptInput{Title: "Greeting", Content: "v1"})
	assert.NoError(t, err)

	newContent := "v2"
	_, err = UpdatePrompt(p.ID, author, UpdatePromptInput{Content: &newContent})
	assert.NoError(t, err)

	versions, err := ListVersions(p.ID)
	assert.NoError(t, err)
	first := versions[len(versions)-1]

	restored, err := RestoreVersion(p.ID, first.ID, author)
	assert.NoError(t, err)
	assert.Equal(t, uint(3), restored.VersionNumber)
	assert.Equal(t, "v1", restored.Content)
	assert.Equal(t, "Restored from version 1", restored.CommitMessage)

	loaded, err := GetPrompt(p.ID)
	assert.NoError(t, err)
	assert.Equal(t, "v1", loaded.Content)

	// version_count equals max version_number: no gaps, starts at 1
	count, err := VersionCount(p.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRestoreVersionNotFound(t *testing.T) {
	setupTestDB()
	author := seedUser(t, "bob", models.RoleUser)

	p, err := CreatePrompt(author, CreatePromptInput{Title: "A", Content: "a"})
	assert.NoError(t, err)
	other, err := CreatePrompt(author, CreatePromptInput{Title: "B", Content: "b"})
	assert.NoError(t, err)

	otherVersions, err := ListVersions(other.ID)
	assert.NoError(t, err)

	// Version belongs to a different prompt
	_, err = RestoreVersion(p.ID, otherVersions[0].ID, author)
	assert.ErrorIs(t, err, ErrPromptNotFound)

	_, err = RestoreVersion(9999, otherVersions[0].ID, author)
	assert.ErrorIs(t, err, ErrPromptNotFound)

	_, err = RestoreVersion(p.ID, 9999, author)
	assert.ErrorIs(t, err, ErrPromptNotFound)
}

func TestListVisiblePrompts(t *testing.T) {
	setupTestDB()
	admin := seedUser(t, "root", models.RoleAdmin)
	alice := seedUser(t, "alice", models.RoleUser)
	bob := seedUser(t, "bob", models.RoleUser)

	_, err := CreatePrompt(alice, CreatePromptInput{Title: "private-a", Content: "x"})
	assert.NoError(t, err)
	_, err = CreatePrompt(alice, CreatePromptInput{Title: "shared-a", Content: "x", SharingMode: models.SharingModeTeam})
	assert.NoError(t, err)
	_, err = CreatePrompt(bob, CreatePromptInput{Title: "private-b", Content: "x"})
	assert.NoError(t, err)

	visible, err := ListVisiblePrompts(admin)
	assert.NoError(t, err)
	assert.Len(t, visible, 3)

	visible, err = ListVisiblePrompts(bob)
	assert.NoError(t, err)
	assert.Len(t, visible, 2) // own private + alice's team-shared

	titles := []string{visible[0].Title, visible[1].Title}
	assert.Contains(t, titles, "private-b")
	assert.Contains(t, titles, "shared-a")
}

func TestPromptPermissions(t *testing.T) {
	setupTestDB()
	admin := seedUser(t, "root", models.RoleAdmin)
	alice := seedUser(t, "alice", models.RoleUser)
	bob := seedUser(t, "bob", models.RoleUser)

	private, err := CreatePrompt(alice, CreatePromptInput{Title: "private", Content: "x"})
	assert.NoError(t, err)
	shared, err := CreatePrompt(alice, CreatePromptInput{Title: "shared", Content: "x", SharingMode: models.SharingModeTeam})
	assert.NoError(t, err)

	assert.True(t, CanViewPrompt(alice, private))
	assert.True(t, CanViewPrompt(admin, private))
	assert.False(t, CanViewPrompt(bob, private))
	assert.True(t, CanViewPrompt(bob, shared))

	assert.True(t, CanModifyPrompt(alice, shared))
	assert.True(t, CanModifyPrompt(admin, shared))
	assert.False(t, CanModifyPrompt(bob, shared))
}

func TestDeletePromptRemovesVersionsAndTagLinks(t *testing.T) {
	setupTestDB()
	author := seedUser(t, "bob", models.RoleUser)

	p, err := CreatePrompt(author, CreatePromptInput{Title: "Doomed", Content: "v1"})
	assert.NoError(t, err)
	newContent := "v2"
	_, err = UpdatePrompt(p.ID, author, UpdatePromptInput{Content: &newContent})
	assert.NoError(t, err)

	assert.NoError(t, DeletePrompt(p.ID))

	_, err = GetPrompt(p.ID)
	assert.ErrorIs(t, err, ErrPromptNotFound)

	var versionCount int64
	database.DB.Model(&models.PromptVersion{}).Where("prompt_id = ?", p.ID).Count(&versionCount)
	assert.Equal(t, int64(0), versionCount)

	var linkCount int64
	database.DB.Table("prompt_tags").Where("prompt_id = ?", p.ID).Count(&linkCount)
	assert.Equal(t, int64(0), linkCount)

	// The Default tag itself survives; it is shared across prompts.
	var tagCount int64
	database.DB.Model(&models.Tag{}).Where("name = ?", models.DefaultTagName).Count(&tagCount)
	assert.Equal(t, int64(1), tagCount)

	assert.ErrorIs(t, DeletePrompt(p.ID), ErrPromptNotFound)
}
