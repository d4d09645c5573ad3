package discord

import (
	"testing"

	"mirage/image-api/model"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

const sampleUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

func fieldNames(e *discordgo.MessageEmbed) []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

func TestUserCreatedEmbed(t *testing.T) {
	t.Parallel()

	e := userCreatedEmbed("alice", "alice@example.com", "bob")

	require.Equal(t, "User Created", e.Title)
	require.Equal(t, colorGreen, e.Color)
	require.Equal(t, []string{"Username", "Email", "Invited By"}, fieldNames(e))
	require.Equal(t, "alice", e.Fields[0].Value)
	require.Equal(t, "alice@example.com", e.Fields[1].Value)
	require.Equal(t, "bob", e.Fields[2].Value)
}

func TestUserLinkedEmbed(t *testing.T) {
	t.Parallel()

	e := userLinkedEmbed("alice", "123456")

	require.Equal(t, "User Linked Discord", e.Title)
	require.Equal(t, colorTeal, e.Color)
	require.Equal(t, []string{"Username", "Discord", "Discord ID"}, fieldNames(e))
	require.Equal(t, "<@123456>", e.Fields[1].Value)
	require.Equal(t, "123456", e.Fields[2].Value)
}

func TestModeratorDeletionEmbed(t *testing.T) {
	t.Parallel()

	discordID := "123456"
	mod := &model.User{Username: "mod"}

	t.Run("uploader with linked discord", func(t *testing.T) {
		img := &model.Image{
			ShortID:        "abc123",
			DeletionReason: "ToS violation",
			Uploader:       &model.User{Username: "alice", Discord: &discordID},
		}

		e := moderatorDeletionEmbed(img, mod, "10.0.0.1", "mirage.photos")

		require.Equal(t, "Image Deleted By Moderator", e.Title)
		require.Equal(t, colorRed, e.Color)
		require.Equal(t, []string{"Deletion Type", "Uploader", "Discord", "Discord ID", "Moderator", "Moderator IP"}, fieldNames(e))
		require.Equal(t, "10.0.0.1", e.Fields[5].Value)
	})

	t.Run("uploader without linked discord", func(t *testing.T) {
		img := &model.Image{
			ShortID:        "abc123",
			DeletionReason: "ToS violation",
			Uploader:       &model.User{Username: "alice"},
		}

		e := moderatorDeletionEmbed(img, mod, "10.0.0.1", "mirage.photos")

		require.Equal(t, []string{"Deletion Type", "Uploader", "Moderator", "Moderator IP"}, fieldNames(e))
	})
}

func TestLoginEmbed(t *testing.T) {
	t.Parallel()

	e := loginEmbed("10.0.0.1", sampleUA)

	require.Equal(t, "User Login", e.Title)
	require.Equal(t, colorOrange, e.Color)
	require.Equal(t, []string{"IP Address", "Browser", "Device", "OS"}, fieldNames(e))
	require.Equal(t, "10.0.0.1", e.Fields[0].Value)
	require.Contains(t, e.Fields[1].Value, "Chrome")
	require.Contains(t, e.Fields[3].Value, "Windows")
}

func TestSessionMismatchEmbed(t *testing.T) {
	t.Parallel()

	e := sessionMismatchEmbed("10.0.0.1", "10.9.9.9", sampleUA)

	require.Equal(t, "User Session IP Mismatch", e.Title)
	require.Equal(t, colorRed, e.Color)
	require.Equal(t, []string{"**your** IP address", "Bad IP Address", "Browser", "Device", "OS"}, fieldNames(e))
	require.Equal(t, "10.0.0.1", e.Fields[0].Value)
	require.Equal(t, "10.9.9.9", e.Fields[1].Value)
}

func TestReportEmbed(t *testing.T) {
	t.Parallel()

	r := &model.Report{
		ID:         7,
		ReporterIP: "10.0.0.1",
		Reason:     "stolen content",
		Image:      &model.Image{ShortID: "abc123", OriginalName: "cat.png"},
	}

	e := reportEmbed(r, "mirage.photos")

	require.Equal(t, "Abuse Report Submitted", e.Title)
	require.Equal(t, colorRed, e.Color)
	require.Equal(t, []string{"Reporter IP", "Reason", "Image"}, fieldNames(e))
	require.Contains(t, e.Fields[1].Value, "stolen content")
	require.Contains(t, e.Fields[2].Value, "cat.png")
}

func TestBulkDeletionEmbed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind  BulkKind
		title string
		field string
	}{
		{BulkImages, "Image Nuke Completed", "Images Deleted"},
		{BulkPastes, "Paste Nuke Completed", "Pastes Deleted"},
		{BulkURLs, "URL Nuke Completed", "URLs Deleted"},
	}

	for _, tc := range cases {
		e := bulkDeletionEmbed(tc.kind, 42)

		require.Equal(t, tc.title, e.Title)
		require.Equal(t, colorTeal, e.Color)
		require.Len(t, e.Fields, 1)
		require.Equal(t, tc.field, e.Fields[0].Name)
		require.Equal(t, "42", e.Fields[0].Value)
	}
}

func TestAgentFieldsUnknownAgent(t *testing.T) {
	t.Parallel()

	fields := agentFields("definitely-not-a-browser")

	require.Len(t, fields, 3)
	require.Equal(t, "Other", fields[1].Value)
	require.Equal(t, "Other", fields[2].Value)
}
