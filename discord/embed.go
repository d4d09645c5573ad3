package discord

import (
	"fmt"
	"strconv"
	"time"

	"mirage/image-api/model"

	"github.com/bwmarrin/discordgo"
	"github.com/mileusna/useragent"
)

// Accent colors, one per event family
const (
	colorGreen  = 0x37b24d // account created
	colorTeal   = 0x1098ad // linking, bulk deletion
	colorRed    = 0xf03e3e // moderation, abuse, session mismatch
	colorOrange = 0xf59f00 // login
)

// BulkKind names a content collection a bulk deletion ran over
type BulkKind string

const (
	BulkImages BulkKind = "images"
	BulkPastes BulkKind = "pastes"
	BulkURLs   BulkKind = "urls"
)

func (k BulkKind) title() string {
	switch k {
	case BulkPastes:
		return "Paste Nuke Completed"
	case BulkURLs:
		return "URL Nuke Completed"
	default:
		return "Image Nuke Completed"
	}
}

func (k BulkKind) fieldName() string {
	switch k {
	case BulkPastes:
		return "Pastes Deleted"
	case BulkURLs:
		return "URLs Deleted"
	default:
		return "Images Deleted"
	}
}

func (k BulkKind) description() string {
	switch k {
	case BulkPastes:
		return "Your pastes were successfully deleted from Mirage servers"
	case BulkURLs:
		return "Your shortened URLs were successfully deleted from Mirage servers"
	default:
		return "Your images were successfully deleted from Mirage servers"
	}
}

func embedTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// agentFields parses a raw User-Agent header into the Browser/Device/OS
// field triple shared by the login and session mismatch notifications
func agentFields(rawUA string) []*discordgo.MessageEmbedField {
	ua := useragent.Parse(rawUA)

	browser := ua.Name
	if ua.Version != "" {
		browser += " " + ua.Version
	}

	device := ua.Device
	if device == "" {
		device = "Other"
	}

	os := ua.OS
	if ua.OSVersion != "" {
		os += " " + ua.OSVersion
	}
	if os == "" {
		os = "Other"
	}

	return []*discordgo.MessageEmbedField{
		{Name: "Browser", Value: browser},
		{Name: "Device", Value: device},
		{Name: "OS", Value: os},
	}
}

func userCreatedEmbed(username, email, invitedBy string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "User Created",
		Color:       colorGreen,
		Description: "A user signed up on the Mirage instance",
		Timestamp:   embedTimestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Username", Value: username},
			{Name: "Email", Value: email},
			{Name: "Invited By", Value: invitedBy},
		},
	}
}

func userLinkedEmbed(username, discordID string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "User Linked Discord",
		Color:       colorTeal,
		Description: "A user linked their Discord to their account",
		Timestamp:   embedTimestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Username", Value: username},
			{Name: "Discord", Value: "<@" + discordID + ">"},
			{Name: "Discord ID", Value: discordID},
		},
	}
}

func moderatorDeletionEmbed(img *model.Image, moderator *model.User, ip, domain string) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Deletion Type", Value: img.DeletionReason},
	}

	if img.Uploader != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Uploader",
			Value: fmt.Sprintf("[%s](https://%s/admin/users/%s)", img.Uploader.Username, domain, img.Uploader.Username),
		})

		if img.Uploader.Discord != nil {
			fields = append(fields,
				&discordgo.MessageEmbedField{Name: "Discord", Value: "<@" + *img.Uploader.Discord + ">"},
				&discordgo.MessageEmbedField{Name: "Discord ID", Value: *img.Uploader.Discord},
			)
		}
	}

	fields = append(fields,
		&discordgo.MessageEmbedField{
			Name:  "Moderator",
			Value: fmt.Sprintf("[%s](https://%s/admin/users/%s)", moderator.Username, domain, moderator.Username),
		},
		&discordgo.MessageEmbedField{Name: "Moderator IP", Value: ip},
	)

	return &discordgo.MessageEmbed{
		Title: "Image Deleted By Moderator",
		Color: colorRed,
		Description: fmt.Sprintf("Image `%s` was deleted by a moderator\n[View on Moderator Dashboard](https://%s/moderator/images/%s)",
			img.ShortID, domain, img.ShortID),
		Timestamp: embedTimestamp(),
		Fields:    fields,
	}
}

func loginEmbed(ip, rawUA string) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "IP Address", Value: ip},
	}

	return &discordgo.MessageEmbed{
		Title:       "User Login",
		Color:       colorOrange,
		Description: "Your Mirage account was logged into",
		Timestamp:   embedTimestamp(),
		Fields:      append(fields, agentFields(rawUA)...),
	}
}

func sessionMismatchEmbed(sessionIP, badIP, rawUA string) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "**your** IP address", Value: sessionIP},
		{Name: "Bad IP Address", Value: badIP},
	}

	return &discordgo.MessageEmbed{
		Title: "User Session IP Mismatch",
		Color: colorRed,
		Description: "Your Mirage account has been logged into with an existing session with a new IP!\n" +
			"This could be due to:\n* Dynamic IPs\n* You connected to a VPN\n* Your session was stolen\n\n" +
			"If this was not you, contact a Mirage admin immediately.",
		Timestamp: embedTimestamp(),
		Fields:    append(fields, agentFields(rawUA)...),
	}
}

func reportEmbed(r *model.Report, domain string) *discordgo.MessageEmbed {
	image := "N/A"
	if r.Image != nil {
		image = fmt.Sprintf("[%s](https://%s/moderator/images/%s)", r.Image.OriginalName, domain, r.Image.ShortID)
	}

	return &discordgo.MessageEmbed{
		Title: "Abuse Report Submitted",
		Color: colorRed,
		Description: fmt.Sprintf("Report `%d` was submitted\n[View on Moderator Dashboard](https://%s/moderator/reports/%d)",
			r.ID, domain, r.ID),
		Timestamp: embedTimestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reporter IP", Value: r.ReporterIP},
			{Name: "Reason", Value: "```\n" + r.Reason + "```"},
			{Name: "Image", Value: image},
		},
	}
}

func bulkDeletionEmbed(kind BulkKind, count int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       kind.title(),
		Color:       colorTeal,
		Description: kind.description(),
		Timestamp:   embedTimestamp(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: kind.fieldName(), Value: strconv.Itoa(count)},
		},
	}
}
