package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
)

// HasRole checks whether a member holds roleID. An empty roleID never matches.
func HasRole(member *discordgo.Member, roleID string) bool {
	if member == nil || roleID == "" {
		return false
	}
	for _, role := range member.Roles {
		if role == roleID {
			return true
		}
	}
	return false
}

// Capabilities derives the curator and thread-management rights of a member.
// Administrators and guild managers are always curators.
func Capabilities(member *discordgo.Member, curatorRoleID string) (curator, manageThreads bool) {
	if member == nil {
		return false, false
	}
	perms := member.Permissions
	admin := perms&discordgo.PermissionAdministrator != 0
	curator = admin || perms&discordgo.PermissionManageGuild != 0 || HasRole(member, curatorRoleID)
	manageThreads = admin || perms&discordgo.PermissionManageThreads != 0
	return curator, manageThreads
}

// Actor builds the acting user of an interaction. Direct-message interactions
// carry no member and therefore no capabilities.
func Actor(i *discordgo.Interaction, curatorRoleID string) suggestions.Actor {
	if i.Member == nil {
		if i.User == nil {
			return suggestions.Actor{}
		}
		return suggestions.Actor{ID: i.User.ID, Name: userName(i.User)}
	}

	actor := suggestions.Actor{Name: memberName(i.Member)}
	if i.Member.User != nil {
		actor.ID = i.Member.User.ID
	}
	actor.Curator, actor.ManageThreads = Capabilities(i.Member, curatorRoleID)
	return actor
}

func memberName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	return userName(m.User)
}

func userName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
