package discord

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedRoundTrip(t *testing.T) {
	s := &suggestions.Suggestion{ID: 7, Status: suggestions.StatusOpen, VotesFor: 1}
	layout, err := suggestions.NewLayout(s).WithReason("needs design")
	require.NoError(t, err)

	embed := BuildEmbed(suggestions.Display{
		SuggestionID: 7,
		Title:        "Dark mode",
		Description:  "Please",
		AuthorName:   "alice",
		Status:       suggestions.StatusApproved,
		Layout:       layout,
	})

	assert.Equal(t, "Dark mode", embed.Title)
	assert.Equal(t, 0xFABD2F, embed.Color)
	assert.Equal(t, "Suggestion #7", embed.Footer.Text)
	assert.Equal(t, "alice", embed.Author.Name)
	require.Len(t, embed.Fields, 5)
	assert.Equal(t, suggestions.FieldReason, embed.Fields[3].Name)

	assert.Equal(t, layout, LayoutFromEmbed(embed))
}

func TestEmbedFieldsNeverEmpty(t *testing.T) {
	fields := EmbedFields(suggestions.Layout{{Name: suggestions.FieldReason, Value: ""}})
	assert.Equal(t, blankField, fields[0].Value)
	assert.Equal(t, "", LayoutFromEmbed(&discordgo.MessageEmbed{Fields: fields})[0].Value)
	assert.Nil(t, LayoutFromEmbed(nil))
}

func TestVoteButtonsMapToDesires(t *testing.T) {
	row, ok := VoteButtons()[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 3)
	for _, c := range row.Components {
		btn := c.(discordgo.Button)
		_, known := Desires[btn.CustomID]
		assert.True(t, known, btn.CustomID)
	}
}

func TestCapabilities(t *testing.T) {
	cases := []struct {
		name          string
		member        *discordgo.Member
		curator, mgmt bool
	}{
		{"nil member", nil, false, false},
		{"plain", &discordgo.Member{}, false, false},
		{"curator role", &discordgo.Member{Roles: []string{"r1", "cur"}}, true, false},
		{"manage guild", &discordgo.Member{Permissions: discordgo.PermissionManageGuild}, true, false},
		{"manage threads", &discordgo.Member{Permissions: discordgo.PermissionManageThreads}, false, true},
		{"admin", &discordgo.Member{Permissions: discordgo.PermissionAdministrator}, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			curator, mgmt := Capabilities(tc.member, "cur")
			assert.Equal(t, tc.curator, curator)
			assert.Equal(t, tc.mgmt, mgmt)
		})
	}

	assert.False(t, HasRole(&discordgo.Member{Roles: []string{""}}, ""))
}

func TestActor(t *testing.T) {
	actor := Actor(&discordgo.Interaction{Member: &discordgo.Member{
		Nick:        "Nick",
		User:        &discordgo.User{ID: "42", Username: "user"},
		Permissions: discordgo.PermissionAdministrator,
	}}, "")
	assert.Equal(t, suggestions.Actor{ID: "42", Name: "Nick", Curator: true, ManageThreads: true}, actor)

	dm := Actor(&discordgo.Interaction{User: &discordgo.User{ID: "9", Username: "bob", GlobalName: "Bob"}}, "")
	assert.Equal(t, suggestions.Actor{ID: "9", Name: "Bob"}, dm)
}

func TestWrapURLsNoEmbed(t *testing.T) {
	assert.Equal(t, "see <https://example.com/a>.", WrapURLsNoEmbed("see https://example.com/a."))
	assert.Equal(t, "no links", WrapURLsNoEmbed("no links"))
	assert.Equal(t, "https://discord.com/channels/g/c/m", MessageLink("g", "c", "m"))
}

func TestSplitLines(t *testing.T) {
	assert.Empty(t, SplitLines(nil))
	assert.Equal(t, []string{"a\nb"}, SplitLines([]string{"a", "b"}))

	line := strings.Repeat("x", 700)
	chunks := SplitLines([]string{line, line, line, line})
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), SafeChunkLen)
	}

	long := SplitLines([]string{strings.Repeat("é", SafeChunkLen+10)})
	require.Len(t, long, 1)
	assert.Equal(t, SafeChunkLen, utf8.RuneCountInString(long[0]))
	assert.True(t, strings.HasSuffix(long[0], "…"))
}

func TestSubcommand(t *testing.T) {
	name, opts := Subcommand(discordgo.ApplicationCommandInteractionData{
		Name: CommandSuggestion,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Name: SubcommandDelete,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Value: float64(3)},
			},
		}},
	})
	assert.Equal(t, SubcommandDelete, name)
	assert.Equal(t, int64(3), opts["id"].IntValue())

	name, opts = Subcommand(discordgo.ApplicationCommandInteractionData{Name: CommandSuggestion})
	assert.Empty(t, name)
	assert.Empty(t, opts)
}

func TestStatusChoicesCoverEveryStatus(t *testing.T) {
	choices := statusChoices()
	require.Len(t, choices, len(suggestions.Statuses))
	for _, c := range choices {
		_, ok := suggestions.ParseStatus(c.Value.(string))
		assert.True(t, ok)
	}
}
