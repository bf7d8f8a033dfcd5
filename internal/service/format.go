package service

import (
	"regexp"
	"strings"

	"chanbridge/internal/constants"
)

// reservedNames matches the platform and mascot names that Discord rejects
// or that would let a relayed copy impersonate system messages.
var reservedNames = regexp.MustCompile(`(?i)\b(clyde|discord)\b`)

// SanitizeDisplayName replaces reserved name tokens, in any letter case,
// with the redaction marker. Names without such tokens pass through
// unchanged.
func SanitizeDisplayName(name string) string {
	return reservedNames.ReplaceAllString(name, constants.RedactionMarker)
}

// FormatDisplayName substitutes the bridge's name format template with the
// originating guild name and the (already sanitized) author display name.
func FormatDisplayName(nameFormat, guildName, username string) string {
	if nameFormat == "" {
		nameFormat = constants.DefaultNameFormat
	}
	out := strings.ReplaceAll(nameFormat, constants.GuildNamePlaceholder, guildName)
	out = strings.ReplaceAll(out, constants.UserNamePlaceholder, username)
	return out
}

// TruncateContent caps message content at Discord's maximum length,
// counting runes so a multi-byte boundary is never split.
func TruncateContent(content string) string {
	runes := []rune(content)
	if len(runes) <= constants.MaxMessageLength {
		return content
	}
	return string(runes[:constants.MaxMessageLength])
}
