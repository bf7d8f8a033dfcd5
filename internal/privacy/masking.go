// Package privacy masks credentials before they reach the logs. Webhook
// tokens grant send access to a channel and must never appear in plain text.
package privacy

import "strings"

// MaskToken masks a secret token, keeping the last 4 characters for
// correlation. Short tokens are fully masked.
func MaskToken(token string) string {
	return maskString(token, 4)
}

// MaskWebhookURL masks the token segment of a Discord webhook URL
// (/api/webhooks/<id>/<token>). The id stays readable; anything after it is
// replaced.
func MaskWebhookURL(url string) string {
	marker := "/api/webhooks/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return maskString(url, 8)
	}

	rest := url[idx+len(marker):]
	id, token, found := strings.Cut(rest, "/")
	if !found || token == "" {
		return url
	}
	return url[:idx+len(marker)] + id + "/" + MaskToken(token)
}

func maskString(s string, keepLast int) string {
	if s == "" {
		return ""
	}
	if len(s) <= keepLast {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-keepLast) + s[len(s)-keepLast:]
}
