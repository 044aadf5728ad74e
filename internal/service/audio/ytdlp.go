package audio

import (
	"strings"
)

// Download failure reasons derived from yt-dlp output.
const (
	ReasonPrivate     = "private"
	ReasonRegion      = "region-locked"
	ReasonUnavailable = "unavailable"
	ReasonUnreachable = "unreachable"
	ReasonTooLarge    = "too-large"
	ReasonTimeout     = "timeout"
)

var downloadReasons = []struct {
	reason  string
	needles []string
}{
	{ReasonPrivate, []string{"private video", "sign in to confirm", "login required", "members-only", "requires authentication"}},
	{ReasonRegion, []string{"not available in your country", "geo restrict", "blocked it in your country", "not made this video available in your country"}},
	{ReasonTooLarge, []string{"larger than max-filesize", "file is larger than"}},
	{ReasonUnreachable, []string{"unable to download webpage", "name or service not known", "temporary failure in name resolution", "nodename nor servname", "connection refused", "network is unreachable", "timed out", "no route to host"}},
	{ReasonUnavailable, []string{"video unavailable", "has been removed", "does not exist", "unsupported url", "http error 404", "no video formats found"}},
}

// downloadReason maps yt-dlp output to a failure reason.
func downloadReason(output string) string {
	lower := strings.ToLower(output)
	for _, r := range downloadReasons {
		for _, n := range r.needles {
			if strings.Contains(lower, n) {
				return r.reason
			}
		}
	}
	return ReasonUnavailable
}

var reasonMessages = map[string]string{
	ReasonPrivate:     "the video is private or requires sign-in",
	ReasonRegion:      "the video is not available in this region",
	ReasonTooLarge:    "the media file exceeds the download limit",
	ReasonUnreachable: "the URL could not be reached",
	ReasonUnavailable: "the video is unavailable or the URL is not supported",
	ReasonTimeout:     "the download timed out",
}

func reasonMessage(reason string) string {
	if m, ok := reasonMessages[reason]; ok {
		return m
	}
	return "the media could not be downloaded"
}

// lastLine returns the last non-empty line of tool output, for error text.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
