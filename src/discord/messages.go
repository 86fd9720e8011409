package discord

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxDiscordMessageLen = 2000
	SafeChunkLen         = 1900
)

// SplitLines packs lines into messages of at most SafeChunkLen runes, breaking
// only between lines. A single line longer than the limit is truncated.
func SplitLines(lines []string) []string {
	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if size > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, line := range lines {
		line = truncateForDiscord(line, SafeChunkLen)
		n := utf8.RuneCountInString(line)
		if size > 0 && size+1+n > SafeChunkLen {
			flush()
		}
		if size > 0 {
			current.WriteByte('\n')
			size++
		}
		current.WriteString(line)
		size += n
	}
	flush()
	return chunks
}

func truncateForDiscord(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}
