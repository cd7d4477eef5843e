package world

import (
	"strings"
	"unicode/utf8"
)

// MaxChatLength caps a single chat line.
const MaxChatLength = 30

// ChatFilter sanitizes a chat line. An empty result drops the message.
type ChatFilter interface {
	Filter(message string) string
}

// ChatFilterFunc adapts a function into a ChatFilter.
type ChatFilterFunc func(string) string

func (f ChatFilterFunc) Filter(message string) string {
	if f == nil {
		return message
	}
	return f(message)
}

// WordFilter masks listed words case-insensitively and trims the line.
type WordFilter struct {
	Words []string
}

func (f WordFilter) Filter(message string) string {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > MaxChatLength {
		message = string([]rune(message)[:MaxChatLength])
	}
	if len(f.Words) == 0 || message == "" {
		return message
	}
	fields := strings.Fields(message)
	for i, field := range fields {
		for _, word := range f.Words {
			if word != "" && strings.EqualFold(field, word) {
				fields[i] = strings.Repeat("*", utf8.RuneCountInString(field))
				break
			}
		}
	}
	return strings.Join(fields, " ")
}
