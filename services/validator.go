package services

import (
	"altus-chat/errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func validateCommand(cmd any) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrInvalidInput, err)
	}
	return nil
}

// validateContent trims the content and checks it is neither blank nor longer than maxLength runes.
func validateContent(content string, maxLength int) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", errors.ErrEmptyContent
	}
	if maxLength > 0 && utf8.RuneCountInString(trimmed) > maxLength {
		return "", errors.ErrContentTooLong
	}
	return trimmed, nil
}

func validateUserIDs(userIDs ...string) error {
	for _, u := range userIDs {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("%w: user id is empty", errors.ErrInvalidInput)
		}
	}
	return nil
}

// preview is the excerpt shown in push notifications.
func preview(content string) string {
	const maxRunes = 80
	if utf8.RuneCountInString(content) <= maxRunes {
		return content
	}
	return string([]rune(content)[:maxRunes]) + "…"
}
