package app

import (
	"context"
	"strings"

	"github.com/llehouerou/senfoni/internal/app/handler"
	"github.com/llehouerou/senfoni/internal/interject"
)

// handleSpeakCommands handles say.
func (a *App) handleSpeakCommands(ctx context.Context, name, args string) handler.Result {
	if name != "say" {
		return handler.NotHandled
	}
	if a.speaker == nil {
		return handler.Handled("Announcements are disabled.")
	}
	lang, gender, text := parseSay(args)
	if err := a.speaker.Speak(ctx, text, lang, gender); err != nil {
		return handler.Failed(err)
	}
	return handler.Handled("Speaking...")
}

// parseSay peels optional language and gender words off the front of args.
func parseSay(args string) (interject.Language, interject.Gender, string) {
	lang, gender := interject.LanguageAuto, interject.GenderFemale
	for range 2 {
		word, rest, _ := strings.Cut(args, " ")
		switch strings.ToLower(word) {
		case "auto", "tr", "en":
			lang, _ = interject.ParseLanguage(word)
		case "female", "male":
			gender, _ = interject.ParseGender(word)
		default:
			return lang, gender, args
		}
		args = strings.TrimSpace(rest)
	}
	return lang, gender, args
}
