package core

import "context"

// Translator translates catalog text between the app's languages
// (English, Amharic, Geez).
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
