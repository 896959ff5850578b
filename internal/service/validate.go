// Package service implements the operations behind the HTTP handlers:
// content editing and reading, reader progress, user administration and
// sessions.  Input is validated here, before any store call.
package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/devocional/internal/calendar"
	"github.com/iliyamo/devocional/internal/model"
	"github.com/iliyamo/devocional/internal/repository"
)

var validate = validator.New()

func runes(s string) int { return utf8.RuneCountInString(s) }

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool { return validate.Var(s, "required,email") == nil }

// IsHTTPURL reports whether s is an absolute http or https URL.
func IsHTTPURL(s string) bool {
	if validate.Var(s, "required,url") != nil {
		return false
	}
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func checkMonth(v *repository.ValidationErrors, month int) {
	if month < 1 || month > 12 {
		v.Add("month_id", "el mes debe estar entre 1 y 12")
	}
}

func checkDay(v *repository.ValidationErrors, year, month, day int) {
	if month < 1 || month > 12 {
		checkMonth(v, month)
		return
	}
	if !calendar.ValidDay(year, month, day) {
		v.Add("day_number", fmt.Sprintf("el día debe estar entre 1 y %d para %s",
			calendar.DaysInMonth(year, month), calendar.MonthName(month)))
	}
}

// normalizeDevotional trims every field and drops an empty image url.
func normalizeDevotional(f model.DevotionalFields) model.DevotionalFields {
	f.Title = strings.TrimSpace(f.Title)
	f.StoryTitle = strings.TrimSpace(f.StoryTitle)
	f.StoryContent = strings.TrimSpace(f.StoryContent)
	f.VerseText = strings.TrimSpace(f.VerseText)
	f.VerseReference = strings.TrimSpace(f.VerseReference)
	f.ReflectionContent = strings.TrimSpace(f.ReflectionContent)
	f.PrayerContent = strings.TrimSpace(f.PrayerContent)
	if f.ImageURL != nil {
		u := strings.TrimSpace(*f.ImageURL)
		if u == "" {
			f.ImageURL = nil
		} else {
			f.ImageURL = &u
		}
	}
	return f
}

// ValidateDevotional checks the editable fields of a devotional.  Fields
// must already be normalized.
func ValidateDevotional(f model.DevotionalFields) repository.ValidationErrors {
	var v repository.ValidationErrors
	switch n := runes(f.Title); {
	case n < 3:
		v.Add("title", "el título debe tener al menos 3 caracteres")
	case n > 100:
		v.Add("title", "el título no puede superar 100 caracteres")
	}
	if n := runes(f.StoryTitle); n > 0 && n < 3 {
		v.Add("story_title", "el título de la historia debe tener al menos 3 caracteres")
	} else if n > 255 {
		v.Add("story_title", "el título de la historia no puede superar 255 caracteres")
	}
	if n := runes(f.StoryContent); n > 0 && n < 10 {
		v.Add("story_content", "la historia debe tener al menos 10 caracteres")
	}
	if runes(f.VerseText) < 5 {
		v.Add("verse_text", "el versículo debe tener al menos 5 caracteres")
	}
	switch n := runes(f.VerseReference); {
	case n < 3:
		v.Add("verse_reference", "la referencia debe tener al menos 3 caracteres")
	case n > 100:
		v.Add("verse_reference", "la referencia no puede superar 100 caracteres")
	}
	if runes(f.ReflectionContent) < 10 {
		v.Add("reflection_content", "la reflexión debe tener al menos 10 caracteres")
	}
	if runes(f.PrayerContent) < 5 {
		v.Add("prayer_content", "la oración debe tener al menos 5 caracteres")
	}
	if f.ImageURL != nil && (!IsHTTPURL(*f.ImageURL) || runes(*f.ImageURL) > 500) {
		v.Add("image_url", "la imagen debe ser una URL válida")
	}
	return v
}
