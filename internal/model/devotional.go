package model

import "time"

// Devotional is the content for a single calendar day.  The pair
// (MonthID, DayNumber) is unique; rows are only ever upserted.
type Devotional struct {
	MonthID           int       `json:"month_id"`
	DayNumber         int       `json:"day_number"`
	Title             string    `json:"title"`
	StoryTitle        string    `json:"story_title"`
	StoryContent      string    `json:"story_content"`
	VerseText         string    `json:"verse_text"`
	VerseReference    string    `json:"verse_reference"`
	ReflectionContent string    `json:"reflection_content"`
	PrayerContent     string    `json:"prayer_content"`
	ImageURL          *string   `json:"image_url"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DevotionalFields holds the editable part of a Devotional.
type DevotionalFields struct {
	Title             string  `json:"title" form:"title"`
	StoryTitle        string  `json:"story_title" form:"story_title"`
	StoryContent      string  `json:"story_content" form:"story_content"`
	VerseText         string  `json:"verse_text" form:"verse_text"`
	VerseReference    string  `json:"verse_reference" form:"verse_reference"`
	ReflectionContent string  `json:"reflection_content" form:"reflection_content"`
	PrayerContent     string  `json:"prayer_content" form:"prayer_content"`
	ImageURL          *string `json:"image_url" form:"image_url"`
}

// Fields returns the editable part of d.
func (d Devotional) Fields() DevotionalFields {
	return DevotionalFields{
		Title:             d.Title,
		StoryTitle:        d.StoryTitle,
		StoryContent:      d.StoryContent,
		VerseText:         d.VerseText,
		VerseReference:    d.VerseReference,
		ReflectionContent: d.ReflectionContent,
		PrayerContent:     d.PrayerContent,
		ImageURL:          d.ImageURL,
	}
}
