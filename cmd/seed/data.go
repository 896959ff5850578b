package main

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/devocional/internal/model"
)

//go:embed seed.yaml
var seedYAML []byte

type verse struct {
	Text string `yaml:"text"`
	Ref  string `yaml:"ref"`
}

// seedData is the content of seed.yaml.  Devotionals are generated by
// cycling through each list independently.
type seedData struct {
	Months      []model.Month `yaml:"months"`
	Themes      []string      `yaml:"themes"`
	Animals     []string      `yaml:"animals"`
	Actions     []string      `yaml:"actions"`
	Lessons     []string      `yaml:"lessons"`
	StoryTitles []string      `yaml:"story_titles"`
	Verses      []verse       `yaml:"verses"`
	Reflections []string      `yaml:"reflections"`
	Prayers     []string      `yaml:"prayers"`
}

func loadSeed(raw []byte) (seedData, error) {
	var d seedData
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("parse seed data: %w", err)
	}
	if len(d.Months) != 12 {
		return d, fmt.Errorf("seed data has %d months, want 12", len(d.Months))
	}
	for name, n := range map[string]int{
		"themes": len(d.Themes), "animals": len(d.Animals), "actions": len(d.Actions),
		"lessons": len(d.Lessons), "story_titles": len(d.StoryTitles), "verses": len(d.Verses),
		"reflections": len(d.Reflections), "prayers": len(d.Prayers),
	} {
		if n == 0 {
			return d, fmt.Errorf("seed data: %s is empty", name)
		}
	}
	return d, nil
}

// devotional builds the content of the idx-th day of the year.
func (d seedData) devotional(idx int) model.DevotionalFields {
	pick := func(list []string) string { return list[idx%len(list)] }
	v := d.Verses[idx%len(d.Verses)]
	story := fmt.Sprintf("Había una vez un %s que %s. Este pequeño amigo aprendió una lección muy importante "+
		"sobre el amor y la fidelidad de Dios.\n\nLos desafíos que enfrentó se convirtieron en oportunidades "+
		"para crecer en fe y confianza.\n\nSu historia nos enseña que: %s",
		pick(d.Animals), pick(d.Actions), pick(d.Lessons))
	return model.DevotionalFields{
		Title:             pick(d.Themes),
		StoryTitle:        pick(d.StoryTitles),
		StoryContent:      story,
		VerseText:         v.Text,
		VerseReference:    v.Ref,
		ReflectionContent: pick(d.Reflections),
		PrayerContent:     pick(d.Prayers),
	}
}
