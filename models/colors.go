package models

// DefaultEventColor цвет для типов, которых нет в палитре
const DefaultEventColor = "#888888"

var eventTypeColors = map[string]string{
	"мастер-класс":          "#FF6B6B",
	"олимпиада":             "#4ECDC4",
	"родительское собрание": "#FFD166",
	"кружок":                "#06D6A0",
	"интенсив":              "#118AB2",
	"концерт":               "#9D4EDD",
}

// EventTypes известные типы мероприятий в порядке меню
var EventTypes = []string{
	"мастер-класс",
	"олимпиада",
	"родительское собрание",
	"кружок",
	"интенсив",
	"концерт",
}

func EventColor(typeOfEvent string) string {
	if c, ok := eventTypeColors[typeOfEvent]; ok {
		return c
	}
	return DefaultEventColor
}
