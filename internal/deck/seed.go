package deck

import "time"

// SampleDecks returns the starter collection written to a fresh local library.
func SampleDecks(now time.Time) []*Deck {
	card := func(id, q, a string) Card {
		return Card{ID: id, Question: q, Answer: a, CreatedAt: now, UpdatedAt: now}
	}
	return []*Deck{
		{
			ID:          "1",
			Title:       "JavaScript Basics",
			Description: "Fundamental concepts of JavaScript programming",
			Color:       DefaultColor,
			Cards: []Card{
				card("101", "What is JavaScript?", "A programming language that enables interactive web pages"),
				card("102", "What is a variable?", "A container that stores a value"),
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "2",
			Title:       "React Fundamentals",
			Description: "Core concepts of the React library",
			Color:       "#a8dadc",
			Cards: []Card{
				card("201", "What is JSX?", "A syntax extension for JavaScript that looks similar to HTML"),
				card("202", "What is a React component?", "A reusable piece of code that returns React elements describing what should appear on the screen"),
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
