package questions

// Builtin returns the stock trivia bank used when no bank file is
// configured.
func Builtin() *Bank {
	return NewBank([]Question{
		{
			Type:    TypeChoice,
			Text:    "Which is the largest mammal on Earth?",
			Options: []string{"Elephant", "Blue whale", "Giraffe", "Orca"},
			Correct: 1,
		},
		{
			Type:    TypeChoice,
			Text:    "In which year did the Berlin Wall fall?",
			Options: []string{"1987", "1989", "1991", "1985"},
			Correct: 1,
		},
		{
			Type:    TypeChoice,
			Text:    "How many hearts does an octopus have?",
			Options: []string{"1", "2", "3", "4"},
			Correct: 2,
		},
		{
			Type:    TypeChoice,
			Text:    "Which planet is closest to the sun?",
			Options: []string{"Venus", "Mercury", "Mars", "Earth"},
			Correct: 1,
		},
		{
			Type:    TypeChoice,
			Text:    "How many legs does a spider have?",
			Options: []string{"6", "8", "10", "12"},
			Correct: 1,
		},
		{
			Type:    TypeChoice,
			Text:    "Which is the smallest country in the world?",
			Options: []string{"Monaco", "Vatican City", "San Marino", "Liechtenstein"},
			Correct: 1,
		},
		{
			Type:     TypeSort,
			Text:     "Order these planets by distance from the sun, closest first.",
			Options:  []string{"Earth", "Mercury", "Mars", "Venus"},
			Ordering: []int{1, 3, 0, 2},
		},
		{
			Type:    TypeChoice,
			Text:    "What is the chemical symbol for gold?",
			Options: []string{"Go", "Gd", "Au", "Ag"},
			Correct: 2,
		},
		{
			Type:     TypeSort,
			Text:     "Order these events chronologically, earliest first.",
			Options:  []string{"Moon landing", "Printing press", "World Wide Web", "French Revolution"},
			Ordering: []int{1, 3, 0, 2},
		},
		{
			Type:    TypeChoice,
			Text:    "Which ocean is the deepest?",
			Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"},
			Correct: 3,
		},
		{
			Type:    TypeChoice,
			Text:    "How many strings does a standard violin have?",
			Options: []string{"4", "5", "6", "7"},
			Correct: 0,
		},
		{
			Type:    TypeChoice,
			Text:    "Which language has the most native speakers?",
			Options: []string{"English", "Hindi", "Mandarin Chinese", "Spanish"},
			Correct: 2,
		},
	})
}
