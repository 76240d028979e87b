package models

// AnswerOption is one of the four answer slots of a question.
type AnswerOption string

const (
	OptionA AnswerOption = "A"
	OptionB AnswerOption = "B"
	OptionC AnswerOption = "C"
	OptionD AnswerOption = "D"
)

type Question struct {
	ID            string       `json:"id" db:"id"`
	Subject       string       `json:"subject" db:"subject"`
	Text          string       `json:"text" db:"text"`
	OptionA       string       `json:"option_a" db:"option_a"`
	OptionB       string       `json:"option_b" db:"option_b"`
	OptionC       string       `json:"option_c" db:"option_c"`
	OptionD       string       `json:"option_d" db:"option_d"`
	CorrectOption AnswerOption `json:"-" db:"correct_option"`
}

// Subjects playable in any mode. Kept in sync with the question bank.
var Subjects = []string{
	"geography",
	"politics",
	"religion",
	"philosophy",
	"science",
	"technology",
	"programming",
	"arts",
	"music",
	"maths",
	"general_knowledge",
}

func IsValidSubject(s string) bool {
	for _, known := range Subjects {
		if s == known {
			return true
		}
	}
	return false
}

// Durations are the selectable game lengths in seconds.
var Durations = []int{300, 600, 1200}

func IsValidDuration(d int) bool {
	for _, known := range Durations {
		if d == known {
			return true
		}
	}
	return false
}
