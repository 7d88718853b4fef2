package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"

	"edu_arcade/internal/domain"

	"github.com/go-playground/validator/v10"
)

const (
	QuestionsFile = "questions.json"
	CardsFile     = "cards.json"
)

// Content is the question and card pool sessions draw from.
type Content struct {
	Questions []domain.Question `json:"questions" validate:"dive"`
	Cards     []domain.Card     `json:"cards" validate:"dive"`
}

var contentValidator = validator.New()

// LoadContent reads questions.json and cards.json from dir. A missing file
// falls back to the built-in sample pool; a malformed one is an error.
func LoadContent(dir string) (Content, error) {
	c := Content{Questions: SampleQuestions(), Cards: SampleCards()}
	if dir == "" {
		return c, nil
	}

	var qs []domain.Question
	ok, err := readJSON(filepath.Join(dir, QuestionsFile), &qs)
	if err != nil {
		return Content{}, err
	}
	if ok {
		c.Questions = qs
	}

	var cards []domain.Card
	ok, err = readJSON(filepath.Join(dir, CardsFile), &cards)
	if err != nil {
		return Content{}, err
	}
	if ok {
		c.Cards = cards
	}

	if err := c.Validate(); err != nil {
		return Content{}, err
	}
	return c, nil
}

func readJSON(path string, v any) (bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// Validate checks every question and card, including that the correct
// answer addresses an option.
func (c Content) Validate() error {
	if err := contentValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid content: %w", err)
	}
	for _, q := range c.Questions {
		if !q.HasOption(q.CorrectAnswer) {
			return fmt.Errorf("invalid content: question %s: correct answer %d out of range", q.ID, q.CorrectAnswer)
		}
	}
	return nil
}

// Shuffled returns a shuffled copy of items.
func Shuffled[T any](rnd *rand.Rand, items []T) []T {
	out := append([]T(nil), items...)
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Draw returns up to n questions in random order, without repeats.
func Draw(rnd *rand.Rand, qs []domain.Question, n int) []domain.Question {
	out := Shuffled(rnd, qs)
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

func SampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q-geo-1", Prompt: "What is the capital of Chile?", Options: []string{"Valparaíso", "Santiago", "Concepción", "Antofagasta"}, CorrectAnswer: 1},
		{ID: "q-math-1", Prompt: "How much is 7 × 8?", Options: []string{"54", "56", "58", "64"}, CorrectAnswer: 1},
		{ID: "q-sci-1", Prompt: "Which planet is known as the red planet?", Options: []string{"Venus", "Jupiter", "Mars", "Mercury"}, CorrectAnswer: 2},
		{ID: "q-sci-2", Prompt: "What gas do plants absorb from the air?", Options: []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Helium"}, CorrectAnswer: 1},
		{ID: "q-lang-1", Prompt: "Which word is a verb?", Options: []string{"quickly", "run", "blue", "table"}, CorrectAnswer: 1},
		{ID: "q-hist-1", Prompt: "In which year did the first moon landing happen?", Options: []string{"1959", "1965", "1969", "1975"}, CorrectAnswer: 2},
		{ID: "q-math-2", Prompt: "What is half of 150?", Options: []string{"75", "70", "65", "80"}, CorrectAnswer: 0},
		{ID: "q-geo-2", Prompt: "Which is the longest river in South America?", Options: []string{"Paraná", "Orinoco", "Amazon", "Magdalena"}, CorrectAnswer: 2},
		{ID: "q-sci-3", Prompt: "How many legs does an insect have?", Options: []string{"4", "6", "8", "10"}, CorrectAnswer: 1},
		{ID: "q-math-3", Prompt: "Which number is prime?", Options: []string{"21", "27", "29", "33"}, CorrectAnswer: 2},
	}
}

// SampleCards is a debate on whether homework should be optional.
func SampleCards() []domain.Card {
	return []domain.Card{
		{ID: "c-f-1", Argument: "Free afternoons leave time for sports and art", Evidence: "Students with hobbies report less stress", Position: domain.StanceFavor, Strength: 3, Points: 30},
		{ID: "c-f-2", Argument: "Not every home has a quiet place to study", Evidence: "Homework widens the gap between families", Position: domain.StanceFavor, Strength: 4, Points: 40},
		{ID: "c-f-3", Argument: "Practice in class is guided by a teacher", Evidence: "Mistakes get corrected right away", Position: domain.StanceFavor, Strength: 2, Points: 20},
		{ID: "c-f-4", Argument: "Rest improves learning the next day", Evidence: "Sleep helps memory", Position: domain.StanceFavor, Strength: 3, Points: 25},
		{ID: "c-f-5", Argument: "Motivated students will study anyway", Evidence: "Optional work is done by choice", Position: domain.StanceFavor, Strength: 1, Points: 15},
		{ID: "c-c-1", Argument: "Repetition builds lasting skills", Evidence: "Spaced practice beats cramming", Position: domain.StanceContra, Strength: 4, Points: 40},
		{ID: "c-c-2", Argument: "Homework teaches responsibility", Evidence: "Deadlines are part of every job", Position: domain.StanceContra, Strength: 3, Points: 30},
		{ID: "c-c-3", Argument: "Parents see what their children learn", Evidence: "Homework connects home and school", Position: domain.StanceContra, Strength: 2, Points: 20},
		{ID: "c-c-4", Argument: "Class time is too short to cover everything", Evidence: "Reading at home frees class for discussion", Position: domain.StanceContra, Strength: 3, Points: 25},
		{ID: "c-c-5", Argument: "Optional work is skipped by those who need it most", Evidence: "Struggling students fall further behind", Position: domain.StanceContra, Strength: 1, Points: 15},
	}
}
