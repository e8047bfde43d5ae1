package bot

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/MineRobber9000/sctrivia/chatbox"
	"github.com/MineRobber9000/sctrivia/models"
	"github.com/MineRobber9000/sctrivia/trivia"
)

const (
	cmdTrivia = "trivia"
	cmdAnswer = "answer"

	letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	fetchTimeout = 30 * time.Second
)

const usageText = "Usage: `\\trivia [-c category] [-d difficulty]`\n" +
	"-c/--category: The category of question. Use -l/--list-categories to list categories, partial matches are allowed.\n" +
	"-d/--difficulty: The difficulty of question. Easy/medium/hard, you can abbreviate from the first letter, `ez` is allowed as easy.\n" +
	"-s/--stats: Show your score so far."

// categoryQualifier matches the sub-category prefix the API puts on some
// category names, e.g. "Entertainment: Video Games".
var categoryQualifier = regexp.MustCompile(`^\w+: `)

// Teller sends a private chat message to a user.
type Teller interface {
	Tell(username, text string) error
}

// Fetcher fetches one trivia question matching the filters.
type Fetcher interface {
	GetQuestion(ctx context.Context, f trivia.Filters) (*models.Question, error)
}

// ScoreStore records graded answers and reports per-user totals.
type ScoreStore interface {
	RecordAnswer(userID, category, difficulty string, correct bool) error
	UserStats(userID string) (models.ScoreStats, error)
}

// Bot dispatches chatbox commands: it hands out trivia questions and grades
// answers against the per-user question store.
type Bot struct {
	chat   Teller
	trivia Fetcher
	scores ScoreStore
	logger zerolog.Logger

	answerTimeout time.Duration
	store         *questionStore
}

// New creates a new bot instance.
func New(chat Teller, fetcher Fetcher, scores ScoreStore, answerTimeout time.Duration, logger zerolog.Logger) *Bot {
	return &Bot{
		chat:          chat,
		trivia:        fetcher,
		scores:        scores,
		logger:        logger,
		answerTimeout: answerTimeout,
		store:         newQuestionStore(),
	}
}

// HandleCommand processes one command event from the gateway.
func (b *Bot) HandleCommand(cmd chatbox.Command) {
	switch cmd.Command {
	case cmdTrivia:
		b.handleTrivia(cmd)
	case cmdAnswer:
		b.handleAnswer(cmd)
	}
}

// triviaArgs holds the parsed \trivia flags.
type triviaArgs struct {
	Help           bool
	ListCategories bool
	Stats          bool
	Category       string
	Difficulty     string

	categorySet   bool
	difficultySet bool
}

// parseTriviaArgs re-tokenizes the raw command text with shell-like quoting
// rules and parses the flags.
func parseTriviaArgs(args []string) (*triviaArgs, error) {
	tokens, err := shlex.Split(strings.Join(args, " "))
	if err != nil {
		return nil, err
	}

	fs := pflag.NewFlagSet(cmdTrivia, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts := &triviaArgs{}
	fs.BoolVarP(&opts.Help, "help", "h", false, "show usage")
	fs.BoolVarP(&opts.ListCategories, "list-categories", "l", false, "list categories")
	fs.BoolVarP(&opts.Stats, "stats", "s", false, "show your score")
	fs.StringVarP(&opts.Category, "category", "c", "", "question category")
	fs.StringVarP(&opts.Difficulty, "difficulty", "d", "", "question difficulty")

	if err := fs.Parse(tokens); err != nil {
		return nil, err
	}
	opts.categorySet = fs.Changed("category")
	opts.difficultySet = fs.Changed("difficulty")
	return opts, nil
}

// handleTrivia handles the \trivia command.
func (b *Bot) handleTrivia(cmd chatbox.Command) {
	user := cmd.User

	opts, err := parseTriviaArgs(cmd.Args)
	if err != nil {
		b.logger.Warn().Err(err).Str("user", user.Name).Msg("argument parse error")
		b.tell(user.Name, "Error parsing arguments! "+err.Error())
		return
	}

	if opts.Help {
		b.tell(user.Name, usageText)
		return
	}
	if opts.Stats {
		b.handleStats(user)
		return
	}

	// Listing categories does not stop the command; a question is still
	// fetched afterwards.
	if opts.ListCategories {
		b.tell(user.Name, "Categories: `"+strings.Join(trivia.CategoryNames(), "`, `")+"`")
	}

	var filters trivia.Filters
	if opts.categorySet {
		matches := trivia.ResolveCategory(opts.Category)
		if len(matches) > 1 {
			b.tell(user.Name, "Ambiguous category; do you mean: "+strings.Join(matches, ", "))
			return
		}
		// No match leaves id 0, which the API matches no questions for.
		id := 0
		if len(matches) == 1 {
			id = trivia.CategoryID(matches[0])
		}
		filters.Category = &id
	}
	if opts.difficultySet {
		diff := trivia.ResolveDifficulty(opts.Difficulty)
		if diff == "" {
			// Reported but not fatal; the fetch proceeds unfiltered.
			b.tell(user.Name, fmt.Sprintf("Invalid difficulty %s!", opts.Difficulty))
		}
		filters.Difficulty = diff
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	question, err := b.trivia.GetQuestion(ctx, filters)
	if err != nil {
		b.logger.Error().Err(err).Str("user", user.Name).Msg("failed to fetch question")
		b.tell(user.Name, err.Error())
		return
	}

	b.store.Put(user.UUID, question, b.answerTimeout, func(q *models.Question) {
		b.tell(user.Name, "Time's up! Correct answer: "+q.CorrectAnswer)
	})
	b.tell(user.Name, b.renderQuestion(question))
}

// renderQuestion formats the question prompt.
func (b *Bot) renderQuestion(q *models.Question) string {
	var sb strings.Builder
	category := categoryQualifier.ReplaceAllString(q.Category, "")
	fmt.Fprintf(&sb, "Alright, here's a %s question from the category \"%s\".\n\n", q.Difficulty, category)

	if q.Type == models.TypeBoolean {
		fmt.Fprintf(&sb, "True or false: %s\nUse \\answer t for true or \\answer f for false.", q.Question)
	} else {
		sb.WriteString(q.Question + "\n")
		for i, answer := range q.Answers {
			fmt.Fprintf(&sb, "%c. %s\n", letters[i], answer)
		}
		sb.WriteString("Use \\answer <letter> to answer.")
	}

	fmt.Fprintf(&sb, "\nYou have %d seconds.", int(b.answerTimeout.Seconds()))
	return sb.String()
}

// handleAnswer handles the \answer command.
func (b *Bot) handleAnswer(cmd chatbox.Command) {
	user := cmd.User

	question, ok := b.store.Get(user.UUID)
	if !ok {
		b.tell(user.Name, "There's no question for you to answer! Try \\trivia.")
		return
	}

	var input string
	if len(cmd.Args) > 0 {
		input = cmd.Args[0]
	}

	switch question.Type {
	case models.TypeBoolean:
		if input != "t" && input != "f" {
			b.tell(user.Name, "Use \\answer t for true or \\answer f for false.")
			return
		}
		correct := (input == "t") == (question.CorrectAnswer == "True")
		b.finishQuestion(user, question, correct)
		if correct {
			b.tell(user.Name, "Correct! Well done!")
		} else {
			b.tell(user.Name, fmt.Sprintf("Ooh, I'm sorry! That's incorrect! The answer was %s.", strings.ToLower(question.CorrectAnswer)))
		}
	case models.TypeMultiple:
		idx := answerIndex(input)
		if idx < 0 || idx >= len(question.Answers) {
			b.tell(user.Name, "Use \\answer <letter> to answer.")
			return
		}
		correct := question.Answers[idx] == question.CorrectAnswer
		b.finishQuestion(user, question, correct)
		if correct {
			b.tell(user.Name, "Correct! Well done!")
		} else {
			b.tell(user.Name, fmt.Sprintf("Ooh, I'm sorry! That's incorrect! The answer was %q.", question.CorrectAnswer))
		}
	}
}

// answerIndex maps a single letter A-Z (case-insensitively) to its position
// in the answer list, or -1 for anything else.
func answerIndex(input string) int {
	if len(input) != 1 {
		return -1
	}
	return strings.Index(letters, strings.ToUpper(input))
}

// finishQuestion clears the stored question and records the result.
func (b *Bot) finishQuestion(user chatbox.User, q *models.Question, correct bool) {
	b.store.Remove(user.UUID, q)
	if b.scores == nil {
		return
	}
	if err := b.scores.RecordAnswer(user.UUID.String(), q.Category, q.Difficulty, correct); err != nil {
		b.logger.Error().Err(err).Str("user", user.Name).Msg("failed to record answer")
	}
}

// handleStats replies with the user's score summary.
func (b *Bot) handleStats(user chatbox.User) {
	if b.scores == nil {
		b.tell(user.Name, "Score tracking is disabled.")
		return
	}

	stats, err := b.scores.UserStats(user.UUID.String())
	if err != nil {
		b.logger.Error().Err(err).Str("user", user.Name).Msg("failed to load stats")
		b.tell(user.Name, "Sorry, I couldn't retrieve your statistics. Please try again later.")
		return
	}

	if stats.Total() == 0 {
		b.tell(user.Name, "You haven't answered any questions yet! Try \\trivia.")
		return
	}

	accuracy := float64(stats.Correct) / float64(stats.Total()) * 100
	b.tell(user.Name, fmt.Sprintf("You've answered %d questions: %d correct, %d incorrect (%.1f%% accuracy).",
		stats.Total(), stats.Correct, stats.Incorrect, accuracy))
}

// tell sends a private message, logging any delivery failure.
func (b *Bot) tell(username, text string) {
	if err := b.chat.Tell(username, text); err != nil {
		b.logger.Error().Err(err).Str("user", username).Msg("failed to send message")
	}
}
