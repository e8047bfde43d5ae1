package trivia

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MineRobber9000/sctrivia/models"
)

// fakeOpenTDB records traffic against an httptest stand-in for the trivia
// API. respond produces the /api.php body for the nth call.
type fakeOpenTDB struct {
	mu            sync.Mutex
	tokenRequests int
	resetRequests int
	questionCalls int
	lastQuery     url.Values
	respond       func(call int) string
}

func newFakeOpenTDB(t *testing.T) (*fakeOpenTDB, *Client) {
	f := &fakeOpenTDB{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api_token.php":
			switch r.URL.Query().Get("command") {
			case "request":
				f.mu.Lock()
				f.tokenRequests++
				n := f.tokenRequests
				f.mu.Unlock()
				fmt.Fprintf(w, `{"response_code":0,"token":"token-%d"}`, n)
			case "reset":
				f.mu.Lock()
				f.resetRequests++
				f.mu.Unlock()
				io.WriteString(w, `{"response_code":0}`)
			default:
				http.Error(w, "bad command", http.StatusBadRequest)
			}
		case "/api.php":
			f.mu.Lock()
			f.questionCalls++
			call := f.questionCalls
			f.lastQuery = r.URL.Query()
			respond := f.respond
			f.mu.Unlock()
			io.WriteString(w, respond(call))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return f, NewClient(srv.URL, srv.Client(), zerolog.Nop())
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func successBody(t *testing.T, question map[string]any) string {
	body, err := json.Marshal(map[string]any{
		"response_code": 0,
		"results":       []any{question},
	})
	require.NoError(t, err)
	return string(body)
}

func booleanQuestion() map[string]any {
	return map[string]any{
		"category":          b64("Science & Nature"),
		"type":              b64("boolean"),
		"difficulty":        b64("easy"),
		"question":          b64("The sky is blue."),
		"correct_answer":    b64("True"),
		"incorrect_answers": []any{b64("False")},
	}
}

func multipleQuestion() map[string]any {
	return map[string]any{
		"category":          b64("Entertainment: Film"),
		"type":              b64("multiple"),
		"difficulty":        b64("medium"),
		"question":          b64("What is the capital of France?"),
		"correct_answer":    b64("Paris"),
		"incorrect_answers": []any{b64("Rome"), b64("Berlin"), b64(""), b64("Madrid")},
	}
}

func TestGetQuestionFetchesAndDecodes(t *testing.T) {
	f, client := newFakeOpenTDB(t)
	f.respond = func(int) string { return successBody(t, booleanQuestion()) }

	q, err := client.GetQuestion(context.Background(), Filters{})
	require.NoError(t, err)

	assert.Equal(t, "Science & Nature", q.Category)
	assert.Equal(t, models.TypeBoolean, q.Type)
	assert.Equal(t, "easy", q.Difficulty)
	assert.Equal(t, "The sky is blue.", q.Question)
	assert.Equal(t, "True", q.CorrectAnswer)
	assert.Empty(t, q.Answers, "boolean questions have no answer list")

	assert.Equal(t, "token-1", f.lastQuery.Get("token"))
	assert.Equal(t, "1", f.lastQuery.Get("amount"))
	assert.Equal(t, "base64", f.lastQuery.Get("encode"))
	assert.False(t, f.lastQuery.Has("category"))
	assert.False(t, f.lastQuery.Has("difficulty"))
}

func TestGetQuestionNormalizesMultipleChoiceAnswers(t *testing.T) {
	f, client := newFakeOpenTDB(t)
	f.respond = func(int) string { return successBody(t, multipleQuestion()) }

	q, err := client.GetQuestion(context.Background(), Filters{})
	require.NoError(t, err)

	// The empty upstream entry is dropped; everything else survives the
	// shuffle exactly once.
	assert.ElementsMatch(t, []string{"Paris", "Rome", "Berlin", "Madrid"}, q.Answers)
	assert.NotContains(t, q.Answers, "")
	assert.Contains(t, q.Answers, q.CorrectAnswer)
}

func TestGetQuestionSendsFilters(t *testing.T) {
	f, client := newFakeOpenTDB(t)
	f.respond = func(int) string { return successBody(t, booleanQuestion()) }

	id := 17
	_, err := client.GetQuestion(context.Background(), Filters{Category: &id, Difficulty: "easy"})
	require.NoError(t, err)

	assert.Equal(t, "17", f.lastQuery.Get("category"))
	assert.Equal(t, "easy", f.lastQuery.Get("difficulty"))
}

func TestGetQuestionReusesFreshToken(t *testing.T) {
	f, client := newFakeOpenTDB(t)
	f.respond = func(int) string { return successBody(t, booleanQuestion()) }

	_, err := client.GetQuestion(context.Background(), Filters{})
	require.NoError(t, err)
	_, err = client.GetQuestion(context.Background(), Filters{})
	require.NoError(t, err)

	assert.Equal(t, 1, f.tokenRequests, "token should be reused within its TTL")
}

func TestGetQuestionRecoversFromTokenNotFound(t *testing.T) {
	f, client := newFakeOpenTDB(t)
	f.respond = func(call int) string {
		if call == 1 {
			return `{"response_code":3}`
		}
		return successBody(t, booleanQuestion())
	}

	q, err := client.GetQuestion(context.Background(), Filters{})
	require.NoError(t, err)
	require.NotNil(t, q)

	assert.Equal(t, 2, f.tokenRequests, "a fresh token should be issued after not-found")
	assert.Equal(t, "token-2", f.lastQuery.Get("token"))
}

func TestGetQuestionResetsEmptyToken(t *testing.T) {
	f, client := newFakeOpenTDB(t)
	f.respond = func(call int) string {
		if call == 1 {
			return `{"response_code":4}`
		}
		return successBody(t, booleanQuestion())
	}

	q, err := client.GetQuestion(context.Background(), Filters{})
	require.NoError(t, err)
	require.NotNil(t, q)

	assert.Equal(t, 1, f.resetRequests, "empty token should be reset, not replaced")
	assert.Equal(t, 1, f.tokenRequests)
	assert.Equal(t, "token-1", f.lastQuery.Get("token"))
}

func TestGetQuestionGivesUpAfterBoundedRetries(t *testing.T) {
	f, client := newFakeOpenTDB(t)
	f.respond = func(int) string { return `{"response_code":3}` }

	_, err := client.GetQuestion(context.Background(), Filters{})
	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, maxFetchAttempts, f.questionCalls)
}

func TestGetQuestionFatalCodeCarriesPayload(t *testing.T) {
	f, client := newFakeOpenTDB(t)
	f.respond = func(int) string { return `{"response_code":2,"results":[]}` }

	_, err := client.GetQuestion(context.Background(), Filters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"response_code":2`)
}

func TestShuffleIsAPermutation(t *testing.T) {
	original := []string{"Paris", "Rome", "Berlin", "Madrid"}
	for i := 0; i < 100; i++ {
		answers := append([]string(nil), original...)
		shuffle(answers)
		assert.ElementsMatch(t, original, answers)
	}
}

func TestShuffleReachesEveryPosition(t *testing.T) {
	original := []string{"a", "b", "c", "d"}
	seen := make(map[string]map[int]int)
	for _, v := range original {
		seen[v] = make(map[int]int)
	}

	const trials = 2000
	for i := 0; i < trials; i++ {
		answers := append([]string(nil), original...)
		shuffle(answers)
		for pos, v := range answers {
			seen[v][pos]++
		}
	}

	// Roughly uniform: every element lands in every position a healthy
	// fraction of the expected trials/4 times.
	for v, positions := range seen {
		for pos := range original {
			assert.Greater(t, positions[pos], trials/10,
				"element %q rarely placed at position %d", v, pos)
		}
	}
}
