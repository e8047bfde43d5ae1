package trivia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MineRobber9000/sctrivia/models"
)

const (
	// tokenTTL is how long a session token is reused before a fresh one is
	// requested. The API expires idle tokens server-side after 6 hours.
	tokenTTL = 6 * time.Hour

	// maxFetchAttempts bounds the token-recovery retries for one fetch.
	maxFetchAttempts = 3
)

// Trivia API response codes.
const (
	codeSuccess       = 0
	codeTokenNotFound = 3
	codeTokenEmpty    = 4
)

// ErrRetriesExhausted is returned when token recovery keeps failing and the
// fetch gives up.
var ErrRetriesExhausted = errors.New("session token recovery retries exhausted")

// Filters narrows a question request.
type Filters struct {
	// Category is the numeric category id. Nil means no category filter.
	// An id of 0 is valid to send; the API matches no questions for it.
	Category *int
	// Difficulty is easy, medium or hard. Empty means no difficulty filter.
	Difficulty string
}

// Client fetches questions from the Open Trivia DB and manages the shared
// session token the API uses to avoid repeating questions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger

	mu        sync.Mutex
	token     string
	tokenTime time.Time
}

// NewClient creates a trivia API client. baseURL and httpClient may be
// empty/nil for the defaults.
func NewClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://opentdb.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

type apiResponse struct {
	ResponseCode int    `json:"response_code"`
	Token        string `json:"token"`
	Results      []any  `json:"results"`
}

type apiQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// GetQuestion fetches a single question matching the filters. Token
// lifecycle errors reported by the API (token not found, token empty) are
// recovered in a bounded retry loop; every other non-zero response code is
// fatal and the error carries the raw API payload.
func (c *Client) GetQuestion(ctx context.Context, f Filters) (*models.Question, error) {
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		token, err := c.ensureToken(ctx)
		if err != nil {
			return nil, err
		}

		values := url.Values{}
		values.Set("token", token)
		values.Set("amount", "1")
		values.Set("encode", "base64")
		if f.Category != nil {
			values.Set("category", strconv.Itoa(*f.Category))
		}
		if f.Difficulty != "" {
			values.Set("difficulty", f.Difficulty)
		}

		body, payload, err := c.call(ctx, "/api.php?"+values.Encode())
		if err != nil {
			return nil, err
		}

		switch payload.ResponseCode {
		case codeSuccess:
			return c.buildQuestion(payload.Results, body)
		case codeTokenNotFound:
			c.logger.Warn().Int("attempt", attempt+1).Msg("session token not found, requesting a new one")
			c.clearToken()
		case codeTokenEmpty:
			c.logger.Warn().Int("attempt", attempt+1).Msg("session token empty, resetting it")
			if err := c.resetToken(ctx, token); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("error getting question: %s", body)
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", maxFetchAttempts, ErrRetriesExhausted)
}

// ensureToken returns the current session token, requesting a fresh one if
// none exists or the current one is older than tokenTTL.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Since(c.tokenTime) <= tokenTTL {
		return c.token, nil
	}

	body, payload, err := c.call(ctx, "/api_token.php?command=request")
	if err != nil {
		return "", err
	}
	if payload.ResponseCode != codeSuccess {
		return "", fmt.Errorf("error getting session token: %s", body)
	}

	c.token = payload.Token
	c.tokenTime = time.Now()
	c.logger.Debug().Msg("issued new session token")
	return c.token, nil
}

// clearToken drops the session token so the next fetch requests a new one.
func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// resetToken asks the API to reset the token, making all questions
// available again under it.
func (c *Client) resetToken(ctx context.Context, token string) error {
	body, payload, err := c.call(ctx, "/api_token.php?command=reset&token="+url.QueryEscape(token))
	if err != nil {
		return err
	}
	if payload.ResponseCode != codeSuccess {
		return fmt.Errorf("error resetting session token: %s", body)
	}
	return nil
}

// call performs a GET against the API and decodes the response envelope.
// The raw body is returned alongside so errors can carry the payload.
func (c *Client) call(ctx context.Context, path string) ([]byte, *apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("trivia api returned status %d: %s", resp.StatusCode, body)
	}

	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, fmt.Errorf("decoding trivia api response: %w", err)
	}
	return body, &payload, nil
}

// buildQuestion decodes the first result and normalizes the answer list.
func (c *Client) buildQuestion(results []any, raw []byte) (*models.Question, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("error getting question: %s", raw)
	}

	c.logger.Debug().RawJSON("payload", raw).Msg("trivia api response")

	decoded, err := DecodeStrings(results[0])
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Interface("question", decoded).Msg("decoded question")

	reencoded, err := json.Marshal(decoded)
	if err != nil {
		return nil, err
	}
	var q apiQuestion
	if err := json.Unmarshal(reencoded, &q); err != nil {
		return nil, fmt.Errorf("decoding question: %w", err)
	}

	question := &models.Question{
		Category:      q.Category,
		Type:          q.Type,
		Difficulty:    q.Difficulty,
		Question:      q.Question,
		CorrectAnswer: q.CorrectAnswer,
	}

	if q.Type == models.TypeMultiple {
		answers := make([]string, 0, len(q.IncorrectAnswers)+1)
		answers = append(answers, q.CorrectAnswer)
		answers = append(answers, q.IncorrectAnswers...)
		shuffle(answers)
		question.Answers = dropEmpty(answers)
	}

	return question, nil
}

// shuffle permutes a in place with a Fisher-Yates shuffle.
func shuffle(a []string) {
	for i := len(a) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}

// dropEmpty removes empty entries the upstream payload sometimes carries.
func dropEmpty(a []string) []string {
	out := a[:0]
	for _, v := range a {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
