package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mimosa-app/mimosa/internal/gemini"
	"github.com/mimosa-app/mimosa/internal/logger"
	"github.com/mimosa-app/mimosa/internal/models"
)

// ErrMissingAPIKey is the construction-time failure for an absent
// credential. The serve command refuses to start on it.
var ErrMissingAPIKey = errors.New("GOOGLE_API_KEY not found in environment variables. Please set it in your environment or .env file")

// contentGenerator is the slice of the Gemini client the responder uses.
// Tests substitute a stub.
type contentGenerator interface {
	GenerateContent(ctx context.Context, contents []gemini.Content) (string, error)
}

// ResponderService owns the single ongoing conversation with the remote
// model. Every outbound call goes through the rate limiter; every failure
// is converted to a localized fallback sentence before it reaches the UI
// shell.
type ResponderService struct {
	client  contentGenerator
	limiter *RateLimiter

	mu sync.Mutex
	// conversation is the running session history. nil means no healthy
	// session; an empty non-nil slice is a fresh one awaiting priming.
	conversation []gemini.Content
}

// ResponderConfig holds construction options for the responder.
type ResponderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewResponderService builds the responder, validates that the model is
// reachable with a throwaway request, and starts a fresh conversation.
// Any failure here is fatal: the caller must not serve requests.
func NewResponderService(ctx context.Context, cfg ResponderConfig) (*ResponderService, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := gemini.NewClient(gemini.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})

	s := &ResponderService{
		client:  client,
		limiter: NewRateLimiter(),
	}

	// Startup validation call, rate limited like everything else.
	err := s.limiter.Do(func() error {
		_, err := client.GenerateContent(ctx, []gemini.Content{gemini.UserText("test")})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini model: %w", err)
	}

	s.ResetConversation()
	return s, nil
}

// NewResponderServiceWithClient wires a pre-built client and limiter,
// skipping the startup validation call. Used by tests.
func NewResponderServiceWithClient(client contentGenerator, limiter *RateLimiter) *ResponderService {
	s := &ResponderService{client: client, limiter: limiter}
	s.ResetConversation()
	return s
}

// ResetConversation discards the running history and starts a new empty
// session. It reports false, leaving the state nil, when no model client
// is available.
func (s *ResponderService) ResetConversation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		s.conversation = nil
		return false
	}
	s.conversation = []gemini.Content{}
	return true
}

// ensureConversationHealth lazily repairs a nil conversation before a call
// proceeds.
func (s *ResponderService) ensureConversationHealth() bool {
	s.mu.Lock()
	healthy := s.conversation != nil
	s.mu.Unlock()
	if healthy {
		return true
	}
	return s.ResetConversation()
}

// GetResponse generates a reply for one user turn. The returned text is
// always suitable for the transcript: a real reply, the canned prompt for
// blank input, or the localized fallback when the model could not be
// reached. Errors never escape; diagnostics go to the log.
func (s *ResponderService) GetResponse(ctx context.Context, userInput string, images []models.ImageAttachment, inputLang, outputLang string) string {
	if strings.TrimSpace(userInput) == "" {
		return emptyInputReply(outputLang)
	}

	reply, err := s.respond(ctx, userInput, images, inputLang, outputLang)
	if err != nil {
		logger.Errorf("Error in GetResponse: %v", err)
		return fallbackReply(outputLang)
	}
	return reply
}

func (s *ResponderService) respond(ctx context.Context, userInput string, images []models.ImageAttachment, inputLang, outputLang string) (string, error) {
	if !s.ensureConversationHealth() {
		return "", fmt.Errorf("failed to initialize conversation")
	}

	if err := s.primeIfFresh(ctx, outputLang); err != nil {
		return "", err
	}

	prompt := buildPrompt(userInput, inputLang, outputLang)

	if len(images) > 0 {
		// One-shot multi-part call: photo turns bypass the running
		// conversation history.
		parts := []gemini.Part{{Text: prompt}}
		for _, img := range images {
			parts = append(parts, gemini.Part{InlineData: &gemini.InlineData{
				MimeType: img.MimeType,
				Data:     img.Data,
			}})
		}
		return s.generate(ctx, []gemini.Content{{Role: "user", Parts: parts}})
	}

	s.mu.Lock()
	contents := append(append([]gemini.Content{}, s.conversation...), gemini.UserText(prompt))
	s.mu.Unlock()

	reply, err := s.generate(ctx, contents)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.conversation != nil {
		s.conversation = append(s.conversation, gemini.UserText(prompt), gemini.ModelText(reply))
	}
	s.mu.Unlock()
	return reply, nil
}

// primeIfFresh sends the persona directive as the first message of a new
// conversation. A priming failure resets the conversation once and retries
// exactly once more before giving up.
func (s *ResponderService) primeIfFresh(ctx context.Context, outputLang string) error {
	s.mu.Lock()
	fresh := s.conversation != nil && len(s.conversation) == 0
	s.mu.Unlock()
	if !fresh {
		return nil
	}

	persona := "Context: " + personaContext(outputLang)
	reply, err := s.generate(ctx, []gemini.Content{gemini.UserText(persona)})
	if err != nil {
		logger.Warnf("Error sending context: %v", err)
		if !s.ResetConversation() {
			return fmt.Errorf("failed to reset conversation")
		}
		reply, err = s.generate(ctx, []gemini.Content{gemini.UserText(persona)})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.conversation = append(s.conversation, gemini.UserText(persona), gemini.ModelText(reply))
	s.mu.Unlock()
	return nil
}

// generate runs one model call through the rate limiter.
func (s *ResponderService) generate(ctx context.Context, contents []gemini.Content) (string, error) {
	var reply string
	err := s.limiter.Do(func() error {
		var err error
		reply, err = s.client.GenerateContent(ctx, contents)
		return err
	})
	return reply, err
}

// SuggestFollowupQuestions asks the model for 1-2 open-ended questions
// that deepen the conversation, based on the last few turns. It returns an
// empty list on empty input or any failure.
func (s *ResponderService) SuggestFollowupQuestions(ctx context.Context, history []models.ChatTurn, lang string) []string {
	if len(history) == 0 {
		return []string{}
	}

	// Only the last 3 turns, for focus.
	start := len(history) - 3
	if start < 0 {
		start = 0
	}
	var sb strings.Builder
	for _, turn := range history[start:] {
		if strings.TrimSpace(turn.Content) != "" {
			sb.WriteString(turn.Content)
			sb.WriteString("\n")
		}
	}
	historyText := sb.String()
	if strings.TrimSpace(historyText) == "" {
		return []string{}
	}

	reply, err := s.generate(ctx, []gemini.Content{gemini.UserText(followupPrompt(historyText, lang))})
	if err != nil {
		logger.Errorf("Error in SuggestFollowupQuestions: %v", err)
		return []string{}
	}

	questions := []string{}
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !isQuestion(line) {
			continue
		}
		questions = append(questions, line)
		if len(questions) == 2 {
			break
		}
	}
	return questions
}

// AnalyzeEmotion produces a prose emotional analysis of the given text:
// dominant emotion, intensity 1-5, likely trigger, and a suggested
// response stance. The second return is false on empty input or failure.
func (s *ResponderService) AnalyzeEmotion(ctx context.Context, text, lang string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	reply, err := s.generate(ctx, []gemini.Content{gemini.UserText(emotionPrompt(text, lang))})
	if err != nil {
		logger.Errorf("Error in AnalyzeEmotion: %v", err)
		return "", false
	}
	return reply, true
}

func isQuestion(line string) bool {
	return strings.Contains(line, "?") || strings.Contains(line, "？")
}
