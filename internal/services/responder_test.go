package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimosa-app/mimosa/internal/gemini"
	"github.com/mimosa-app/mimosa/internal/models"
)

// stubModel records every call and answers via the respond function.
type stubModel struct {
	calls   [][]gemini.Content
	respond func(call int, contents []gemini.Content) (string, error)
}

func (m *stubModel) GenerateContent(_ context.Context, contents []gemini.Content) (string, error) {
	m.calls = append(m.calls, contents)
	return m.respond(len(m.calls), contents)
}

func alwaysReply(text string) func(int, []gemini.Content) (string, error) {
	return func(int, []gemini.Content) (string, error) {
		return text, nil
	}
}

func newStubResponder(respond func(int, []gemini.Content) (string, error)) (*ResponderService, *stubModel) {
	model := &stubModel{respond: respond}
	clock := newFakeClock()
	limiter := newTestLimiter(clock)
	return NewResponderServiceWithClient(model, limiter), model
}

func firstPartText(contents []gemini.Content) string {
	if len(contents) == 0 || len(contents[0].Parts) == 0 {
		return ""
	}
	return contents[0].Parts[0].Text
}

func TestGetResponse_BlankInputSkipsModel(t *testing.T) {
	service, model := newStubResponder(alwaysReply("ok"))

	reply := service.GetResponse(context.Background(), "   ", nil, "English", "English")
	assert.Equal(t, "What would you like to chat about? (◕‿◕)", reply)

	reply = service.GetResponse(context.Background(), "", nil, "中文", "中文")
	assert.Equal(t, "有什麼想聊的嗎？(◕‿◕)", reply)

	assert.Empty(t, model.calls, "blank input must not reach the model")
}

func TestGetResponse_PrimesFreshConversation(t *testing.T) {
	service, model := newStubResponder(alwaysReply("a real reply"))

	reply := service.GetResponse(context.Background(), "I hiked a mountain today", nil, "English", "English")
	assert.Equal(t, "a real reply", reply)

	// Priming call first, then the user's message on top of the primed
	// history.
	require.Len(t, model.calls, 2)
	assert.True(t, strings.HasPrefix(firstPartText(model.calls[0]), "Context: "))
	assert.Len(t, model.calls[1], 3)

	last := model.calls[1][len(model.calls[1])-1]
	assert.Contains(t, last.Parts[0].Text, "I hiked a mountain today")
	assert.Contains(t, last.Parts[0].Text, "reply in English")
}

func TestGetResponse_AccumulatesHistory(t *testing.T) {
	service, model := newStubResponder(alwaysReply("ok"))

	service.GetResponse(context.Background(), "first", nil, "English", "English")
	service.GetResponse(context.Background(), "second", nil, "English", "English")

	// priming + first message + second message
	require.Len(t, model.calls, 3)
	// 2 priming turns + 2 first-exchange turns + the new user turn
	assert.Len(t, model.calls[2], 5)
}

func TestGetResponse_FallbackOnFailure(t *testing.T) {
	failing := func(int, []gemini.Content) (string, error) {
		return "", errors.New("model unreachable")
	}

	service, _ := newStubResponder(failing)
	reply := service.GetResponse(context.Background(), "hello", nil, "English", "English")
	assert.Equal(t, "Need a little break, let's chat later (´･_･`)", reply)

	service, _ = newStubResponder(failing)
	reply = service.GetResponse(context.Background(), "你好", nil, "中文", "中文")
	assert.Equal(t, "需要休息一下，等等再聊吧 (´･_･`)", reply)
}

func TestGetResponse_PrimingFailureResetsOnceAndRetries(t *testing.T) {
	service, model := newStubResponder(func(call int, _ []gemini.Content) (string, error) {
		if call == 1 {
			return "", errors.New("transient hiccup")
		}
		return "ok", nil
	})

	reply := service.GetResponse(context.Background(), "hello", nil, "English", "English")
	assert.Equal(t, "ok", reply)

	// failed priming, retried priming after reset, then the message
	require.Len(t, model.calls, 3)
	assert.True(t, strings.HasPrefix(firstPartText(model.calls[1]), "Context: "))
}

func TestGetResponse_ImagesBypassConversationHistory(t *testing.T) {
	service, model := newStubResponder(alwaysReply("ok"))

	service.GetResponse(context.Background(), "plain text turn", nil, "English", "English")

	images := []models.ImageAttachment{{MimeType: "image/jpeg", Data: "ZGF0YQ=="}}
	service.GetResponse(context.Background(), "look at this photo", images, "English", "English")

	// The photo turn is a single one-shot content with an inline part.
	photoCall := model.calls[len(model.calls)-1]
	require.Len(t, photoCall, 1)
	require.Len(t, photoCall[0].Parts, 2)
	require.NotNil(t, photoCall[0].Parts[1].InlineData)
	assert.Equal(t, "image/jpeg", photoCall[0].Parts[1].InlineData.MimeType)

	// And it must not have grown the running history.
	service.GetResponse(context.Background(), "back to text", nil, "English", "English")
	textCall := model.calls[len(model.calls)-1]
	assert.Len(t, textCall, 5)
}

func TestResetConversation(t *testing.T) {
	service, model := newStubResponder(alwaysReply("ok"))

	service.GetResponse(context.Background(), "hello", nil, "English", "English")
	require.True(t, service.ResetConversation())

	// A fresh conversation primes again.
	service.GetResponse(context.Background(), "hello again", nil, "English", "English")
	assert.True(t, strings.HasPrefix(firstPartText(model.calls[len(model.calls)-2]), "Context: "))
}

func TestResetConversation_NoClient(t *testing.T) {
	clock := newFakeClock()
	service := NewResponderServiceWithClient(nil, newTestLimiter(clock))
	assert.False(t, service.ResetConversation())
}

func TestSuggestFollowupQuestions_FiltersAndCaps(t *testing.T) {
	service, _ := newStubResponder(alwaysReply("你今天感覺怎麼樣？\njust a statement\nWhat made you smile today?\nWould you do it again?"))

	history := []models.ChatTurn{{Role: "user", Content: "I went hiking"}}
	questions := service.SuggestFollowupQuestions(context.Background(), history, "中文")

	assert.Equal(t, []string{"你今天感覺怎麼樣？", "What made you smile today?"}, questions)
}

func TestSuggestFollowupQuestions_UsesLastThreeTurns(t *testing.T) {
	service, model := newStubResponder(alwaysReply("Anything else?"))

	history := []models.ChatTurn{
		{Role: "user", Content: "turn one"},
		{Role: "model", Content: "turn two"},
		{Role: "user", Content: "turn three"},
		{Role: "model", Content: "turn four"},
		{Role: "user", Content: "turn five"},
	}
	service.SuggestFollowupQuestions(context.Background(), history, "English")

	prompt := firstPartText(model.calls[0])
	assert.NotContains(t, prompt, "turn two")
	assert.Contains(t, prompt, "turn three")
	assert.Contains(t, prompt, "turn five")
}

func TestSuggestFollowupQuestions_EmptyOrFailing(t *testing.T) {
	service, model := newStubResponder(alwaysReply("ok"))
	assert.Empty(t, service.SuggestFollowupQuestions(context.Background(), nil, "English"))
	assert.Empty(t, model.calls)

	service, _ = newStubResponder(func(int, []gemini.Content) (string, error) {
		return "", errors.New("down")
	})
	history := []models.ChatTurn{{Role: "user", Content: "hello"}}
	assert.Empty(t, service.SuggestFollowupQuestions(context.Background(), history, "English"))
}

func TestAnalyzeEmotion(t *testing.T) {
	service, model := newStubResponder(alwaysReply("Main emotion: joy, intensity 4/5"))

	analysis, ok := service.AnalyzeEmotion(context.Background(), "I got the job!", "English")
	require.True(t, ok)
	assert.Contains(t, analysis, "joy")
	assert.Contains(t, firstPartText(model.calls[0]), "I got the job!")
}

func TestAnalyzeEmotion_EmptyOrFailing(t *testing.T) {
	service, model := newStubResponder(alwaysReply("ok"))
	_, ok := service.AnalyzeEmotion(context.Background(), "   ", "English")
	assert.False(t, ok)
	assert.Empty(t, model.calls)

	service, _ = newStubResponder(func(int, []gemini.Content) (string, error) {
		return "", errors.New("down")
	})
	_, ok = service.AnalyzeEmotion(context.Background(), "some text", "English")
	assert.False(t, ok)
}
