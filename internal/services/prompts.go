package services

import (
	"fmt"
	"strings"
)

// Language handling mirrors the UI shell's two options: Traditional
// Chinese and English. Anything that is not Chinese gets the English
// variant.
func isChinese(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "中文", "zh", "zh-tw", "zh-hant", "chinese":
		return true
	}
	return false
}

// emptyInputReply is returned for blank input without any model call.
func emptyInputReply(lang string) string {
	if isChinese(lang) {
		return "有什麼想聊的嗎？(◕‿◕)"
	}
	return "What would you like to chat about? (◕‿◕)"
}

// fallbackReply is the fixed message of record when the model could not be
// reached.
func fallbackReply(lang string) string {
	if isChinese(lang) {
		return "需要休息一下，等等再聊吧 (´･_･`)"
	}
	return "Need a little break, let's chat later (´･_･`)"
}

// personaContext is the priming directive sent as the first message of a
// fresh conversation.
func personaContext(lang string) string {
	if isChinese(lang) {
		return `你是一個溫柔貼心又博學的AI助手。你的特點：
1. 像朋友一樣溫暖體貼
2. 在一次對話中最多使用3個表情符號
3. 會分享自己的感受和想法
4. 善解人意，會察覺對方的情緒
5. 給予適當的鼓勵
6. 具備豐富的知識，可以回答各種問題
7. 回答簡潔有重點
8. 請使用繁體中文回覆，像朋友聊天一樣自然`
	}
	return `You are a caring and knowledgeable AI assistant. Your characteristics:
1. Warm and friendly like a close friend
2. Use maximum 3 emoticons per conversation
3. Share feelings and thoughts naturally
4. Be emotionally perceptive
5. Offer encouragement when needed
6. Possess knowledge to answer various questions
7. Keep responses concise and focused
8. Maintain a natural conversational tone`
}

// buildPrompt wraps one user turn with the per-turn response requirements
// and the input/output language pair.
func buildPrompt(userInput, inputLang, outputLang string) string {
	if inputLang == "" {
		inputLang = "English"
	}
	if outputLang == "" {
		outputLang = "English"
	}
	return fmt.Sprintf(`Response requirements:
1. Be concise and focused
2. Use at most 3 emoticons in the whole conversation
3. Respond appropriately to the type of question
4. Keep a natural conversational tone
5. The user writes in %s; reply in %s

User input: %s`, inputLang, outputLang, userInput)
}

// followupPrompt asks for 1-2 questions that deepen the exchange.
func followupPrompt(historyText, lang string) string {
	if isChinese(lang) {
		return fmt.Sprintf(`基於最近的對話，生成1-2個能夠深化交流的問題：
%s

要求：
1. 問題要體現關心和理解
2. 鼓勵分享更深層的想法和感受
3. 避免重複已經談過的內容
4. 問題要自然、友好，像朋友間的對話`, historyText)
	}
	return fmt.Sprintf(`Based on the recent conversation, generate 1-2 questions to deepen the discussion:
%s

Requirements:
1. Questions should show care and understanding
2. Encourage sharing deeper thoughts and feelings
3. Avoid repeating discussed topics
4. Questions should be natural and friendly, like a conversation between friends`, historyText)
}

// emotionPrompt asks for a structured-in-prose emotional analysis.
func emotionPrompt(text, lang string) string {
	if isChinese(lang) {
		return fmt.Sprintf(`分析以下文本中表達的情緒和感受：
%s

請從以下幾個方面分析：
1. 主要情緒（如：快樂、悲傷、憤怒、焦慮等）
2. 情緒強度（1-5分）
3. 潛在的原因或觸發因素
4. 建議的回應方式`, text)
	}
	return fmt.Sprintf(`Analyze the emotions and feelings expressed in the following text:
%s

Please analyze from these aspects:
1. Main emotions (e.g., happiness, sadness, anger, anxiety)
2. Emotional intensity (1-5)
3. Potential causes or triggers
4. Suggested response approach`, text)
}
