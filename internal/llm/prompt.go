package llm

import (
	"fmt"
	"strings"
)

// resume text beyond this is cut before it reaches a prompt
const maxContextChars = 12000

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

func (pb *PromptBuilder) Questions(skills []string, resumeText string, n int) Request {
	return Request{
		System:      "You are an experienced technical interviewer who writes precise, role-relevant interview questions.",
		Temperature: 0.7,
		MaxTokens:   1024,
		Prompt: fmt.Sprintf(`Write %d technical interview questions for the candidate described below.

SKILLS:
%s

RESUME OR SELF-DESCRIPTION:
%s

Cover the listed skills and the projects mentioned. Each question must stand on its own.

Return ONLY a JSON array of %d strings, one question per element, with no numbering and no additional text.`,
			n, skillList(skills), clip(resumeText), n),
	}
}

func (pb *PromptBuilder) ExpectedAnswers(questions, skills []string, resumeText string) Request {
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}

	return Request{
		System:      "You are a senior engineer writing model answers for technical interview questions.",
		Temperature: 0.3,
		MaxTokens:   int32(300 * len(questions)),
		Prompt: fmt.Sprintf(`Write a concise model answer (3-5 sentences) for each interview question below.

CANDIDATE SKILLS:
%s

CANDIDATE BACKGROUND:
%s

QUESTIONS:
%s
Return ONLY a JSON array of exactly %d strings. Element i must answer question i. No additional text.`,
			skillList(skills), clip(resumeText), b.String(), len(questions)),
	}
}

func (pb *PromptBuilder) ExpectedAnswer(question string, skills []string) Request {
	return Request{
		System:      "You are a senior engineer writing model answers for technical interview questions.",
		Temperature: 0.3,
		MaxTokens:   350,
		Prompt: fmt.Sprintf(`Write a concise model answer (3-5 sentences) to this interview question.

CANDIDATE SKILLS:
%s

QUESTION:
%s

Return only the answer text.`, skillList(skills), question),
	}
}

func (pb *PromptBuilder) Feedback(question, expected, answer string) Request {
	return Request{
		System:      "You are a technical interview coach providing helpful feedback without numerical scoring.",
		Temperature: 0.4,
		MaxTokens:   350,
		Prompt: fmt.Sprintf(`You are a helpful technical interview coach providing detailed feedback.

Question:
%s

Expected Answer:
%s

User's Answer:
%s

Provide comprehensive feedback on the user's answer by:
1. Analyzing how well the answer covers key technical concepts from the expected answer
2. Identifying which important points were covered well
3. Noting which important elements might be missing or could be improved
4. Providing specific suggestions to enhance the technical accuracy

Be thorough but constructive. DO NOT include any numerical scores or ratings in your feedback.
Format your response as helpful coaching rather than as an evaluation.`, question, expected, answer),
	}
}

func (pb *PromptBuilder) Keywords(text string) Request {
	return Request{
		System:      "You extract essential technical concepts from text.",
		Temperature: 0.1,
		MaxTokens:   100,
		Prompt: fmt.Sprintf(`Extract the 5-8 most important technical concepts or key points from this text that would be essential for a correct answer:

%s

Return only the key technical concepts as a comma-separated list, with no additional text.`, text),
	}
}

func skillList(skills []string) string {
	if len(skills) == 0 {
		return "(none detected)"
	}
	return strings.Join(skills, ", ")
}

func clip(s string) string {
	if len(s) <= maxContextChars {
		return s
	}
	// keep the cut on a rune boundary
	cut := maxContextChars
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
