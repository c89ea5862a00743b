package game

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/quizwire/trivia-live/pkg/ws"
)

// Question files are markdown: one block per question, separated by `##`
// headers, numbered lines, or `**Question N**` markers. Multiple-choice
// options use `A)` style prefixes; the correct option is bolded or tagged
// `(correct)`, or named on a trailing `Answer:` line. Blocks without options
// are fill-in-blank.

var (
	blockSeparators = []*regexp.Regexp{
		regexp.MustCompile(`\n##\s+`),
		regexp.MustCompile(`\n###\s+`),
		regexp.MustCompile(`\n\d+\.\s+`),
		regexp.MustCompile(`\n\*\*Question\s+\d+\*\*`),
	}

	titleOnlyLine = regexp.MustCompile(`^#[^#]`)

	questionPrefixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Question\s+\d+[:.]?\s*`),
		regexp.MustCompile(`^\d+\.\s*`),
	}
	boldWrapper = regexp.MustCompile(`^\*\*(.*?)\*\*$`)

	optionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[A-Da-d]\)\s+(.+)`),
		regexp.MustCompile(`^[1-4]\)\s+(.+)`),
		regexp.MustCompile(`^-\s*[A-Da-d][).]?\s+(.+)`),
		regexp.MustCompile(`^\*\s*[A-Da-d][).]?\s+(.+)`),
	}

	correctMarkers = []*regexp.Regexp{
		regexp.MustCompile(`\*\*.*?\*\*`),
		regexp.MustCompile(`_.*?_`),
		regexp.MustCompile(`(?i)\(correct\)`),
		regexp.MustCompile(`(?i)\[correct\]`),
		regexp.MustCompile(`✓`),
	}
	markerSuffix = regexp.MustCompile(`(?i)\s*(\(correct\)|\[correct\]|✓)\s*$`)

	answerLines = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Answer:\s*(.+)`),
		regexp.MustCompile(`(?i)^Correct\s*Answer:\s*(.+)`),
		regexp.MustCompile(`(?i)^Solution:\s*(.+)`),
		regexp.MustCompile(`^\*\*Answer\*\*:\s*(.+)`),
		regexp.MustCompile(`(?i)^\*\*Answer:\s*(.+?)\*\*$`),
	}
)

// ParseQuestionFile loads and parses a markdown question file.
func ParseQuestionFile(path string) ([]Question, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question file: %w", err)
	}
	questions := ParseQuestions(string(content))
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions found in %s", path)
	}
	return questions, nil
}

// ParseQuestions parses markdown content into questions. Blocks that yield
// no question text are skipped.
func ParseQuestions(content string) []Question {
	var questions []Question
	for _, block := range splitBlocks(content) {
		if q, ok := parseBlock(block); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

// splitBlocks cuts the file on the first separator style it actually uses,
// dropping empty blocks and the file title.
func splitBlocks(content string) []string {
	for _, sep := range blockSeparators {
		if !sep.MatchString(content) {
			continue
		}
		var blocks []string
		for _, block := range sep.Split(content, -1) {
			block = strings.TrimSpace(block)
			if block == "" || titleOnlyLine.MatchString(block) {
				continue
			}
			blocks = append(blocks, block)
		}
		return blocks
	}

	if trimmed := strings.TrimSpace(content); trimmed != "" {
		return []string{trimmed}
	}
	return nil
}

func parseBlock(block string) (Question, bool) {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return Question{}, false
	}

	text := lines[0]
	for _, prefix := range questionPrefixes {
		text = prefix.ReplaceAllString(text, "")
	}
	text = boldWrapper.ReplaceAllString(text, "$1")
	if text == "" {
		return Question{}, false
	}

	if hasOptions(lines[1:]) {
		return parseMultipleChoice(text, lines[1:]), true
	}
	return Question{
		Text:   text,
		Kind:   ws.KindFillInBlank,
		Answer: findAnswerLine(lines),
	}, true
}

func hasOptions(lines []string) bool {
	for _, line := range lines {
		for _, pattern := range optionPatterns {
			if pattern.MatchString(line) {
				return true
			}
		}
	}
	return false
}

func parseMultipleChoice(text string, lines []string) Question {
	q := Question{Text: text, Kind: ws.KindMultipleChoice}

	for _, line := range lines {
		var optionText string
		for _, pattern := range optionPatterns {
			if m := pattern.FindStringSubmatch(line); m != nil {
				optionText = strings.TrimSpace(m[1])
				break
			}
		}
		if optionText == "" {
			continue
		}

		marked := markedCorrect(line)
		optionText = markerSuffix.ReplaceAllString(optionText, "")
		optionText = boldWrapper.ReplaceAllString(optionText, "$1")
		q.Options = append(q.Options, optionText)
		if marked && q.Answer == "" {
			q.Answer = optionText
		}
	}

	if q.Answer == "" {
		q.Answer = findAnswerLine(lines)
	}
	return q
}

func markedCorrect(line string) bool {
	for _, marker := range correctMarkers {
		if marker.MatchString(line) {
			return true
		}
	}
	return false
}

func findAnswerLine(lines []string) string {
	for _, line := range lines {
		for _, pattern := range answerLines {
			if m := pattern.FindStringSubmatch(line); m != nil {
				answer := strings.TrimSpace(m[1])
				return boldWrapper.ReplaceAllString(answer, "$1")
			}
		}
	}
	return ""
}
