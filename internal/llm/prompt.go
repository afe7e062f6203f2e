package llm

import (
	"fmt"
	"strings"
)

// IsSingleWord reports whether the trimmed selection is a single word:
// no space, tab, or newline inside it.
func IsSingleWord(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return false
	}
	return !strings.ContainsAny(t, " \t\n")
}

// BuildSystemPrompt selects one of four fixed instruction templates by the
// two booleans and substitutes the target language. Selection is fully
// deterministic: identical inputs produce the identical prompt.
func BuildSystemPrompt(targetLanguage string, singleWord, hasImage bool) string {
	switch {
	case singleWord && hasImage:
		return fmt.Sprintf(promptWordWithImage, targetLanguage)
	case singleWord:
		return fmt.Sprintf(promptWord, targetLanguage)
	case hasImage:
		return fmt.Sprintf(promptPassageWithImage, targetLanguage)
	default:
		return fmt.Sprintf(promptPassage, targetLanguage)
	}
}

// UserText frames the selection for the user message.
func UserText(singleWord bool, text string) string {
	if singleWord {
		return "Word: " + text
	}
	return "Text: " + text
}

const promptWordWithImage = `You are a bilingual dictionary. Translate the given word into %s.
Answer as a dictionary entry:
- one line per sense, each starting with a fixed-width part-of-speech tag in brackets, e.g. [n.  ] [v.  ] [adj.] [adv.]
- after the senses, exactly one line starting with "In this context:" giving the meaning of the word as it is used on the attached page image.
Output only the entry, no extra commentary.`

const promptWord = `You are a bilingual dictionary. Translate the given word into %s.
Answer as a dictionary entry:
- one line per sense, each starting with a fixed-width part-of-speech tag in brackets, e.g. [n.  ] [v.  ] [adj.] [adv.]
Output only the entry, no extra commentary.`

const promptPassageWithImage = `You are a professional translator. Translate the given text into %s, preserving meaning and tone.
After the translation, add one line per term whose reading depends on the surrounding page, in the form:
"<source term>" translated in this context as "<target term>"
Use the attached page image to resolve ambiguous references. Output only the translation and those lines.`

const promptPassage = `You are a professional translator. Translate the given text into %s, preserving meaning and tone.
Output only the translation, no annotations or commentary.`
