package answer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/assemble"
)

// Role identifies who spoke a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one exchange in the running conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// User errors caught before any completion call is made.
var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrEmptyContext  = errors.New("no document context available")
)

// SystemPrompt pins the citation behavior across the whole conversation.
const SystemPrompt = "You are a helpful AI assistant that ALWAYS provides page citations for every piece of information."

// NotFoundAnswer is the sentence the contract requires when the context does
// not support an answer. The model must say this rather than invent a page.
const NotFoundAnswer = "I cannot find this information in the provided documents."

const citationTemplate = `You are a helpful AI assistant analyzing documents for Chartered Accountants.

IMPORTANT: You MUST cite page numbers for EVERY piece of information you provide.

Format your citations like this: [Document: filename.pdf, Page: X]

Available Documents and Context:
%s

User Question: %s

Instructions:
1. Answer the question accurately based ONLY on the provided documents
2. ALWAYS cite the specific page number(s) where you found the information
3. Use this citation format: [Document: filename.pdf, Page: X]
4. If information spans multiple pages, cite all relevant pages: [Document: filename.pdf, Pages: 1-3]
5. If you cannot find the answer in the documents, say "` + NotFoundAnswer + `"
6. Be specific and quote relevant parts when helpful

Answer with citations:`

// PromptRequest is a fully assembled completion request: pure strings, no
// network concerns.
type PromptRequest struct {
	System  string
	History []Turn
	Prompt  string
}

// BuildPrompt renders the context package and question into the citation
// contract. Blank questions and missing context are rejected here so the
// caller never pays for a doomed completion call.
func BuildPrompt(pkg *assemble.Package, question string, history []Turn) (PromptRequest, error) {
	if strings.TrimSpace(question) == "" {
		return PromptRequest{}, ErrEmptyQuestion
	}
	if pkg == nil || pkg.Empty() {
		return PromptRequest{}, ErrEmptyContext
	}
	return PromptRequest{
		System:  SystemPrompt,
		History: history,
		Prompt:  fmt.Sprintf(citationTemplate, pkg.Render(), question),
	}, nil
}
