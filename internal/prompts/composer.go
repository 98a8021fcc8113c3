package prompts

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"
	"text/template/parse"

	"github.com/ClareAI/astra-personalization-bridge/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	systemPromptAsset = "templates/system_prompt.tmpl"
	firstMessageAsset = "templates/first_message.tmpl"
)

// Composition is the per-call agent override derived from a profile.
type Composition struct {
	PromptText   string
	FirstMessage string
	Language     string
}

// Composer renders the system prompt and first message for a caller.
// Templates are parsed once; a Composer is safe for concurrent use.
type Composer struct {
	prompt       *template.Template
	firstMessage *template.Template
}

// NewComposer parses both templates and checks that they reference every field the
// agent relies on: the prompt needs CustomerName, AccountStatus, LastInteraction and
// LoyaltyPoints; the first message needs CustomerName.
func NewComposer(promptSrc, firstMessageSrc string) (*Composer, error) {
	prompt, err := parseTemplate("system_prompt", promptSrc,
		"CustomerName", "AccountStatus", "LastInteraction", "LoyaltyPoints")
	if err != nil {
		return nil, err
	}

	firstMessage, err := parseTemplate("first_message", firstMessageSrc, "CustomerName")
	if err != nil {
		return nil, err
	}

	return &Composer{prompt: prompt, firstMessage: firstMessage}, nil
}

// NewDefaultComposer uses the embedded templates.
func NewDefaultComposer() (*Composer, error) {
	return LoadComposer("", "")
}

// LoadComposer reads templates from disk; an empty path selects the embedded asset.
func LoadComposer(promptPath, firstMessagePath string) (*Composer, error) {
	promptSrc, err := readAsset(promptPath, systemPromptAsset)
	if err != nil {
		return nil, err
	}
	firstMessageSrc, err := readAsset(firstMessagePath, firstMessageAsset)
	if err != nil {
		return nil, err
	}
	return NewComposer(promptSrc, firstMessageSrc)
}

// Compose renders the override for p. Language is copied from the profile.
func (c *Composer) Compose(p domain.CustomerProfile) (Composition, error) {
	promptText, err := execute(c.prompt, p)
	if err != nil {
		return Composition{}, err
	}
	firstMessage, err := execute(c.firstMessage, p)
	if err != nil {
		return Composition{}, err
	}

	return Composition{
		PromptText:   promptText,
		FirstMessage: firstMessage,
		Language:     p.PreferredLanguage,
	}, nil
}

func readAsset(path, embedded string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read template %s: %w", path, err)
		}
		return string(data), nil
	}

	data, err := templateFS.ReadFile(embedded)
	if err != nil {
		return "", fmt.Errorf("failed to read embedded template %s: %w", embedded, err)
	}
	return string(data), nil
}

func parseTemplate(name, src string, required ...string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
	}

	// Unknown fields only surface on execution.
	if _, err := execute(tmpl, domain.GuestProfile()); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, t := range tmpl.Templates() {
		if t.Tree != nil {
			collectFields(t.Tree.Root, seen)
		}
	}
	for _, field := range required {
		if !seen[field] {
			return nil, fmt.Errorf("%s template must reference {{.%s}}", name, field)
		}
	}

	return tmpl, nil
}

// collectFields records the top-level field names referenced anywhere under node,
// including inside pipelines such as {{.CustomerName | html}}.
func collectFields(node parse.Node, seen map[string]bool) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			collectFields(child, seen)
		}
	case *parse.ActionNode:
		collectFields(n.Pipe, seen)
	case *parse.TemplateNode:
		collectFields(n.Pipe, seen)
	case *parse.IfNode:
		collectBranch(&n.BranchNode, seen)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, seen)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, seen)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			collectFields(cmd, seen)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			collectFields(arg, seen)
		}
	case *parse.FieldNode:
		seen[n.Ident[0]] = true
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			seen[n.Ident[1]] = true
		}
	}
}

func collectBranch(b *parse.BranchNode, seen map[string]bool) {
	collectFields(b.Pipe, seen)
	collectFields(b.List, seen)
	collectFields(b.ElseList, seen)
}

func execute(tmpl *template.Template, p domain.CustomerProfile) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, p); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(sb.String()), nil
}
