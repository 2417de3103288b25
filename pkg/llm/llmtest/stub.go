// Package llmtest provides a scripted LLMProvider for stage and pipeline tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"sql-agent-be/pkg/llm"
)

var ErrNoScript = errors.New("llmtest: no scripted reply matches the prompt")

type rule struct {
	match string
	reply string
	err   error
}

// Stub answers with the first rule whose substring appears anywhere in the
// conversation. Rules are checked in registration order.
type Stub struct {
	mu       sync.Mutex
	rules    []rule
	fallback *rule
	calls    [][]llm.Message
}

var _ llm.LLMProvider = &Stub{}

func New() *Stub {
	return &Stub{}
}

// On registers a reply for prompts containing match.
func (s *Stub) On(match, reply string) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{match: match, reply: reply})
	return s
}

// Fail registers an error for prompts containing match.
func (s *Stub) Fail(match string, err error) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{match: match, err: err})
	return s
}

// Default sets the reply used when no rule matches.
func (s *Stub) Default(reply string) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = &rule{reply: reply}
	return s
}

func (s *Stub) Chat(ctx context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, append([]llm.Message(nil), history...))

	var text strings.Builder
	for _, m := range history {
		text.WriteString(m.Content)
		text.WriteByte('\n')
	}
	prompt := text.String()

	for _, r := range s.rules {
		if strings.Contains(prompt, r.match) {
			return r.reply, r.err
		}
	}
	if s.fallback != nil {
		return s.fallback.reply, nil
	}
	return "", ErrNoScript
}

func (s *Stub) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// Calls returns a copy of every conversation received so far.
func (s *Stub) Calls() [][]llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]llm.Message(nil), s.calls...)
}

// CallCount reports how many conversations contained match.
func (s *Stub) CallCount(match string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, call := range s.calls {
		for _, m := range call {
			if strings.Contains(m.Content, match) {
				n++
				break
			}
		}
	}
	return n
}
