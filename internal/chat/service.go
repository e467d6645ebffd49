package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mubi-byte/thinktank/internal/documents"
	"github.com/Mubi-byte/thinktank/internal/llm"
	"github.com/Mubi-byte/thinktank/internal/search"
	"github.com/Mubi-byte/thinktank/internal/shared/metrics"
	"github.com/Mubi-byte/thinktank/internal/shared/telemetry"
)

// ErrNoRelevantContent means a search-mode question matched nothing in the
// index. The completion service is not called in that case.
var ErrNoRelevantContent = errors.New("no relevant content found")

// searchTop is how many index hits feed the context message.
const searchTop = 3

// Turn is one prior exchange message supplied by the client.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries one chat question plus its conversational context.
type Request struct {
	UserInput string
	History   []Turn
	SessionID string
	UseSearch bool
}

// Answer is the completion text plus the source filenames that informed it.
// Sources is nil in session-context mode.
type Answer struct {
	Response string
	Sources  []string
}

// Service assembles the message sequence and calls the completion client.
type Service struct {
	LLM      llm.Client
	Index    search.Index
	Sessions *documents.SessionStore
}

// NewService wires the chat dependencies.
func NewService(client llm.Client, index search.Index, sessions *documents.SessionStore) *Service {
	return &Service{LLM: client, Index: index, Sessions: sessions}
}

// Respond answers one question. In search mode the question runs against the
// index first and the hit texts become context; otherwise the session's last
// ingested document does, when present.
func (s *Service) Respond(ctx context.Context, req Request) (Answer, error) {
	started := time.Now()
	metrics.IncChatRequest()

	answer, err := s.respond(ctx, req)
	metrics.ObserveChatDurationMs(float64(time.Since(started).Milliseconds()))
	if err != nil {
		metrics.IncChatFailed()
		return Answer{}, err
	}
	return answer, nil
}

func (s *Service) respond(ctx context.Context, req Request) (Answer, error) {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: systemInstruction}}

	var sources []string
	if req.UseSearch {
		hits, err := s.Index.Search(ctx, req.UserInput, searchTop)
		if err != nil {
			return Answer{}, err
		}
		if len(hits) == 0 {
			return Answer{}, ErrNoRelevantContent
		}
		contextMsg, hitSources := buildSearchContext(hits)
		sources = hitSources
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: contextMsg})
	} else if doc, ok := s.Sessions.Get(req.SessionID); ok && strings.TrimSpace(doc.Text) != "" {
		messages = append(messages, llm.Message{
			Role:    llm.RoleSystem,
			Content: fmt.Sprintf("Context from the uploaded document %q:\n\n%s", doc.Filename, doc.Text),
		})
	}

	for _, turn := range req.History {
		role := turn.Role
		if role != llm.RoleUser && role != llm.RoleAssistant {
			role = llm.RoleUser
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: req.UserInput})

	response, err := s.LLM.Complete(ctx, messages)
	if err != nil {
		return Answer{}, err
	}

	telemetry.Info("chat.answered", map[string]any{
		"use_search": req.UseSearch,
		"sources":    len(sources),
		"history":    len(req.History),
	})

	return Answer{Response: response, Sources: sources}, nil
}

func buildSearchContext(hits []search.Document) (string, []string) {
	var b strings.Builder
	b.WriteString("Context retrieved from the document index. Cite the listed source filenames.\n")
	sources := make([]string, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, hit.Filename)
		b.WriteString(fmt.Sprintf("\nSource: %s\n%s\n", hit.Filename, hit.Text))
	}
	return b.String(), sources
}
