package app

import (
	"context"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/phuslu/log"

	"docuchat/internal/ai"
	"docuchat/internal/model"
)

const (
	noRelevantInfoAnswer = "I couldn't find any relevant information in the document."
	chatErrorAnswer      = "Sorry, I encountered an error processing your request."

	chatSystemPrompt = "You are a helpful AI assistant. Answer questions based on the provided context."
)

// ChunkSearcher is the retrieval primitive over persisted chunks.
type ChunkSearcher interface {
	FindSimilarContent(documentID uint, query pgvector.Vector, threshold float64, limit int) ([]string, error)
}

// CompletionClient generates an answer conditioned on retrieved context.
type CompletionClient interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
}

// RetrievalOptions are the static retrieval knobs.
type RetrievalOptions struct {
	TopK              int
	DistanceThreshold float64
	SnippetLength     int
	RequestTimeout    time.Duration
}

// ChatResult is the chat response: the answer plus the source snippets
// that grounded it, in retrieval order. Sources is empty (not nil) when
// nothing relevant was found or the answer is a degradation.
type ChatResult struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// ChatService answers questions about one ingested document by
// embedding the query, retrieving the nearest chunks and conditioning
// a generation call on them. Provider outages degrade to a canned
// answer; only ownership and readiness problems surface as errors.
type ChatService struct {
	docs       DocumentStore
	chunks     ChunkSearcher
	embClient  EmbeddingClient
	genClient  CompletionClient
	embConfig  ai.EmbeddingConfig
	chatConfig ai.ChatConfig

	topK           int
	threshold      float64
	snippetLength  int
	requestTimeout time.Duration
}

func NewChatService(
	docs DocumentStore,
	chunks ChunkSearcher,
	embClient EmbeddingClient,
	genClient CompletionClient,
	embConfig ai.EmbeddingConfig,
	chatConfig ai.ChatConfig,
	opts RetrievalOptions,
) *ChatService {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.DistanceThreshold <= 0 {
		opts.DistanceThreshold = 0.7
	}
	if opts.SnippetLength <= 0 {
		opts.SnippetLength = 50
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	return &ChatService{
		docs:           docs,
		chunks:         chunks,
		embClient:      embClient,
		genClient:      genClient,
		embConfig:      embConfig,
		chatConfig:     chatConfig,
		topK:           opts.TopK,
		threshold:      opts.DistanceThreshold,
		snippetLength:  opts.SnippetLength,
		requestTimeout: opts.RequestTimeout,
	}
}

// Chat verifies ownership and readiness, then answers the query from
// the document's chunks. Returns ErrDocumentNotFound/ErrDocumentNotReady
// for authorization problems; every downstream failure is logged and
// converted into a canned answer.
func (s *ChatService) Chat(ctx context.Context, userID, documentID uint, query string) (*ChatResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}

	doc, err := s.docs.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if doc.Status != model.StatusSuccess {
		return nil, ErrDocumentNotReady
	}

	embCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	queryVec, err := s.embClient.Embed(embCtx, s.embConfig, query)
	cancel()
	if err != nil {
		log.Error().Err(err).
			Uint("user_id", userID).
			Uint("document_id", documentID).
			Msg("embed chat query failed")
		return &ChatResult{Answer: chatErrorAnswer, Sources: []string{}}, nil
	}

	contents, err := s.chunks.FindSimilarContent(documentID, pgvector.NewVector(queryVec), s.threshold, s.topK)
	if err != nil {
		log.Error().Err(err).
			Uint("user_id", userID).
			Uint("document_id", documentID).
			Msg("similar chunk lookup failed")
		return &ChatResult{Answer: chatErrorAnswer, Sources: []string{}}, nil
	}
	if len(contents) == 0 {
		return &ChatResult{Answer: noRelevantInfoAnswer, Sources: []string{}}, nil
	}

	contextBlock := strings.Join(contents, "\n\n")
	sources := make([]string, len(contents))
	for i, c := range contents {
		sources[i] = snippet(c, s.snippetLength)
	}

	messages := []ai.ChatMessage{
		{Role: "system", Content: chatSystemPrompt},
		{Role: "user", Content: buildPrompt(contextBlock, query)},
	}

	genCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	answer, err := s.genClient.Complete(genCtx, s.chatConfig, messages)
	cancel()
	if err != nil {
		log.Error().Err(err).
			Uint("user_id", userID).
			Uint("document_id", documentID).
			Msg("chat generation failed")
		return &ChatResult{Answer: chatErrorAnswer, Sources: []string{}}, nil
	}

	return &ChatResult{
		Answer:  strings.TrimSpace(answer),
		Sources: sources,
	}, nil
}

func buildPrompt(contextBlock, question string) string {
	var b strings.Builder
	b.WriteString("Use the following context to answer the question succinctly in markdown format. Follow these rules:\n\n")
	b.WriteString("1. Base your answer solely on the provided context.\n")
	b.WriteString("2. If the context does not provide enough information, respond with \"I don't know\" without any additional commentary.\n")
	b.WriteString("3. Keep your answer short and to the point.\n")
	b.WriteString("4. Do not include any extra text, explanations, or filler content beyond the answer.\n")
	b.WriteString("5. If the question contains multiple parts and the context allows, you may use bullet points or numbered lists for clarity.\n\n")
	b.WriteString("Context: ")
	b.WriteString(contextBlock)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

func snippet(content string, length int) string {
	runes := []rune(content)
	if len(runes) <= length {
		return content
	}
	return string(runes[:length]) + "..."
}
