package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/dsl"
	"github.com/aretw0/wayfinder/pkg/graph"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/aretw0/wayfinder/pkg/schema"
)

// Name is the workflow name.
const Name = "rag"

// Node names. Router labels reuse the retrieval node names.
const (
	NodeRouter           = "Router"
	NodeRetrieveQnA      = "Retrieve_QnA"
	NodeRetrieveDevice   = "Retrieve_Device"
	NodeWebSearch        = "Web_Search"
	NodeRelevanceChecker = "Relevance_Checker"
	NodeAugment          = "Augment"
	NodeGenerate         = "Generate"
)

// Labels.
const (
	LabelQnA    domain.Label = NodeRetrieveQnA
	LabelDevice domain.Label = NodeRetrieveDevice
	LabelWeb    domain.Label = NodeWebSearch
	LabelYes    domain.Label = "Yes"
	LabelNo     domain.Label = "No"
)

// Source descriptions written by the retrieval nodes.
const (
	SourceQnA    = "Medical Q&A Collection"
	SourceDevice = "Medical Device Manual"
	SourceWeb    = "Web Search"
)

// State field names.
const (
	FieldQuery          = "query"
	FieldContext        = "context"
	FieldPrompt         = "prompt"
	FieldResponse       = "response"
	FieldSource         = "source"
	FieldIsRelevant     = "is_relevant"
	FieldIterationCount = "iteration_count"
)

const (
	DefaultTopK               = 3
	DefaultMaxRelevanceChecks = 3
)

// Record is the state schema of the retrieval workflow.
var Record = schema.MustRecord(
	schema.Required(FieldQuery, schema.String()),
	schema.Optional(FieldContext, schema.String()),
	schema.Optional(FieldPrompt, schema.String()),
	schema.Optional(FieldResponse, schema.String()),
	schema.Optional(FieldSource, schema.String()),
	schema.Optional(FieldIsRelevant, schema.String()),
	schema.Optional(FieldIterationCount, schema.Int()),
)

// Deps are the collaborators the workflow calls. Tokens is optional.
type Deps struct {
	Decider ports.Decider
	QnA     ports.Retriever
	Device  ports.Retriever
	Search  ports.Searcher
	Tokens  ports.TokenCounter
}

type pipeline struct {
	deps             Deps
	topK             int
	maxChecks        int
	maxContextTokens int
	logger           *slog.Logger
}

// Option configures the retrieval workflow.
type Option func(*pipeline)

// WithTopK sets how many documents each retrieval returns.
func WithTopK(k int) Option {
	return func(p *pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithMaxRelevanceChecks sets the relevance retry ceiling.
func WithMaxRelevanceChecks(n int) Option {
	return func(p *pipeline) {
		if n > 0 {
			p.maxChecks = n
		}
	}
}

// WithMaxContextTokens bounds the context placed in the generation prompt. Zero disables the bound.
func WithMaxContextTokens(n int) Option {
	return func(p *pipeline) {
		p.maxContextTokens = n
	}
}

// WithLogger sets the logger used by the nodes.
func WithLogger(logger *slog.Logger) Option {
	return func(p *pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New compiles the retrieval workflow.
func New(deps Deps, opts ...Option) (*graph.Workflow, error) {
	var missing []error
	if deps.Decider == nil {
		missing = append(missing, errors.New("decider is required"))
	}
	if deps.QnA == nil {
		missing = append(missing, errors.New("qna retriever is required"))
	}
	if deps.Device == nil {
		missing = append(missing, errors.New("device retriever is required"))
	}
	if deps.Search == nil {
		missing = append(missing, errors.New("searcher is required"))
	}
	if len(missing) > 0 {
		return nil, &domain.ConfigError{Workflow: Name, Errs: missing}
	}

	p := &pipeline{
		deps:      deps,
		topK:      DefaultTopK,
		maxChecks: DefaultMaxRelevanceChecks,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}

	b := dsl.New(Name).
		Describe("Agentic retrieval: route the query to a collection or the web, re-search until the context is relevant, then answer.").
		Schema(Record).
		Entry(NodeRouter)

	b.Add(NodeRouter, p.route).Branch(domain.FieldSwitch(FieldSource, LabelQnA, LabelDevice, LabelWeb), map[domain.Label]string{
		LabelQnA:    NodeRetrieveQnA,
		LabelDevice: NodeRetrieveDevice,
		LabelWeb:    NodeWebSearch,
	})
	b.Add(NodeRetrieveQnA, p.retrieve(deps.QnA, SourceQnA)).Go(NodeRelevanceChecker)
	b.Add(NodeRetrieveDevice, p.retrieve(deps.Device, SourceDevice)).Go(NodeRelevanceChecker)
	b.Add(NodeWebSearch, p.webSearch).Go(NodeRelevanceChecker)
	b.Add(NodeRelevanceChecker, p.checkRelevance).Retry(graph.BoundedRetry{
		Switch: domain.FieldSwitch(FieldIsRelevant, LabelYes, LabelNo),
		Routes: map[domain.Label]string{
			LabelYes: NodeAugment,
			LabelNo:  NodeWebSearch,
		},
		Counter:      FieldIterationCount,
		MaxVisits:    p.maxChecks,
		Forced:       LabelYes,
		ForcedUpdate: domain.Update{FieldIsRelevant: string(LabelYes)},
	})
	b.Add(NodeAugment, p.augment).Go(NodeGenerate)
	b.Add(NodeGenerate, p.generate).Terminal()

	return b.Compile()
}

func (p *pipeline) route(ctx context.Context, in domain.View) (domain.Update, error) {
	answer, err := p.deps.Decider.Decide(ctx, RouterPrompt(in.String(FieldQuery)))
	if err != nil {
		return nil, fmt.Errorf("router decision: %w", err)
	}
	decision := normalizeLabel(answer, LabelQnA, LabelDevice, LabelWeb)
	p.logger.Debug("router decision", "decision", decision)
	return domain.Update{FieldSource: decision}, nil
}

func (p *pipeline) retrieve(r ports.Retriever, source string) domain.NodeFunc {
	return func(ctx context.Context, in domain.View) (domain.Update, error) {
		docs, err := r.Query(ctx, in.String(FieldQuery), p.topK)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", source, err)
		}
		return domain.Update{
			FieldContext: strings.Join(docs, "\n"),
			FieldSource:  source,
		}, nil
	}
}

func (p *pipeline) webSearch(ctx context.Context, in domain.View) (domain.Update, error) {
	results, err := p.deps.Search.Search(ctx, in.String(FieldQuery))
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	return domain.Update{
		FieldContext: results,
		FieldSource:  SourceWeb,
	}, nil
}

func (p *pipeline) checkRelevance(ctx context.Context, in domain.View) (domain.Update, error) {
	answer, err := p.deps.Decider.Decide(ctx, RelevancePrompt(in.String(FieldQuery), in.String(FieldContext)))
	if err != nil {
		return nil, fmt.Errorf("relevance decision: %w", err)
	}
	verdict := normalizeLabel(answer, LabelYes, LabelNo)
	p.logger.Debug("relevance decision", "verdict", verdict, "source", in.String(FieldSource))
	return domain.Update{FieldIsRelevant: verdict}, nil
}

func (p *pipeline) augment(_ context.Context, in domain.View) (domain.Update, error) {
	bounded := FitContext(in.String(FieldContext), p.maxContextTokens, p.deps.Tokens)
	return domain.Update{FieldPrompt: AnswerPrompt(in.String(FieldQuery), bounded)}, nil
}

func (p *pipeline) generate(ctx context.Context, in domain.View) (domain.Update, error) {
	answer, err := p.deps.Decider.Decide(ctx, in.String(FieldPrompt))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return domain.Update{FieldResponse: strings.TrimSpace(answer)}, nil
}

// normalizeLabel maps a free-text answer onto one of labels, ignoring case, surrounding
// whitespace, quotes and trailing punctuation. Unrecognized answers are returned trimmed,
// so the conditional edge reports them as unmapped.
func normalizeLabel(answer string, labels ...domain.Label) string {
	clean := strings.Trim(strings.TrimSpace(answer), "\"'`.!")
	for _, l := range labels {
		if strings.EqualFold(clean, string(l)) {
			return string(l)
		}
	}
	return clean
}
