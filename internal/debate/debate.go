// Package debate runs the three-stage optimist, pessimist, synthesizer
// exchange over context retrieved from the knowledge base.
package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nickcecere/ldebate/internal/config"
	"github.com/nickcecere/ldebate/internal/knowledge"
	"github.com/nickcecere/ldebate/internal/llm"
	"github.com/nickcecere/ldebate/internal/prompt"
	"github.com/nickcecere/ldebate/internal/synthesis"
)

// ErrEmptyResponse is recorded when a model answers with only whitespace.
var ErrEmptyResponse = errors.New("empty response")

// Retriever finds the documents relevant to a topic.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]knowledge.Result, error)
}

// Options configures retrieval and sampling.
type Options struct {
	TopK         int
	Temperature  float64
	MaxTokens    int
	StageTimeout time.Duration
}

// OptionsFromConfig reads the debate section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TopK:         cfg.Debate.TopK,
		Temperature:  cfg.Debate.Temperature,
		MaxTokens:    cfg.Debate.MaxTokens,
		StageTimeout: cfg.Debate.StageTimeout,
	}
}

// Stage is a step of the debate state machine.
type Stage int

const (
	StageIdle Stage = iota
	StageOptimistGenerated
	StagePessimistGenerated
	StageSynthesized
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageOptimistGenerated:
		return "optimist_generated"
	case StagePessimistGenerated:
		return "pessimist_generated"
	case StageSynthesized:
		return "synthesized"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Result is a completed debate. All three texts are always populated; a
// failed stage holds its failure message and is listed in Failed.
type Result struct {
	ID        string             `json:"id"`
	Topic     string             `json:"topic"`
	Context   string             `json:"context"`
	Optimist  string             `json:"optimist"`
	Pessimist string             `json:"pessimist"`
	Synthesis string             `json:"synthesis"`
	Sections  synthesis.Sections `json:"sections"`
	Failed    []prompt.Role      `json:"failed,omitempty"`
	Duration  time.Duration      `json:"duration"`
}

// Orchestrator drives debates. It holds no per-debate state and is safe for
// concurrent use.
type Orchestrator struct {
	kb   Retriever
	gen  llm.Service
	opts Options
}

// New creates an orchestrator. Zero option values fall back to defaults.
func New(kb Retriever, gen llm.Service, opts Options) *Orchestrator {
	if opts.TopK <= 0 {
		opts.TopK = config.DefaultTopK
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = config.DefaultMaxTokens
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = config.DefaultStageTimeout
	}
	return &Orchestrator{kb: kb, gen: gen, opts: opts}
}

// FailureMessage is the text standing in for a stage that produced nothing.
func FailureMessage(role prompt.Role) string {
	return role.Title() + " response failed. Please try again."
}

// Run executes the full debate on topic. Context is retrieved once and
// shared by all stages. Run never fails; stage failures degrade to
// FailureMessage.
func (o *Orchestrator) Run(ctx context.Context, topic string) Result {
	start := time.Now()
	res := Result{
		ID:    uuid.New().String(),
		Topic: topic,
	}
	logger := log.With("debate", res.ID)

	res.Context = o.Retrieve(ctx, topic)
	stage := StageIdle

	var ok bool
	res.Optimist, ok = o.stage(ctx, prompt.RoleOptimist, topic, res.Context, "")
	if !ok {
		res.Failed = append(res.Failed, prompt.RoleOptimist)
	}
	stage = advance(logger, stage, StageOptimistGenerated)

	res.Pessimist, ok = o.stage(ctx, prompt.RolePessimist, topic, res.Context, OptimistPrior(res.Optimist))
	if !ok {
		res.Failed = append(res.Failed, prompt.RolePessimist)
	}
	stage = advance(logger, stage, StagePessimistGenerated)

	res.Synthesis, ok = o.stage(ctx, prompt.RoleSynthesizer, topic, res.Context, History(res.Optimist, res.Pessimist))
	if !ok {
		res.Failed = append(res.Failed, prompt.RoleSynthesizer)
	}
	stage = advance(logger, stage, StageSynthesized)

	res.Sections = synthesis.Parse(res.Synthesis)
	advance(logger, stage, StageDone)

	res.Duration = time.Since(start)
	logger.Info("Debate finished", "duration", res.Duration.Round(time.Millisecond), "failed", len(res.Failed))
	return res
}

func advance(logger *log.Logger, from, to Stage) Stage {
	logger.Debug("Debate stage", "from", from, "to", to)
	return to
}

// Optimist runs the optimist stage alone.
func (o *Orchestrator) Optimist(ctx context.Context, topic string) string {
	text, _ := o.stage(ctx, prompt.RoleOptimist, topic, o.Retrieve(ctx, topic), "")
	return text
}

// Pessimist runs the pessimist stage alone. When optimist is non-empty it
// is shown to the pessimist as the debate so far.
func (o *Orchestrator) Pessimist(ctx context.Context, topic, optimist string) string {
	prior := ""
	if strings.TrimSpace(optimist) != "" {
		prior = OptimistPrior(optimist)
	}
	text, _ := o.stage(ctx, prompt.RolePessimist, topic, o.Retrieve(ctx, topic), prior)
	return text
}

// Synthesize resumes a debate at the synthesis stage from previously
// generated optimist and pessimist texts.
func (o *Orchestrator) Synthesize(ctx context.Context, topic, optimist, pessimist string) string {
	text, _ := o.stage(ctx, prompt.RoleSynthesizer, topic, o.Retrieve(ctx, topic), History(optimist, pessimist))
	return text
}

// Retrieve returns the formatted context for topic. Retrieval errors are
// logged and yield an empty context.
func (o *Orchestrator) Retrieve(ctx context.Context, topic string) string {
	results, err := o.kb.Search(ctx, topic, o.opts.TopK)
	if err != nil {
		log.Warn("Retrieval failed, debating without context", "error", err)
		return ""
	}
	return prompt.FormatContext(results)
}

// OptimistPrior is the debate history shown to the pessimist.
func OptimistPrior(optimist string) string {
	return "Optimist: " + optimist
}

// History is the debate history shown to the synthesizer.
func History(optimist, pessimist string) string {
	return OptimistPrior(optimist) + "\nPessimist: " + pessimist
}

// stage renders and generates one turn. It reports false when the stage
// fell back to its failure message.
func (o *Orchestrator) stage(ctx context.Context, role prompt.Role, topic, facts, prior string) (string, bool) {
	text, err := o.generate(ctx, role, topic, facts, prior)
	if err != nil {
		log.Warn("Stage failed", "role", role, "error", err)
		return FailureMessage(role), false
	}
	return text, true
}

func (o *Orchestrator) generate(ctx context.Context, role prompt.Role, topic, facts, prior string) (string, error) {
	p, err := prompt.Render(role, topic, facts, prior)
	if err != nil {
		return "", err
	}

	stageCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()

	log.Debug("Generating", "role", role, "prompt_len", len(p))

	text, err := o.gen.Generate(stageCtx, p, llm.GenerateOptions{
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s generation: %w", role, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s generation: %w", role, ErrEmptyResponse)
	}
	return text, nil
}
