package plan

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
)

// Pipeline drives one generation from provider fragments to the final
// event: intro chunks while streaming, then the parsed cards.
type Pipeline struct {
	emitter *Emitter
	logger  *slog.Logger
}

// NewPipeline wires an emitter into a pipeline.
func NewPipeline(emitter *Emitter, logger *slog.Logger) *Pipeline {
	return &Pipeline{emitter: emitter, logger: logger}
}

// Run consumes stream and sends events to sink. Any returned error means the
// sequence ended without a done event; the caller decides whether an error
// event can still be delivered.
func (p *Pipeline) Run(ctx context.Context, stream FragmentStream, planType Type, targets *nutrition.Targets, sink Sink) error {
	buffer, err := p.aggregate(ctx, stream, sink)
	if err != nil {
		return err
	}

	doc, err := ParseDocument(buffer, planType)
	if err != nil {
		return err
	}
	p.logger.Debug("plan parsed", "plan_type", planType, "cards", doc.CardCount())
	return p.emitter.Emit(ctx, doc, targets, sink)
}

func (p *Pipeline) aggregate(ctx context.Context, stream FragmentStream, sink Sink) (string, error) {
	agg := NewAggregator()
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fragment, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return agg.Buffer(), nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", &ProviderStreamError{Err: err}
		}
		if delta, ok := agg.Append(fragment); ok {
			if err := sink(ChunkEvent(delta)); err != nil {
				return "", err
			}
		}
	}
}

// ClientMessage maps a pipeline failure to the text of the error event.
func ClientMessage(err error) string {
	var streamErr *ProviderStreamError
	var malformed *MalformedPlanError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Plan generation took too long. Please try again."
	case errors.As(err, &streamErr):
		return "The coach stopped responding. Please try again."
	case errors.As(err, &malformed):
		return "The plan could not be read. Please try again."
	default:
		return "Something went wrong while generating your plan. Please try again."
	}
}
