package tracinghooks

import (
	"context"

	"github.com/blakewilliams/sitehop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "sitehop"

// AddResolveHook wraps each resolve in a span annotated with the detected
// site and the number of active candidates.
func AddResolveHook(server *sitehop.Server) {
	server.Notifier.Around(sitehop.EventResolve, func(ctx context.Context, f func(ctx context.Context)) {
		var span trace.Span
		ctx, span = otel.Tracer(tracerName).Start(ctx, "resolve")
		defer span.End()

		if req := sitehop.RequestFromContext(ctx); req != nil && req.Site != "" {
			span.SetAttributes(attribute.String("sitehop.requested_site", req.Site))
		}

		f(ctx)

		if resolution := sitehop.ResolutionFromContext(ctx); resolution != nil {
			span.SetAttributes(
				attribute.String("sitehop.site", resolution.Site),
				attribute.Int("sitehop.candidates", len(resolution.Candidates)),
				attribute.Int("sitehop.candidates.active", resolution.ActiveCount()),
			)
		}
	})
}

func AddExtractHook(server *sitehop.Server) {
	server.Notifier.Around(sitehop.EventExtract, func(ctx context.Context, f func(ctx context.Context)) {
		var span trace.Span
		ctx, span = otel.Tracer(tracerName).Start(ctx, "extract")
		defer span.End()

		f(ctx)

		if resolution := sitehop.ResolutionFromContext(ctx); resolution != nil {
			names := make([]string, 0, len(resolution.Values))
			for name := range resolution.Values {
				names = append(names, name)
			}

			span.SetAttributes(attribute.StringSlice("sitehop.parameters", names))
		}
	})
}

func AddSelectHook(server *sitehop.Server) {
	server.Notifier.Around(sitehop.EventSelect, func(ctx context.Context, f func(ctx context.Context)) {
		var span trace.Span
		ctx, span = otel.Tracer(tracerName).Start(ctx, "select")
		defer span.End()

		f(ctx)
	})
}

func AddHooks(server *sitehop.Server) {
	AddResolveHook(server)
	AddExtractHook(server)
	AddSelectHook(server)
}
