package observe_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/root-signals/rs-sdk/observe"
)

func ExampleNewObserver() {
	ctx := context.Background()
	var logs bytes.Buffer
	obs, err := observe.NewObserver(ctx, observe.Config{
		Version: "1.2.0",
		Tracing: observe.TracingConfig{Enabled: true, Exporter: "none", SamplePct: 0.25},
		Logging: observe.LoggingConfig{Enabled: true, Level: "warn", Writer: &logs},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer func() { _ = obs.Shutdown(ctx) }()

	obs.Logger().Warn(ctx, "quota low", observe.Int("remaining", 3))
	fmt.Println(strings.Contains(logs.String(), `"remaining":3`))
	// Output:
	// true
}

func ExampleConfig_Validate() {
	cfg := observe.Config{
		Metrics: observe.MetricsConfig{Enabled: true, Exporter: "statsd"},
	}
	err := cfg.Validate()
	fmt.Println(errors.Is(err, observe.ErrInvalidMetricsExporter))
	fmt.Println(err)
	// Output:
	// true
	// observe: invalid metrics exporter: "statsd"
}

func ExampleOperationMeta() {
	op := observe.OperationMeta{Resource: "evaluators", Action: "execute_by_name"}
	fmt.Println(op.SpanName())
	fmt.Println(op.OperationID())
	fmt.Println(errors.Is(observe.OperationMeta{}.Validate(), observe.ErrMissingResource))
	// Output:
	// scorable.evaluators.execute_by_name
	// evaluators.execute_by_name
	// true
}

func ExampleLogger_withOperation() {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &buf).WithOperation(observe.OperationMeta{
		Resource: "judges",
		Action:   "execute",
		Method:   "POST",
	})

	logger.Info(context.Background(), "judge executed",
		observe.String("api_key", "sk-live"),
		observe.String("authorization", "Api-Key sk-live"),
	)

	out := buf.String()
	fmt.Println(strings.Contains(out, `"scorable.operation":"judges.execute"`))
	fmt.Println(strings.Contains(out, "sk-live"))
	// Output:
	// true
	// false
}

func ExampleMiddleware_Wrap() {
	ctx := context.Background()
	obs, err := observe.NewObserver(ctx, observe.Config{
		Tracing: observe.TracingConfig{Enabled: true, Exporter: "none"},
		Metrics: observe.MetricsConfig{Enabled: true, Exporter: "none"},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer func() { _ = obs.Shutdown(ctx) }()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		fmt.Println(err)
		return
	}

	list := mw.Wrap(func(ctx context.Context, op observe.OperationMeta, input any) (any, error) {
		return []string{"gpt-4o", "claude"}, nil
	})
	models, err := list(ctx, observe.OperationMeta{Resource: "models", Action: "list"}, nil)
	fmt.Println(models, err)
	// Output:
	// [gpt-4o claude] <nil>
}

func ExampleParseLogLevel() {
	for _, s := range []string{"DEBUG", "warn", "verbose"} {
		fmt.Println(s, "->", observe.ParseLogLevel(s))
	}
	// Output:
	// DEBUG -> debug
	// warn -> warn
	// verbose -> info
}
