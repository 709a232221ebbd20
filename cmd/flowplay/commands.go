package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/flowkit/bootstrap"
	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/dispatch"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/playground"
	"github.com/kbukum/flowkit/server"
	"github.com/kbukum/flowkit/sse"
	"github.com/kbukum/flowkit/version"
)

// runtime holds the components every command that collects flows needs.
type runtime struct {
	app       *bootstrap.App[*AppConfig]
	pool      *dispatch.Pool
	telemetry *component.TelemetryComponent
}

func newRuntime(cfg *AppConfig) (*runtime, error) {
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return nil, err
	}
	rt := &runtime{
		app:       app,
		pool:      dispatch.NewPool(cfg.Pool),
		telemetry: component.Telemetry(cfg.Observability),
	}
	if err := app.RegisterComponent(rt.telemetry); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(component.Pool(rt.pool)); err != nil {
		return nil, err
	}
	return rt, nil
}

// env is valid once the telemetry component has started.
func (rt *runtime) env() playground.Env {
	return playground.Env{
		IO:      rt.pool,
		Bridge:  rt.app.Cfg.Bridge,
		Metrics: rt.telemetry.Metrics(),
	}
}

func listScenarios(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, s := range playground.Scenarios() {
		fmt.Fprintf(tw, "%s\t%s\n", s.Name, s.Description)
	}
	return tw.Flush()
}

func selectScenarios(target string) ([]playground.Scenario, error) {
	if target == "all" {
		return playground.Scenarios(), nil
	}
	s, err := playground.Lookup(target)
	if err != nil {
		return nil, err
	}
	return []playground.Scenario{s}, nil
}

func runScenarios(ctx context.Context, cfg *AppConfig, target string, out io.Writer) error {
	selected, err := selectScenarios(target)
	if err != nil {
		return err
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	return rt.app.RunTask(ctx, func(ctx context.Context) error {
		env := rt.env()
		for _, s := range selected {
			fmt.Fprintf(out, "== %s\n", s.Name)
			if err := playground.Run(ctx, out, s, env); err != nil {
				return fmt.Errorf("%s: %w", s.Name, err)
			}
		}
		return nil
	})
}

type scenarioInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Stream      string `json:"stream"`
}

func serve(ctx context.Context, cfg *AppConfig) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	srv := server.New(cfg.HTTP, logger.GetGlobalLogger())
	srv.ApplyDefaults(cfg.Base.Name, cfg.Base.Version, rt.app.Components.Checkers()...)
	mountScenarios(srv.GinEngine(), rt)
	if err := rt.app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}
	return rt.app.Run(ctx)
}

func mountScenarios(r gin.IRoutes, rt *runtime) {
	r.GET("/version", func(c *gin.Context) {
		server.RespondOK(c, version.Get())
	})
	r.GET("/flows", func(c *gin.Context) {
		list := make([]scenarioInfo, 0, len(playground.Scenarios()))
		for _, s := range playground.Scenarios() {
			list = append(list, scenarioInfo{Name: s.Name, Description: s.Description, Stream: "/flows/" + s.Name})
		}
		server.RespondOK(c, list)
	})
	r.GET("/flows/:name", sse.Handler(func(c *gin.Context) (*flow.Flow[string], error) {
		s, err := playground.Lookup(c.Param("name"))
		if err != nil {
			return nil, err
		}
		return s.Flow(rt.env()), nil
	}, sse.Text[string]))
}
