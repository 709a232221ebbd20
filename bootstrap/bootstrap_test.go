package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
)

type testConfig struct {
	Base    config.BaseConfig `mapstructure:"base"`
	Logging logger.Config     `mapstructure:"logging"`
}

func (c *testConfig) GetBaseConfig() *config.BaseConfig { return &c.Base }
func (c *testConfig) GetLoggerConfig() *logger.Config   { return &c.Logging }
func (c *testConfig) ApplyDefaults() {
	c.Base.ApplyDefaults()
	c.Logging.ApplyDefaults()
}
func (c *testConfig) Validate() error {
	if err := c.Base.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	status   observability.HealthStatus
	started  bool
	stopped  bool
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(context.Context) error {
	m.started = true
	return m.startErr
}
func (m *mockComponent) Stop(context.Context) error {
	m.stopped = true
	return m.stopErr
}
func (m *mockComponent) Health(context.Context) observability.Health {
	status := m.status
	if status == "" {
		status = observability.HealthStatusUp
	}
	return observability.Health{Name: m.name, Status: status}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{Base: config.BaseConfig{Name: "test-svc", Version: "1.0.0"}}
	app, err := NewApp(cfg, append([]Option{WithLogger(logger.Nop())}, opts...)...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "test-svc" || app.Version != "1.0.0" {
		t.Errorf("got name %q version %q", app.Name, app.Version)
	}
	if app.Components == nil || app.Logger == nil {
		t.Fatal("expected registry and logger")
	}
	if app.Cfg.Base.Environment != "development" {
		t.Errorf("expected defaults applied, got environment %q", app.Cfg.Base.Environment)
	}
	if app.Cfg.Logging.Level != "info" {
		t.Errorf("expected logger defaults applied, got level %q", app.Cfg.Logging.Level)
	}
}

func TestNewAppValidation(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.Nop()))
	if err == nil {
		t.Fatal("expected validation error for missing name")
	}
}

func TestGracefulTimeout(t *testing.T) {
	if app := newTestApp(t); app.gracefulTimeout != 15*time.Second {
		t.Errorf("expected default 15s, got %v", app.gracefulTimeout)
	}
	if app := newTestApp(t, WithGracefulTimeout(3*time.Second)); app.gracefulTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", app.gracefulTimeout)
	}
}

func TestGracefulTimeoutIgnoresNonPositive(t *testing.T) {
	if app := newTestApp(t, WithGracefulTimeout(0)); app.gracefulTimeout != 15*time.Second {
		t.Errorf("expected default 15s, got %v", app.gracefulTimeout)
	}
}

func TestComponentStopTimeout(t *testing.T) {
	if app := newTestApp(t); app.Components.StopTimeout != 10*time.Second {
		t.Errorf("expected registry default 10s, got %v", app.Components.StopTimeout)
	}
	if app := newTestApp(t, WithComponentStopTimeout(2*time.Second)); app.Components.StopTimeout != 2*time.Second {
		t.Errorf("expected 2s, got %v", app.Components.StopTimeout)
	}
}

func TestRegisterComponentDuplicate(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(&mockComponent{name: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := app.RegisterComponent(&mockComponent{name: "a"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  observability.HealthStatus
		wantErr bool
	}{
		{"up", observability.HealthStatusUp, false},
		{"degraded", observability.HealthStatusDegraded, false},
		{"down", observability.HealthStatusDown, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t)
			_ = app.RegisterComponent(&mockComponent{name: "c", status: tc.status})
			err := app.ReadyCheck(context.Background())
			if (err != nil) != tc.wantErr {
				t.Errorf("got %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestRunTaskLifecycle(t *testing.T) {
	app := newTestApp(t)
	c := &mockComponent{name: "c"}
	_ = app.RegisterComponent(c)

	var order []string
	app.OnStart(func(context.Context) error { order = append(order, "start"); return nil })
	app.OnReady(func(context.Context) error { order = append(order, "ready"); return nil })
	app.OnStop(func(context.Context) error { order = append(order, "stop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"start", "ready", "task", "stop"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
	if !c.started || !c.stopped {
		t.Errorf("component started=%v stopped=%v", c.started, c.stopped)
	}
}

func TestRunTaskError(t *testing.T) {
	app := newTestApp(t)
	c := &mockComponent{name: "c"}
	_ = app.RegisterComponent(c)
	taskErr := errors.New("task failed")

	if err := app.RunTask(context.Background(), func(context.Context) error { return taskErr }); !errors.Is(err, taskErr) {
		t.Fatalf("got %v, want task error", err)
	}
	if !c.stopped {
		t.Error("expected component stopped after task error")
	}
}

func TestRunTaskStartFailure(t *testing.T) {
	app := newTestApp(t)
	first := &mockComponent{name: "first"}
	second := &mockComponent{name: "second", startErr: errors.New("boom")}
	_ = app.RegisterComponent(first)
	_ = app.RegisterComponent(second)

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error { ran = true; return nil })
	if err == nil {
		t.Fatal("expected start failure")
	}
	if ran {
		t.Error("task must not run after failed startup")
	}
	if !first.stopped {
		t.Error("expected started component rolled back")
	}
}

func TestOnStartHookFailureStopsComponents(t *testing.T) {
	app := newTestApp(t)
	c := &mockComponent{name: "c"}
	_ = app.RegisterComponent(c)
	app.OnStart(func(context.Context) error { return errors.New("hook") })

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected hook error")
	}
	if !c.stopped {
		t.Error("expected component stopped")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	c := &mockComponent{name: "c"}
	_ = app.RegisterComponent(c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !c.started || !c.stopped {
		t.Errorf("component started=%v stopped=%v", c.started, c.stopped)
	}
}

func TestShutdownReportsStopError(t *testing.T) {
	app := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "c", stopErr: errors.New("stuck")})
	if err := app.Components.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := app.Shutdown(context.Background()); err == nil {
		t.Fatal("expected stop error")
	}
}

var _ component.Component = (*mockComponent)(nil)
