// Package bootstrap orchestrates application lifecycle for flowkit services.
//
// It validates typed configuration, initializes the global logger, starts
// registered components in order and stops them in reverse on exit.
//
// # Quick Start
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	app.RegisterComponent(component.Pool(pool))
//	app.RegisterComponent(server.NewComponent(srv))
//	return app.Run(ctx)
//
// RunTask offers the same lifecycle for finite work such as CLI commands.
package bootstrap
