// Package logger wraps zerolog with the conventions used across flowkit:
// a service-tagged Logger, component loggers obtained from a named registry,
// and map-based structured fields.
//
//	log := logger.Get("flow")
//	log.Debug("collection started", logger.Fields(logger.FieldRunID, id))
//
// The package-level functions delegate to a global logger that Init replaces.
// Until Init is called the global logger writes console output at info level,
// so library debug logs stay silent by default.
package logger
