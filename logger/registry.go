package logger

import "sync"

// named holds loggers registered by component name.
var named sync.Map

// Register binds l to name. Later calls replace earlier ones.
func Register(name string, l *Logger) {
	named.Store(name, l)
}

// Get returns the logger registered under name. Unregistered names get the
// current global logger tagged with component=name, resolved on every call so
// a later Init is picked up.
func Get(name string) *Logger {
	if v, ok := named.Load(name); ok {
		return v.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}

// Reset forgets every registered logger. Init calls it.
func Reset() {
	named.Range(func(k, _ any) bool {
		named.Delete(k)
		return true
	})
}
