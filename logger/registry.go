package logger

import "sync"

var named sync.Map // name -> *Logger

// Register installs l as the logger returned by Get(name).
func Register(name string, l *Logger) {
	named.Store(name, l)
}

// Get returns the logger registered under name, or the global logger tagged
// with name as its component. The fallback tracks SetGlobalLogger.
func Get(name string) *Logger {
	if l, ok := named.Load(name); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}
