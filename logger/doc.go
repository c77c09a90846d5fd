// Package logger is reqkit's structured logging on top of zerolog.
//
//	logging:
//	  level: debug
//	  format: json
//
// Packages fetch a component-scoped logger with Get and attach fields per
// event:
//
//	log := logger.Get("httpclient")
//	log.Warn("retrying request", logger.Fields(logger.FieldURL, "/users", logger.FieldAttempt, 1))
package logger
