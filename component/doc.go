// Package component manages the lifecycle of long-lived parts of a reqkit
// application. A Registry starts components in registration order and stops
// them in reverse, so an HTTP client registered last is stopped first and
// its in-flight calls are aborted before anything it depends on goes away.
package component
