// Package observability builds the structured zap logger shared by every
// component. Log level and encoding come from configuration.
package observability
