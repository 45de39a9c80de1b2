// Package component defines the lifecycle contract shared by the
// infrastructure pieces of careerauth.
//
// A Registry starts components in registration order, stops them in
// reverse order, and collects their Health for the /health endpoint.
package component
