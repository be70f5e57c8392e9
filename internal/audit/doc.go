// Package audit reports workflow action references published under namespaces
// an organization has not explicitly trusted.
//
// It exposes CommandBuilder for wiring the audit Cobra command and Service for
// driving the search, extraction, and trust filtering programmatically.
package audit
