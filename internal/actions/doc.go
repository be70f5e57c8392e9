// Package actions recognizes GitHub Actions references in workflow text and
// decides whether their publishing namespace is trusted.
package actions
