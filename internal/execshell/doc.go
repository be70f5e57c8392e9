// Package execshell runs external commands and captures their output.
package execshell
