package actions

import (
	"errors"
	"fmt"
	"strings"
)

const (
	usesMarkerConstant                 = "uses:"
	localActionMarkerConstant          = "./"
	namespaceSeparatorConstant         = "/"
	referenceStringTemplateConstant    = "%s/%s"
	malformedReferenceMessageConstant  = "malformed action reference"
	malformedReferenceTemplateConstant = "%w: %q"
	doubleQuoteConstant                = "\""
	singleQuoteConstant                = "'"
	emptyReplacementConstant           = ""
	referenceComponentCountConstant    = 2
)

// ErrMalformedReference indicates that a uses: line does not carry a namespace/name reference.
var ErrMalformedReference = errors.New(malformedReferenceMessageConstant)

var quoteRemover = strings.NewReplacer(doubleQuoteConstant, emptyReplacementConstant, singleQuoteConstant, emptyReplacementConstant)

// ActionReference identifies an action by its publishing namespace and its name.
// Name keeps any version suffix and sub-path, e.g. "checkout@v4" or "codeql-action/init@v3".
type ActionReference struct {
	Namespace string
	Name      string
}

// String renders the reference as namespace/name.
func (reference ActionReference) String() string {
	return fmt.Sprintf(referenceStringTemplateConstant, reference.Namespace, reference.Name)
}

// UsesNonLocalAction reports whether the line references an action outside the current repository.
func UsesNonLocalAction(line string) bool {
	return strings.Contains(line, usesMarkerConstant) && !strings.Contains(line, localActionMarkerConstant)
}

// ParseActionReference extracts the namespace and action name following the first uses: marker.
// Quote characters are dropped and the split happens on the first slash, so
// path-qualified references keep their sub-path in Name.
func ParseActionReference(line string) (ActionReference, error) {
	unquotedLine := quoteRemover.Replace(line)

	markerComponents := strings.SplitN(unquotedLine, usesMarkerConstant, referenceComponentCountConstant)
	if len(markerComponents) != referenceComponentCountConstant {
		return ActionReference{}, fmt.Errorf(malformedReferenceTemplateConstant, ErrMalformedReference, line)
	}

	referenceText := strings.TrimSpace(markerComponents[1])
	referenceComponents := strings.SplitN(referenceText, namespaceSeparatorConstant, referenceComponentCountConstant)
	if len(referenceComponents) != referenceComponentCountConstant {
		return ActionReference{}, fmt.Errorf(malformedReferenceTemplateConstant, ErrMalformedReference, line)
	}

	namespace := referenceComponents[0]
	actionName := referenceComponents[1]
	if len(namespace) == 0 || len(actionName) == 0 {
		return ActionReference{}, fmt.Errorf(malformedReferenceTemplateConstant, ErrMalformedReference, line)
	}

	return ActionReference{Namespace: namespace, Name: actionName}, nil
}
