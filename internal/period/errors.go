package period

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNoHousehold is returned when no household is selected.
	ErrNoHousehold = errors.New("no active household")
	// ErrNoActivePeriod is returned when an operation needs an active period
	// and the household has none.
	ErrNoActivePeriod = errors.New("no active period")
	// ErrUnknownTask is returned when a task id does not resolve.
	ErrUnknownTask = errors.New("unknown task")
	// ErrUnknownUser is returned when a user id does not resolve.
	ErrUnknownUser = errors.New("unknown user")
	// ErrNotMember is returned when a user is not a member of the selected
	// household.
	ErrNotMember = errors.New("not a member of this household")
	// ErrUnknownHousehold is returned by SelectHousehold for missing ids.
	ErrUnknownHousehold = errors.New("unknown household")
)

// ValidationError reports rejected input. Nothing was changed.
type ValidationError struct {
	// Fields maps the offending field to the rule it broke.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, describeRule(k, e.Fields[k])))
	}
	return "invalid period: " + strings.Join(parts, "; ")
}

func describeRule(field, tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "gtfield":
		if field == "End" {
			return "must be after start"
		}
		return "must be after the related field"
	}
	return "failed " + tag
}

// validationError converts validator output into a ValidationError. Other
// errors pass through unchanged.
func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}
