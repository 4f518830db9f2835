package lib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// RuleFunc backs a custom validation tag that needs I/O, such as an existence check.
type RuleFunc func(ctx context.Context, value any) (bool, error)

// Validator evaluates the `validate` struct tags of request schemas and returns
// every violation as a field -> messages map.
type Validator struct {
	validate *validator.Validate
	mu       sync.RWMutex
	rules    map[string]RuleFunc
}

type ruleErrKey struct{}

// ruleFailure records the first I/O error raised by a custom rule during one Validate call.
type ruleFailure struct {
	mu  sync.Mutex
	err error
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return jsonName(fld)
	})
	// filled rejects a supplied value that is blank, for partial updates
	_ = v.RegisterValidation("filled", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.String {
			return strings.TrimSpace(field.String()) != ""
		}
		return !field.IsZero()
	})
	return &Validator{validate: v, rules: make(map[string]RuleFunc)}
}

// RegisterRule binds tag to fn. Registering the same tag again replaces it.
func (val *Validator) RegisterRule(tag string, fn RuleFunc) {
	val.mu.Lock()
	defer val.mu.Unlock()

	_, known := val.rules[tag]
	val.rules[tag] = fn
	if known {
		// validator caches the parsed tags, so the registered func stays and
		// looks up the current rule on every call
		return
	}

	_ = val.validate.RegisterValidationCtx(tag, func(ctx context.Context, fl validator.FieldLevel) bool {
		val.mu.RLock()
		rule := val.rules[tag]
		val.mu.RUnlock()

		ok, err := rule(ctx, fl.Field().Interface())
		if err != nil {
			if failure, found := ctx.Value(ruleErrKey{}).(*ruleFailure); found {
				failure.mu.Lock()
				if failure.err == nil {
					failure.err = err
				}
				failure.mu.Unlock()
			}
			return false
		}
		return ok
	})
}

// Validate runs the schema of s. It returns nil, a *ValidationError, or an
// *InternalError when a custom rule could not be evaluated.
func (val *Validator) Validate(ctx context.Context, s any) error {
	verr := NewValidationError()
	if err := val.collect(ctx, s, verr); err != nil {
		return err
	}
	return verr.OrNil()
}

// collect merges the tag violations of s into verr. Keys already present in
// verr (type mismatches found while decoding) are not reported twice.
func (val *Validator) collect(ctx context.Context, s any, verr *ValidationError) error {
	failure := &ruleFailure{}
	ctx = context.WithValue(ctx, ruleErrKey{}, failure)

	err := val.validate.StructCtx(ctx, s)
	if failure.err != nil {
		return Internal("Validation could not be completed.", failure.err)
	}
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return Internal("Validation could not be completed.", err)
	}

	decodeKeys := make(map[string]bool, len(verr.Errors))
	for k := range verr.Errors {
		decodeKeys[k] = true
	}
	for _, fe := range ve {
		key := fieldKey(fe.Namespace())
		if decodeKeys[key] {
			continue
		}
		verr.Add(key, fieldMessage(key, fe))
	}
	return nil
}

// ExtractAndValidateBody decodes the request body into T and validates it,
// reporting type mismatches and rule violations together.
func ExtractAndValidateBody[T any](r *http.Request, val *Validator) (*T, error) {
	defer r.Body.Close()

	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			verr := NewValidationError()
			verr.Add("body", fmt.Sprintf("The request body must not be larger than %d bytes.", maxErr.Limit))
			return nil, verr
		}
		return nil, Internal("Failed to read request body.", err)
	}

	// an empty body is an empty object, so every required field gets reported
	if len(strings.TrimSpace(string(data))) == 0 {
		data = []byte("{}")
	}

	var body T
	verr := DecodeFields(data, &body)
	if verr.Has("body") {
		return nil, verr
	}

	if err := val.collect(r.Context(), &body, verr); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return &body, nil
}

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// fieldKey converts "PlaceOrderRequest.order_lines[0].id" into "order_lines.0.id".
func fieldKey(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}
	return indexPattern.ReplaceAllString(namespace, ".$1")
}

func fieldMessage(key string, fe validator.FieldError) string {
	name := displayName(key)
	kind := fe.Kind()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "filled":
		return fmt.Sprintf("The %s field must have a value.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", name)
	case "unique_email":
		return fmt.Sprintf("The %s has already been taken.", name)
	case "product_exists":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "min":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("The %s field must be at least %s characters.", name, fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("The %s field must have at least %s items.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", name, fe.Param())
	case "max":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("The %s field must not have more than %s items.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("The %s field must be one of: %s.", name, fe.Param())
	}
	return fmt.Sprintf("The %s field is invalid.", name)
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
