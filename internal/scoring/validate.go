package scoring

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared across requests; validator caches struct metadata and is
// safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateAnswers checks a submission against the catalog before scoring. It
// returns a *ValidationError naming every offending field, or nil.
func ValidateAnswers(c *Catalog, answers []Answer) error {
	verr := &ValidationError{}
	if c == nil {
		verr.add("catalogVersion", "unknown", "no catalog to validate against")
		return verr
	}

	known := make(map[string]bool, len(c.Questions))
	for _, q := range c.Questions {
		known[q.ID] = true
	}

	seen := make(map[string]int, len(answers))
	for i, a := range answers {
		field := fmt.Sprintf("answers[%d]", i)

		if math.IsNaN(a.Value) || math.IsInf(a.Value, 0) {
			verr.add(field+".value", "number", "value must be a finite number")
		}
		if err := validate.Struct(a); err != nil {
			addTagErrors(verr, field, err)
		}
		if a.QuestionID == "" {
			continue
		}
		if !known[a.QuestionID] {
			verr.add(field+".questionId", "unknown", "question %q is not in catalog %s", a.QuestionID, c.Version)
		}
		if first, dup := seen[a.QuestionID]; dup {
			verr.add(field+".questionId", "duplicate", "question %q already answered at answers[%d]", a.QuestionID, first)
			continue
		}
		seen[a.QuestionID] = i
	}

	if verr.empty() {
		return nil
	}
	return verr
}

// ValidateOrgMeta applies the length limits on raw organization metadata.
func ValidateOrgMeta(raw RawOrgMeta) error {
	verr := &ValidationError{}
	if err := validate.Struct(raw); err != nil {
		addTagErrors(verr, "org", err)
	}
	if verr.empty() {
		return nil
	}
	return verr
}

func addTagErrors(verr *ValidationError, prefix string, err error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add(prefix, "invalid", "%v", err)
		return
	}
	for _, fe := range fieldErrs {
		name := prefix + "." + fe.Field()
		switch fe.Tag() {
		case "required":
			verr.add(name, "required", "is required")
		case "gte", "lte":
			verr.add(name, "range", "must be between 0 and 100")
		case "max":
			verr.add(name, "too_long", "must be at most %s characters", fe.Param())
		default:
			verr.add(name, fe.Tag(), "failed %s validation", fe.Tag())
		}
	}
}
