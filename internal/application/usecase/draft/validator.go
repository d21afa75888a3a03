package draft

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/khoahotran/provenpro/internal/domain/collection"
	"github.com/khoahotran/provenpro/pkg/apperror"
)

// Validator cleans and checks edit buffers before they touch a collection.
type Validator struct {
	validate *validator.Validate
	policy   *bluemonday.Policy
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterValidation("present_or_date", validatePresentOrDate)
	return &Validator{validate: v, policy: bluemonday.StrictPolicy()}
}

func validatePresentOrDate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" || strings.EqualFold(value, "present") {
		return true
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

// Clean trims string values and strips any markup from them.
func (v *Validator) Clean(item collection.Item) collection.Item {
	out := item.Clone()
	for k, val := range out.Fields {
		s, ok := val.(string)
		if !ok {
			continue
		}
		if strings.ContainsAny(s, "<>") {
			s = html.UnescapeString(v.policy.Sanitize(s))
		}
		out.Fields[k] = strings.TrimSpace(s)
	}
	return out
}

// Check validates item against kind and names the first offending field in
// the kind's field order.
func (v *Validator) Check(kind collection.Kind, item collection.Item) error {
	data := make(map[string]interface{}, len(kind.KeyFields))
	rules := make(map[string]interface{}, len(kind.KeyFields))

	required := make(map[string]bool, len(kind.Required))
	for _, f := range kind.Required {
		required[f] = true
	}

	for _, f := range kind.KeyFields {
		data[f] = strings.TrimSpace(item.Get(f))
		var tags []string
		if required[f] {
			tags = append(tags, "required")
		} else {
			tags = append(tags, "omitempty")
		}
		if r, ok := kind.Rules[f]; ok {
			tags = append(tags, r)
		}
		if len(tags) == 1 && tags[0] == "omitempty" {
			continue
		}
		rules[f] = strings.Join(tags, ",")
	}

	errs := v.validate.ValidateMap(data, rules)
	if len(errs) == 0 {
		return nil
	}
	for _, f := range kind.KeyFields {
		if _, bad := errs[f]; !bad {
			continue
		}
		if data[f] == "" {
			return apperror.NewValidation(f, fmt.Sprintf("%s is required", label(f)))
		}
		return apperror.NewValidation(f, fmt.Sprintf("%s has an invalid format", label(f)))
	}
	return nil
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
