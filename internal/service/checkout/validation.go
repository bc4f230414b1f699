package checkout

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Fields is the flat form data of a stage.
type Fields map[string]string

type fieldRule struct {
	name string
	tag  string
	// when gates the rule on other fields of the same stage.
	when func(Fields) bool
}

// stageRules are presence checks only; values are not otherwise typed.
var stageRules = map[Stage][]fieldRule{
	StageIdentification: {
		{name: "name", tag: "required"},
		{name: "email", tag: "required"},
		{name: "phone", tag: "required"},
	},
	StageDelivery: {
		{name: "recipient_name", tag: "required"},
		{name: "recipient_phone", tag: "omitempty"},
		{name: "address", tag: "required"},
		{name: "number", tag: "required"},
		{name: "complement", tag: "omitempty"},
		{name: "neighborhood", tag: "required"},
		{name: "city", tag: "required"},
		{name: "zip_code", tag: "required"},
		{name: "delivery_date", tag: "required"},
		{name: "delivery_period", tag: "required"},
	},
	StagePersonalization: {
		{name: "card_type", tag: "omitempty"},
		{name: "card_message", tag: "required", when: func(f Fields) bool { return f["card_type"] == "message" }},
		{name: "sender_name", tag: "omitempty"},
	},
	StagePayment: {
		{name: "payment_method", tag: "required"},
	},
}

// clean trims the known fields of stage and drops everything else.
func clean(stage Stage, in Fields) Fields {
	out := Fields{}
	for _, rule := range stageRules[stage] {
		if v, ok := in[rule.name]; ok {
			out[rule.name] = strings.TrimSpace(v)
		}
	}
	return out
}

func validateStage(v *validator.Validate, stage Stage, fields Fields) error {
	problems := map[string]string{}
	for _, rule := range stageRules[stage] {
		if rule.when != nil && !rule.when(fields) {
			continue
		}
		if err := v.Var(fields[rule.name], rule.tag); err != nil {
			problems[rule.name] = describe(err)
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Stage: stage, Fields: problems}
	}
	return nil
}

func describe(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 && errs[0].Tag() == "required" {
		return "is required"
	}
	return "is invalid"
}
