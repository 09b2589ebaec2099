// Package validator provides programmatic validation rules for command input.
//
// Rules are built with constructors and evaluated together:
//
//	err := validator.Apply(
//		validator.Required("name", name),
//		validator.ValidEmail("email", email),
//		validator.When(hasScore, validator.InRange("painScore", score, 1, 10)),
//	)
//	if errs, ok := err.(validator.ValidationErrors); ok {
//		first, _ := errs.First()
//		fmt.Println(first.Field, first.Message)
//	}
//
// Apply returns nil when every rule passes.
package validator
