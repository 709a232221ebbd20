// Package validation validates configuration structs and request parameters.
//
// Struct tag validation (go-playground/validator) covers configuration:
//
//	type PoolConfig struct {
//	    Name    string `mapstructure:"name" validate:"required"`
//	    Workers int    `mapstructure:"workers" validate:"gte=1"`
//	}
//	err := validation.Validate(&cfg)
//
// Programmatic validation collects field errors for values that do not live
// in a struct, such as HTTP query parameters:
//
//	v := validation.New()
//	v.OneOf("name", name, names).Range("take", take, 0, 1000)
//	if err := v.Validate(); err != nil { ... }
//
// The "capacity" alias accepts -1 (unbounded) or any value of at least 1.
//
// Both forms report failures as an INVALID_CONFIG or validation AppError whose
// details list the offending fields.
package validation
