// Package validation validates configuration structs and outbound requests.
//
// Struct tag validation uses go-playground/validator:
//
//	type Config struct {
//	    Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects field errors:
//
//	v := validation.New()
//	v.Required("url", req.URL)
//	v.OneOf("method", req.Method, "GET", "POST")
//	err := v.Validate()
package validation
