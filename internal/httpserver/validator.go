package httpserver

import "github.com/Skotchmaster/epinhell/internal/service"

// Validator plugs the service validation rules into echo's c.Validate.
type Validator struct{}

func (Validator) Validate(i any) error {
	return service.Validate(i)
}
