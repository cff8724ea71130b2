package types

import "fmt"

func NewHandlerNotFoundError(feature, flow string) error {
	return fmt.Errorf("handler %v/%v not found", feature, flow)
}

func NewInvalidInputError(in interface{}) error {
	return fmt.Errorf("invalid input %T", in)
}

func NewInvalidOutputError(in interface{}) error {
	return fmt.Errorf("invalid output %T", in)
}
