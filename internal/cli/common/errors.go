package common

import (
	"github.com/planetfederal/gsconfig/faults"
)

func ValidationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
