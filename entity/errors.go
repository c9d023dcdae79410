package entity

import "github.com/planetfederal/gsconfig/faults"

func parsingError(message string, cause error) error {
	return faults.NewTypedError(faults.ParsingError, message, cause)
}

func interpretationError(message string, cause error) error {
	return faults.NewTypedError(faults.InterpretationError, message, cause)
}
