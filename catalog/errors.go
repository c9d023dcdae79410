package catalog

import (
	"github.com/planetfederal/gsconfig/faults"
)

func failedRequest(method string, target string, statusCode int, body []byte) error {
	return faults.NewFailedRequest(method, target, statusCode, body)
}

func parsingError(message string, cause error) error {
	return faults.NewTypedError(faults.ParsingError, message, cause)
}

func conflictingData(message string) error {
	return faults.NewTypedError(faults.ConflictingData, message, nil)
}

func ambiguousRequest(message string) error {
	return faults.NewTypedError(faults.AmbiguousRequest, message, nil)
}

func uploadError(message string, cause error) error {
	return faults.NewTypedError(faults.UploadError, message, cause)
}

func interpretationError(message string, cause error) error {
	return faults.NewTypedError(faults.InterpretationError, message, cause)
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func notFoundError(message string) error {
	return faults.NewTypedError(faults.NotFoundError, message, nil)
}
