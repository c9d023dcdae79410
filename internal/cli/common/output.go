package common

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/planetfederal/gsconfig/internal/cli/commandmeta"
)

const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

func ValidateOutputFormat(format string) error {
	switch format {
	case OutputText, OutputJSON, OutputYAML:
		return nil
	default:
		return ValidationError("invalid output format: use text, json, or yaml", nil)
	}
}

func ValidateOutputFormatForCommandPath(commandPath string, format string) error {
	if strings.TrimSpace(format) == OutputText {
		return nil
	}
	if commandmeta.OutputPolicyForPath(commandPath) == commandmeta.OutputPolicyTextOnly {
		return ValidationError("command supports only text output; use --output text", nil)
	}
	return nil
}

// WriteOutput renders value in the selected format. A jq expression turns the
// value into its JSON form and filters it before rendering; text output then
// prints each result on its own line.
func WriteOutput[T any](command *cobra.Command, globalFlags *GlobalFlags, value T, renderText func(io.Writer, T) error) error {
	if isNilOutputValue(value) {
		return nil
	}

	format, expression := OutputText, ""
	if globalFlags != nil {
		format, expression = globalFlags.Output, strings.TrimSpace(globalFlags.JQ)
	}
	if expression != "" {
		results, err := applyJQ(command.Context(), value, expression)
		if err != nil {
			return err
		}
		if format == OutputText {
			return writeJQText(command.OutOrStdout(), results)
		}
		return writeStructured(command.OutOrStdout(), format, unwrapResults(results))
	}

	if format == OutputText {
		if renderText != nil {
			return renderText(command.OutOrStdout(), value)
		}
		_, err := fmt.Fprintln(command.OutOrStdout(), value)
		return err
	}
	return writeStructured(command.OutOrStdout(), format, value)
}

func writeStructured(w io.Writer, format string, value any) error {
	switch format {
	case OutputJSON:
		encoded, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(encoded))
		return err
	case OutputYAML:
		encoded, err := yaml.Marshal(value)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, string(encoded))
		return err
	default:
		return ValidationError("invalid output format: use text, json, or yaml", nil)
	}
}

func applyJQ(ctx context.Context, value any, expression string) ([]any, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, ValidationError("invalid jq expression", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, ValidationError("invalid jq expression", err)
	}

	// gojq only understands the generic JSON shapes.
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var input any
	if err := json.Unmarshal(encoded, &input); err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	iterator := code.RunWithContext(ctx, input)
	results := make([]any, 0, 1)
	for {
		result, ok := iterator.Next()
		if !ok {
			break
		}
		if resultErr, isErr := result.(error); isErr {
			return nil, ValidationError("failed to evaluate jq expression", resultErr)
		}
		results = append(results, result)
	}
	return results, nil
}

func unwrapResults(results []any) any {
	if len(results) == 1 {
		return results[0]
	}
	return results
}

func writeJQText(w io.Writer, results []any) error {
	for _, result := range results {
		if text, ok := result.(string); ok {
			if _, err := fmt.Fprintln(w, text); err != nil {
				return err
			}
			continue
		}
		encoded, err := json.Marshal(result)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(encoded)); err != nil {
			return err
		}
	}
	return nil
}

func isNilOutputValue[T any](value T) bool {
	anyValue := any(value)
	if anyValue == nil {
		return true
	}

	reflected := reflect.ValueOf(anyValue)
	switch reflected.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer:
		return reflected.IsNil()
	default:
		return false
	}
}

// WriteNames is the text renderer shared by the list commands.
func WriteNames[T any](name func(T) string) func(io.Writer, []T) error {
	return func(w io.Writer, items []T) error {
		for _, item := range items {
			if _, err := fmt.Fprintln(w, name(item)); err != nil {
				return err
			}
		}
		return nil
	}
}
