package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Entities int                        `json:"entities"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate schemas without emitting IR",
		Long: `Validate CUE managed-type schemas.

Reports every compile and consistency error: unknown attribute types,
undeclared supertypes or identifiers, malformed collections, and
inheritance or embedding cycles.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	verrs, count, err := ValidateSchemaDir(schemaDir)
	if err != nil {
		code, message := parseCompileError(err)
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}
	formatter.VerboseLog("Validated %d entity type(s) in %s", count, schemaDir)

	if len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Entities: count})
	}
	formatter.Pass("All %d entity type(s) valid", count)
	return nil
}

// ValidateSchemaDir validates all schemas in a directory. Compile errors
// are reported alongside consistency errors. The error return is set only
// when the directory cannot be loaded at all.
func ValidateSchemaDir(dir string) ([]compiler.ValidationError, int, error) {
	res, errs := LoadSchemas(dir, LoadModeCollectAll)
	if res == nil {
		return nil, 0, errs[0]
	}

	var verrs []compiler.ValidationError
	for _, err := range errs {
		code, message := parseCompileError(err)
		verrs = append(verrs, compiler.ValidationError{Field: "load", Message: message, Code: code})
	}
	verrs = append(verrs, compiler.Validate(res.Entities)...)
	return verrs, len(res.Entities), nil
}

// outputValidationErrors reports validation failures (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		if err := writeJSON(formatter.Writer, CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	formatter.Fail("Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
