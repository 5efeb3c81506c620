package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/compiler"
	"github.com/roach88/criteria/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled schema.
type CompilationResult struct {
	SchemaID   string          `json:"schema_id"`
	IRVersion  string          `json:"ir_version"`
	Entities   []ir.EntitySpec `json:"entities"`
	Attributes int             `json:"attribute_count"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema-dir>",
		Short: "Compile CUE schemas to canonical IR",
		Long: `Compile CUE managed-type schemas to canonical IR.

The compiler parses every entity under the top-level "entity" field,
checks cross references, and reports the schema's content identity.
With --output the canonical JSON is written to a file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadSchemas(schemaDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, schemaDir)

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}
	if verrs := compiler.Validate(loadResult.Entities); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, v := range verrs {
			errs[i] = &LoadError{Code: v.Code, Message: v.Field + ": " + v.Message}
		}
		return outputCompileErrors(formatter, errs)
	}

	result := &CompilationResult{IRVersion: ir.IRVersion, Entities: loadResult.Entities}
	for _, e := range loadResult.Entities {
		formatter.VerboseLog("Compiled entity: %s", e.Name)
		result.Attributes += len(e.Attributes)
	}
	id, err := ir.SchemaID(loadResult.Entities)
	if err != nil {
		return WrapExitError(ExitCommandError, "hashing schema", err)
	}
	result.SchemaID = id

	if opts.Output != "" {
		if err := writeSchemaFile(loadResult.Entities, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	formatter.Pass("Compiled %d entity type(s), %d attribute(s)", len(result.Entities), result.Attributes)
	fmt.Fprintf(formatter.Writer, "Schema: %s\n\n", result.SchemaID)
	for _, e := range result.Entities {
		line := fmt.Sprintf("  %s (%s)", e.Name, e.Kind)
		if e.Super != "" {
			line += " extends " + e.Super
		}
		fmt.Fprintf(formatter.Writer, "%s: %d attribute(s)\n", line, len(e.Attributes))
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote canonical IR to %s\n", outputFile)
	}
	return nil
}

// outputCompileErrors reports load and compile errors. They are command
// errors (exit code 2).
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		if err := writeJSON(formatter.Writer, CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	formatter.Fail("Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field), compileErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeSchemaFile writes the entities as canonical JSON.
func writeSchemaFile(specs []ir.EntitySpec, filename string) error {
	arr := make(ir.IRArray, len(specs))
	for i, s := range specs {
		arr[i] = s.Encode()
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
