// Command oscadc is the OpenSCAD-to-mesh compiler CLI.
//
// Usage:
//
//	oscadc [options] <input.scad>
//
// Examples:
//
//	oscadc model.scad                 # compile and report vertex/triangle counts
//	oscadc -o model.json model.scad   # compile and write mesh buffers as JSON
//	oscadc --fn 64 model.scad         # compile with $fn defaulted to 64
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oscadgo/compiler"
	"github.com/oscadgo/compiler/diag"
)

var args struct {
	output            string
	maxRecursionDepth int
	defaultFn         float64
	defaultFa         float64
	defaultFs         float64
	preview           bool
	epsilonScale      float64
}

var cmdRoot = &cobra.Command{
	Use:   "oscadc <input.scad>",
	Short: "Compile OpenSCAD source to a triangle mesh",
	Long:  `oscadc compiles OpenSCAD source text into vertex/index/normal buffers suitable for WebGL rendering.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	opts := compiler.DefaultCompileOptions()
	cmdRoot.Flags().StringVarP(&args.output, "output", "o", "", "output file for JSON mesh buffers (default: stdout summary)")
	cmdRoot.Flags().IntVar(&args.maxRecursionDepth, "max-recursion-depth", opts.MaxRecursionDepth, "maximum user module/function recursion depth")
	cmdRoot.Flags().Float64Var(&args.defaultFn, "fn", opts.DefaultFn, "default $fn")
	cmdRoot.Flags().Float64Var(&args.defaultFa, "fa", opts.DefaultFa, "default $fa")
	cmdRoot.Flags().Float64Var(&args.defaultFs, "fs", opts.DefaultFs, "default $fs")
	cmdRoot.Flags().BoolVar(&args.preview, "preview", opts.Preview, "initial $preview value")
	cmdRoot.Flags().Float64Var(&args.epsilonScale, "epsilon-scale", opts.EpsilonScale, "relative tolerance for vertex-coincidence merging")
}

func runCompile(cmd *cobra.Command, argv []string) error {
	inputPath := argv[0]
	source, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	opts := compiler.CompileOptions{
		MaxRecursionDepth: args.maxRecursionDepth,
		DefaultFn:         args.defaultFn,
		DefaultFa:         args.defaultFa,
		DefaultFs:         args.defaultFs,
		Preview:           args.preview,
		EpsilonScale:      args.epsilonScale,
	}

	result, err := compiler.CompileWithOptions(string(source), opts)
	if failure, ok := err.(*compiler.CompileFailure); ok {
		fmt.Fprint(os.Stderr, compiler.FormatDiagnostics(string(source), failure.Diagnostics))
		errCount := 0
		for _, d := range failure.Diagnostics {
			if d.Severity == diag.Error {
				errCount++
			}
		}
		return fmt.Errorf("compilation failed: %d error(s)", errCount)
	} else if err != nil {
		return err
	}
	if len(result.Diagnostics) > 0 {
		fmt.Fprint(os.Stderr, compiler.FormatDiagnostics(string(source), result.Diagnostics))
	}

	if args.output != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding mesh buffers: %w", err)
		}
		if err := os.WriteFile(args.output, data, 0644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		fmt.Printf("Compiled %s to %s (%d vertices, %d triangles)\n", inputPath, args.output, result.Stats.VertexCount, result.Stats.TriangleCount)
		return nil
	}

	fmt.Printf("%s: %d vertices, %d triangles, %.2fms\n", inputPath, result.Stats.VertexCount, result.Stats.TriangleCount, result.Stats.CompileTimeMs)
	return nil
}

func main() {
	if err := cmdRoot.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
