package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-writer/internal/dispatch"
	"github.com/jonathan/resume-writer/internal/observability"
	"github.com/jonathan/resume-writer/internal/sections"
	"github.com/jonathan/resume-writer/internal/stream"
	"github.com/jonathan/resume-writer/internal/types"
)

var (
	generateSection string
	generateInput   string
	generateStream  bool
	generateVerbose bool
	generateModel   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one resume section description",
	Long: "Build the prompt for a section input file, run one completion against the configured provider and print " +
		"the JSON result, or the event-stream frames with --stream.",
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateSection, "section", "s", "", "Section kind: summary, education, experience, project, certification, publication (required)")
	generateCmd.Flags().StringVarP(&generateInput, "input", "i", "", "Path to the section input JSON file, or - for stdin (required)")
	generateCmd.Flags().BoolVar(&generateStream, "stream", false, "Print event-stream frames instead of one JSON document")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print the prompt, result and token usage to stderr")
	generateCmd.Flags().StringVar(&generateModel, "model", "", "Model override (overrides LLM_MODEL)")

	_ = generateCmd.MarkFlagRequired("section")
	_ = generateCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(generateCmd)
}

// readSectionInput decodes the input file into the record for kind.
func readSectionInput(kind types.SectionKind, path string, stdin io.Reader) (types.SectionInput, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	input, err := types.NewSectionInput(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, input); err != nil {
		return nil, fmt.Errorf("failed to parse input JSON: %w", err)
	}
	return input, nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	kind, err := types.ParseSectionKind(generateSection)
	if err != nil {
		return err
	}

	input, err := readSectionInput(kind, generateInput, cmd.InOrStdin())
	if err != nil {
		return err
	}

	bundle, err := sections.Build(input)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if generateModel != "" {
		cfg.LLMModel = generateModel
	}

	stderr := cmd.ErrOrStderr()
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	p, err := newPipeline(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer p.Close()

	var printer *observability.Printer
	if generateVerbose {
		printer = observability.NewPrinter(stderr)
		printer.PrintPrompt(bundle.Messages(), bundle.ToolName)
	}

	req := dispatch.Request{Bundle: bundle, Stream: generateStream, UserID: "cli"}
	out := cmd.OutOrStdout()

	if generateStream {
		delay, err := cfg.StreamDelayDuration()
		if err != nil {
			return err
		}
		var result types.Description
		seg := stream.New(&frameWriter{out: out}, delay)
		err = seg.Run(ctx, func(ctx context.Context) (types.Description, error) {
			desc, err := p.dispatcher.Dispatch(ctx, req)
			result = desc
			return desc, err
		})
		if printer != nil && err == nil {
			printer.PrintDescription(result)
			printer.PrintUsage(p.counter.Total())
		}
		return err
	}

	desc, err := p.dispatcher.Dispatch(ctx, req)
	if err != nil {
		return err
	}
	if printer != nil {
		printer.PrintDescription(desc)
		printer.PrintUsage(p.counter.Total())
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(types.GenerationResponse{Description: desc})
}

// frameWriter prints event-stream frames to a terminal or pipe.
type frameWriter struct {
	out io.Writer
}

func (w *frameWriter) WriteData(unit string) error {
	payload, err := json.Marshal(unit)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w.out, "data: %s\n\n", payload)
	return err
}

func (w *frameWriter) WriteDone() error {
	_, err := fmt.Fprint(w.out, "data: [DONE]\n\n")
	return err
}

func (w *frameWriter) WriteError(message string) error {
	_, err := fmt.Fprintf(w.out, "data: [ERROR] %s\n\n", message)
	return err
}
