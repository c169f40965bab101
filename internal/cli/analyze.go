package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"alfredoptarigan/ats-matcher/internal/models"
	"alfredoptarigan/ats-matcher/internal/services"
)

type analyzeOptions struct {
	resumePath string
	jdPath     string
	jdText     string
	asJSON     bool
}

func newAnalyzeCommand(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a resume against a job description without starting the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobDescription, err := opts.jobDescription()
			if err != nil {
				return err
			}

			cfg, log, err := root.setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := cmd.Context()
			gemini, err := services.NewGeminiService(ctx, cfg.Gemini, log)
			if err != nil {
				return err
			}

			guidelines, err := openGuidelines(ctx, cfg, log)
			if err != nil {
				return err
			}

			analyzer := services.NewAnalyzerService(
				gemini,
				services.NewTextExtractor(log),
				guidelines,
				services.AnalyzerConfig{
					Temperature: cfg.Gemini.Temperature,
					CallTimeout: cfg.Gemini.Timeout,
				},
				log,
			)

			return runAnalyze(ctx, cmd.OutOrStdout(), analyzer, opts.resumePath, jobDescription, opts.asJSON)
		},
	}

	cmd.Flags().StringVarP(&opts.resumePath, "resume", "r", "", "path to the resume (pdf, docx, txt or md)")
	cmd.Flags().StringVar(&opts.jdPath, "jd", "", "path to a file holding the job description")
	cmd.Flags().StringVar(&opts.jdText, "jd-text", "", "job description text")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	cmd.MarkFlagRequired("resume")
	cmd.MarkFlagsMutuallyExclusive("jd", "jd-text")

	return cmd
}

func (o *analyzeOptions) jobDescription() (string, error) {
	text := o.jdText
	if o.jdPath != "" {
		raw, err := os.ReadFile(o.jdPath)
		if err != nil {
			return "", fmt.Errorf("reading job description: %w", err)
		}
		text = string(raw)
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.New("job description is required: pass --jd or --jd-text")
	}
	return text, nil
}

func runAnalyze(
	ctx context.Context,
	out io.Writer,
	analyzer services.AnalyzerService,
	resumePath string,
	jobDescription string,
	asJSON bool,
) error {
	if _, err := os.Stat(resumePath); err != nil {
		return fmt.Errorf("resume not readable: %w", err)
	}

	result := analyzer.Analyze(ctx, services.AnalysisInput{
		ResumePath:     resumePath,
		JobDescription: jobDescription,
	})

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models.AnalyzeResponse{
			ParsedResume:         result.ParsedResume,
			ParsedJobDescription: result.ParsedJobDescription,
			ATSResult:            result.ATSResult,
		})
	}

	sections := []struct {
		title string
		body  string
	}{
		{"Parsed Resume", result.ParsedResume},
		{"Parsed Job Description", result.ParsedJobDescription},
		{"ATS Result", result.ATSResult},
	}
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "== %s ==\n%s\n", s.title, strings.TrimSpace(s.body))
	}

	if result.MatchPercentage != nil {
		fmt.Fprintf(out, "\nMatch: %.1f%%\n", *result.MatchPercentage)
	}
	return nil
}
