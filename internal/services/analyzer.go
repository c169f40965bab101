package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const guidelineSearchLimit = 3

type AnalysisInput struct {
	ResumePath     string
	JobDescription string
}

type AnalysisResult struct {
	ResumeText           string
	ParsedResume         string
	ParsedJobDescription string
	ATSResult            string
	MatchPercentage      *float64
}

// AnalyzerService runs the résumé → job description → ATS match chain.
// Model failures never surface as errors: each step returns an inline error
// string in place of its output so the chain always completes.
type AnalyzerService interface {
	ParseResume(ctx context.Context, resumeText string) string
	ParseJobDescription(ctx context.Context, jobDescription string) string
	ATSMatch(ctx context.Context, parsedResume, parsedJobDescription string) string
	Analyze(ctx context.Context, input AnalysisInput) *AnalysisResult
}

type AnalyzerConfig struct {
	Temperature float32
	CallTimeout time.Duration
}

type analyzerService struct {
	gemini        GeminiService
	extractor     TextExtractor
	guidelines    GuidelineIndex
	promptBuilder *PromptBuilder
	cfg           AnalyzerConfig
	log           *zap.Logger
}

// NewAnalyzerService wires the pipeline. guidelines may be nil to skip retrieval.
func NewAnalyzerService(
	gemini GeminiService,
	extractor TextExtractor,
	guidelines GuidelineIndex,
	cfg AnalyzerConfig,
	log *zap.Logger,
) AnalyzerService {
	return &analyzerService{
		gemini:        gemini,
		extractor:     extractor,
		guidelines:    guidelines,
		promptBuilder: NewPromptBuilder(),
		cfg:           cfg,
		log:           log,
	}
}

func (a *analyzerService) Analyze(ctx context.Context, input AnalysisInput) *AnalysisResult {
	started := time.Now()

	resumeText := a.extractor.ExtractText(input.ResumePath)
	parsedResume := a.ParseResume(ctx, resumeText)
	parsedJD := a.ParseJobDescription(ctx, input.JobDescription)
	atsResult := a.ATSMatch(ctx, parsedResume, parsedJD)

	result := &AnalysisResult{
		ResumeText:           resumeText,
		ParsedResume:         parsedResume,
		ParsedJobDescription: parsedJD,
		ATSResult:            atsResult,
	}
	if score, ok := ParseMatchPercentage(atsResult); ok {
		result.MatchPercentage = &score
	}

	a.log.Info("analysis finished",
		zap.Int("resume_chars", len(resumeText)),
		zap.Bool("has_score", result.MatchPercentage != nil),
		zap.Duration("took", time.Since(started)),
	)

	return result
}

func (a *analyzerService) ParseResume(ctx context.Context, resumeText string) string {
	text, err := a.generate(ctx, a.promptBuilder.BuildResumePrompt(resumeText))
	if err != nil {
		a.log.Warn("resume parsing failed", zap.Error(err))
		return fmt.Sprintf("Error parsing resume: %v", err)
	}
	return text
}

func (a *analyzerService) ParseJobDescription(ctx context.Context, jobDescription string) string {
	text, err := a.generate(ctx, a.promptBuilder.BuildJobDescriptionPrompt(jobDescription))
	if err != nil {
		a.log.Warn("job description parsing failed", zap.Error(err))
		return fmt.Sprintf("Error parsing JD: %v", err)
	}
	return text
}

func (a *analyzerService) ATSMatch(ctx context.Context, parsedResume, parsedJobDescription string) string {
	guidelines := a.retrieveGuidelines(ctx, parsedJobDescription)

	text, err := a.generate(ctx, a.promptBuilder.BuildATSMatchPrompt(parsedResume, parsedJobDescription, guidelines))
	if err != nil {
		a.log.Warn("ats match failed", zap.Error(err))
		return fmt.Sprintf("Error performing ATS match: %v", err)
	}
	return text
}

func (a *analyzerService) generate(ctx context.Context, prompt string) (string, error) {
	if a.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.CallTimeout)
		defer cancel()
	}
	return a.gemini.GenerateText(ctx, prompt, a.cfg.Temperature)
}

// retrieveGuidelines is best effort; any failure means no extra context.
func (a *analyzerService) retrieveGuidelines(ctx context.Context, query string) string {
	if a.guidelines == nil {
		return ""
	}

	embedding, err := a.gemini.GenerateEmbedding(ctx, query)
	if err != nil {
		a.log.Warn("guideline query embedding failed", zap.Error(err))
		return ""
	}

	results, err := a.guidelines.Search(ctx, embedding, guidelineSearchLimit)
	if err != nil {
		a.log.Warn("guideline search failed", zap.Error(err))
		return ""
	}

	return FormatGuidelineContext(results)
}

var (
	labelledPercentage = regexp.MustCompile(`(?i)match\s*percentage[^0-9%]{0,40}(\d{1,3}(?:\.\d+)?)\s*%`)
	anyPercentage      = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`)
)

// ParseMatchPercentage reads the score out of a free-text ATS result. It
// prefers the "Match Percentage" line and falls back to the first percentage.
func ParseMatchPercentage(atsResult string) (float64, bool) {
	for _, re := range []*regexp.Regexp{labelledPercentage, anyPercentage} {
		match := re.FindStringSubmatch(atsResult)
		if match == nil {
			continue
		}
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil || value > 100 {
			return 0, false
		}
		return value, true
	}
	return 0, false
}
