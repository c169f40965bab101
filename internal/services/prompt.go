package services

import (
	"fmt"
	"strings"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildResumePrompt asks for a display-ready digest of the résumé.
func (pb *PromptBuilder) BuildResumePrompt(resumeText string) string {
	return fmt.Sprintf(`You are an expert Resume Parser.
Please analyze the following resume text and extract the key details in a clean format.

Resume Text:
%s

Extract:
- Candidate Name (if found)
- Top 5 Technical Skills
- Experience Summary (2 sentences max)
- Education Summary

Return the output in clean text format suitable for display.`, resumeText)
}

func (pb *PromptBuilder) BuildJobDescriptionPrompt(jobDescription string) string {
	return fmt.Sprintf(`You are an expert HR Assistant.
Analyze the following Job Description.

Job Description:
%s

Extract:
- Key Technical Requirements
- Core Responsibilities
- "Nice to have" skills

Return the output in clean text format suitable for display.`, jobDescription)
}

// BuildATSMatchPrompt compares the two digests. Guidelines, when present, are
// retrieved screening rules appended as extra context.
func (pb *PromptBuilder) BuildATSMatchPrompt(parsedResume, parsedJobDescription, guidelines string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `You are an advanced Applicant Tracking System (ATS) Scanner.

Task: Compare the parsed resume against the job description.

Parsed Resume:
%s

Parsed Job Description:
%s
`, parsedResume, parsedJobDescription)

	if strings.TrimSpace(guidelines) != "" {
		fmt.Fprintf(&sb, `
Screening Guidelines (apply when judging the match):
%s
`, guidelines)
	}

	sb.WriteString(`
Output Requirements (Strict Format):
1. Match Percentage: (Just the number followed by %)
2. Matching Skills: (List key matches)
3. Missing Skills: (List critical gaps)
4. Verdict: (Short summary)
5. Improvement Suggestions: (3 actionable tips)

Make the tone professional and constructive.`)

	return sb.String()
}
