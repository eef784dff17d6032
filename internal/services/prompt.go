package services

import (
	"fmt"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildResumeExtractionPrompt asks the model to lift the schema fields out
// of raw resume text. Values must be verbatim from the text so the output
// stays auditable against the source document.
func (pb *PromptBuilder) BuildResumeExtractionPrompt(resumeText string) string {
	return fmt.Sprintf(`You are a resume parsing engine. Extract structured fields from the resume text below.

Return ONLY a JSON object with exactly this shape (use verbatim text from the resume, empty string or empty list when a field is absent):
{
  "personal_information": {
    "first_name": "<string>",
    "last_name": "<string>",
    "email": "<string>",
    "phone_number": "<string>"
  },
  "education": [
    {"degree": "<string>", "institution": "<string>", "year": <integer or 0>}
  ],
  "experience": [
    {"position": "<string>", "company": "<string>", "start_date": "<string>", "end_date": "<string>"}
  ],
  "experience_summary": "<2-4 sentence free-text summary of the candidate's work experience>",
  "technical_skills": ["<string>", ...],
  "soft_skills": ["<string>", ...]
}

RESUME TEXT:
%s`, resumeText)
}

// BuildJobExtractionPrompt lifts the job title, experience requirement and
// required skills out of a raw job description.
func (pb *PromptBuilder) BuildJobExtractionPrompt(jobText string) string {
	return fmt.Sprintf(`You are a job-description parsing engine. Extract structured fields from the job description below.

Return ONLY a JSON object with exactly this shape:
{
  "job_title": "<string>",
  "experience_required": "<free-text summary of the experience requirement>",
  "skills_required": ["<string>", ...]
}

JOB DESCRIPTION:
%s`, jobText)
}

// BuildExperienceRatingPrompt produces the prompt for the local rating
// model. The two-line response shape is a hard contract: the rater parses
// the rating line with a strict format check and treats anything else as a
// malformed response.
func (pb *PromptBuilder) BuildExperienceRatingPrompt(experience, skills, jobDescription string) string {
	return fmt.Sprintf(`You are a hiring assistant. Based on the candidate's experience and technical skills, and the job description below, give a score out of 10 for job fit and provide a short explanation.

Format your answer strictly as:
Rating: <number>/10
Conclusion: <5 crisp factual bullet points, OR 1-2 short sentences covering exactly 5 key facts>

Resume:
Experience: %s

Technical Skills: %s

Job Description:
%s`, experience, skills, jobDescription)
}
