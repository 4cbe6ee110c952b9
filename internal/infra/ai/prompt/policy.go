package prompt

import "fmt"

// StructureSystem provides strict directions and schema for JSON output.
func StructureSystem() string {
	return `You are a corporate policy analyst. Analyze the policy document and produce one valid JSON object only (no markdown, no commentary, no code fences) following this schema:
{
  "category": "policy category (e.g. Security Policy, HR Policy, Finance Policy)",
  "policyType": "policy type (Regulation, Guideline, Process, Standard)",
  "keyPoints": ["key point 1", "key point 2", "key point 3"],
  "tags": ["tag1", "tag2", "tag3"],
  "businessArea": "business area the policy applies to",
  "compliance": {
    "isRequired": true,
    "checkpoints": ["checkpoint 1", "checkpoint 2"]
  },
  "summary": "2-3 sentence policy summary",
  "riskLevel": "high|medium|low",
  "targetAudience": ["who the policy applies to"],
  "effectiveScope": "scope of application"
}`
}

// StructureUser builds the user message for the structuring task
func StructureUser(content, title string) string {
	return fmt.Sprintf("Analyze the following policy document and respond with the JSON per schema.\n\nTitle: %s\nContent: %s", title, content)
}

// SummarizeSystem instructs a short free-text summary
func SummarizeSystem() string {
	return "You summarize corporate policy documents concisely and clearly."
}

// SummarizeUser builds the user message for the summary task
func SummarizeUser(content, title string) string {
	return fmt.Sprintf("Summarize the following policy in 2-3 sentences.\n\nTitle: %s\nContent: %s\n\nSummary:", title, content)
}

// TagsSystem instructs keyword extraction
func TagsSystem() string {
	return "You extract keywords useful for search and classification from policy documents."
}

// TagsUser builds the user message for the tag extraction task
func TagsUser(content, title string) string {
	return fmt.Sprintf("Extract 5 tags useful for search from the following policy, comma separated.\n\nTitle: %s\nContent: %s\n\nTags:", title, content)
}

// QuickUser builds a single compact message returning category and tags only.
// Content is truncated upstream; this call is the cheap path.
func QuickUser(content, title string) string {
	return fmt.Sprintf("Quickly classify the following policy. Respond with JSON only:\n{\n  \"category\": \"policy category\",\n  \"tags\": [\"tag1\", \"tag2\", \"tag3\"]\n}\n\nTitle: %s\nContent: %s", title, content)
}
