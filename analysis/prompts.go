package analysis

// System prompts for the analytic steps. Each step sends the document
// content as the user message and one of these as the system prompt.
const (
	summaryPrompt = "You are a legal analyst. Summarize the following legal document in a short paragraph. " +
		"State the document type, the parties involved, and the main obligations. Be factual and concise."

	keyPointsPrompt = "You are a legal analyst. List the key points of the following legal document " +
		"as a numbered list, one point per line. Include only points stated in the document."

	legalIssuesPrompt = "You are a legal analyst. Identify potential legal issues, ambiguities, or missing " +
		"provisions in the following document. Answer as a numbered list, one issue per line."

	entitiesPrompt = "You are a legal analyst. Extract the entities mentioned in the following document. " +
		"Group them under these headers, each followed by a dashed list:\n" +
		"People:\nOrganizations:\nStatutes:\nDates:\nAmounts:\nLocations:\n" +
		"Omit nothing mentioned in the document and invent nothing."

	recommendationsPrompt = "You are a legal analyst. Recommend concrete actions the document holder should " +
		"take, as a numbered list, one recommendation per line. Base recommendations only on the document."

	riskPrompt = "You are a legal analyst. Assess the overall legal risk of the following document. " +
		"Answer with exactly one word on the first line: low, medium, or high. " +
		"You may add a one-sentence justification on the next line."
)
