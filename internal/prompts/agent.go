package prompts

// EvaluationInstruction is the user-role instruction appended on the
// first turn to judge whether the request has enough information. It
// leans on the proactivity principle from the system prompt so the
// model asks questions only when genuinely stuck.
const EvaluationInstruction = "Evaluate this travel request. Make reasonable assumptions where " +
	"information is missing (e.g., assume Portland PDX for origin if not specified, " +
	"assume 2 weeks duration, assume 2 travelers). Only ask questions if the request " +
	"is completely ambiguous. Follow the 'Be Proactive and Make Assumptions' " +
	"principle from your instructions."

// ContinuationInstruction is appended on follow-up turns so the model
// picks up the request from the accumulated history.
const ContinuationInstruction = "Continue helping with this travel request based on the conversation history."

// ClarificationInstruction is appended on first turns that pass
// evaluation; it asks the model to surface its open questions and
// assumptions in concise form.
const ClarificationInstruction = "Based on the travel request, please ask any clarifying questions " +
	"about preferences (budget, accommodation type, activities, etc.) and confirm " +
	"your assumptions about dates, travelers, and destinations. Be concise and helpful."
