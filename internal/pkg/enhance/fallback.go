package enhance

// Static payloads substituted when the upstream AI call fails, so the
// dashboard never sees a hard failure for these non-critical features.

var fallbackHashtags = []string{
	"#contentcreator",
	"#socialmediamarketing",
	"#digitalmarketing",
	"#growthhacking",
	"#engagement",
	"#viral",
	"#trending",
	"#marketingtips",
}

var fallbackCTAs = []string{
	"Double tap if you agree!",
	"Save this post for later.",
	"Share this with someone who needs to see it.",
	"Drop your thoughts in the comments below.",
	"Follow for more tips like this.",
}

var fallbackInsights = []string{
	"Posts with a clear hook in the first line perform better.",
	"Adding a question at the end increases comment rates.",
	"Keep paragraphs short for mobile readers.",
}

const fallbackChatReply = "I'm having trouble reaching the assistant right now. " +
	"Try rephrasing your question, or ask again in a moment."

// Fallback virality scores are jittered inside this range.
const (
	fallbackScoreMin = 60
	fallbackScoreMax = 90
)
