package constant

// Chat message roles as stored in the conversation history.
const (
	ChatMessageRoleUser  = "user"
	ChatMessageRoleModel = "assistant"
)

// Canonical pipeline answers. The "cannot find" phrase doubles as a
// validation signal: an answer containing it is terminal and never retried.
const (
	MsgCannotFind     = "I cannot find this information in the provided documents."
	MsgNoRelevantInfo = "I couldn't find relevant information to answer your question."
	MsgLLMUnavailable = "I'm sorry, I'm having technical difficulties answering right now. Please try again in a moment."
)

// Cache key namespaces.
const (
	CacheNamespaceRetrieval = "retrieval"
)
