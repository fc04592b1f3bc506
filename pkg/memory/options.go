package memory

import (
	"github.com/veerkamdar007/Shram-Assignment/pkg/llm"
	"github.com/veerkamdar007/Shram-Assignment/pkg/storage"
)

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*Manager)

// WithStore injects a pre-built storage backend, bypassing the
// provider selection in the configuration. Useful for testing.
func WithStore(store storage.Store) ManagerOption {
	return func(m *Manager) {
		m.store = store
	}
}

// WithProvider injects a pre-built LLM provider, bypassing the
// provider selection in the configuration. Useful for testing.
func WithProvider(provider llm.Provider) ManagerOption {
	return func(m *Manager) {
		m.llm = provider
	}
}

// createOptions holds options for CreateMemory.
type createOptions struct {
	context string
	tags    []string
}

// CreateOption configures a CreateMemory call.
type CreateOption func(*createOptions)

// WithContext sets the context describing where the memory came from.
func WithContext(context string) CreateOption {
	return func(o *createOptions) {
		o.context = context
	}
}

// WithTags attaches tags to the memory.
func WithTags(tags ...string) CreateOption {
	return func(o *createOptions) {
		o.tags = tags
	}
}

// applyCreateOptions applies create options with defaults.
func applyCreateOptions(opts []CreateOption) *createOptions {
	options := &createOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// retrieveOptions holds options for GetRelevantMemories.
type retrieveOptions struct {
	query string
	limit int
}

// RetrieveOption configures a GetRelevantMemories call.
type RetrieveOption func(*retrieveOptions)

// WithQuery restricts retrieval to memories whose content contains the query.
// An empty query lists the user's top memories instead.
func WithQuery(query string) RetrieveOption {
	return func(o *retrieveOptions) {
		o.query = query
	}
}

// WithLimit sets the maximum number of memories to return.
// Defaults to 5.
func WithLimit(limit int) RetrieveOption {
	return func(o *retrieveOptions) {
		if limit > 0 {
			o.limit = limit
		}
	}
}

// applyRetrieveOptions applies retrieve options with defaults.
func applyRetrieveOptions(opts []RetrieveOption) *retrieveOptions {
	options := &retrieveOptions{
		limit: 5,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// chatOptions holds options for ChatWithMemory.
type chatOptions struct {
	history []llm.Message
}

// ChatOption configures a ChatWithMemory call.
type ChatOption func(*chatOptions)

// WithHistory supplies prior conversation turns to include in the prompt.
func WithHistory(history []llm.Message) ChatOption {
	return func(o *chatOptions) {
		o.history = history
	}
}

// applyChatOptions applies chat options with defaults.
func applyChatOptions(opts []ChatOption) *chatOptions {
	options := &chatOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
