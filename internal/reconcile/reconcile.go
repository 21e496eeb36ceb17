// Package reconcile keeps a Khoj backend configured for one Obsidian vault.
//
// The rules are applied to a decoded khoj.BackendConfig in memory; the
// Synchronizer fetches the config, applies them, writes the result back and
// triggers a markdown reindex.
package reconcile

import (
	"errors"
	"strings"

	"github.com/mgomes/khojlink/internal/khoj"
)

const conversationLogName = "conversation.json"

type MarkdownAction string

const (
	MarkdownUnchanged  MarkdownAction = "unchanged"
	MarkdownCreated    MarkdownAction = "created"
	MarkdownRetargeted MarkdownAction = "retargeted"
)

type ProcessorAction string

const (
	ProcessorUnchanged         ProcessorAction = "unchanged"
	ProcessorRemoved           ProcessorAction = "removed"
	ProcessorCreated           ProcessorAction = "created"
	ProcessorConversationAdded ProcessorAction = "conversation-added"
	ProcessorKeyUpdated        ProcessorAction = "key-updated"
)

// Defaults are the locations and model the backend proposes in its default
// configuration.
type Defaults struct {
	IndexDir  string
	ChatDir   string
	ChatModel string
}

// DefaultsFrom extracts Defaults from the backend's default configuration,
// which must carry both a markdown and a conversation section.
func DefaultsFrom(cfg *khoj.BackendConfig) (Defaults, error) {
	md := cfg.Markdown()
	if md == nil {
		return Defaults{}, errors.New("default config has no markdown content section")
	}
	conv := cfg.Conversation()
	if conv == nil {
		return Defaults{}, errors.New("default config has no conversation processor section")
	}

	return Defaults{
		IndexDir:  khoj.IndexDirectory(md.EmbeddingsFile),
		ChatDir:   khoj.IndexDirectory(conv.LogFile),
		ChatModel: conv.Model,
	}, nil
}

var indexNameReplacer = strings.NewReplacer("/", "_", " ", "_")

// IndexName derives the index file stem from the vault path.
func IndexName(vaultPath string) string {
	return indexNameReplacer.Replace(vaultPath)
}

// VaultGlob is the input filter matching every markdown file in the vault.
func VaultGlob(vaultPath string) string {
	return vaultPath + "/**/*.md"
}

// ReconcileMarkdown points the markdown content section at vaultPath.
// configured is false when the backend had no config and cfg is a copy of the
// defaults.
func ReconcileMarkdown(cfg *khoj.BackendConfig, configured bool, vaultPath string, d Defaults) MarkdownAction {
	glob := VaultGlob(vaultPath)
	name := IndexName(vaultPath)

	switch {
	case !configured:
		cfg.ContentType = &khoj.ContentTypes{
			Markdown: newMarkdown(glob, d.IndexDir, name),
		}
		return MarkdownCreated

	case !cfg.HasMarkdown():
		if cfg.ContentType == nil {
			cfg.ContentType = &khoj.ContentTypes{}
		}
		cfg.ContentType.Markdown = newMarkdown(glob, d.IndexDir, name)
		return MarkdownCreated

	case !indexesOnly(cfg.Markdown().InputFilter, glob):
		// Keep artifacts where the backend already stores them.
		dir := khoj.IndexDirectory(cfg.Markdown().EmbeddingsFile)
		cfg.ContentType.Markdown = newMarkdown(glob, dir, name)
		return MarkdownRetargeted
	}

	return MarkdownUnchanged
}

// ReconcileProcessor makes the conversation processor match the local OpenAI
// credential. Without a credential the processor section is dropped.
func ReconcileProcessor(cfg *khoj.BackendConfig, configured bool, apiKey string, d Defaults) ProcessorAction {
	switch {
	case apiKey == "":
		if cfg.Processor == nil {
			return ProcessorUnchanged
		}
		cfg.Processor = nil
		return ProcessorRemoved

	case !configured || !cfg.HasProcessor():
		cfg.Processor = &khoj.Processors{
			Conversation: newConversation(d, apiKey),
		}
		return ProcessorCreated

	case !cfg.HasConversation():
		cfg.Processor.Conversation = newConversation(d, apiKey)
		return ProcessorConversationAdded

	case cfg.Processor.Conversation.OpenAIAPIKey != apiKey:
		cfg.Processor.Conversation.OpenAIAPIKey = apiKey
		return ProcessorKeyUpdated
	}

	return ProcessorUnchanged
}

func indexesOnly(filter []string, glob string) bool {
	return len(filter) == 1 && filter[0] == glob
}

func newMarkdown(glob, indexDir, name string) *khoj.TextContent {
	return &khoj.TextContent{
		InputFilter:     []string{glob},
		InputFiles:      nil,
		EmbeddingsFile:  indexDir + "/" + name + ".pt",
		CompressedJSONL: indexDir + "/" + name + ".jsonl.gz",
	}
}

func newConversation(d Defaults, apiKey string) *khoj.ConversationProcessor {
	return &khoj.ConversationProcessor{
		LogFile:      d.ChatDir + "/" + conversationLogName,
		Model:        d.ChatModel,
		OpenAIAPIKey: apiKey,
	}
}
