package khoj

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Section keys in the backend configuration document.
const (
	keyContentType  = "content-type"
	keyProcessor    = "processor"
	keyMarkdown     = "markdown"
	keyConversation = "conversation"
)

var ErrNotConfigured = errors.New("khoj backend has no configuration")

// rawFields holds keys this package does not model. They are carried through
// decode and encode unchanged.
type rawFields map[string]json.RawMessage

// BackendConfig is the JSON configuration persisted by the Khoj backend.
// Only the sections khojlink reconciles are typed; every other key survives
// the round trip as raw JSON.
type BackendConfig struct {
	ContentType *ContentTypes
	Processor   *Processors

	extra rawFields
}

type ContentTypes struct {
	Markdown *TextContent

	extra rawFields
}

// TextContent configures indexing of one text content type.
type TextContent struct {
	InputFilter     []string
	InputFiles      []string
	EmbeddingsFile  string
	CompressedJSONL string

	extra rawFields
	src   *origin
	was   textContentFields
}

type Processors struct {
	Conversation *ConversationProcessor

	extra rawFields
}

type ConversationProcessor struct {
	LogFile      string
	Model        string
	OpenAIAPIKey string

	extra rawFields
	src   *origin
	was   conversationFields
}

// IsNullConfig reports whether a config endpoint body is the literal null the
// backend returns before it has been configured.
func IsNullConfig(body []byte) bool {
	return string(bytes.TrimSpace(body)) == "null"
}

// ParseBackendConfig decodes a config document. A null body yields
// ErrNotConfigured.
func ParseBackendConfig(body []byte) (*BackendConfig, error) {
	if IsNullConfig(body) {
		return nil, ErrNotConfigured
	}

	var cfg BackendConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse backend config: %w", err)
	}
	return &cfg, nil
}

// IndexDirectory returns the directory part of a slash separated path, the way
// the backend lays out index artifacts. A path without a slash has no
// directory and yields "".
func IndexDirectory(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

func (c *BackendConfig) HasContentType() bool { return c.ContentType != nil }
func (c *BackendConfig) HasProcessor() bool   { return c.Processor != nil }

func (c *BackendConfig) HasMarkdown() bool {
	return c.ContentType != nil && c.ContentType.Markdown != nil
}

func (c *BackendConfig) HasConversation() bool {
	return c.Processor != nil && c.Processor.Conversation != nil
}

// Markdown returns the markdown content section or nil.
func (c *BackendConfig) Markdown() *TextContent {
	if !c.HasMarkdown() {
		return nil
	}
	return c.ContentType.Markdown
}

// Conversation returns the conversation processor section or nil.
func (c *BackendConfig) Conversation() *ConversationProcessor {
	if !c.HasConversation() {
		return nil
	}
	return c.Processor.Conversation
}

// Extra returns the raw value of an unmodelled top level key.
func (c *BackendConfig) Extra(key string) (json.RawMessage, bool) {
	v, ok := c.extra[key]
	return v, ok
}

func (c *ContentTypes) Extra(key string) (json.RawMessage, bool) {
	v, ok := c.extra[key]
	return v, ok
}

func (p *Processors) Extra(key string) (json.RawMessage, bool) {
	v, ok := p.extra[key]
	return v, ok
}

func (c *BackendConfig) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	*c = BackendConfig{}
	if raw, ok := takeField(fields, keyContentType); ok {
		c.ContentType = &ContentTypes{}
		if err := json.Unmarshal(raw, c.ContentType); err != nil {
			return fmt.Errorf("%s: %w", keyContentType, err)
		}
	}
	if raw, ok := takeField(fields, keyProcessor); ok {
		c.Processor = &Processors{}
		if err := json.Unmarshal(raw, c.Processor); err != nil {
			return fmt.Errorf("%s: %w", keyProcessor, err)
		}
	}
	c.extra = fields
	return nil
}

func (c BackendConfig) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if c.ContentType != nil {
		known[keyContentType] = c.ContentType
	}
	if c.Processor != nil {
		known[keyProcessor] = c.Processor
	}
	return encodeObject(known, c.extra)
}

func (c *ContentTypes) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	*c = ContentTypes{}
	if raw, ok := takeField(fields, keyMarkdown); ok {
		c.Markdown = &TextContent{}
		if err := json.Unmarshal(raw, c.Markdown); err != nil {
			return fmt.Errorf("%s: %w", keyMarkdown, err)
		}
	}
	c.extra = fields
	return nil
}

func (c ContentTypes) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if c.Markdown != nil {
		known[keyMarkdown] = c.Markdown
	}
	return encodeObject(known, c.extra)
}

type textContentFields struct {
	InputFilter     []string `json:"input-filter"`
	InputFiles      []string `json:"input-files"`
	EmbeddingsFile  string   `json:"embeddings-file"`
	CompressedJSONL string   `json:"compressed-jsonl"`
}

var textContentKeys = []string{"input-filter", "input-files", "embeddings-file", "compressed-jsonl"}

func (t *TextContent) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	var f textContentFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	*t = TextContent{
		InputFilter:     f.InputFilter,
		InputFiles:      f.InputFiles,
		EmbeddingsFile:  f.EmbeddingsFile,
		CompressedJSONL: f.CompressedJSONL,
		src:             newOrigin(data, fields, textContentKeys),
		was:             f,
		extra:           fields,
	}
	return nil
}

func (t TextContent) MarshalJSON() ([]byte, error) {
	return t.src.encode([]sectionField{
		{"input-filter", t.InputFilter, slices.Equal(t.InputFilter, t.was.InputFilter), len(t.InputFilter) == 0},
		{"input-files", t.InputFiles, slices.Equal(t.InputFiles, t.was.InputFiles), len(t.InputFiles) == 0},
		{"embeddings-file", t.EmbeddingsFile, t.EmbeddingsFile == t.was.EmbeddingsFile, t.EmbeddingsFile == ""},
		{"compressed-jsonl", t.CompressedJSONL, t.CompressedJSONL == t.was.CompressedJSONL, t.CompressedJSONL == ""},
	}, t.extra)
}

func (p *Processors) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	*p = Processors{}
	if raw, ok := takeField(fields, keyConversation); ok {
		p.Conversation = &ConversationProcessor{}
		if err := json.Unmarshal(raw, p.Conversation); err != nil {
			return fmt.Errorf("%s: %w", keyConversation, err)
		}
	}
	p.extra = fields
	return nil
}

func (p Processors) MarshalJSON() ([]byte, error) {
	known := map[string]any{}
	if p.Conversation != nil {
		known[keyConversation] = p.Conversation
	}
	return encodeObject(known, p.extra)
}

type conversationFields struct {
	LogFile      string `json:"conversation-logfile"`
	Model        string `json:"model"`
	OpenAIAPIKey string `json:"openai-api-key"`
}

var conversationKeys = []string{"conversation-logfile", "model", "openai-api-key"}

func (c *ConversationProcessor) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	var f conversationFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	*c = ConversationProcessor{
		LogFile:      f.LogFile,
		Model:        f.Model,
		OpenAIAPIKey: f.OpenAIAPIKey,
		src:          newOrigin(data, fields, conversationKeys),
		was:          f,
		extra:        fields,
	}
	return nil
}

func (c ConversationProcessor) MarshalJSON() ([]byte, error) {
	return c.src.encode([]sectionField{
		{"conversation-logfile", c.LogFile, c.LogFile == c.was.LogFile, c.LogFile == ""},
		{"model", c.Model, c.Model == c.was.Model, c.Model == ""},
		{"openai-api-key", c.OpenAIAPIKey, c.OpenAIAPIKey == c.was.OpenAIAPIKey, c.OpenAIAPIKey == ""},
	}, c.extra)
}

// origin remembers how a decoded section was written so values nobody changed
// are encoded exactly as they were read.
type origin struct {
	raw  json.RawMessage
	keys rawFields
}

// newOrigin moves the typed keys out of fields and records them with a copy
// of the section's bytes.
func newOrigin(data []byte, fields rawFields, typed []string) *origin {
	o := &origin{raw: bytes.Clone(data), keys: rawFields{}}
	for _, k := range typed {
		if v, ok := fields[k]; ok {
			o.keys[k] = v
			delete(fields, k)
		}
	}
	return o
}

type sectionField struct {
	key       string
	value     any
	unchanged bool
	empty     bool
}

// encode writes a typed section. A section built in memory emits every field.
// A decoded section with no changes is returned as read; otherwise unchanged
// keys keep their original encoding and keys it never had stay absent while
// empty.
func (o *origin) encode(fields []sectionField, extra rawFields) ([]byte, error) {
	known := make(map[string]any, len(fields))
	if o == nil {
		for _, f := range fields {
			known[f.key] = f.value
		}
		return encodeObject(known, extra)
	}

	dirty := false
	for _, f := range fields {
		if !f.unchanged {
			dirty = true
		}
	}
	if !dirty {
		return o.raw, nil
	}

	for _, f := range fields {
		raw, had := o.keys[f.key]
		switch {
		case had && f.unchanged:
			known[f.key] = raw
		case !had && f.empty:
		default:
			known[f.key] = f.value
		}
	}
	return encodeObject(known, extra)
}

func decodeObject(data []byte) (rawFields, error) {
	var fields rawFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("expected a JSON object, got null")
	}
	return fields, nil
}

// takeField removes key from fields. A JSON null counts as absent.
func takeField(fields rawFields, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	delete(fields, key)
	if IsNullConfig(raw) {
		return nil, false
	}
	return raw, true
}

func encodeObject(known map[string]any, extra rawFields) ([]byte, error) {
	out := make(map[string]any, len(known)+len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range known {
		out[k] = v
	}
	return json.Marshal(out)
}
