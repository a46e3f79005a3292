package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Document is the structured output of one completion, keyed by top-level
// section name. Sections decode independently so one malformed section does
// not spoil the others.
type Document map[string]json.RawMessage

// Has reports whether the document carries a non-null section named key.
func (d Document) Has(key string) bool {
	raw, ok := d[key]
	return ok && len(raw) > 0 && string(raw) != "null"
}

// Decode unmarshals the section named key into out. It reports false when
// the section is missing or does not fit out.
func (d Document) Decode(key string, out any) bool {
	if !d.Has(key) {
		return false
	}
	return json.Unmarshal(d[key], out) == nil
}

// String returns the section named key as a trimmed string, or "".
func (d Document) String(key string) string {
	var s string
	if !d.Decode(key, &s) {
		return ""
	}
	return strings.TrimSpace(s)
}

// Strings returns the section named key as a list of non-empty strings.
func (d Document) Strings(key string) []string {
	var values []string
	if !d.Decode(key, &values) {
		return nil
	}
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Adapter turns free text into a structured Document by calling a
// completion service with an instruction.
type Adapter struct {
	client  Client
	tier    ModelTier
	timeout time.Duration
	log     zerolog.Logger
}

// AdapterOption customizes an Adapter.
type AdapterOption func(*Adapter)

// WithTier selects the model tier used for completions.
func WithTier(tier ModelTier) AdapterOption {
	return func(a *Adapter) { a.tier = tier }
}

// WithTimeout bounds every completion call.
func WithTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(log zerolog.Logger) AdapterOption {
	return func(a *Adapter) { a.log = log }
}

// NewAdapter creates an adapter over client.
func NewAdapter(client Client, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		client:  client,
		tier:    TierStandard,
		timeout: DefaultTimeout,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Complete sends instruction and input to the completion service and parses
// the reply. A reply that is not a JSON object yields an empty Document and
// no error. Transport failures and timeouts are returned as errors.
func (a *Adapter) Complete(ctx context.Context, instruction, input string) (Document, error) {
	if a == nil || a.client == nil {
		return nil, errors.New("llm adapter has no client")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	raw, err := a.client.GenerateJSON(ctx, BuildPrompt(instruction, input), a.tier)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("completion timed out after %s: %w", a.timeout, ctxErr)
		}
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	doc := ParseDocument(raw)
	a.log.Debug().
		Dur("elapsed", time.Since(start)).
		Int("sections", len(doc)).
		Str("tier", string(a.tier)).
		Msg("completion finished")
	if len(doc) == 0 {
		a.log.Warn().Int("raw_len", len(raw)).Msg("completion returned no usable JSON object")
	}
	return doc, nil
}

// ParseDocument extracts the outermost JSON object from raw model output.
// Anything unparsable becomes an empty Document.
func ParseDocument(raw string) Document {
	cleaned := CleanJSONBlock(raw)
	obj := extractJSONObject(cleaned)
	if obj == "" {
		return Document{}
	}

	var doc Document
	if err := json.Unmarshal([]byte(obj), &doc); err != nil || doc == nil {
		return Document{}
	}
	return doc
}

// BuildPrompt joins the instruction with the delimited input text.
func BuildPrompt(instruction, input string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(instruction))
	sb.WriteString("\n\n")
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(input)
	sb.WriteString("\n\"\"\"\n")
	return sb.String()
}
