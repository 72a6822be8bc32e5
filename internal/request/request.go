// Package request materializes user source as an executable unit the session
// channel can trigger.
//
// A request is split across two pieces because the channel can only paste
// text into an interactive prompt: the (possibly large) source body lives in
// a file, and the pasted loader is a single line that includes the file and
// writes the captured result to the output sentinel. Pasting the body itself
// character-by-character would be slow and would spray interpreter echo.
package request

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/mattjoyce/blockeval/internal/session"
	"github.com/mattjoyce/blockeval/internal/workdir"
)

// ResultMode selects what an evaluation captures.
type ResultMode string

const (
	// ModeValue captures the final expression's value.
	ModeValue ResultMode = "value"
	// ModeOutput captures everything printed to standard output.
	ModeOutput ResultMode = "output"
)

// Request is one evaluation unit, materialized on disk and ready to dispatch.
type Request struct {
	ID          string
	SessionKey  string
	Mode        ResultMode
	SourceText  string
	SourcePath  string
	OutputPath  string
	Fingerprint string
	CreatedAt   time.Time

	tag string
}

// Builder writes wrapped source files via a workdir manager.
type Builder struct {
	files *workdir.Manager
}

// NewBuilder creates a builder allocating request files through files.
func NewBuilder(files *workdir.Manager) *Builder {
	return &Builder{files: files}
}

// Build wraps source for the given mode and session scope, writes it to a
// fresh source file, and reserves the output sentinel path.
func (b *Builder) Build(ctx context.Context, source string, mode ResultMode, sessionKey string) (*Request, error) {
	if mode != ModeValue && mode != ModeOutput {
		return nil, fmt.Errorf("unknown result mode %q", mode)
	}
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("source is empty")
	}
	if sessionKey == "" {
		sessionKey = session.NoSession
	}

	id := uuid.NewString()
	files, err := b.files.Allocate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("allocate request files: %w", err)
	}

	r := &Request{
		ID:          id,
		SessionKey:  sessionKey,
		Mode:        mode,
		SourceText:  source,
		SourcePath:  files.SourcePath,
		OutputPath:  files.OutputPath,
		Fingerprint: fingerprint(source),
		CreatedAt:   time.Now().UTC(),
		tag:         strings.ReplaceAll(id, "-", ""),
	}

	if err := os.WriteFile(r.SourcePath, []byte(r.wrappedSource()), 0o644); err != nil {
		return nil, fmt.Errorf("write wrapped source: %w", err)
	}
	return r, nil
}

// Isolated reports whether the request runs outside any persistent session.
func (r *Request) Isolated() bool {
	return r.SessionKey == session.NoSession
}

// ResultVar is the interpreter-side binding the captured result lands in.
func (r *Request) ResultVar() string {
	return "_blockeval_result_" + r.tag
}

// wrappedSource is the content of the source file the loader includes.
//
// Value mode assigns the body's final value to the result binding; a begin
// block keeps session-scope assignments global, a let block isolates them.
// Output mode leaves the body bare (or let-wrapped when isolated) and defers
// stdout capture to the loader, because a top-level try block would demote
// the body's assignments to locals.
func (r *Request) wrappedSource() string {
	body := strings.TrimRight(r.SourceText, "\n")
	switch {
	case r.Mode == ModeValue && r.Isolated():
		return r.ResultVar() + " = let\n" + body + "\nend\n"
	case r.Mode == ModeValue:
		return r.ResultVar() + " = begin\n" + body + "\nend\n"
	case r.Isolated():
		return "let\n" + body + "\nend\n"
	default:
		return body + "\n"
	}
}

// LoaderText is the single line pasted into the session: include the source
// file, capture per mode, write the result binding verbatim to the sentinel.
// The trailing semicolon mutes the interpreter's echo of the whole statement.
func (r *Request) LoaderText() string {
	src := julString(r.SourcePath)
	out := julString(r.OutputPath)

	if r.Mode == ModeValue {
		return fmt.Sprintf(
			"%s = include(%s); open(io -> show(io, MIME(\"text/plain\"), %s), %s, \"w\");",
			r.ResultVar(), src, r.ResultVar(), out)
	}

	capPath := julString(r.SourcePath + ".cap")
	tag := r.tag
	return fmt.Sprintf(
		"_blockeval_cap_%s = open(%s, \"w\"); _blockeval_saved_%s = stdout; redirect_stdout(_blockeval_cap_%s); "+
			"try include(%s) finally redirect_stdout(_blockeval_saved_%s); close(_blockeval_cap_%s) end; "+
			"%s = read(%s, String); rm(%s; force = true); open(io -> print(io, %s), %s, \"w\");",
		tag, capPath, tag, tag,
		src, tag, tag,
		r.ResultVar(), capPath, capPath, r.ResultVar(), out)
}

// DebugBanner renders the request's parameters and generated source as a
// comment block, for the optional debug echo through the channel.
func (r *Request) DebugBanner() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# blockeval request %s\n", r.ID)
	fmt.Fprintf(&sb, "# session=%s mode=%s\n", r.SessionKey, r.Mode)
	fmt.Fprintf(&sb, "# src=%s\n", r.SourcePath)
	fmt.Fprintf(&sb, "# out=%s\n", r.OutputPath)
	for _, line := range strings.Split(strings.TrimRight(r.SourceText, "\n"), "\n") {
		sb.WriteString("# | ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// julString renders s as a raw Julia string literal.
func julString(s string) string {
	return `raw"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func fingerprint(source string) string {
	sum := blake3.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
