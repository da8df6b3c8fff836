package dump_tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/guils/pkg/config"
	"github.com/walteh/guils/pkg/debug"
	"github.com/walteh/guils/pkg/lexer"
	"github.com/walteh/guils/pkg/position"
	"github.com/walteh/guils/pkg/semtok"
	"go.uber.org/multierr"
	"gitlab.com/tozd/go/errors"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

type Handler struct {
	dir    string
	format string

	fs  afero.Fs
	out io.Writer
}

func NewDumpTokensCommand() *cobra.Command {
	me := &Handler{}

	cmd := &cobra.Command{
		Use:   "dump-tokens <glob>...",
		Short: "print the semantic tokens the server would send for each matching file",
		Args:  cobra.MinimumNArgs(1),
	}

	cmd.Flags().StringVar(&me.dir, "dir", ".", "directory the globs are relative to")
	cmd.Flags().StringVar(&me.format, "format", FormatJSON, "output format, json or text")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromCommand(cmd)
		if err != nil {
			return err
		}
		level, err := cfg.Level()
		if err != nil {
			return err
		}

		ctx := debug.NewConsoleLogger(cmd.ErrOrStderr(), level, true).WithContext(cmd.Context())

		me.fs = afero.NewBasePathFs(afero.NewOsFs(), me.dir)
		me.out = cmd.OutOrStdout()

		return me.Run(ctx, args)
	}

	return cmd
}

// FileTokens is one line of json output.
type FileTokens struct {
	File string   `json:"file"`
	Data []uint32 `json:"data"`
}

// Run prints the tokens of every file matched by patterns. A file that fails to lex is reported
// and skipped, the others are still printed.
func (me *Handler) Run(ctx context.Context, patterns []string) error {
	if me.format != FormatJSON && me.format != FormatText {
		return errors.Errorf("unknown format %q", me.format)
	}

	files, errs := me.expand(patterns)

	if me.format == FormatText {
		fmt.Fprintf(me.out, "# legend: %v\n", semtok.Legend())
	}

	for _, file := range files {
		if err := me.dump(ctx, file); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func (me *Handler) expand(patterns []string) ([]string, error) {
	fsys := afero.NewIOFS(me.fs)

	var files []string
	var errs error
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			errs = multierr.Append(errs, errors.Errorf("expanding %q: %w", pattern, err))
			continue
		}
		if len(matches) == 0 {
			errs = multierr.Append(errs, errors.Errorf("no files match %q", pattern))
			continue
		}
		files = append(files, matches...)
	}

	slices.Sort(files)
	return slices.Compact(files), errs
}

func (me *Handler) dump(ctx context.Context, file string) error {
	content, err := afero.ReadFile(me.fs, file)
	if err != nil {
		return errors.Errorf("reading %s: %w", file, err)
	}

	text := string(content)

	tokens, err := lexer.Classify(ctx, text)
	if err != nil {
		return errors.Errorf("lexing %s: %w", file, err)
	}

	encoded := semtok.Encode(ctx, position.NewBuffer(text), tokens)

	zerolog.Ctx(ctx).Debug().Str("file", file).Int("tokens", len(encoded)).Msg("encoded file")

	switch me.format {
	case FormatText:
		legend := semtok.Legend()
		for _, tok := range semtok.Decode(encoded) {
			fmt.Fprintf(me.out, "%s:%d:%d\t%d\t%s\n", file, tok.Line+1, tok.Character+1, tok.Length, legend[tok.TokenType])
		}
	default:
		if err := json.NewEncoder(me.out).Encode(FileTokens{File: file, Data: semtok.Flatten(encoded)}); err != nil {
			return errors.Errorf("writing tokens of %s: %w", file, err)
		}
	}

	return nil
}
