package commands

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/prima/internal/cli/output"
	"github.com/leapstack-labs/prima/internal/state"
)

// SessionInfo describes one upload session for the list command.
type SessionInfo struct {
	ID         string       `json:"id"`
	Filename   string       `json:"filename,omitempty"`
	SampleRows int          `json:"sample_rows"`
	Bytes      int64        `json:"bytes"` // size of the original upload
	Modified   time.Time    `json:"modified"`
	Expired    bool         `json:"expired"`
	LastRun    *LastRunInfo `json:"last_run,omitempty"`
}

// LastRunInfo summarizes the most recent preview of a session.
type LastRunInfo struct {
	Applied   int       `json:"applied"`
	Skipped   int       `json:"skipped"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOutput is the JSON output for the list command.
type ListOutput struct {
	Sessions []SessionInfo `json:"sessions"`
	Summary  ListSummary   `json:"summary"`
}

// ListSummary counts sessions.
type ListSummary struct {
	Total   int `json:"total"`
	Expired int `json:"expired"`
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upload sessions and their last preview",
		Long: `List the upload sessions in the upload directory, newest first, with the
original filename and size, sample size and the outcome of the last preview.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List sessions (auto-detect output format)
  prima list

  # List sessions as JSON
  prima list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := buildListOutput(cmd, cmdCtx)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("Sessions (%d total, %d expired)", out.Summary.Total, out.Summary.Expired))
	rows := make([][]string, len(out.Sessions))
	for i, s := range out.Sessions {
		last := "never"
		if s.LastRun != nil {
			last = fmt.Sprintf("%d applied, %d skipped", s.LastRun.Applied, s.LastRun.Skipped)
			if s.LastRun.Error != "" {
				last = "failed: " + s.LastRun.Error
			}
		}
		modified := s.Modified.Local().Format(time.DateTime)
		if s.Expired {
			modified += " (expired)"
		}
		rows[i] = []string{s.ID, s.Filename, strconv.FormatInt(s.Bytes, 10), strconv.Itoa(s.SampleRows), modified, last}
	}
	r.Table([]string{"session", "file", "bytes", "sample rows", "modified", "last preview"}, rows)
	return nil
}

func buildListOutput(cmd *cobra.Command, cmdCtx *CommandContext) (*ListOutput, error) {
	ctx := cmd.Context()
	sessions, err := cmdCtx.Uploads.List()
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Modified.After(sessions[j].Modified)
	})

	out := &ListOutput{Sessions: make([]SessionInfo, 0, len(sessions))}
	now := time.Now()
	for _, s := range sessions {
		info := SessionInfo{
			ID:       s.ID,
			Modified: s.Modified,
			Expired:  now.Sub(s.Modified) > cmdCtx.Cfg.Storage.Retention,
		}
		if path, err := cmdCtx.Uploads.OriginalPath(s.ID); err == nil {
			if fi, err := os.Stat(path); err == nil {
				info.Bytes = fi.Size()
			}
		}

		sess, err := cmdCtx.State.GetSession(ctx, s.ID)
		switch {
		case err == nil:
			info.Filename = sess.Filename
			info.SampleRows = sess.SampleRows
		case !errors.Is(err, state.ErrNotFound):
			return nil, err
		}

		runs, err := cmdCtx.State.ListRuns(ctx, s.ID, 1)
		if err != nil {
			return nil, err
		}
		if len(runs) > 0 {
			info.LastRun = &LastRunInfo{
				Applied:   runs[0].Applied,
				Skipped:   runs[0].Skipped,
				Error:     runs[0].Error,
				CreatedAt: runs[0].CreatedAt,
			}
		}

		if info.Expired {
			out.Summary.Expired++
		}
		out.Sessions = append(out.Sessions, info)
	}
	out.Summary.Total = len(out.Sessions)
	return out, nil
}
