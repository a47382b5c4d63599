package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/hospitalcms/backend/internal/contentapi"
	"github.com/hospitalcms/backend/internal/editor"
	"github.com/hospitalcms/backend/internal/layout"
	"github.com/hospitalcms/backend/internal/session"
	"github.com/hospitalcms/backend/internal/snapshot"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// sectionFile is the YAML document written by pull. Version is the section version it was pulled at.
type sectionFile struct {
	Version           string `yaml:"version,omitempty"`
	snapshot.Snapshot `yaml:",inline"`
}

// sectionFlags are shared by pull, diff and push
type sectionFlags struct {
	layout string
	file   string
}

func (f *sectionFlags) register(cmd *cobra.Command, needsFile bool) {
	cmd.Flags().StringVarP(&f.layout, "layout", "l", "", `Section layout (see "cmsctl layouts"); speciality pages use "speciality:<title>"`)
	cmd.MarkFlagRequired("layout")
	if needsFile {
		cmd.Flags().StringVarP(&f.file, "file", "f", "", "Edited snapshot file")
		cmd.MarkFlagRequired("file")
	} else {
		cmd.Flags().StringVarP(&f.file, "output", "o", "", "Write the snapshot to a file instead of stdout")
	}
}

func newPullCmd(a *app) *cobra.Command {
	flags := &sectionFlags{}
	cmd := &cobra.Command{
		Use:   "pull <sectionID>",
		Short: "Print the editable snapshot of a section as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.openSession(cmd, args[0], flags.layout)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(sectionFile{Version: sess.Version(), Snapshot: sess.Working()})
			if err != nil {
				return fmt.Errorf("failed to encode snapshot: %w", err)
			}
			if flags.file != "" {
				return os.WriteFile(flags.file, data, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newDiffCmd(a *app) *cobra.Command {
	flags := &sectionFlags{}
	cmd := &cobra.Command{
		Use:   "diff <sectionID>",
		Short: "Show the update an edited snapshot would submit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.editedSession(cmd, args[0], flags)
			out := cmd.OutOrStdout()
			if errors.Is(err, contentapi.ErrConflict) {
				fmt.Fprintf(out, "Warning: %v\n", err)
			} else if err != nil {
				return err
			}

			res, err := editor.NewSaver(nil, true, a.logger).Preview(sess)
			if err != nil {
				return err
			}

			if res.Empty() {
				fmt.Fprintln(out, "No changes.")
			} else {
				fmt.Fprintf(out, "%d change(s):\n", len(res.Changes))
				writeLines(out, "~", res.Changes)
			}
			data, err := json.MarshalIndent(res.Update, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode update: %w", err)
			}
			fmt.Fprintf(out, "%s\n", data)
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newPushCmd(a *app) *cobra.Command {
	flags := &sectionFlags{}
	var skipEmpty bool
	cmd := &cobra.Command{
		Use:   "push <sectionID>",
		Short: "Submit the changes of an edited snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.editedSession(cmd, args[0], flags)
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}

			submitEmpty := a.submitEmpty
			if skipEmpty {
				submitEmpty = false
			}

			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			outcome, err := editor.NewSaver(client, submitEmpty, a.logger).Save(ctx, sess)
			out := cmd.OutOrStdout()
			if outcome != nil {
				writeLines(out, "~", outcome.Changes)
			}
			if err != nil {
				return err
			}
			if outcome.Skipped {
				fmt.Fprintln(out, "No changes, nothing submitted.")
				return nil
			}
			message := outcome.Message
			if message == "" {
				message = "Section saved."
			}
			fmt.Fprintln(out, message)
			if outcome.ReloadError != "" {
				fmt.Fprintf(out, "Warning: %s; pull the section again before the next push.\n", outcome.ReloadError)
			}
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&skipEmpty, "skip-empty", false, "Do not submit when nothing changed")
	return cmd
}

// openSession fetches a section and loads it into a new session
func (a *app) openSession(cmd *cobra.Command, rawID, layoutName string) (*session.Session, error) {
	sectionID, err := strconv.Atoi(rawID)
	if err != nil || sectionID <= 0 {
		return nil, fmt.Errorf("invalid section id %q", rawID)
	}
	l, err := layout.Lookup(layoutName)
	if err != nil {
		return nil, err
	}
	client, err := a.client()
	if err != nil {
		return nil, err
	}

	ctx, cancel := a.withTimeout(cmd)
	defer cancel()

	section, err := client.GetSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	sess := session.New("", l, session.Section{ID: sectionID, Name: section.Name, Title: section.Title})
	sess.Load(section.Blocks, section.Version)
	return sess, nil
}

// editedSession opens the section and replaces its working copy with the snapshot file.
// When the section moved past the version the file was pulled at, the session is returned
// together with an error wrapping contentapi.ErrConflict.
func (a *app) editedSession(cmd *cobra.Command, rawID string, flags *sectionFlags) (*session.Session, error) {
	edited, err := readSectionFile(flags.file)
	if err != nil {
		return nil, err
	}
	sess, err := a.openSession(cmd, rawID, flags.layout)
	if err != nil {
		return nil, err
	}
	if err := sess.Replace(edited.Snapshot); err != nil {
		return nil, fmt.Errorf("%s: %w", flags.file, err)
	}
	if edited.Version != "" && edited.Version != sess.Version() {
		return sess, fmt.Errorf("%s was pulled at version %s, section is now at %s; pull it again: %w",
			flags.file, edited.Version, sess.Version(), contentapi.ErrConflict)
	}
	return sess, nil
}

func readSectionFile(path string) (sectionFile, error) {
	var f sectionFile
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, nil
}
