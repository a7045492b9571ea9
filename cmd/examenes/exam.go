package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/uniquindio/examenes/internal/display"
	appI18n "github.com/uniquindio/examenes/internal/i18n"
	"github.com/uniquindio/examenes/internal/model"
)

func examCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exam",
		Short: "Create, update, delete and list exams",
	}
	cmd.AddCommand(examCreateCmd(), examUpdateCmd(), examDeleteCmd(), examPendingCmd())
	return cmd
}

func examCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an exam from a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			exam, err := readDocument(cmd, e.v.GetString("file"))
			if err != nil {
				return err
			}
			resp, err := e.client.Exams().Create(cmd.Context(), exam)
			if err != nil {
				return fmt.Errorf("create exam: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringP("file", "f", "-", "JSON file with the exam (- for stdin)")
	return cmd
}

func examUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update an exam from a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			exam, err := readDocument(cmd, e.v.GetString("file"))
			if err != nil {
				return err
			}
			resp, err := e.client.Exams().Update(cmd.Context(), exam)
			if err != nil {
				return fmt.Errorf("update exam: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringP("file", "f", "-", "JSON file with the exam (- for stdin)")
	return cmd
}

func examDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an exam by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid exam ID %q: %w", args[0], err)
			}

			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			resp, err := e.client.Exams().Delete(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("delete exam %d: %w", id, err)
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func examPendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List the exams the student has not presented yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			exams, err := e.client.Students().ListUnsubmitted(cmd.Context())
			if err != nil {
				return fmt.Errorf("list pending exams: %w", err)
			}
			if e.v.GetBool("json") {
				if exams == nil {
					exams = []model.Document{}
				}
				return writeJSON(cmd.OutOrStdout(), exams)
			}
			ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(e.v.GetString("lang")))
			return writePendingTable(ctx, cmd.OutOrStdout(), exams)
		},
	}
	cmd.Flags().Bool("json", false, "Print the backend response as JSON")
	return cmd
}

func writePendingTable(ctx context.Context, w io.Writer, exams []model.Document) error {
	if len(exams) == 0 {
		_, err := fmt.Fprintln(w, appI18n.T(ctx, "NoPendingExams"))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		appI18n.T(ctx, "ColID"),
		appI18n.T(ctx, "ColName"),
		appI18n.T(ctx, "ColDescription"),
		appI18n.T(ctx, "ColProfessor"),
	)
	for _, exam := range exams {
		id := ""
		if n, ok := exam.Int(model.ExamIDKeys...); ok {
			id = strconv.Itoa(n)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			id,
			display.ShortName(display.Title(exam)),
			display.ShortDescription(display.Description(exam)),
			display.ShortName(display.Professor(exam)),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, appI18n.Tp(ctx, "PendingCount", len(exams)))
	return err
}

// readDocument decodes a JSON object from path, or from the command's stdin when path is "-".
func readDocument(cmd *cobra.Command, path string) (model.Document, error) {
	var r io.Reader
	if path == "" || path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var doc model.Document
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse exam JSON: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parse exam JSON: expected an object")
	}
	return doc, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
