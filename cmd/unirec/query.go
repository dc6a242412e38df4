package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/university-records/internal/service"
	appErrors "github.com/noah-isme/university-records/pkg/errors"
)

func (c *cli) queryCommand() *cobra.Command {
	var params service.QueryParams

	cmd := &cobra.Command{
		Use:   "query <1..12|all>",
		Short: "Run a numbered query",
		Long:  "Run one of the numbered queries, or all of them with every id set to 1.\n\n" + queryList(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "all" {
				return c.runAllQueries(cmd)
			}
			number, err := strconv.Atoi(args[0])
			if err != nil {
				return usageErr("query must be a number from 1 to %d or \"all\"", len(service.Queries))
			}
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			result, err := a.queries.Run(cmd.Context(), number, params)
			if err != nil {
				return err
			}
			return c.write(result.Dataset)
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&params.StudentID, "student-id", 0, "student parameter")
	flags.Int64Var(&params.SubjectID, "subject-id", 0, "subject parameter")
	flags.Int64Var(&params.GroupID, "group-id", 0, "group parameter")
	flags.Int64Var(&params.TeacherID, "teacher-id", 0, "teacher parameter")
	return cmd
}

// runAllQueries runs every query in order. Queries without data print a
// notice and the run continues.
func (c *cli) runAllQueries(cmd *cobra.Command) error {
	if c.output != "" {
		return usageErr("--output cannot be combined with query all")
	}
	a, err := c.services(cmd.Context())
	if err != nil {
		return err
	}
	for i, def := range service.Queries {
		if i > 0 {
			fmt.Fprintln(c.env.stdout)
		}
		result, err := a.queries.Run(cmd.Context(), def.Number, service.DemoParams)
		if appErrors.IsCode(err, appErrors.ErrNoData.Code) {
			fmt.Fprintf(c.env.stdout, "%d. %s\n%s\n", def.Number, def.Title, appErrors.FromError(err).Message)
			continue
		}
		if err != nil {
			return err
		}
		if err := c.write(result.Dataset); err != nil {
			return err
		}
	}
	return nil
}

func queryList() string {
	var b strings.Builder
	for _, def := range service.Queries {
		fmt.Fprintf(&b, "  %2d  %s", def.Number, def.Title)
		if len(def.Params) > 0 {
			flags := make([]string, 0, len(def.Params))
			for _, p := range def.Params {
				flags = append(flags, "--"+strings.ReplaceAll(p, "_", "-"))
			}
			fmt.Fprintf(&b, " (%s)", strings.Join(flags, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
