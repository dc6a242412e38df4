package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/university-records/internal/service"
)

func (c *cli) seedCommand() *cobra.Command {
	var opts service.SeedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace all records with generated data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			defaults := c.cfg.Seed
			if !flags.Changed("students") {
				opts.Students = defaults.Students
			}
			if !flags.Changed("groups") {
				opts.Groups = defaults.Groups
			}
			if !flags.Changed("teachers") {
				opts.Teachers = defaults.Teachers
			}
			if !flags.Changed("subjects") {
				opts.Subjects = defaults.Subjects
			}
			if !flags.Changed("max-grades") {
				opts.MaxGrades = defaults.MaxGrades
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			report, err := a.seeder.Seed(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.env.stdout, "Seeded %d groups, %d teachers, %d subjects, %d students and %d grades\n",
				report.Groups, report.Teachers, report.Subjects, report.Students, report.Grades)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.Students, "students", 0, "number of students (default SEED_STUDENTS)")
	flags.IntVar(&opts.Groups, "groups", 0, "number of groups (default SEED_GROUPS)")
	flags.IntVar(&opts.Teachers, "teachers", 0, "number of teachers (default SEED_TEACHERS)")
	flags.IntVar(&opts.Subjects, "subjects", 0, "number of subjects (default SEED_SUBJECTS)")
	flags.IntVar(&opts.MaxGrades, "max-grades", 0, "most grades per student (default SEED_MAX_GRADES)")
	return cmd
}
