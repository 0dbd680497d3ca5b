package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/schedpdf/core"
	"github.com/gaurav-prasanna/schedpdf/core/dates"
	"github.com/gaurav-prasanna/schedpdf/core/normalize"
	"github.com/gaurav-prasanna/schedpdf/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixture.yaml>",
	Short: "Load a project and its schedule versions from a YAML fixture",
	Long: `Seed creates the fixture's project (or reuses the one with the same project
number) and saves each listed schedule as the next version.

Fixture:
  project:
    project_number: 1024
    project_name: 中央区オフィスビル新築工事
  schedules:
    - items:
        - process_name: 基礎工事
          planned_start: 2025-01-15
          planned_end: 2025/02/28
          status: 完了`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

// seedFixture is the YAML layout read by seed. Dates and statuses stay loose
// here and are parsed the same way extracted cells are.
type seedFixture struct {
	Project struct {
		Number   int    `yaml:"project_number"`
		Name     string `yaml:"project_name"`
		Location string `yaml:"construction_location"`
		Company  string `yaml:"construction_company"`
	} `yaml:"project"`
	Schedules []struct {
		Items []seedItem `yaml:"items"`
	} `yaml:"schedules"`
}

type seedItem struct {
	ProcessName  string `yaml:"process_name"`
	PlannedStart any    `yaml:"planned_start"`
	PlannedEnd   any    `yaml:"planned_end"`
	ActualStart  any    `yaml:"actual_start"`
	ActualEnd    any    `yaml:"actual_end"`
	Assignee     string `yaml:"assignee"`
	Status       string `yaml:"status"`
	Remarks      string `yaml:"remarks"`
}

func parseFixture(r io.Reader) (*seedFixture, error) {
	var f seedFixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding fixture: %w", err)
	}
	if f.Project.Name == "" {
		return nil, errors.New("fixture: project.project_name is required")
	}
	return &f, nil
}

func (f *seedFixture) info() core.ProjectInfo {
	return core.ProjectInfo{
		ProjectNumber:        f.Project.Number,
		ProjectName:          f.Project.Name,
		ConstructionLocation: f.Project.Location,
		ConstructionCompany:  f.Project.Company,
	}
}

// item converts a fixture row to the schedule item at index. Unparseable
// dates become empty and unknown statuses not_started.
func (s seedItem) item(index int) (core.ScheduleItem, error) {
	if s.ProcessName == "" {
		return core.ScheduleItem{}, fmt.Errorf("item %d: process_name is required", index)
	}
	date := func(v any) *dates.Date {
		d, _ := dates.ParseValue(v)
		return d
	}
	return core.ScheduleItem{
		ProcessName:  s.ProcessName,
		PlannedStart: date(s.PlannedStart),
		PlannedEnd:   date(s.PlannedEnd),
		ActualStart:  date(s.ActualStart),
		ActualEnd:    date(s.ActualEnd),
		Assignee:     s.Assignee,
		Status:       normalize.Status(s.Status),
		Remarks:      s.Remarks,
		OrderIndex:   index,
	}, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	fixture, err := parseFixture(file)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	project, err := st.CreateProject(ctx, fixture.info())
	if errors.Is(err, store.ErrDuplicateProject) {
		project, err = st.ProjectByNumber(ctx, fixture.Project.Number)
		if err == nil {
			logger.Info("reusing existing project", "id", project.ID, "number", project.Info.ProjectNumber)
		}
	}
	if err != nil {
		return err
	}

	for _, sch := range fixture.Schedules {
		items := make([]core.ScheduleItem, 0, len(sch.Items))
		for i, it := range sch.Items {
			item, err := it.item(i)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		doc, err := st.SaveSchedule(ctx, project.ID, items)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "✓ %s v%d (%d items): %s\n",
			project.Info.ProjectName, doc.Version, len(doc.Items), doc.ScheduleID)
	}
	return nil
}
