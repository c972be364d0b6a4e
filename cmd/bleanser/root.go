package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	isatty "github.com/mattn/go-isatty"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	progress "gopkg.in/cheggaaa/pb.v1"

	"github.com/cyraxred/bleanser/apply"
	"github.com/cyraxred/bleanser/cleaner"
	"github.com/cyraxred/bleanser/comparator"
	"github.com/cyraxred/bleanser/engine"
	"github.com/cyraxred/bleanser/group"
	"github.com/cyraxred/bleanser/internal/corelog"
	"github.com/cyraxred/bleanser/plan"
	"github.com/cyraxred/bleanser/relation"
)

var logger = corelog.NewLogger()

var rootCmd = &cobra.Command{
	Use:   "bleanser [flags] PATH...",
	Short: "Prune redundant chronological snapshots of a dataset.",
	Long: `bleanser walks a chronologically ordered series of backup snapshots of the
same logical dataset, classifies adjacent snapshots as identical, strictly
additive, or genuinely different, and derives a plan that keeps only the
snapshots that witness a real change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoot,
}

func init() {
	flags := rootCmd.Flags()
	flags.Bool("dry", true, "Report the plan only; make no filesystem changes.")
	flags.Bool("remove", false, "Apply the plan by deleting removable snapshots.")
	flags.String("move", "", "Apply the plan by moving removable snapshots into this directory.")
	flags.Int("workers", engine.DefaultWorkers(), "Parallel chunk count (0 forces serial execution).")
	flags.String("glob", "", "When PATH is a directory, only clean files matching this glob.")
	flags.String("format", "lines", fmt.Sprintf("Cleaner to use (%v).", cleaner.Names()))
	flags.Bool("keep-both", false, "Keep both endpoints of each redundancy run instead of only the last.")
	flags.Bool("delete-dominated", false, "Treat strictly-additive snapshots as redundant too.")
	flags.String("noise-pattern", comparator.DefaultNoisePattern, "Line regex ignored when classifying a diff.")
	flags.String("output", "table", "Report rendering: table or yaml.")
	flags.String("config", "", "Path to a YAML config file; flags override its values.")
	flags.Bool("verbose", false, "Enable debug logging.")
}

func runRoot(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	v := viper.New()
	v.SetEnvPrefix("BLEANSER")
	v.AutomaticEnv()
	bindFlags(v, flags)

	if configPath, _ := flags.GetString("config"); configPath != "" {
		expanded, err := homedir.Expand(configPath)
		if err != nil {
			return fmt.Errorf("expanding --config: %w", err)
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", expanded, err)
		}
	}

	logger.Verbose = v.GetBool("verbose")

	inputs, err := resolveInputs(args, v.GetString("glob"))
	if err != nil {
		return err
	}

	cl, err := cleaner.Get(v.GetString("format"))
	if err != nil {
		return err
	}

	noisePattern, err := regexp.Compile(v.GetString("noise-pattern"))
	if err != nil {
		return fmt.Errorf("compiling --noise-pattern: %w", err)
	}
	cmp := comparator.New()
	cmp.NoisePattern = noisePattern

	workDirRoot, err := defaultWorkDirRoot()
	if err != nil {
		return err
	}

	eng := engine.New(cl, cmp, engine.Config{
		Workers:     v.GetInt("workers"),
		WorkDirRoot: workDirRoot,
		Logger:      logger,
	})

	mode, moveDest, err := resolveMode(v)
	if err != nil {
		return err
	}

	report, err := buildReport(cmd, inputs, eng, v.GetBool("delete-dominated"), v.GetBool("keep-both"), mode, moveDest)
	if err != nil {
		return err
	}

	if err := renderReport(cmd, report, v.GetString("output")); err != nil {
		return err
	}

	if mode != plan.Dry {
		result, err := apply.Run(report)
		if err != nil {
			return err
		}
		logger.Infof("applied plan: %d removed, %d moved, %d kept", result.Removed, result.Moved, result.Skipped)
	}
	return nil
}

// bindFlags exposes every declared pflag as a viper key, the
// joshyorko-rcc-style layered-config pattern: a value is resolved from
// flags first, falling back to a config file or its default.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// resolveInputs expands args into a sorted list of snapshot paths: a
// file argument is used as-is, a directory argument is expanded with
// filepath.Glob against globPattern (or every entry, if globPattern is
// empty).
func resolveInputs(args []string, globPattern string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}
		pattern := "*"
		if globPattern != "" {
			pattern = globPattern
		}
		matches, err := filepath.Glob(filepath.Join(arg, pattern))
		if err != nil {
			return nil, fmt.Errorf("expanding glob in %s: %w", arg, err)
		}
		inputs = append(inputs, matches...)
	}
	sort.Strings(inputs)
	return inputs, nil
}

func resolveMode(v *viper.Viper) (plan.Mode, string, error) {
	dry := v.GetBool("dry")
	remove := v.GetBool("remove")
	moveDest := v.GetString("move")

	switch {
	case moveDest != "":
		expanded, err := homedir.Expand(moveDest)
		if err != nil {
			return plan.Dry, "", err
		}
		return plan.ApplyMove, expanded, nil
	case remove:
		return plan.ApplyRemove, "", nil
	case dry:
		return plan.Dry, "", nil
	default:
		return plan.Dry, "", nil
	}
}

// defaultWorkDirRoot returns a process-wide scratch root under the OS
// temp directory.
func defaultWorkDirRoot() (string, error) {
	root := filepath.Join(os.TempDir(), "bleanser")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("creating scratch root %s: %w", root, err)
	}
	return root, nil
}

// buildReport drives the engine's relation stream through the group
// folder and plan builder, showing a progress bar when stdout is a
// terminal.
func buildReport(cmd *cobra.Command, inputs []string, eng *engine.Engine, deleteDominated, keepBoth bool, mode plan.Mode, moveDest string) (plan.Report, error) {
	ctx := cmd.Context()
	out, fatal := eng.Relations(ctx, inputs)

	var bar *progress.ProgressBar
	if isatty.IsTerminal(os.Stdout.Fd()) {
		bar = progress.New(len(inputs))
		bar.ShowPercent = true
		bar.ShowSpeed = false
		bar.SetMaxWidth(80).Start()
		defer bar.Finish()
	}

	var first string
	if len(inputs) > 0 {
		first = inputs[0]
	}

	var relations []relation.Relation
	for rel := range out {
		relations = append(relations, rel)
		if bar != nil {
			bar.Increment()
		}
	}
	if err, ok := <-fatal; ok && err != nil {
		return plan.Report{}, err
	}

	groups, err := group.Fold(first, relations, group.Policy{DeleteDominated: deleteDominated})
	if err != nil {
		return plan.Report{}, err
	}

	instructions := plan.Build(groups, keepBoth, mode, moveDest)
	return plan.NewReport(mode, instructions), nil
}

func renderReport(cmd *cobra.Command, report plan.Report, format string) error {
	switch format {
	case "yaml":
		return report.WriteYAML(cmd.OutOrStdout())
	default:
		return report.WriteTable(cmd.OutOrStdout())
	}
}
