package cli

import (
	"fmt"
	"os"

	"github.com/jaa/songdl/internal/exitcode"
	"github.com/spf13/cobra"
)

func Execute(build BuildInfo, streams IOStreams) int {
	if wd, err := os.Getwd(); err == nil {
		if envErr := loadDotEnvFiles(wd, os.Environ(), os.Setenv); envErr != nil {
			fmt.Fprintln(streams.ErrOut, "WARN:", envErr)
		}
	}

	app := &AppContext{Build: build, IO: streams}
	root := newRootCommand(app)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(streams.ErrOut, "ERROR:", err)
		return mapExitCode(err)
	}
	return exitcode.Success
}

func newRootCommand(app *AppContext) *cobra.Command {
	showVersion := false
	opts := downloadOptions{}

	root := &cobra.Command{
		Use:   "songdl [query...]",
		Short: "Download songs from YouTube as MP3",
		Long: "songdl searches YouTube for each query, downloads the top result's audio and converts it to MP3.\n" +
			"Queries come from arguments, a text file (one per line) or a YouTube playlist.",
		Example: `  songdl "Queen Bohemian Rhapsody" "Daft Punk One More Time"
  songdl -f songs.txt -o ~/Music/new
  songdl -p "https://www.youtube.com/playlist?list=PL..." --clean`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion(app)
				return nil
			}
			if len(args) == 0 && opts.File == "" && opts.Playlist == "" {
				return cmd.Help()
			}
			opts.CleanSet = cmd.Flags().Changed("clean")
			return runDownload(cmd.Context(), app, args, opts)
		},
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	defaultConfigPath := os.Getenv("SONGDL_CONFIG")
	root.PersistentFlags().StringVarP(&app.Opts.ConfigPath, "config", "c", defaultConfigPath, "Path to config file")
	root.PersistentFlags().BoolVar(&app.Opts.JSON, "json", false, "Emit newline-delimited JSON events")
	root.PersistentFlags().BoolVarP(&app.Opts.Quiet, "quiet", "q", false, "Only print saved files and errors")
	root.PersistentFlags().BoolVarP(&app.Opts.Verbose, "verbose", "v", false, "Increase diagnostic output")
	root.PersistentFlags().BoolVar(&app.Opts.NoColor, "no-color", false, "Disable color output")
	root.PersistentFlags().BoolVar(&app.Opts.NoInput, "no-input", false, "Disable interactive prompts")
	root.PersistentFlags().BoolVarP(&app.Opts.DryRun, "dry-run", "n", false, "Resolve queries without downloading")
	root.PersistentFlags().StringVar(&app.Opts.EventLog, "event-log", os.Getenv("SONGDL_EVENT_LOG"), "Append JSON events to this file as well")
	root.Flags().BoolVar(&showVersion, "version", false, "Print version info")

	root.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "Output folder (default from config, \"downloads\")")
	root.Flags().StringVarP(&opts.File, "file", "f", "", "Read queries from a text file, one per line (\"-\" for stdin)")
	root.Flags().StringVarP(&opts.Playlist, "playlist", "p", "", "Read queries from the titles of a YouTube playlist")
	root.Flags().BoolVar(&opts.Clean, "clean", false, "Delete every file in the output folder before downloading")

	root.SetOut(app.IO.Out)
	root.SetErr(app.IO.ErrOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExitCode(exitcode.InvalidUsage, err)
	})

	root.AddCommand(newInitCommand(app))
	root.AddCommand(newValidateCommand(app))
	root.AddCommand(newDoctorCommand(app))
	root.AddCommand(newVersionCommand(app))

	return root
}
