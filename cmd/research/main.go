package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"researchkit/internal/analysis"
	"researchkit/internal/assembly"
	"researchkit/internal/config"
	"researchkit/internal/exa"
	"researchkit/internal/history"
	"researchkit/internal/llm"
	"researchkit/internal/logging"
	"researchkit/internal/pageagent"
	"researchkit/internal/reportdb"
	"researchkit/internal/server"
	"researchkit/internal/setup"
	"researchkit/internal/version"
	"researchkit/internal/youtube"
)

const (
	defaultBrowseURL  = "https://docs.browser-use.com/"
	defaultBrowseTask = "Get the whole documentation from BrowserUse and put it into a Markdown file format"
)

var (
	queryFlag     = &cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "search term (prompted when omitted)"}
	outputDirFlag = &cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "directory for reports (default from config: results)"}
	maxFlag       = &cli.IntFlag{Name: "max-results", Usage: "videos to fetch (default from config: 20)"}
)

func main() {
	load := config.AppConfigLoader()

	// withDeps loads configuration and the report index around a command action.
	withDeps := func(run func(ctx context.Context, c *cli.Command, d *deps) error) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			d, err := loadDeps(load)
			if err != nil {
				return err
			}
			defer d.Close()
			return run(ctx, c, d)
		}
	}

	youtubeCommands := []*cli.Command{
		{
			Name:  "scrape",
			Usage: "Search YouTube and save titles, URLs and view counts",
			Flags: []cli.Flag{queryFlag, outputDirFlag, maxFlag},
			Action: withDeps(func(ctx context.Context, c *cli.Command, d *deps) error {
				term, err := resolveQuery(ctx, c, "Enter the term to search for in video titles: ")
				if err != nil {
					return err
				}
				p := d.pipeline(c)
				if p.Searcher, err = d.searcher(ctx); err != nil {
					return err
				}
				path, videos, err := p.Scrape(ctx, term)
				if err != nil {
					return err
				}
				fmt.Printf("Saved %d videos to %s\n", len(videos), path)
				return nil
			}),
		},
		{
			Name:  "channel",
			Usage: "Save the latest uploads of a channel, usable by the later steps",
			Flags: []cli.Flag{outputDirFlag, maxFlag},
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "channel-id", UsageText: "UC..."},
			},
			Action: withDeps(func(ctx context.Context, c *cli.Command, d *deps) error {
				id := strings.TrimSpace(c.StringArg("channel-id"))
				if id == "" {
					return fmt.Errorf("usage: research yt channel <channel-id>")
				}
				p := d.pipeline(c)
				p.Searcher = youtube.NewChannelFeed(nil)
				path, videos, err := p.Scrape(ctx, id)
				if err != nil {
					return err
				}
				fmt.Printf("Saved %d videos to %s\n", len(videos), path)
				fmt.Printf("Use %q as the search term for the transcripts and summarize steps.\n", id)
				return nil
			}),
		},
		{
			Name:  "transcripts",
			Usage: "Fetch transcripts for the videos saved by scrape",
			Flags: []cli.Flag{queryFlag, outputDirFlag},
			Action: withDeps(func(ctx context.Context, c *cli.Command, d *deps) error {
				term, err := resolveQuery(ctx, c, "Enter the search term used in the scrape step: ")
				if err != nil {
					return err
				}
				path, err := d.pipeline(c).Transcripts(ctx, term)
				if err != nil {
					return err
				}
				fmt.Printf("Transcripts saved to %s\n", path)
				return nil
			}),
		},
		{
			Name:  "summarize",
			Usage: "Summarize the saved transcripts with Gemini",
			Flags: []cli.Flag{queryFlag, outputDirFlag},
			Action: withDeps(func(ctx context.Context, c *cli.Command, d *deps) error {
				term, err := resolveQuery(ctx, c, "Enter the search term used in previous steps: ")
				if err != nil {
					return err
				}
				p := d.pipeline(c)
				if p.Generator, err = d.gemini(); err != nil {
					return err
				}
				path, err := p.Summarize(ctx, term)
				if err != nil {
					return err
				}
				fmt.Printf("\nSummaries have been saved to: %s\n", path)
				return nil
			}),
		},
		{
			Name:  "workflow",
			Usage: "Run scrape, transcripts and summarize in one go",
			Flags: []cli.Flag{queryFlag, outputDirFlag, maxFlag},
			Action: withDeps(func(ctx context.Context, c *cli.Command, d *deps) error {
				term, err := resolveQuery(ctx, c, "Enter the search term for YouTube videos: ")
				if err != nil {
					return err
				}
				p := d.pipeline(c)
				if p.Searcher, err = d.searcher(ctx); err != nil {
					return err
				}
				if p.Generator, err = d.gemini(); err != nil {
					return err
				}
				_, err = p.Workflow(ctx, term)
				return err
			}),
		},
		{
			Name:  "analyze",
			Usage: "Analyze a plain transcript text file",
			Flags: []cli.Flag{outputDirFlag},
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "file", UsageText: "transcript.txt"},
			},
			Action: withDeps(func(ctx context.Context, c *cli.Command, d *deps) error {
				file := c.StringArg("file")
				if strings.TrimSpace(file) == "" {
					return fmt.Errorf("usage: research yt analyze <transcript file>")
				}
				if err := d.cfg.RequireGemini(); err != nil {
					return err
				}
				fmt.Printf("Analyzing transcript file: %s\n", file)
				path, err := analysis.AnalyzeFile(ctx, llm.NewAnalysisGemini(d.cfg.Gemini), file, d.outputDir(c))
				if err != nil {
					return err
				}
				d.recorder().Record(ctx, reportdb.Report{Kind: reportdb.KindAnalysis, Query: file, Path: path, Items: 1})
				fmt.Printf("Analysis saved to: %s\n", path)
				return nil
			}),
		},
		{
			Name:  "assembly",
			Usage: "Transcribe a video's audio with AssemblyAI speaker labels",
			Flags: []cli.Flag{
				outputDirFlag,
				&cli.BoolFlag{Name: "chapters", Usage: "include the auto chapters section"},
			},
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "url", UsageText: "YouTube video URL"},
			},
			Action: withDeps(func(ctx context.Context, c *cli.Command, d *deps) error {
				url := strings.TrimSpace(c.StringArg("url"))
				if url == "" {
					return fmt.Errorf("usage: research yt assembly <YouTube Video URL>")
				}
				if err := d.cfg.RequireAssemblyAI(); err != nil {
					return err
				}
				client := assembly.NewClient(d.cfg.AssemblyAI.APIKey, d.cfg.AssemblyAI.BaseURL)
				client.Progress = os.Stderr
				client.Logger = d.logger
				job := &assembly.Job{
					Client:       client,
					Recorder:     d.recorder(),
					OutputDir:    d.outputDir(c),
					PollInterval: time.Duration(d.cfg.AssemblyAI.PollSeconds) * time.Second,
					Chapters:     c.Bool("chapters"),
					Out:          os.Stdout,
				}
				path, err := job.Run(ctx, url)
				if err != nil {
					return err
				}
				fmt.Printf("Transcript saved to %s\n", path)
				return nil
			}),
		},
	}

	exaCommands := []*cli.Command{
		{
			Name:  "search",
			Usage: "Search the web with Exa and save the results",
			Flags: []cli.Flag{
				queryFlag, outputDirFlag,
				&cli.IntFlag{Name: "num-results", Aliases: []string{"n"}, Usage: "number of results (default from config: 10)"},
				&cli.StringSliceFlag{Name: "include-domains", Aliases: []string{"i"}, Usage: "domains to include"},
				&cli.StringSliceFlag{Name: "exclude-domains", Aliases: []string{"e"}, Usage: "domains to exclude"},
				&cli.StringFlag{Name: "start-date", Usage: "start date for published content (YYYY-MM-DD)"},
				&cli.StringFlag{Name: "end-date", Usage: "end date for published content (YYYY-MM-DD)"},
				&cli.StringFlag{Name: "format", Value: "markdown", Usage: "output format: markdown or json",
					Validator: func(s string) error {
						if s != "markdown" && s != "json" {
							return fmt.Errorf("format must be markdown or json")
						}
						return nil
					}},
				&cli.BoolFlag{Name: "autoprompt", Usage: "use Exa's autoprompt feature"},
			},
			Action: withDeps(func(ctx context.Context, c *cli.Command, d *deps) error {
				client, err := d.exaClient()
				if err != nil {
					return err
				}
				query, err := resolveQuery(ctx, c, "Enter your search query: ")
				if err != nil {
					return err
				}
				n := d.cfg.Exa.NumResults
				if v := c.Int("num-results"); v > 0 {
					n = v
				}
				r := &exa.Runner{Searcher: client, Recorder: d.recorder(), Logger: d.logger, OutputDir: d.outputDir(c), Out: os.Stdout}
				_, err = r.Search(ctx, exa.SearchParams{
					Query:              query,
					NumResults:         n,
					IncludeDomains:     c.StringSlice("include-domains"),
					ExcludeDomains:     c.StringSlice("exclude-domains"),
					StartPublishedDate: optionalDate(c, "start-date"),
					EndPublishedDate:   optionalDate(c, "end-date"),
					UseAutoprompt:      c.Bool("autoprompt"),
				}, c.String("format"))
				return err
			}),
		},
		{
			Name:  "tweets",
			Usage: "Collect recent tweets into a Markdown report",
			Flags: []cli.Flag{
				outputDirFlag,
				&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Value: exa.TweetQuery, Usage: "tweet search query"},
				&cli.IntFlag{Name: "num-results", Aliases: []string{"n"}, Value: 10, Usage: "number of tweets"},
				&cli.IntFlag{Name: "days", Value: 5, Usage: "how many days back to search"},
			},
			Action: withDeps(func(ctx context.Context, c *cli.Command, d *deps) error {
				client, err := d.exaClient()
				if err != nil {
					return err
				}
				r := &exa.Runner{Searcher: client, Recorder: d.recorder(), Logger: d.logger, OutputDir: d.outputDir(c), Out: os.Stdout}
				_, err = r.Tweets(ctx, c.String("query"), c.Int("num-results"), c.Int("days"))
				return err
			}),
		},
	}

	app := &cli.Command{
		Name:    "research",
		Usage:   "Research automation: YouTube, Exa, AssemblyAI and Gemini reports",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "debug logging"},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logging.Setup(os.Stderr, c.Bool("verbose"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:     "yt",
				Usage:    "YouTube search, transcripts and summaries",
				Commands: youtubeCommands,
			},
			{
				Name:     "exa",
				Usage:    "Exa web and tweet search",
				Commands: exaCommands,
			},
			{
				Name:  "browse",
				Usage: "Read a site and extract a list of posts with Gemini",
				Flags: []cli.Flag{
					outputDirFlag,
					&cli.StringFlag{Name: "url", Value: defaultBrowseURL, Usage: "start URL"},
					&cli.IntFlag{Name: "max-pages", Value: 5, Usage: "pages to read, start page included"},
				},
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "task", UsageText: "what to extract"},
				},
				Action: withDeps(func(ctx context.Context, c *cli.Command, d *deps) error {
					gen, err := d.gemini()
					if err != nil {
						return err
					}
					task := strings.TrimSpace(c.StringArg("task"))
					if task == "" {
						task = defaultBrowseTask
					}
					agent := pageagent.New(gen, d.logger)
					agent.MaxPages = c.Int("max-pages")
					fmt.Printf("Browsing %s ...\n", c.String("url"))
					res, err := agent.Run(ctx, task, c.String("url"))
					if err != nil {
						return err
					}
					path, err := pageagent.Save(ctx, d.outputDir(c), res, d.recorder(), time.Now())
					if err != nil {
						return err
					}
					fmt.Printf("Read %d pages. Saved to: %s\n", len(res.Pages), path)
					return nil
				}),
			},
			{
				Name:  "history",
				Usage: "List generated reports",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Usage: "filter by kind (yt-videos, yt-summaries, exa-search, ...)"},
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of reports to show"},
					&cli.BoolFlag{Name: "tui", Usage: "browse reports interactively"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := load()
					if err != nil {
						return err
					}
					if c.Bool("tui") {
						return history.Browse(ctx, os.Stdout, cfg.DatabasePath, c.String("kind"), c.Int("limit"))
					}
					return history.Run(ctx, os.Stdout, cfg.DatabasePath, c.String("kind"), c.Int("limit"))
				},
			},
			{
				Name:  "server",
				Usage: "Run MCP server on stdio",
				Action: withDeps(func(ctx context.Context, c *cli.Command, d *deps) error {
					tools := &server.Tools{DBPath: d.cfg.DatabasePath, Transcripts: d.transcriber()}
					if client, err := d.exaClient(); err == nil {
						tools.Web = client
					}
					if s, err := d.searcher(ctx); err == nil {
						tools.Videos = s
					}
					return server.Run(ctx, tools)
				}),
			},
			{
				Name:  "setup",
				Usage: "Setup ResearchKit's configuration",
				Action: func(ctx context.Context, c *cli.Command) error {
					return setup.Run(ctx)
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
