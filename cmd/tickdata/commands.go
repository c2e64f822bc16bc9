package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"TickData/internal/calculator"
	"TickData/internal/calendar"
	"TickData/internal/scheduler"
	"TickData/internal/tickfile"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

var commands = []subcommands.Command{
	&assetsCmd{},
	&fetchCmd{},
	&processCmd{},
	&runCmd{},
	&serveCmd{},
	&dumpCmd{},
	&verifyCmd{},
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

type assetsCmd struct {
	all bool
}

func (*assetsCmd) Name() string     { return "assets" }
func (*assetsCmd) Synopsis() string { return "list the configured assets" }
func (*assetsCmd) Usage() string {
	return `tickdata assets [-all]

  Lists the assets to fetch with their precision and pip size. With -all,
  lists the whole catalog.
`
}

func (c *assetsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "List every asset of the catalog.")
}

func (c *assetsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		return fail(err)
	}
	defer a.log.Sync()

	assets := a.assets
	if c.all {
		assets = a.catalog.All()
	}
	for _, as := range assets {
		fmt.Printf("%-7s %d  pip %s  %s\n", as.Symbol(), as.Precision(), as.Format(as.OnePip()), as.Description())
	}
	return subcommands.ExitSuccess
}

type fetchCmd struct{}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download the vendor archives missing on disk" }
func (*fetchCmd) Usage() string {
	return `tickdata fetch

  Downloads every monthly archive of the configured assets, from January of
  first_year_to_fetch to the last complete month, that is not already stored.
`
}
func (*fetchCmd) SetFlags(*flag.FlagSet) {}

func (*fetchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		return fail(err)
	}
	defer a.log.Sync()

	summary, err := a.collector().FetchAll(ctx, a.assets)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("fetched %d archives, %d already on disk\n", len(summary.Fetched), summary.Skipped)
	return subcommands.ExitSuccess
}

type processCmd struct{}

func (*processCmd) Name() string     { return "process" }
func (*processCmd) Synopsis() string { return "build tick files from the stored archives" }
func (*processCmd) Usage() string {
	return `tickdata process

  Purges tick files older than first_year_to_fetch, then reads the stored
  archives of each configured asset and saves one Ticks and one CSV file per
  complete trading session.
`
}
func (*processCmd) SetFlags(*flag.FlagSet) {}

func (*processCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		return fail(err)
	}
	defer a.log.Sync()

	col := a.collector()
	if _, err := col.Purge(); err != nil {
		return fail(err)
	}
	results, err := col.ProcessAll(ctx, a.assets)
	for _, r := range results {
		if r == nil {
			continue
		}
		fmt.Printf("%s: %d archives, %s ticks, %d ignored, %d files\n",
			r.Symbol, r.Archives, humanize.Comma(int64(r.Ticks)), r.Ignored, len(r.Saved))
	}
	if err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "purge, fetch and process once, then report" }
func (*runCmd) Usage() string {
	return `tickdata run

  Runs the scheduled pipeline once: purge, fetch, process. The run is
  recorded and reported like a scheduled one.
`
}
func (*runCmd) SetFlags(*flag.FlagSet) {}

func (*runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		return fail(err)
	}
	defer a.log.Sync()

	rec := a.recorder()
	defer rec.Close()

	sched := scheduler.NewScheduler(ctx, a.collector(), a.assets, a.notifier(), rec, a.log)
	if _, err := sched.RunNow(scheduler.TriggerManual); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type serveCmd struct {
	runOnStart bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the pipeline on the configured cron schedule" }
func (*serveCmd) Usage() string {
	return `tickdata serve [-now]

  Runs the pipeline on schedule.cron until interrupted. When Telegram is
  configured, the bot answers /run, /status and /help.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.runOnStart, "now", os.Getenv("RUN_ON_START") == "true", "Also run once at start.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		return fail(err)
	}
	defer a.log.Sync()

	rec := a.recorder()
	defer rec.Close()

	tn := a.telegram()
	sched := scheduler.NewScheduler(ctx, a.collector(), a.assets, a.notifier(), rec, a.log)
	if err := sched.Register(a.cfg.Schedule.Cron); err != nil {
		return fail(err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		a.log.Info("telegram polling started")
	}

	if c.runOnStart {
		a.log.Info("running pipeline at start")
		go sched.RunNow(scheduler.TriggerManual)
	}

	a.log.Info("tickdata is running", zap.String("cron", a.cfg.Schedule.Cron))
	<-ctx.Done()
	a.log.Info("shutdown signal received, stopping")
	return subcommands.ExitSuccess
}

type dumpCmd struct {
	csv  bool
	head int
	sma  int
}

func (*dumpCmd) Name() string     { return "dump" }
func (*dumpCmd) Synopsis() string { return "print the content of a .ticks file" }
func (*dumpCmd) Usage() string {
	return `tickdata dump [-csv] [-n <count>] [-sma <count>] <file.ticks>...

  Loads each Ticks file and prints a summary, or its ticks in CSV form.
`
}

func (c *dumpCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.csv, "csv", false, "Print the ticks as CSV instead of a summary.")
	f.IntVar(&c.head, "n", 0, "Limit the output to the first n ticks, and list them under the summary.")
	f.IntVar(&c.sma, "sma", 1000, "Tick count of the closing mid average in the summary.")
}

func (c *dumpCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := loadApp()
	if err != nil {
		return fail(err)
	}
	defer a.log.Sync()

	for _, p := range f.Args() {
		tf, err := tickfile.Open(a.cal, a.catalog, p)
		if err != nil {
			return fail(err)
		}
		ticks := tf.Ticks()
		if c.head > 0 && c.head < len(ticks) {
			ticks = ticks[:c.head]
		}
		if c.csv {
			if err := tickfile.WriteCSV(os.Stdout, tf.Asset(), ticks); err != nil {
				return fail(err)
			}
			continue
		}
		fmt.Printf("%s\n  asset    %s (%s)\n  session  %s .. %s\n  ticks    %s\n",
			tf.Name(), tf.Asset().Symbol(), tf.Asset().Description(),
			calendar.Text(tf.MinTickOn()), calendar.Text(tf.MaxTickOn()),
			humanize.Comma(int64(tf.Len())))
		if st, err := calculator.Summarize(tf.Asset(), tf.Ticks(), c.sma); err == nil {
			as := tf.Asset()
			fmt.Printf("  first    %s\n  last     %s\n", calendar.Text(st.First), calendar.Text(st.Last))
			fmt.Printf("  mid      open %s  high %s  low %s  close %s (%.0f%% of range)\n",
				as.Format(st.OpenMid), as.Format(st.HighMid), as.Format(st.LowMid), as.Format(st.CloseMid), st.ClosePos*100)
			fmt.Printf("  spread   avg %.1f  max %.1f pips\n", st.AvgSpread, st.MaxSpread)
			if st.SMA > 0 {
				fmt.Printf("  sma(%d)  %s\n", st.SMAPeriod, as.Format(st.SMA))
			}
		}
		if c.head > 0 {
			for _, t := range ticks {
				fmt.Printf("  %s\n", t)
			}
		}
	}
	return subcommands.ExitSuccess
}

type verifyCmd struct{}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "check that every stored .ticks file decodes and round-trips" }
func (*verifyCmd) Usage() string {
	return `tickdata verify [dir]

  Walks dir (default: the Ticks folder under tick_data_path), loads every
  .ticks file, re-encodes it and checks the result decodes to the same ticks.
`
}
func (*verifyCmd) SetFlags(*flag.FlagSet) {}

func (*verifyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		return fail(err)
	}
	defer a.log.Sync()

	root := filepath.Join(a.cfg.TickDataPath, tickfile.HistData.Tag(), tickfile.Ticks.Folder())
	if f.NArg() > 0 {
		root = f.Arg(0)
	}

	var checked, failed int
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), "."+tickfile.Ticks.Extension()) {
			return nil
		}
		checked++
		if err := verifyFile(a, p); err != nil {
			failed++
			a.log.Error("verify failed", zap.String("file", p), zap.Error(err))
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fail(err)
	}

	fmt.Printf("%d files checked, %d failed\n", checked, failed)
	if failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// verifyFile loads p, re-encodes it and checks the copy decodes identically.
func verifyFile(a *app, p string) error {
	tf, err := tickfile.Open(a.cal, a.catalog, p)
	if err != nil {
		return err
	}
	data, err := tf.Bytes()
	if err != nil {
		return err
	}
	cp, err := tickfile.New(a.cal, tf.Source(), tf.Asset(), tf.BaseDate())
	if err != nil {
		return err
	}
	if err := cp.LoadBytes(data); err != nil {
		return err
	}
	if cp.Len() != tf.Len() {
		return fmt.Errorf("round trip kept %d of %d ticks", cp.Len(), tf.Len())
	}
	for i, t := range tf.All() {
		if !t.Equal(cp.At(i)) {
			return fmt.Errorf("tick %d changed: %s became %s", i, t, cp.At(i))
		}
	}
	return nil
}
