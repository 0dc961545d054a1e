package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mfdesk/mfgateway/config"
	"github.com/mfdesk/mfgateway/engine"
	"github.com/mfdesk/mfgateway/log"
	"github.com/mfdesk/mfgateway/schememaster"
	"github.com/urfave/cli/v2"
)

const appName = "mfgateway"

func main() {
	app := &cli.App{
		Name:  appName,
		Usage: "NSE mutual fund broker gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to an optional yaml or json configuration file",
				EnvVars: []string{"MFGATEWAY_CONFIG"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the REST gateway",
				Action: serve,
			},
			{
				Name:   "token",
				Usage:  "print a freshly generated broker Authorization header",
				Action: printToken,
			},
			{
				Name:  "schememaster",
				Usage: "manage downloaded scheme master snapshots",
				Subcommands: []*cli.Command{
					{
						Name:  "download",
						Usage: "download today's scheme master unless it is already cached",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "force", Usage: "download even when today's file exists"},
						},
						Action: downloadSnapshot,
					},
					{
						Name:   "list",
						Usage:  "list downloaded snapshots, newest first",
						Action: listSnapshots,
					},
					{
						Name:  "json",
						Usage: "print snapshot rows as JSON",
						Flags: []cli.Flag{
							fileFlag,
							&cli.IntFlag{Name: "limit", Usage: "maximum rows to print"},
						},
						Action: snapshotJSON,
					},
					{
						Name:   "schemes",
						Usage:  "print the purchasable scheme index",
						Flags:  []cli.Flag{fileFlag},
						Action: snapshotSchemes,
					},
					{
						Name:   "raw",
						Usage:  "print a snapshot verbatim",
						Flags:  []cli.Flag{fileFlag},
						Action: snapshotRaw,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var fileFlag = &cli.StringFlag{
	Name:  "file",
	Usage: "snapshot file name, defaults to the latest",
}

func loadEngine(c *cli.Context) (*engine.Engine, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err = log.Setup(cfg.Log, os.Stderr); err != nil {
		return nil, err
	}
	return engine.New(cfg)
}

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err = log.Setup(cfg.Log, nil); err != nil {
		return err
	}
	e, err := engine.New(cfg)
	if err != nil {
		return err
	}
	return e.Run(c.Context)
}

func printToken(c *cli.Context) error {
	e, err := loadEngine(c)
	if err != nil {
		return err
	}
	header, err := e.Broker.Cipher().AuthorizationHeader()
	if err != nil {
		return err
	}
	fmt.Println(header)
	return nil
}

func downloadSnapshot(c *cli.Context) error {
	e, err := loadEngine(c)
	if err != nil {
		return err
	}
	s, err := e.SchemeMaster.EnsureSnapshot(c.Context, c.Bool("force"))
	if err != nil {
		return err
	}
	return printJSON(s)
}

func listSnapshots(c *cli.Context) error {
	e, err := loadEngine(c)
	if err != nil {
		return err
	}
	snapshots, err := e.SchemeMaster.ListSnapshots()
	if err != nil {
		return err
	}
	for i := range snapshots {
		fmt.Printf("%s\t%d\t%s\n",
			snapshots[i].FileName,
			snapshots[i].Size,
			snapshots[i].Created.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// snapshotPath resolves the --file flag, falling back to the latest snapshot
func snapshotPath(c *cli.Context, s *schememaster.Store) (string, error) {
	return s.ResolvePath(c.String("file"))
}

func snapshotJSON(c *cli.Context) error {
	e, err := loadEngine(c)
	if err != nil {
		return err
	}
	path, err := snapshotPath(c, e.SchemeMaster)
	if err != nil {
		return err
	}
	result, err := e.SchemeMaster.ParseSnapshot(path, c.Int("limit"))
	if err != nil {
		return err
	}
	return printJSON(result)
}

func snapshotSchemes(c *cli.Context) error {
	e, err := loadEngine(c)
	if err != nil {
		return err
	}
	path, err := snapshotPath(c, e.SchemeMaster)
	if err != nil {
		return err
	}
	schemes, err := e.SchemeMaster.PurchasableSchemeIndex(path)
	if err != nil {
		return err
	}
	return printJSON(schemes)
}

func snapshotRaw(c *cli.Context) error {
	e, err := loadEngine(c)
	if err != nil {
		return err
	}
	path, err := snapshotPath(c, e.SchemeMaster)
	if err != nil {
		return err
	}
	f, err := e.SchemeMaster.OpenSnapshot(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(os.Stdout, f)
	return err
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
