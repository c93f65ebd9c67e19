package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "ingestion-cli",
		Usage:          "Load a CSV dataset from HTTP into HDFS and a Hive table",
		Version:        version,
		DefaultCommand: "run",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load this .env file instead of the ones next to the binary and in the working directory",
			},
			&cli.StringFlag{
				Name:    "history-db",
				Value:   "ingestion-history.db",
				Usage:   "SQLite file recording pipeline runs",
				EnvVars: []string{"INGESTION_HISTORY_DB"},
			},
		},
		Before: loadEnvFiles,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the full pipeline: transfer, create database and table, load, verify",
				Action: runPipeline,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "on-failure",
						Usage: "continue or abort after a failed stage (overrides PIPELINE_ON_FAILURE)",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Exit with status 1 when any stage failed",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Draw a transfer progress bar on stderr",
					},
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Do not record the run in the history database",
					},
				},
			},
			{
				Name:   "ddl",
				Usage:  "Print the CREATE DATABASE and CREATE TABLE statements without connecting",
				Action: printDDL,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Write the statements to this file instead of stdout",
					},
				},
			},
			{
				Name:   "verify",
				Usage:  "Only query and print the first rows of the target table",
				Action: verifyTable,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Exit with status 1 when the query failed",
					},
				},
			},
			{
				Name:  "history",
				Usage: "List recorded runs, or view details of a specific run",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "run",
						Usage: "Show details for a specific run ID",
					},
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "Maximum number of runs to list (0 = all)",
					},
				},
				Action: showHistory,
			},
			{
				Name:   "manifest",
				Usage:  "Render a Kubernetes Job (or CronJob) running this CLI and register it in kustomization.yaml",
				Action: writeManifest,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "image",
						Usage:    "Container image of ingestion-cli",
						EnvVars:  []string{"INGESTION_IMAGE"},
						Required: true,
					},
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "Cron schedule; renders a CronJob instead of a Job",
					},
					&cli.StringFlag{
						Name:    "secret",
						Usage:   "Secret holding HIVE_PASSWORD",
						EnvVars: []string{"HIVE_PASSWORD_SECRET"},
					},
					&cli.StringFlag{
						Name:    "namespace",
						Usage:   "Namespace set on a new kustomization.yaml",
						EnvVars: []string{"INGESTION_NAMESPACE"},
					},
					&cli.StringFlag{
						Name:    "environment",
						Value:   "development",
						Usage:   "Environment folder: production | homolog | development",
						EnvVars: []string{"INGESTION_ENV"},
					},
					&cli.StringFlag{
						Name:  "out",
						Value: "./out",
						Usage: "apps/ folder inside the GitOps checkout, or a local output folder",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Only log what would be written",
					},
				},
			},
		},
	}
}
