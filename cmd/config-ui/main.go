package main

import (
	"log"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "config-ui",
		Usage: "edit the ingestion .env and table schema from a browser",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "listen address", EnvVars: []string{"CONFIG_UI_ADDR"}},
			&cli.StringFlag{Name: "env", Value: ".env", Usage: "path of the .env file to edit"},
			&cli.StringFlag{Name: "schema", Value: "config/schema.yaml", Usage: "path of the table schema YAML", EnvVars: []string{"TABLE_SCHEMA_FILE"}},
		},
		Action: func(c *cli.Context) error {
			srv := newServer(c.String("env"), c.String("schema"))
			log.Printf("config-ui listening on http://localhost%s (env: %s, schema: %s)", c.String("addr"), srv.envPath, srv.schemaPath)
			return http.ListenAndServe(c.String("addr"), srv.routes())
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
