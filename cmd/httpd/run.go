package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sudip-ibm/httpd/internal/config"
	"github.com/sudip-ibm/httpd/internal/httperror"
	"github.com/sudip-ibm/httpd/internal/logging"
	"github.com/sudip-ibm/httpd/internal/pipeline"
	"github.com/sudip-ibm/httpd/internal/staticfiles"
)

func newRunCmd() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load a site configuration and serve requests through the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(configPath, debug)
		},
	}
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "c", "httpd.yaml", "path to the site configuration file")
	flags.BoolVar(&debug, "debug", false, "enable human-readable debug logging")
	cmd.Flags().AddFlagSet(flags)
	return cmd
}

func runServer(configPath string, debug bool) error {
	logger, err := logging.New(debug)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	doc, err := config.Load(configPath)
	if err != nil {
		return err
	}
	root, locTree, dirTree, fileTree, ifTree, err := doc.Build()
	if err != nil {
		return fmt.Errorf("building section trees: %w", err)
	}

	p := pipeline.NewPipeline(doc.DocumentRoot, logger)
	p.LocationTree = locTree
	p.DirectoryTree = dirTree
	p.FileTree = fileTree
	p.IfTree = ifTree

	responder := staticfiles.New(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		handle(p, responder, logger, root, w, req)
	})

	listen := doc.Listen
	if listen == "" {
		listen = ":8080"
	}
	logger.Info("listening", zap.String("addr", listen))
	return http.ListenAndServe(listen, mux)
}

func handle(p *pipeline.Pipeline, responder *staticfiles.Responder, logger *zap.Logger, root *pipeline.PerDirConfig, w http.ResponseWriter, req *http.Request) {
	r := pipeline.NewRequest(req.Method, req.URL.RequestURI(), req.Header.Clone(), req.RemoteAddr)
	r.PerDirConfig = root

	status, err := p.Process(r)
	if err != nil {
		logger.Info("request denied", zap.Int("status", status), zap.String("code", httperror.CodeOf(err)))
		http.Error(w, http.StatusText(status), status)
		return
	}

	if err := responder.Serve(w, req, r); err != nil {
		status := httperror.StatusOf(err)
		http.Error(w, http.StatusText(status), status)
	}
}
