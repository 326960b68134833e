// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/convert-engine/internal/pipeline"
	"github.com/pdiddy/convert-engine/internal/worker"
	"github.com/pdiddy/convert-engine/pkg/types"
)

// workerCmd is the child side of isolated execution. The parent pool
// re-invokes this binary with the worker subcommand and speaks the
// line-delimited JSON protocol over stdin/stdout; it is not meant to be
// run by hand.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Hidden: true,
	Short:  "Run one conversion from a parent process",
	RunE:   runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	p := buildPipeline(engineConfig())

	child := &worker.Child{
		In:      os.Stdin,
		Out:     os.Stdout,
		Convert: childConvert(p),
	}
	return child.Run(context.Background())
}

// childConvert adapts the pipeline to the worker protocol: payload
// reconstruction in, progress events out.
func childConvert(p *pipeline.Pipeline) worker.ConvertFunc {
	return func(ctx context.Context, req worker.ConvertData, progress func(int)) (*types.Result, error) {
		data, err := worker.DecodePayload(req.Item.Content)
		if err != nil {
			return nil, err
		}

		opts := req.Options
		if opts.FileType == "" {
			opts.FileType = req.Item.Type
		}
		if opts.Name == "" {
			opts.Name = req.Item.Name
		}
		if req.Item.APIKey != "" {
			opts.OCRAPIKey = req.Item.APIKey
		}

		job := p.Submit(ctx, pipeline.Source{Data: data}, opts)
		for ev := range job.Events() {
			progress(ev.Percent)
		}
		<-job.Done()

		res := job.Result()
		if res == nil {
			return nil, fmt.Errorf("conversion %s was cancelled", req.ID)
		}
		return res, nil
	}
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
