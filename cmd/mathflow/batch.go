package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/mathflow"
	"github.com/njchilds90/mathflow/errs"
)

// batchResult is one line of batch output, in input order.
type batchResult struct {
	Index    int                `json:"index"`
	Op       string             `json:"op"`
	Response *mathflow.Response `json:"response,omitempty"`
	Error    *batchError        `json:"error,omitempty"`
}

type batchError struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

func (a *app) batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch FILE",
		Short: "evaluate a JSONC array of requests concurrently; - reads stdin",
		Long: `Batch reads a JSON array of requests (comments and trailing commas allowed),
each shaped like the HTTP request body plus an "op" field:

	[
		{"op": "factor", "latex": "x^2 - 5x + 6"},
		// Comments are fine.
		{"op": "sum", "latex": "i", "variable": "i", "start": "1", "end": "10"},
	]

Requests run concurrently, bounded by engine.parallelism. Results are printed
in input order. A failing request does not stop the others, but the command
exits non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			reqs, err := parseBatch(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			results := make([]batchResult, len(reqs))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(a.cfg.Engine.Parallelism)
			for i, req := range reqs {
				g.Go(func() error {
					results[i] = batchResult{Index: i, Op: req.Op}
					resp, err := a.engine.Do(ctx, req)
					if err != nil {
						c, _ := errs.CategoryOf(err)
						results[i].Error = &batchError{Category: string(c), Message: err.Error()}
						return nil
					}
					results[i].Response = resp
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if r.Error != nil {
					failed++
				}
				if err := a.printResult(r); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d requests failed", failed, len(results))
			}
			return nil
		},
	}
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

func parseBatch(data []byte) ([]mathflow.Request, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	var reqs []mathflow.Request
	if err := dec.Decode(&reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (a *app) printResult(r batchResult) error {
	if a.jsonOut {
		return json.NewEncoder(a.stdout).Encode(r)
	}
	if r.Error != nil {
		_, err := fmt.Fprintf(a.stdout, "%d\t%s\terror: %s: %s\n", r.Index, r.Op, r.Error.Category, r.Error.Message)
		return err
	}
	_, err := fmt.Fprintf(a.stdout, "%d\t%s\t%s\n", r.Index, r.Op, r.Response.Result)
	return err
}
