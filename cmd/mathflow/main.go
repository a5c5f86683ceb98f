// mathflow evaluates symbolic math operations from the command line.
//
//	mathflow factor 'x^2 - 5x + 6'
//	mathflow diff 'x^3' --order 2
//	mathflow integrate 'x^2' --from 0 --to 1
//	mathflow sum i --var i --from 1 --to n
//	mathflow curl -- -y x 0
//	mathflow batch requests.jsonc
//
// Expressions and results are LaTeX.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/njchilds90/mathflow"
	"github.com/njchilds90/mathflow/config"
	"github.com/njchilds90/mathflow/errs"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand.
type app struct {
	configPath string
	jsonOut    bool

	cfg    *config.Config
	engine *mathflow.Engine
	stdout io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout}
	root := &cobra.Command{
		Use:           "mathflow",
		Short:         "transform LaTeX math expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			logger, err := cfg.Log.NewLogger(stderr)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.engine = mathflow.New(cfg.EngineOptions(logger))
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML or JSONC config file (default: $"+config.EnvVar+")")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print the full JSON response")

	root.AddCommand(
		a.sidesCmd("factor", "factor a polynomial or rational expression"),
		a.sidesCmd("expand", "multiply out products and powers"),
		a.sidesCmd("simplify", "rewrite to a simpler equivalent form"),
		a.diffCmd(),
		a.integrateCmd(),
		a.limitCmd(),
		a.seriesCmd("sum"),
		a.seriesCmd("product"),
		a.taylorCmd(),
		a.scalarFieldCmd("grad", "gradient", "gradient of a scalar field"),
		a.scalarFieldCmd("laplacian", "laplacian", "Laplacian of a scalar field"),
		a.scalarFieldCmd("hessian", "hessian", "Hessian matrix of a scalar field"),
		a.vectorFieldCmd("div", "divergence", "divergence of a vector field"),
		a.vectorFieldCmd("curl", "curl", "curl of a three-component vector field"),
		a.vectorFieldCmd("jacobian", "jacobian", "Jacobian matrix of a vector field"),
		a.batchCmd(),
		a.opsCmd(),
	)
	return root
}

// run evaluates req and prints the result.
func (a *app) run(cmd *cobra.Command, req mathflow.Request) error {
	if a.jsonOut {
		req.Tree = true
	}
	resp, err := a.engine.Do(cmd.Context(), req)
	if err != nil {
		return describe(err)
	}
	if a.jsonOut {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	_, err = fmt.Fprintln(a.stdout, resp.Result)
	return err
}

// describe prefixes engine errors with their category.
func describe(err error) error {
	if c, ok := errs.CategoryOf(err); ok {
		return fmt.Errorf("%s: %w", c, err)
	}
	return err
}

func (a *app) opsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "list the operations accepted by batch files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, op := range mathflow.Catalog() {
				fmt.Fprintf(a.stdout, "%-18s %s\n", op.Name, op.Description)
			}
			return nil
		},
	}
}
