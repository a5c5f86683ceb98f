package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/njchilds90/mathflow"
)

func (a *app) sidesCmd(op, short string) *cobra.Command {
	return &cobra.Command{
		Use:   op + " EXPR",
		Short: short + "; an equation is transformed side by side",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, mathflow.Request{Op: op, Expression: args[0]})
		},
	}
}

func (a *app) diffCmd() *cobra.Command {
	var (
		variable string
		order    int
		wrt      []string
	)
	cmd := &cobra.Command{
		Use:   "diff EXPR",
		Short: "differentiate; --wrt x,y gives a mixed partial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(wrt) > 0 {
				return a.run(cmd, mathflow.Request{Op: "partial", Expression: args[0], Variables: wrt})
			}
			return a.run(cmd, mathflow.Request{Op: "differentiate", Expression: args[0], Variable: variable, Order: order})
		},
	}
	cmd.Flags().StringVarP(&variable, "var", "v", "x", "variable of differentiation")
	cmd.Flags().IntVarP(&order, "order", "n", 1, "order of the derivative")
	cmd.Flags().StringSliceVar(&wrt, "wrt", nil, "variables of a mixed partial derivative, innermost first")
	return cmd
}

func (a *app) integrateCmd() *cobra.Command {
	var (
		variable string
		from, to string
		over     []string
	)
	cmd := &cobra.Command{
		Use:   "integrate EXPR",
		Short: "integrate; --from/--to for a definite integral, --over x:0:1 (repeated) for an iterated one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := mathflow.Request{Expression: args[0], Variable: variable}
			switch {
			case len(over) > 0:
				if len(over) > 3 {
					return fmt.Errorf("--over takes at most 3 variables, got %d", len(over))
				}
				vars, limits := make([]string, len(over)), make([][]string, len(over))
				for i, o := range over {
					parts := strings.SplitN(o, ":", 3)
					if len(parts) != 3 {
						return fmt.Errorf("--over %q: want VAR:LOWER:UPPER", o)
					}
					vars[i], limits[i] = parts[0], parts[1:]
				}
				switch len(over) {
				case 1:
					req.Op, req.Variable, req.Lower, req.Upper = "definite_integral", vars[0], limits[0][0], limits[0][1]
				case 2:
					req.Op, req.Variables, req.Limits = "double_integral", vars, limits
				case 3:
					req.Op, req.Variables, req.Limits = "triple_integral", vars, limits
				}
			case from != "" || to != "":
				if from == "" || to == "" {
					return fmt.Errorf("--from and --to must be given together")
				}
				req.Op, req.Lower, req.Upper = "definite_integral", from, to
			default:
				req.Op = "integrate"
			}
			return a.run(cmd, req)
		},
	}
	cmd.Flags().StringVarP(&variable, "var", "v", "x", "variable of integration")
	cmd.Flags().StringVar(&from, "from", "", "lower limit")
	cmd.Flags().StringVar(&to, "to", "", "upper limit")
	cmd.Flags().StringArrayVar(&over, "over", nil, "VAR:LOWER:UPPER, innermost first")
	return cmd
}

func (a *app) limitCmd() *cobra.Command {
	var variable, point, dir string
	cmd := &cobra.Command{
		Use:   "limit EXPR",
		Short: "limit as the variable approaches --to (default \\infty)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if point == `\infty` || point == "oo" {
				return a.run(cmd, mathflow.Request{Op: "limit_infinity", Expression: args[0], Variable: variable})
			}
			return a.run(cmd, mathflow.Request{Op: "limit", Expression: args[0], Variable: variable, Point: point, Direction: dir})
		},
	}
	cmd.Flags().StringVarP(&variable, "var", "v", "x", "variable")
	cmd.Flags().StringVar(&point, "to", `\infty`, "limit point")
	cmd.Flags().StringVar(&dir, "dir", "", "direction: +, - or empty for two-sided")
	return cmd
}

func (a *app) seriesCmd(op string) *cobra.Command {
	var variable, start, end string
	cmd := &cobra.Command{
		Use:   op + " EXPR",
		Short: op + " over --var from --from to --to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, mathflow.Request{Op: op, Expression: args[0], Variable: variable, Start: start, End: end})
		},
	}
	cmd.Flags().StringVarP(&variable, "var", "v", "n", "index variable")
	cmd.Flags().StringVar(&start, "from", "1", "first index")
	cmd.Flags().StringVar(&end, "to", "", "last index; may be \\infty")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) taylorCmd() *cobra.Command {
	var (
		variable, point string
		order           int
		remainder       bool
	)
	cmd := &cobra.Command{
		Use:   "taylor EXPR",
		Short: "Taylor polynomial with --order terms about --at",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, mathflow.Request{Op: "taylor", Expression: args[0], Variable: variable,
				Point: point, Order: order, Remainder: remainder})
		},
	}
	cmd.Flags().StringVarP(&variable, "var", "v", "x", "variable")
	cmd.Flags().StringVar(&point, "at", "0", "expansion point")
	cmd.Flags().IntVarP(&order, "order", "n", 6, "number of terms")
	cmd.Flags().BoolVar(&remainder, "remainder", false, "append the O(...) term")
	return cmd
}

func (a *app) scalarFieldCmd(use, op, short string) *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   use + " EXPR",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, mathflow.Request{Op: op, Expression: args[0], Variables: vars})
		},
	}
	cmd.Flags().StringSliceVar(&vars, "vars", []string{"x", "y", "z"}, "coordinate variables")
	return cmd
}

func (a *app) vectorFieldCmd(use, op, short string) *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   use + " COMPONENT...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, mathflow.Request{Op: op, Components: args, Variables: vars})
		},
	}
	cmd.Flags().StringSliceVar(&vars, "vars", []string{"x", "y", "z"}, "coordinate variables")
	return cmd
}
