package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iden3/circom-witnesscalc-go/pkg/witnesscalc"
	"github.com/iden3/circom-witnesscalc-go/pkg/witnesscalc/logging"
)

func newCalcCmd(c *cli) *cobra.Command {
	var inputsPath, graphPath, outPath string

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate a witness and write it in wtns format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.calc(cmd, inputsPath, graphPath, outPath)
		},
	}
	cmd.Flags().StringVar(&inputsPath, "inputs", "", "circuit inputs as JSON")
	cmd.Flags().StringVar(&graphPath, "graph", "", "compiled circuit graph")
	cmd.Flags().StringVar(&outPath, "out", "", "witness output file")
	_ = cmd.MarkFlagRequired("inputs")
	_ = cmd.MarkFlagRequired("graph")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (c *cli) calc(cmd *cobra.Command, inputsPath, graphPath, outPath string) (err error) {
	ctx := cmd.Context()

	inputs, err := os.ReadFile(inputsPath)
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}
	defer witnesscalc.ZeroizeBytes(inputs)

	graph, err := os.ReadFile(graphPath)
	if err != nil {
		return fmt.Errorf("read graph: %w", err)
	}

	reg := prometheus.NewRegistry()
	calc, err := witnesscalc.Open(ctx, c.cfg.Calculator(),
		witnesscalc.WithLogger(logging.NewZap(c.logger)),
		witnesscalc.WithRegisterer(reg),
	)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := calc.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
		if c.cfg.Metrics.Textfile == "" {
			return
		}
		if werr := prometheus.WriteToTextfile(c.cfg.Metrics.Textfile, reg); werr != nil {
			c.logger.Warn("metrics textfile not written", zap.String("path", c.cfg.Metrics.Textfile), zap.Error(werr))
		}
	}()

	witness, err := calc.CalculateWitness(ctx, string(inputs), graph)
	if err != nil {
		var unknown *witnesscalc.UnknownStatusError
		if errors.As(err, &unknown) {
			c.logger.Error("calculator returned an unknown status", zap.Int("code", unknown.Code))
		}
		return err
	}
	n := len(witness)
	if err := writeWitness(outPath, witness); err != nil {
		return err
	}
	c.logger.Info("witness written", zap.String("path", outPath), zap.Int("bytes", n))
	return nil
}

// writeWitness stores witness with owner-only permissions and wipes it,
// whether or not the write succeeded.
func writeWitness(path string, witness []byte) error {
	defer witnesscalc.ZeroizeBytes(witness)
	if err := os.WriteFile(path, witness, 0o600); err != nil {
		return fmt.Errorf("write witness: %w", err)
	}
	return nil
}
